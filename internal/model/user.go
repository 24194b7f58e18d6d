package model

import "time"

// Role is the coarse capability tag carried by every account.  It is a
// closed set: anything outside it is rejected at registration time.
type Role string

const (
	RoleUser      Role = "user"
	RolePublisher Role = "publisher"
)

// ParseRole maps a raw form value onto the closed role set.  An empty value
// defaults to RoleUser; unknown values are rejected.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case "":
		return RoleUser, true
	case RoleUser:
		return RoleUser, true
	case RolePublisher:
		return RolePublisher, true
	}
	return "", false
}

// User mirrors the 'users' table.  Rows are immutable after registration.
type User struct {
	ID           uint64
	Name         string
	Email        string
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}
