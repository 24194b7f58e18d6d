package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// Sentinel errors returned when a unique constraint rejects an insert.  The
// constraints in the schema are the single source of truth for "already
// exists": repositories never pre-check with a separate SELECT, which would
// reintroduce a check-then-act race under concurrent duplicate submissions.
var (
	ErrUserExists      = errors.New("username or email already taken")
	ErrAlreadyBorrowed = errors.New("book already borrowed by this user")
	ErrAlreadyReserved = errors.New("book already reserved by this user")
)

// isDuplicate reports whether err is a MySQL duplicate-entry violation (1062).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
