package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/openshelf/openshelf/internal/model"
)

// UserRepo provides access to the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user row and returns its ID.  The username and email
// columns are UNIQUE; a duplicate on either maps to ErrUserExists.
func (r *UserRepo) Create(ctx context.Context, name, email, username, passwordHash string, role model.Role) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, username, password_hash, role) VALUES (?,?,?,?,?)",
		name, email, username, passwordHash, string(role))
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrUserExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a user by username.  Returns sql.ErrNoRows when the
// username is unknown; callers must not leak that distinction to clients.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, email, username, password_hash, role FROM users WHERE username=? LIMIT 1",
		username).Scan(&u.ID, &u.Name, &u.Email, &u.Username, &u.PasswordHash, &u.Role)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, email, username, password_hash, role FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Name, &u.Email, &u.Username, &u.PasswordHash, &u.Role)
	return u, err
}
