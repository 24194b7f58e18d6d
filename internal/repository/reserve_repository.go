package repository

import (
	"context"
	"database/sql"
)

// ReserveRepo provides access to the 'reserved_books' table.  Like borrows,
// the (user_id, book_id) pair is UNIQUE and the constraint is the only
// duplicate check.
type ReserveRepo struct{ DB *sql.DB }

func NewReserveRepo(db *sql.DB) *ReserveRepo { return &ReserveRepo{DB: db} }

// Reserve records a reservation for the user.  A duplicate pair maps to
// ErrAlreadyReserved.
func (r *ReserveRepo) Reserve(ctx context.Context, userID, bookID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO reserved_books (user_id, book_id, reserved_date) VALUES (?, ?, NOW())",
		userID, bookID)
	if isDuplicate(err) {
		return ErrAlreadyReserved
	}
	return err
}

// CountByUser returns how many active reservations the user has.
func (r *ReserveRepo) CountByUser(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reserved_books WHERE user_id=?", userID).Scan(&n)
	return n, err
}
