package repository

import (
	"context"
	"database/sql"
	"time"
)

// BorrowRepo provides access to the 'borrowed_books' table.  A row means the
// user currently holds the book; returning a book deletes the row.  The
// (user_id, book_id) pair is UNIQUE so a user can never hold the same book
// twice, no matter how many concurrent borrow requests they fire.
type BorrowRepo struct{ DB *sql.DB }

func NewBorrowRepo(db *sql.DB) *BorrowRepo { return &BorrowRepo{DB: db} }

// Borrow records that the user now holds the book.  The due date is fixed at
// fourteen days after the borrow date; both stamps come from the same NOW()
// so the offset is exact.  A duplicate pair maps to ErrAlreadyBorrowed.
func (r *BorrowRepo) Borrow(ctx context.Context, userID, bookID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO borrowed_books (user_id, book_id, borrowed_date, due_date) VALUES (?, ?, NOW(), DATE_ADD(NOW(), INTERVAL 14 DAY))",
		userID, bookID)
	if isDuplicate(err) {
		return ErrAlreadyBorrowed
	}
	return err
}

// Return deletes the user's active borrow record for the book.  Returns
// sql.ErrNoRows when the user does not currently hold the book.
func (r *BorrowRepo) Return(ctx context.Context, userID, bookID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM borrowed_books WHERE user_id=? AND book_id=?", userID, bookID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByUser returns how many books the user currently holds.
func (r *BorrowRepo) CountByUser(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM borrowed_books WHERE user_id=?", userID).Scan(&n)
	return n, err
}

// CountDueSoon returns how many of the user's borrows fall due within the
// next seven days.
func (r *BorrowRepo) CountDueSoon(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM borrowed_books WHERE user_id=? AND due_date BETWEEN NOW() AND DATE_ADD(NOW(), INTERVAL 7 DAY)",
		userID).Scan(&n)
	return n, err
}

// BorrowedBook is a borrow record joined against the book it refers to, as
// shown on the user dashboard.
type BorrowedBook struct {
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	BorrowedDate time.Time `json:"borrowed_date"`
	DueDate      time.Time `json:"due_date"`
}

// RecentByUser returns the user's most recent borrows, newest first.
func (r *BorrowRepo) RecentByUser(ctx context.Context, userID uint64, limit int) ([]BorrowedBook, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT b.title, b.author, bb.borrowed_date, bb.due_date
		 FROM borrowed_books bb
		 JOIN books b ON bb.book_id = b.id
		 WHERE bb.user_id = ?
		 ORDER BY bb.borrowed_date DESC
		 LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []BorrowedBook{}
	for rows.Next() {
		var b BorrowedBook
		if err := rows.Scan(&b.Title, &b.Author, &b.BorrowedDate, &b.DueDate); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
