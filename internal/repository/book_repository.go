package repository

import (
	"context"
	"database/sql"

	"github.com/openshelf/openshelf/internal/model"
)

// BookRepo provides access to the 'books' table.
type BookRepo struct{ DB *sql.DB }

func NewBookRepo(db *sql.DB) *BookRepo { return &BookRepo{DB: db} }

// Search runs a case-insensitive substring match against title and author.
// The result set is capped by limit; an empty query matches everything up to
// the cap.  Always returns a non-nil slice so handlers serialize [] rather
// than null.
func (r *BookRepo) Search(ctx context.Context, query string, limit int) ([]model.Book, error) {
	pattern := "%" + query + "%"
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, title, author, year, overview, pdf_url, publisher_id FROM books WHERE title LIKE ? OR author LIKE ? LIMIT ?",
		pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []model.Book{}
	for rows.Next() {
		var b model.Book
		var pdf sql.NullString
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Year, &b.Overview, &pdf, &b.PublisherID); err != nil {
			return nil, err
		}
		if pdf.Valid {
			b.PDFURL = &pdf.String
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// GetByID fetches a single book.  Returns sql.ErrNoRows when absent.
func (r *BookRepo) GetByID(ctx context.Context, id uint64) (model.Book, error) {
	var b model.Book
	var pdf sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, title, author, year, overview, pdf_url, publisher_id FROM books WHERE id=? LIMIT 1",
		id).Scan(&b.ID, &b.Title, &b.Author, &b.Year, &b.Overview, &pdf, &b.PublisherID)
	if err != nil {
		return model.Book{}, err
	}
	if pdf.Valid {
		b.PDFURL = &pdf.String
	}
	return b, nil
}

// Create inserts a book row on behalf of a publisher and returns the new ID.
// pdfURL may be nil when no file was attached.
func (r *BookRepo) Create(ctx context.Context, title, author string, year int, overview string, pdfURL *string, publisherID uint64) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO books (title, author, year, overview, pdf_url, publisher_id) VALUES (?,?,?,?,?,?)",
		title, author, year, overview, pdfURL, publisherID)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// PublishedBook is the shape returned to publishers listing their catalog.
// The overview column is exposed as "description" in this view.
type PublishedBook struct {
	ID          uint64  `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Year        int     `json:"year"`
	Description string  `json:"description"`
	PDFURL      *string `json:"pdf_url"`
}

// ListByPublisher returns every book created by the given publisher.
func (r *BookRepo) ListByPublisher(ctx context.Context, publisherID uint64) ([]PublishedBook, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, title, author, year, overview, pdf_url FROM books WHERE publisher_id=?",
		publisherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []PublishedBook{}
	for rows.Next() {
		var b PublishedBook
		var pdf sql.NullString
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Year, &b.Description, &pdf); err != nil {
			return nil, err
		}
		if pdf.Valid {
			b.PDFURL = &pdf.String
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// CountByPublisher returns how many books the publisher has added.
func (r *BookRepo) CountByPublisher(ctx context.Context, publisherID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM books WHERE publisher_id=?", publisherID).Scan(&n)
	return n, err
}
