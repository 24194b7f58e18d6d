package repository

import (
	"context"
	"database/sql"
)

// MessageRepo provides access to the 'messages' table.
type MessageRepo struct{ DB *sql.DB }

func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{DB: db} }

// Insert stores a contact-form submission.  submitted_at is set by the
// database default.
func (r *MessageRepo) Insert(ctx context.Context, name, email, message string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO messages (name, email, message) VALUES (?,?,?)",
		name, email, message)
	return err
}
