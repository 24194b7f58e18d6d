package model

import "time"

// Message is a contact-form submission.  Write-only: rows are inserted and
// never read back through the API.
type Message struct {
	ID          uint64
	Name        string
	Email       string
	Message     string
	SubmittedAt time.Time
}
