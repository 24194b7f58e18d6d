// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

// BookBorrowedEvent is published when a borrow is successfully recorded.
// It carries enough information for downstream consumers to log or notify
// without querying the primary database.
type BookBorrowedEvent struct {
	EventID    string `json:"event_id"`
	UserID     uint64 `json:"user_id"`
	Username   string `json:"username"`
	BookID     uint64 `json:"book_id"`
	Title      string `json:"title"`
	BorrowedAt string `json:"borrowed_at"`
	DueAt      string `json:"due_at"`
}

// BookPublishedEvent is published when a publisher adds a new book.
type BookPublishedEvent struct {
	EventID     string  `json:"event_id"`
	BookID      uint64  `json:"book_id"`
	PublisherID uint64  `json:"publisher_id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	PDFURL      *string `json:"pdf_url,omitempty"`
	PublishedAt string  `json:"published_at"`
}
