package model

// Book mirrors the 'books' table.  PDFURL is nil when the publisher added
// the book without attaching a file.
type Book struct {
	ID          uint64  `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Year        int     `json:"year"`
	Overview    string  `json:"overview"`
	PDFURL      *string `json:"pdf_url"`
	PublisherID uint64  `json:"publisher_id"`
}
