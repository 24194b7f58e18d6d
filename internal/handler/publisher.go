package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/openshelf/openshelf/internal/middleware"
	"github.com/openshelf/openshelf/internal/queue"
	"github.com/openshelf/openshelf/internal/repository"
	queue_publisher "github.com/openshelf/openshelf/internal/service"
	"github.com/openshelf/openshelf/internal/storage"
)

// PublisherHandler bundles dependencies for publisher-only endpoints.  Every
// route using it sits behind RequireAuth + RequirePublisher.
type PublisherHandler struct {
	Books   *repository.BookRepo
	Uploads *storage.Uploads
}

func NewPublisherHandler(books *repository.BookRepo, uploads *storage.Uploads) *PublisherHandler {
	return &PublisherHandler{Books: books, Uploads: uploads}
}

// AddBook creates a catalog entry from a multipart form, optionally storing
// an attached PDF under the uploads directory.  The extension check runs
// before any row is inserted, so a rejected file never produces a
// half-created book.
func (h *PublisherHandler) AddBook(c echo.Context) error {
	sess, _ := middleware.Current(c)

	title := strings.TrimSpace(c.FormValue("title"))
	author := strings.TrimSpace(c.FormValue("author"))
	description := c.FormValue("description")
	if title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Title is required"})
	}
	year := 0
	if y := strings.TrimSpace(c.FormValue("year")); y != "" {
		n, err := strconv.Atoi(y)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Invalid year"})
		}
		year = n
	}

	var pdfURL *string
	if fh, err := c.FormFile("pdf"); err == nil {
		path, err := h.Uploads.SavePDF("pdf", fh)
		if err != nil {
			if !errors.Is(err, storage.ErrNotPDF) {
				c.Logger().Errorf("add-book: store pdf: %v", err)
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": err.Error()})
		}
		pdfURL = &path
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	bookID, err := h.Books.Create(ctx, title, author, year, description, pdfURL, sess.ID)
	if err != nil {
		c.Logger().Errorf("add-book: insert: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Error adding book"})
	}

	ev := queue.BookPublishedEvent{
		EventID:     uuid.NewString(),
		BookID:      bookID,
		PublisherID: sess.ID,
		Title:       title,
		Author:      author,
		PDFURL:      pdfURL,
		PublishedAt: time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer pubCancel()
		_ = queue_publisher.PublishBookPublished(pubCtx, ev)
	}()

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"bookId":  bookID,
		"message": "Book added successfully",
	})
}

// PublishedBooks lists the caller's catalog.
func (h *PublisherHandler) PublishedBooks(c echo.Context) error {
	sess, _ := middleware.Current(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	books, err := h.Books.ListByPublisher(ctx, sess.ID)
	if err != nil {
		c.Logger().Errorf("published-books: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Error fetching published books"})
	}
	return c.JSON(http.StatusOK, books)
}

// Dashboard returns the caller's aggregate counters.
func (h *PublisherHandler) Dashboard(c echo.Context) error {
	sess, _ := middleware.Current(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	count, err := h.Books.CountByPublisher(ctx, sess.ID)
	if err != nil {
		c.Logger().Errorf("publisher-dashboard: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Error fetching publisher data"})
	}
	return c.JSON(http.StatusOK, echo.Map{"booksCount": count})
}
