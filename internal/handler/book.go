package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/openshelf/openshelf/internal/middleware"
	"github.com/openshelf/openshelf/internal/queue"
	"github.com/openshelf/openshelf/internal/repository"
	queue_publisher "github.com/openshelf/openshelf/internal/service"
)

// searchLimit caps the public search result set.
const searchLimit = 20

// BookHandler bundles dependencies for search, borrowing and reader stats.
type BookHandler struct {
	Books    *repository.BookRepo
	Borrows  *repository.BorrowRepo
	Reserves *repository.ReserveRepo
}

func NewBookHandler(books *repository.BookRepo, borrows *repository.BorrowRepo, reserves *repository.ReserveRepo) *BookHandler {
	return &BookHandler{Books: books, Borrows: borrows, Reserves: reserves}
}

type borrowReq struct {
	BookID uint64 `json:"bookId" form:"bookId"`
}

// Search matches the query against titles and authors.  Public; a query
// matching nothing returns an empty array, never an error.
func (h *BookHandler) Search(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	books, err := h.Books.Search(ctx, c.QueryParam("query"), searchLimit)
	if err != nil {
		c.Logger().Errorf("search: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Error searching books"})
	}
	return c.JSON(http.StatusOK, books)
}

// Borrow records that the caller now holds the book, due in fourteen days.
// 404 when the book does not exist, 400 when the caller already holds it.
func (h *BookHandler) Borrow(c echo.Context) error {
	sess, _ := middleware.Current(c)

	var req borrowReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Invalid request"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	book, err := h.Books.GetByID(ctx, req.BookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "Book not found"})
		}
		c.Logger().Errorf("borrow: load book: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Error borrowing book"})
	}

	if err := h.Borrows.Borrow(ctx, sess.ID, book.ID); err != nil {
		if errors.Is(err, repository.ErrAlreadyBorrowed) {
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "You already have this book borrowed"})
		}
		c.Logger().Errorf("borrow: insert: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Error borrowing book"})
	}

	// Best-effort circulation event; never blocks or fails the request.
	now := time.Now().UTC()
	ev := queue.BookBorrowedEvent{
		EventID:    uuid.NewString(),
		UserID:     sess.ID,
		Username:   sess.Username,
		BookID:     book.ID,
		Title:      book.Title,
		BorrowedAt: now.Format(time.RFC3339),
		DueAt:      now.AddDate(0, 0, 14).Format(time.RFC3339),
	}
	go func() {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer pubCancel()
		_ = queue_publisher.PublishBookBorrowed(pubCtx, ev)
	}()

	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Book borrowed successfully"})
}

// Return ends the caller's borrow of the book.  404 when the caller does not
// currently hold it.
func (h *BookHandler) Return(c echo.Context) error {
	sess, _ := middleware.Current(c)

	var req borrowReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Invalid request"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Borrows.Return(ctx, sess.ID, req.BookID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "No active borrow for this book"})
		}
		c.Logger().Errorf("return: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Error returning book"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Book returned successfully"})
}

// Reserve places a reservation for the caller.  Same shape as Borrow: 404
// unknown book, 400 duplicate reservation.
func (h *BookHandler) Reserve(c echo.Context) error {
	sess, _ := middleware.Current(c)

	var req borrowReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Invalid request"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if _, err := h.Books.GetByID(ctx, req.BookID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "Book not found"})
		}
		c.Logger().Errorf("reserve: load book: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Error reserving book"})
	}

	if err := h.Reserves.Reserve(ctx, sess.ID, req.BookID); err != nil {
		if errors.Is(err, repository.ErrAlreadyReserved) {
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "You already reserved this book"})
		}
		c.Logger().Errorf("reserve: insert: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Error reserving book"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Book reserved successfully"})
}

// RecentlyBorrowed lists the caller's five most recent borrows.
func (h *BookHandler) RecentlyBorrowed(c echo.Context) error {
	sess, _ := middleware.Current(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	rows, err := h.Borrows.RecentByUser(ctx, sess.ID, 5)
	if err != nil {
		c.Logger().Errorf("recently-borrowed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Failed to fetch borrowed books"})
	}
	return c.JSON(http.StatusOK, rows)
}

// UserStats returns the caller's dashboard counters.
func (h *BookHandler) UserStats(c echo.Context) error {
	sess, _ := middleware.Current(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	statsErr := func(err error) error {
		c.Logger().Errorf("user-stats: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Error fetching user stats"})
	}

	borrowed, err := h.Borrows.CountByUser(ctx, sess.ID)
	if err != nil {
		return statsErr(err)
	}
	reserved, err := h.Reserves.CountByUser(ctx, sess.ID)
	if err != nil {
		return statsErr(err)
	}
	dueSoon, err := h.Borrows.CountDueSoon(ctx, sess.ID)
	if err != nil {
		return statsErr(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"borrowedCount": borrowed,
		"reservedCount": reserved,
		"dueSoonCount":  dueSoon,
	})
}
