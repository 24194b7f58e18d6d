package handler_test

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/openshelf/internal/handler"
	"github.com/openshelf/openshelf/internal/middleware"
	"github.com/openshelf/openshelf/internal/model"
	"github.com/openshelf/openshelf/internal/repository"
	"github.com/openshelf/openshelf/internal/session"
)

type bookEnv struct {
	h    *handler.BookHandler
	mock sqlmock.Sqlmock
	mgr  *session.Manager
	sid  string
}

func newBookEnv(t *testing.T, role model.Role) bookEnv {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mgr := session.NewManager(nil, time.Hour)
	sid, err := mgr.Create(t.Context(), session.Data{ID: 9, Name: "Ada", Username: "ada", Role: role})
	require.NoError(t, err)

	h := handler.NewBookHandler(
		repository.NewBookRepo(db),
		repository.NewBorrowRepo(db),
		repository.NewReserveRepo(db),
	)
	return bookEnv{h: h, mock: mock, mgr: mgr, sid: sid}
}

// serve runs the handler behind LoadSession+RequireAuth, the way it is
// mounted in the router.
func (env bookEnv) serve(method, path, body string) *httptest.ResponseRecorder {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if env.sid != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: env.sid})
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var h echo.HandlerFunc
	switch {
	case strings.HasPrefix(path, "/api/search"):
		h = env.h.Search // public: no auth gate
	case strings.HasPrefix(path, "/api/borrow"):
		h = middleware.RequireAuth(env.h.Borrow)
	case strings.HasPrefix(path, "/api/return"):
		h = middleware.RequireAuth(env.h.Return)
	case strings.HasPrefix(path, "/api/reserve"):
		h = middleware.RequireAuth(env.h.Reserve)
	case strings.HasPrefix(path, "/api/recently-borrowed"):
		h = middleware.RequireAuth(env.h.RecentlyBorrowed)
	default:
		h = middleware.RequireAuth(env.h.UserStats)
	}
	_ = middleware.LoadSession(env.mgr)(h)(c)
	return rec
}

func bookRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "author", "year", "overview", "pdf_url", "publisher_id"}).
		AddRow(2, "Dune", "Frank Herbert", 1965, "Sand.", nil, 4)
}

func TestBorrowUnknownBook(t *testing.T) {
	env := newBookEnv(t, model.RoleUser)

	env.mock.ExpectQuery("SELECT id, title, author, year, overview, pdf_url, publisher_id FROM books").
		WithArgs(uint64(404)).
		WillReturnError(sql.ErrNoRows)

	rec := env.serve(http.MethodPost, "/api/borrow", `{"bookId":404}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Book not found")
	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestBorrowTwiceSecondFails(t *testing.T) {
	env := newBookEnv(t, model.RoleUser)

	env.mock.ExpectQuery("SELECT id, title, author, year, overview, pdf_url, publisher_id FROM books").
		WithArgs(uint64(2)).WillReturnRows(bookRow())
	env.mock.ExpectExec("INSERT INTO borrowed_books").
		WithArgs(uint64(9), uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := env.serve(http.MethodPost, "/api/borrow", `{"bookId":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"success":true`)

	env.mock.ExpectQuery("SELECT id, title, author, year, overview, pdf_url, publisher_id FROM books").
		WithArgs(uint64(2)).WillReturnRows(bookRow())
	env.mock.ExpectExec("INSERT INTO borrowed_books").
		WithArgs(uint64(9), uint64(2)).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	rec = env.serve(http.MethodPost, "/api/borrow", `{"bookId":2}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "already have this book borrowed")
	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestBorrowRequiresSession(t *testing.T) {
	env := newBookEnv(t, model.RoleUser)
	env.sid = "" // no cookie

	rec := env.serve(http.MethodPost, "/api/borrow", `{"bookId":2}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestReturnWithoutBorrow(t *testing.T) {
	env := newBookEnv(t, model.RoleUser)

	env.mock.ExpectExec("DELETE FROM borrowed_books").
		WithArgs(uint64(9), uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec := env.serve(http.MethodPost, "/api/return", `{"bookId":2}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestReserveDuplicate(t *testing.T) {
	env := newBookEnv(t, model.RoleUser)

	env.mock.ExpectQuery("SELECT id, title, author, year, overview, pdf_url, publisher_id FROM books").
		WithArgs(uint64(2)).WillReturnRows(bookRow())
	env.mock.ExpectExec("INSERT INTO reserved_books").
		WithArgs(uint64(9), uint64(2)).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	rec := env.serve(http.MethodPost, "/api/reserve", `{"bookId":2}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestSearchEmptyResultIsArray(t *testing.T) {
	env := newBookEnv(t, model.RoleUser)
	env.sid = "" // public endpoint

	env.mock.ExpectQuery("SELECT id, title, author, year, overview, pdf_url, publisher_id FROM books").
		WithArgs("%nothing%", "%nothing%", 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "author", "year", "overview", "pdf_url", "publisher_id"}))

	rec := env.serve(http.MethodGet, "/api/search?query=nothing", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "[]\n", rec.Body.String())
	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestUserStats(t *testing.T) {
	env := newBookEnv(t, model.RoleUser)

	env.mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM borrowed_books WHERE user_id=\\?$").
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	env.mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM reserved_books").
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	env.mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM borrowed_books WHERE user_id=\\? AND due_date").
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	rec := env.serve(http.MethodGet, "/api/user-stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `"borrowedCount":4`)
	require.Contains(t, body, `"reservedCount":1`)
	require.Contains(t, body, `"dueSoonCount":2`)
	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestRecentlyBorrowedCapsAtFive(t *testing.T) {
	env := newBookEnv(t, model.RoleUser)

	now := time.Now().UTC().Truncate(time.Second)
	rows := sqlmock.NewRows([]string{"title", "author", "borrowed_date", "due_date"})
	for i := 0; i < 5; i++ {
		rows.AddRow("Book", "Author", now.Add(-time.Duration(i)*time.Hour), now.AddDate(0, 0, 14))
	}
	env.mock.ExpectQuery("SELECT b.title, b.author, bb.borrowed_date, bb.due_date").
		WithArgs(uint64(9), 5).
		WillReturnRows(rows)

	rec := env.serve(http.MethodGet, "/api/recently-borrowed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 5, strings.Count(rec.Body.String(), `"title"`))
	require.NoError(t, env.mock.ExpectationsWereMet())
}
