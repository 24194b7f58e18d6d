package handler_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/openshelf/internal/handler"
	"github.com/openshelf/openshelf/internal/repository"
)

var errTableGone = errors.New("Table 'library.messages' doesn't exist")

func newContactEnv(t *testing.T) (*handler.ContactHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return handler.NewContactHandler(repository.NewMessageRepo(db), validator.New()), mock
}

func TestContactEmptyMessageInsertsNothing(t *testing.T) {
	h, mock := newContactEnv(t)
	e := echo.New()

	req, rec := postJSON("/api/contact", `{"name":"Ada","email":"ada@example.com","message":""}`)
	require.NoError(t, h.Submit(e.NewContext(req, rec)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Name, email, and message are required")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContactInvalidEmail(t *testing.T) {
	h, mock := newContactEnv(t)
	e := echo.New()

	req, rec := postJSON("/api/contact", `{"name":"Ada","email":"not-an-email","message":"hi"}`)
	require.NoError(t, h.Submit(e.NewContext(req, rec)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContactSuccessEchoesSenderOnly(t *testing.T) {
	h, mock := newContactEnv(t)
	e := echo.New()

	mock.ExpectExec("INSERT INTO messages").
		WithArgs("Ada", "ada@example.com", "Love the catalog.").
		WillReturnResult(sqlmock.NewResult(1, 1))

	req, rec := postJSON("/api/contact", `{"name":"Ada","email":"ada@example.com","message":"Love the catalog."}`)
	require.NoError(t, h.Submit(e.NewContext(req, rec)))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "Message sent successfully!")
	require.Contains(t, body, `"name":"Ada"`)
	// The message body itself is not echoed back.
	require.NotContains(t, body, "Love the catalog.")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContactStoreFailureStaysGeneric(t *testing.T) {
	h, mock := newContactEnv(t)
	e := echo.New()

	mock.ExpectExec("INSERT INTO messages").
		WillReturnError(errTableGone)

	req, rec := postJSON("/api/contact", `{"name":"Ada","email":"ada@example.com","message":"hi"}`)
	require.NoError(t, h.Submit(e.NewContext(req, rec)))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "Failed to send message")
	// The driver error text never reaches the client.
	require.NotContains(t, rec.Body.String(), errTableGone.Error())
	require.NoError(t, mock.ExpectationsWereMet())
}
