package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/openshelf/internal/middleware"
	"github.com/openshelf/openshelf/internal/model"
	"github.com/openshelf/openshelf/internal/session"
)

func okHandler(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func newSession(t *testing.T, mgr *session.Manager, role model.Role) string {
	t.Helper()
	id, err := mgr.Create(context.Background(), session.Data{ID: 1, Name: "Ada", Username: "ada", Role: role})
	require.NoError(t, err)
	return id
}

func do(mgr *session.Manager, cookie string, h echo.HandlerFunc) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: cookie})
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = middleware.LoadSession(mgr)(h)(c)
	return rec
}

func TestRequireAuthWithoutSession(t *testing.T) {
	mgr := session.NewManager(nil, time.Hour)
	rec := do(mgr, "", middleware.RequireAuth(okHandler))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthWithBogusCookie(t *testing.T) {
	mgr := session.NewManager(nil, time.Hour)
	rec := do(mgr, "not-a-session", middleware.RequireAuth(okHandler))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthPassesAnyRole(t *testing.T) {
	mgr := session.NewManager(nil, time.Hour)
	id := newSession(t, mgr, model.RoleUser)
	rec := do(mgr, id, middleware.RequireAuth(okHandler))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequirePublisherRejectsReader(t *testing.T) {
	mgr := session.NewManager(nil, time.Hour)
	id := newSession(t, mgr, model.RoleUser)
	rec := do(mgr, id, middleware.RequireAuth(middleware.RequirePublisher(okHandler)))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequirePublisherPassesPublisher(t *testing.T) {
	mgr := session.NewManager(nil, time.Hour)
	id := newSession(t, mgr, model.RolePublisher)
	rec := do(mgr, id, middleware.RequireAuth(middleware.RequirePublisher(okHandler)))
	require.Equal(t, http.StatusOK, rec.Code)
}

// An unauthenticated request on a publisher route must see 401, never 403.
func TestGateOrderingUnauthenticated(t *testing.T) {
	mgr := session.NewManager(nil, time.Hour)
	rec := do(mgr, "", middleware.RequireAuth(middleware.RequirePublisher(okHandler)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
