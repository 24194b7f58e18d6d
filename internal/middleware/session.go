package middleware // middleware provides shared request processing for handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openshelf/openshelf/internal/model"
	"github.com/openshelf/openshelf/internal/session"
)

// contextKey is the echo context key under which the resolved session record
// is stored by LoadSession.
const contextKey = "session"

// LoadSession returns middleware that resolves the session cookie, if any,
// and attaches the session record to the request context.  It never rejects
// a request: the gates below decide what an absent session means per route.
func LoadSession(mgr *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ck, err := c.Cookie(session.CookieName)
			if err == nil && ck.Value != "" {
				if data, ok, err := mgr.Get(c.Request().Context(), ck.Value); err == nil && ok {
					c.Set(contextKey, data)
				}
			}
			return next(c)
		}
	}
}

// Current returns the session record attached by LoadSession, if any.
func Current(c echo.Context) (session.Data, bool) {
	d, ok := c.Get(contextKey).(session.Data)
	return d, ok
}

// RequireAuth short-circuits with 401 when no session is attached.  It must
// run after LoadSession.
func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := Current(c); !ok {
			return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "Unauthorized"})
		}
		return next(c)
	}
}

// RequirePublisher short-circuits with 403 when the session's role is not
// publisher.  Compose it after RequireAuth so unauthenticated requests see
// 401, never 403.
func RequirePublisher(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if d, ok := Current(c); !ok || d.Role != model.RolePublisher {
			return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "Publisher access required"})
		}
		return next(c)
	}
}
