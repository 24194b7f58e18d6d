package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/middleware"
	"github.com/openshelf/openshelf/internal/model"
	"github.com/openshelf/openshelf/internal/repository"
	"github.com/openshelf/openshelf/internal/session"
	"github.com/openshelf/openshelf/internal/utils"
)

// dbTimeout bounds every database round trip made from a handler.
const dbTimeout = 5 * time.Second

// AuthHandler bundles dependencies for registration, login and logout.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Sessions *session.Manager
	Validate *validator.Validate
}

func NewAuthHandler(cfg config.Config, users *repository.UserRepo, sessions *session.Manager, v *validator.Validate) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Sessions: sessions, Validate: v}
}

type registerReq struct {
	Name            string `validate:"required"`
	Email           string `validate:"required,email"`
	Username        string `validate:"required"`
	Password        string `validate:"required"`
	ConfirmPassword string
	Role            string
}

type loginReq struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Register handles the registration form.  It is a browser-facing endpoint,
// so every outcome is a 302: back to /register with an error code, or on to
// the role-appropriate dashboard.  Duplicate username/email detection is
// left entirely to the UNIQUE constraints; there is no racy pre-check.
func (h *AuthHandler) Register(c echo.Context) error {
	req := registerReq{
		Name:            strings.TrimSpace(c.FormValue("name")),
		Email:           strings.ToLower(strings.TrimSpace(c.FormValue("email"))),
		Username:        strings.TrimSpace(c.FormValue("username")),
		Password:        c.FormValue("password"),
		ConfirmPassword: c.FormValue("confirmPassword"),
		Role:            strings.TrimSpace(c.FormValue("role")),
	}

	if req.Password != req.ConfirmPassword {
		return c.Redirect(http.StatusFound, "/register?error=password_mismatch")
	}
	role, ok := model.ParseRole(req.Role)
	if !ok {
		return c.Redirect(http.StatusFound, "/register?error=invalid_role")
	}
	if err := h.Validate.Struct(req); err != nil {
		return c.Redirect(http.StatusFound, "/register?error=missing_fields")
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.Redirect(http.StatusFound, "/register?error=server_error")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Name, req.Email, req.Username, hash, role)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return c.Redirect(http.StatusFound, "/register?error=user_exists")
		}
		c.Logger().Errorf("register: create user: %v", err)
		return c.Redirect(http.StatusFound, "/register?error=server_error")
	}

	// The session must be persisted before the redirect goes out so the
	// dashboard request that follows immediately sees it.
	sid, err := h.Sessions.Create(ctx, session.Data{ID: uid, Name: req.Name, Username: req.Username, Role: role})
	if err != nil {
		c.Logger().Errorf("register: save session: %v", err)
		return c.Redirect(http.StatusFound, "/register?error=session_error")
	}
	c.SetCookie(session.NewCookie(sid, h.Sessions.TTL()))

	if role == model.RolePublisher {
		return c.Redirect(http.StatusFound, "/publisher-dashboard")
	}
	return c.Redirect(http.StatusFound, "/dashboard")
}

// Login verifies credentials and opens a session.  An unknown username and a
// wrong password produce the exact same 401 body so the endpoint cannot be
// used to enumerate accounts.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Invalid request"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "Invalid credentials"})
		}
		c.Logger().Errorf("login: query user: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Internal server error"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "Invalid credentials"})
	}

	data := session.Data{ID: u.ID, Name: u.Name, Username: u.Username, Role: u.Role}
	sid, err := h.Sessions.Create(ctx, data)
	if err != nil {
		c.Logger().Errorf("login: save session: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Session error"})
	}
	c.SetCookie(session.NewCookie(sid, h.Sessions.TTL()))

	redirectTo := "/dashboard"
	if u.Role == model.RolePublisher {
		redirectTo = "/publisher-dashboard"
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"user":       data,
		"redirectTo": redirectTo,
	})
}

// Logout destroys the session, if any, and clears the cookie.  Logging out
// without a session still succeeds.
func (h *AuthHandler) Logout(c echo.Context) error {
	if ck, err := c.Cookie(session.CookieName); err == nil && ck.Value != "" {
		ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
		defer cancel()
		if err := h.Sessions.Destroy(ctx, ck.Value); err != nil {
			c.Logger().Errorf("logout: destroy session: %v", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Logout failed"})
		}
	}
	c.SetCookie(session.ExpiredCookie())
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Logged out successfully"})
}

// UserData returns the session's user record, or 401 with a JSON null body
// when the request carries no session.
func (h *AuthHandler) UserData(c echo.Context) error {
	if d, ok := middleware.Current(c); ok {
		return c.JSON(http.StatusOK, d)
	}
	return c.JSON(http.StatusUnauthorized, nil)
}
