package handler

import (
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/openshelf/openshelf/internal/middleware"
	"github.com/openshelf/openshelf/internal/model"
)

// PageHandler serves the static HTML views.
type PageHandler struct {
	ViewsDir string
}

func NewPageHandler(viewsDir string) *PageHandler { return &PageHandler{ViewsDir: viewsDir} }

// Static returns a handler serving the named view file.
func (h *PageHandler) Static(name string) echo.HandlerFunc {
	path := filepath.Join(h.ViewsDir, name)
	return func(c echo.Context) error { return c.File(path) }
}

// PublisherDashboard serves the publisher dashboard, bouncing authenticated
// non-publishers to the regular dashboard instead of rejecting them.
func (h *PageHandler) PublisherDashboard(c echo.Context) error {
	if d, ok := middleware.Current(c); !ok || d.Role != model.RolePublisher {
		return c.Redirect(http.StatusFound, "/dashboard")
	}
	return c.File(filepath.Join(h.ViewsDir, "publisher-dashboard.html"))
}
