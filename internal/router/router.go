package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/handler"
	"github.com/openshelf/openshelf/internal/middleware"
	"github.com/openshelf/openshelf/internal/session"
)

// Deps carries everything the routing table needs.  All resources are owned
// by main and injected here; nothing in this package holds global state.
type Deps struct {
	Auth      *handler.AuthHandler
	Books     *handler.BookHandler
	Contact   *handler.ContactHandler
	Publisher *handler.PublisherHandler
	Pages     *handler.PageHandler
	Health    *handler.HealthHandler

	Sessions  *session.Manager
	Redis     *redis.Client // nil disables rate limiting and caching
	RateCfg   config.RateLimitConfig
	CacheCfg  config.CacheConfig
	UploadDir string
}

// Register wires the full route table onto e.  Session loading runs on every
// request; the auth and role gates are composed per group so the ordering
// guarantee holds (an unauthenticated request always sees 401, a
// non-publisher on a publisher route always sees 403).
func Register(e *echo.Echo, d Deps) {
	e.Use(middleware.LoadSession(d.Sessions))

	registerPages(e, d)
	registerAPI(e, d)
}

func registerPages(e *echo.Echo, d Deps) {
	e.GET("/", d.Pages.Static("home.html"))
	e.GET("/about", d.Pages.Static("about.html"))
	e.GET("/books", d.Pages.Static("books.html"))
	e.GET("/contact", d.Pages.Static("contact.html"))
	e.GET("/login", d.Pages.Static("login.html"))
	e.GET("/register", d.Pages.Static("register.html"))
	e.GET("/dashboard", d.Pages.Static("dashboard.html"), middleware.RequireAuth)
	e.GET("/publisher-dashboard", d.Pages.PublisherDashboard, middleware.RequireAuth)

	// Stored PDFs are public once a book references them.
	e.Static("/uploads", d.UploadDir)

	e.GET("/healthz", d.Health.Check)
}

func registerAPI(e *echo.Echo, d Deps) {
	api := e.Group("/api", middleware.NewTokenBucket(d.RateCfg, d.Redis))

	// Public endpoints.
	api.POST("/register", d.Auth.Register)
	api.POST("/login", d.Auth.Login)
	api.GET("/user-data", d.Auth.UserData)
	api.GET("/search", d.Books.Search, middleware.NewRedisCache(d.CacheCfg, d.Redis))
	api.POST("/contact", d.Contact.Submit)

	// Endpoints for any signed-in account.
	authed := api.Group("", middleware.RequireAuth)
	authed.POST("/logout", d.Auth.Logout)
	authed.POST("/borrow", d.Books.Borrow)
	authed.POST("/return", d.Books.Return)
	authed.POST("/reserve", d.Books.Reserve)
	authed.GET("/recently-borrowed", d.Books.RecentlyBorrowed)
	authed.GET("/user-stats", d.Books.UserStats)

	// Publisher-only endpoints.  RequirePublisher is composed after
	// RequireAuth, never on its own.
	pub := api.Group("", middleware.RequireAuth, middleware.RequirePublisher)
	pub.POST("/add-book", d.Publisher.AddBook)
	pub.GET("/published-books", d.Publisher.PublishedBooks)
	pub.GET("/publisher-dashboard", d.Publisher.Dashboard)
}
