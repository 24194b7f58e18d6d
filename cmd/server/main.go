package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/database"
	"github.com/openshelf/openshelf/internal/handler"
	"github.com/openshelf/openshelf/internal/queue"
	"github.com/openshelf/openshelf/internal/repository"
	"github.com/openshelf/openshelf/internal/router"
	queue_publisher "github.com/openshelf/openshelf/internal/service"
	"github.com/openshelf/openshelf/internal/session"
	"github.com/openshelf/openshelf/internal/storage"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set env directly
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	// Redis is optional: without it sessions live in process memory and the
	// rate limiter and search cache switch off.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, using in-process session store")
	}
	sessions := session.NewManager(rdb, cfg.SessionTTL)

	uploads, err := storage.New(cfg.UploadDir)
	if err != nil {
		log.Fatalf("uploads: %v", err)
	}

	users := repository.NewUserRepo(db)
	books := repository.NewBookRepo(db)
	borrows := repository.NewBorrowRepo(db)
	reserves := repository.NewReserveRepo(db)
	messages := repository.NewMessageRepo(db)

	validate := validator.New()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowCredentials: true,
	}))

	router.Register(e, router.Deps{
		Auth:      handler.NewAuthHandler(cfg, users, sessions, validate),
		Books:     handler.NewBookHandler(books, borrows, reserves),
		Contact:   handler.NewContactHandler(messages, validate),
		Publisher: handler.NewPublisherHandler(books, uploads),
		Pages:     handler.NewPageHandler("views"),
		Health:    handler.NewHealthHandler(db),
		Sessions:  sessions,
		Redis:     rdb,
		RateCfg:   config.LoadRateLimitConfig(),
		CacheCfg:  config.LoadCacheConfig(),
		UploadDir: uploads.Dir(),
	})

	// The borrow-event consumer only runs when a broker is configured.
	if url := queue_publisher.BrokerURL(); url != "" {
		go func() {
			if err := queue.StartBorrowConsumer(url); err != nil {
				log.Printf("borrow-consumer: %v", err)
			}
		}()
	}

	go func() {
		log.Printf("listening on :%s (env=%s)", cfg.Port, cfg.Env)
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	// Drain on SIGINT/SIGTERM: stop accepting, let in-flight requests finish
	// within the grace window, then release the pool.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if err := db.Close(); err != nil {
		log.Printf("close db: %v", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}
