package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/goshop/storefront/internal/config"
	"github.com/goshop/storefront/internal/events"
	"github.com/goshop/storefront/internal/httpserver"
	"github.com/goshop/storefront/internal/logging"
	authmw "github.com/goshop/storefront/internal/middleware/auth"
	"github.com/goshop/storefront/internal/repo"
	"github.com/goshop/storefront/internal/search"
	"github.com/goshop/storefront/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("db init: %v", err)
	}

	var producer events.Publisher
	var kafkaProducer *events.Producer
	if cfg.KafkaAddress != "" {
		kafkaProducer = events.NewProducer([]string{cfg.KafkaAddress})
		producer = kafkaProducer
	}

	var (
		indexer       service.ProductIndexer
		searchHandler *httpserver.SearchHTTP
	)
	if cfg.ESURL != "" {
		esClient, err := search.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch init: %v", err)
		}
		indexer = &search.Indexer{ES: esClient, Index: cfg.ESIndex}
		searchHandler = &httpserver.SearchHTTP{ES: esClient, Index: cfg.ESIndex}
	}

	r := &repo.GormRepo{DB: db}

	accounts := &service.AccountService{
		Repo:          r,
		Producer:      producer,
		JWTSecret:     []byte(cfg.JWTSecret),
		RefreshSecret: []byte(cfg.RefreshSecret),
	}
	catalog := &service.CatalogService{Repo: r, Producer: producer, Indexer: indexer}
	orders := &service.OrderService{Repo: r, Producer: producer}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := logging.IntoContext(req.Context(), logger.With(
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			))
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	})

	deps := httpserver.Deps{
		DB:             db,
		AccountHandler: &httpserver.AccountHTTP{Svc: accounts},
		CatalogHandler: &httpserver.CatalogHTTP{Svc: catalog, Accounts: accounts},
		OrderHandler:   &httpserver.OrderHTTP{Svc: orders},
		SearchHandler:  searchHandler,
		Auth:           &authmw.Middleware{JWTSecret: []byte(cfg.JWTSecret)},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			log.Printf("kafka close error: %v", err)
		}
	}

	log.Println("shutdown complete")
}
