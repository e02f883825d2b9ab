package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/akruglov/shopfront/internal/config"
	"github.com/akruglov/shopfront/internal/db"
	"github.com/akruglov/shopfront/internal/es"
	"github.com/akruglov/shopfront/internal/events"
	"github.com/akruglov/shopfront/internal/httpserver"
	"github.com/akruglov/shopfront/internal/logging"
	"github.com/akruglov/shopfront/internal/middleware/loggingmw"
	"github.com/akruglov/shopfront/internal/repo"
	authsvc "github.com/akruglov/shopfront/internal/service/auth"
	cartsvc "github.com/akruglov/shopfront/internal/service/cart"
	"github.com/akruglov/shopfront/internal/service/checkout"
	"github.com/akruglov/shopfront/internal/service/search"
	"github.com/akruglov/shopfront/internal/service/token"
	"github.com/akruglov/shopfront/internal/stripe"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")
	config.MustNonEmptyBytes(cfg.RefreshSecret, "REFRESH_SECRET")
	config.MustNonEmpty(cfg.StripeSecretKey, "STRIPE_SECRET_KEY")

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()
	gormDB, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	store := repo.New(gormDB)

	var publisher events.Publisher
	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers)
		publisher = producer
	}

	tokens := &token.Service{Repo: store, JWTSecret: cfg.JWTSecret, RefreshSecret: cfg.RefreshSecret}
	authService := &authsvc.Service{Repo: store, Events: publisher}
	cartService := &cartsvc.Service{Repo: store, Events: publisher}
	bridge := &checkout.Bridge{
		Repo:       store,
		Client:     stripe.NewClient(cfg.StripeSecretKey, cfg.StripeBaseURL),
		SuccessURL: cfg.PublicURL + "/success",
		CancelURL:  cfg.PublicURL + "/checkout",
	}

	deps := &httpserver.Deps{
		Auth:     &httpserver.AuthHTTP{Svc: authService, Tokens: tokens},
		Products: &httpserver.ProductHTTP{Repo: store},
		Cart:     &httpserver.CartHTTP{Svc: cartService},
		Checkout: &httpserver.CheckoutHTTP{Bridge: bridge, CartSvc: cartService, Repo: store},
		Tokens:   tokens,
	}

	if cfg.ESURL != "" {
		esClient, err := es.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		products, err := store.AllProducts(ctx)
		if err != nil {
			log.Fatalf("catalog load error: %v", err)
		}
		if err := search.IndexProducts(ctx, esClient, search.ProductIndex, products); err != nil {
			logger.Error("catalog indexing failed", "error", err)
		}
		deps.Search = &httpserver.SearchHTTP{ES: esClient, Index: search.ProductIndex}
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := gormDB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Printf("kafka close error: %v", err)
		}
	}

	log.Println("shutdown complete")
}
