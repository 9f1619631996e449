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

	"github.com/Skotchmaster/bookstore/internal/config"
	"github.com/Skotchmaster/bookstore/internal/db"
	"github.com/Skotchmaster/bookstore/internal/events"
	"github.com/Skotchmaster/bookstore/internal/hash"
	"github.com/Skotchmaster/bookstore/internal/httpserver"
	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/metrics"
	"github.com/Skotchmaster/bookstore/internal/repo"
	"github.com/Skotchmaster/bookstore/internal/search"
	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/internal/session"
)

func main() {
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel, cfg.ServiceName)
	if cfg.UsesDevSecret() {
		logger.Warn("SECRET_KEY is not set, using the development key")
	}
	ctx := logging.IntoContext(context.Background(), logger)

	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}
	if err := db.Migrate(ctx, gdb); err != nil {
		log.Fatalf("migrate error: %v", err)
	}
	seeded, err := db.Seed(ctx, gdb)
	if err != nil {
		log.Fatalf("seed error: %v", err)
	}
	if len(seeded) > 0 {
		logger.Info("books_seeded", "count", len(seeded))
	}

	r := repo.New(gdb)
	m := metrics.New()
	pub := events.New(cfg.KafkaBrokers)

	var searcher search.Searcher = &search.SQL{Store: r}
	if cfg.ESURL != "" {
		client, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		searcher = &search.Elastic{Client: client, IndexName: cfg.ESIndex, Store: r}
	}
	catalog := &service.CatalogService{Repo: r, Search: searcher}
	if cfg.ESURL != "" {
		if err := catalog.Reindex(ctx); err != nil {
			logger.Error("reindex_failed", "error", err)
		}
	}

	sessions := &session.Manager{
		Repo:   r,
		Secret: cfg.SecretKey,
		TTL:    cfg.SessionTTL,
		Secure: cfg.CookieSecure,
	}

	e, err := httpserver.New(&httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{
			Svc:      &service.AuthService{Repo: r, Hasher: hash.NewBcrypt(cfg.BcryptCost), Events: pub, Metrics: m},
			Sessions: sessions,
		},
		CatalogHandler:  &httpserver.CatalogHTTP{Svc: catalog},
		CartHandler:     &httpserver.CartHTTP{Svc: &service.CartService{Repo: r, Events: pub, Metrics: m}},
		CheckoutHandler: &httpserver.CheckoutHTTP{Svc: &service.CheckoutService{Repo: r, Events: pub, Metrics: m}},
		HealthHandler:   &httpserver.HealthHTTP{DB: r},
		Sessions:        sessions,
		Metrics:         m,
		Logger:          logger,
		CookieSecure:    cfg.CookieSecure,
	})
	if err != nil {
		log.Fatalf("router init error: %v", err)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	go func() {
		<-quit
		log.Println("force exit")
		os.Exit(1)
	}()

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db close error", "error", err)
	}
	if err := pub.Close(); err != nil {
		logger.Error("event publisher close error", "error", err)
	}

	logger.Info("shutdown complete")
}
