package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/geotrace/geotrace-go/internal/config"
	"github.com/geotrace/geotrace-go/internal/crypto"
	"github.com/geotrace/geotrace-go/internal/geo"
	"github.com/geotrace/geotrace-go/internal/handler"
	"github.com/geotrace/geotrace-go/internal/logger"
	"github.com/geotrace/geotrace-go/internal/repository"
	"github.com/geotrace/geotrace-go/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.Env)

	db, err := repository.NewDB(cfg.DatabaseDSN)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := repository.Migrate(ctx, db)
		cancel()
		if err != nil {
			log.Error("database migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("database migrations applied")
	}

	if cfg.IPInfo.Token == "" {
		log.Warn("IPINFO_TOKEN is not set, every geo lookup will return null")
	}

	tokens := crypto.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry)
	hasher := crypto.NewHasher(int(cfg.BcryptRounds))

	lookup := geo.NewBreakerLookup(geo.NewIPInfoClient(geo.IPInfoOptions{
		BaseURL: cfg.IPInfo.BaseURL,
		Token:   cfg.IPInfo.Token,
		Timeout: cfg.GeoTimeout,
		RPS:     cfg.IPInfo.RPS,
		Burst:   cfg.IPInfo.Burst,
	}), log)
	resolver := geo.NewResolver(lookup, cfg.GeoTimeout, log)

	authService := service.NewAuthService(repository.NewUserRepository(db), hasher, tokens)
	historyService := service.NewHistoryService(repository.NewHistoryRepository(db), resolver, log)

	resp := handler.NewResponder(log, !cfg.IsProduction())

	router := handler.NewRouter(handler.RouterConfig{
		Auth:        handler.NewAuthHandler(authService, resp),
		Geo:         handler.NewGeoHandler(resolver, resp),
		History:     handler.NewHistoryHandler(historyService, resp),
		Tokens:      tokens,
		Log:         log,
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownAfter)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
