package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/rohanj-dev/skystash/internal/api"
	"github.com/rohanj-dev/skystash/internal/api/handlers"
	"github.com/rohanj-dev/skystash/internal/auth"
	"github.com/rohanj-dev/skystash/internal/config"
	"github.com/rohanj-dev/skystash/internal/repositories"
)

// @title Skystash API
// @version 1.0
// @description Personal cloud storage backend.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	setupLogging(cfg)

	db, err := repositories.ConnectDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Database init failed: %v", err)
	}
	slog.Info("connected to database")

	users := repositories.NewUserStore(db)
	files := repositories.NewFileStore(db)
	blobs := repositories.NewBlobStore(cfg.S3)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)

	mux := api.SetupRouter(
		cfg,
		tokens,
		handlers.NewAuthHandler(cfg, users, tokens),
		handlers.NewFileHandler(files, blobs),
		handlers.NewDashboardHandler(files),
	)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: mux,
		// Timeouts prevent resource exhaustion from slow clients
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	slog.Info("starting skystash server", "port", cfg.Port, "env", cfg.Environment)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on port %s: %v", cfg.Port, err)
	}
}

func setupLogging(cfg *config.Config) {
	var h slog.Handler
	if cfg.IsProd() {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		h = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: "15:04:05.000",
		})
	}
	slog.SetDefault(slog.New(h))
}
