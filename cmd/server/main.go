// Package main is the entry point for the guild dashboard API.
//
// The main package is kept minimal. Its job is to:
//  1. Read configuration
//  2. Set up logging
//  3. Start the server
//
// All actual logic lives in the internal/ packages.
package main

import (
	"log/slog"
	"os"

	"github.com/sakif/guild-dashboard/internal/config"
	"github.com/sakif/guild-dashboard/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// Config comes first so LOG_LEVEL and APP_ENV set only in .env still
	// shape the logger.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	// Text logs for local development, JSON in production so log shippers can
	// parse the fields. LOG_LEVEL=debug shows bot API fallbacks.
	logger := newLogger(cfg.Server)
	slog.SetDefault(logger)

	if !cfg.Bot.Enabled() {
		logger.Warn("BOT_API_URL or BOT_API_TOKEN not set: dashboard reads will serve defaults")
	}

	// === 3. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newLogger(cfg config.ServerConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level()}
	if cfg.Production() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
