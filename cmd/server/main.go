// Package main is the entry point for the mini-app backend.
//
// main stays minimal: read configuration, create the shared dependencies
// (logger, bot relay), build the server, start it. All actual logic lives
// in the internal packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/piprotocol/miniapp-backend/internal/bot"
	"github.com/piprotocol/miniapp-backend/internal/config"
	"github.com/piprotocol/miniapp-backend/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// The SQLite file lives under a data directory; create it up front so
	// the driver doesn't fail on first open.
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// The bot relay is optional — without a token the server still runs,
	// the webhook endpoint just drops updates.
	var relay *bot.Relay
	if cfg.BotToken == "" {
		logger.Warn("BOT_TOKEN not set, telegram relay disabled")
	} else {
		relay, err = bot.New(cfg.BotToken, logger)
		if err != nil {
			logger.Warn("telegram relay unavailable",
				slog.String("error", err.Error()),
			)
			relay = nil
		}
	}

	srv, err := server.New(cfg, logger, relay)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
