// Package config reads the server configuration from the environment.
//
// A .env file in the working directory is loaded first (if present), then
// real environment variables take precedence — the standard twelve-factor
// arrangement: .env for local development, real env vars in deployment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs from the environment.
type Config struct {
	// Port is the HTTP listen port. PORT, default 8080.
	Port int

	// DBPath is the SQLite database file. DB_PATH, default data/miniapp.db.
	DBPath string

	// JWTSecret signs access tokens. JWT_SECRET, required.
	JWTSecret string

	// BotToken authenticates the Telegram bot API client. BOT_TOKEN;
	// empty disables the webhook relay.
	BotToken string

	// BotUsername is the bot the referral deep links point at.
	// BOT_USERNAME, default piprotocolbot.
	BotUsername string

	// AdminKeyHash is the bcrypt hash of the feed-publishing key.
	// ADMIN_KEY_HASH; empty disables POST /api/news.
	AdminKeyHash string
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:         8080,
		DBPath:       "data/miniapp.db",
		JWTSecret:    os.Getenv("JWT_SECRET"),
		BotToken:     os.Getenv("BOT_TOKEN"),
		BotUsername:  "piprotocolbot",
		AdminKeyHash: os.Getenv("ADMIN_KEY_HASH"),
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("config: invalid PORT %q", portStr)
		}
		cfg.Port = port
	}
	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if username := os.Getenv("BOT_USERNAME"); username != "" {
		cfg.BotUsername = username
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("config: JWT_SECRET is required")
	}

	return cfg, nil
}
