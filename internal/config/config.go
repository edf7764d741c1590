// Package config handles application configuration from environment variables.
//
// Credentials and infrastructure endpoints come from the environment;
// the matching rules live in a separate YAML file (see internal/rules).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const defaultUserAgent = "subwatch/1.0"

// Config holds the application configuration.
type Config struct {
	RulesPath    string
	DatabasePath string
	RedisAddr    string
	LogLevel     string
	PollInterval time.Duration

	RedditClientID     string
	RedditClientSecret string
	RedditUsername     string
	RedditPassword     string
	UserAgent          string

	FeedURL string

	ProwlAPIKey      string
	TelegramBotToken string
	TelegramChatID   int64
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		RulesPath:    envOrDefault("RULES_PATH", "./config.yaml"),
		DatabasePath: envOrDefault("DATABASE_PATH", "./data/subwatch.db"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		LogLevel:     envOrDefault("LOG_LEVEL", "info"),

		RedditClientID:     os.Getenv("REDDIT_CLIENT_ID"),
		RedditClientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
		RedditUsername:     os.Getenv("REDDIT_USERNAME"),
		RedditPassword:     os.Getenv("REDDIT_PASSWORD"),
		UserAgent:          envOrDefault("USER_AGENT", defaultUserAgent),

		FeedURL: os.Getenv("FEED_URL"),

		ProwlAPIKey:      os.Getenv("PROWL_API_KEY"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	interval := 30
	if raw := os.Getenv("POLL_INTERVAL_SECONDS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid POLL_INTERVAL_SECONDS %q", raw)
		}
		interval = n
	}
	cfg.PollInterval = time.Duration(interval) * time.Second

	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", raw, err)
		}
		cfg.TelegramChatID = id
	}

	if cfg.TelegramBotToken != "" && cfg.TelegramChatID == 0 {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}
	if !cfg.HasNotifier() {
		return nil, fmt.Errorf("no notification transport configured: set PROWL_API_KEY or TELEGRAM_BOT_TOKEN")
	}

	return cfg, nil
}

// HasRedditCredentials reports whether the authenticated Reddit API
// source can be used.
func (c *Config) HasRedditCredentials() bool {
	return c.RedditClientID != "" && c.RedditClientSecret != "" &&
		c.RedditUsername != "" && c.RedditPassword != ""
}

// HasNotifier reports whether at least one notification transport is
// configured.
func (c *Config) HasNotifier() bool {
	return c.ProwlAPIKey != "" || c.TelegramBotToken != ""
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
