package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"subwatch/internal/config"
	"subwatch/internal/counter"
	"subwatch/internal/notify"
	"subwatch/internal/pipeline"
	"subwatch/internal/rules"
	"subwatch/internal/stream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	rs, err := rules.Load(cfg.RulesPath)
	if err != nil {
		slog.Error("load rules", "path", cfg.RulesPath, "error", err)
		os.Exit(1)
	}

	level := cfg.LogLevel
	if rs.LogLevel != "" {
		level = rs.LogLevel
	}
	log := newLogger(level)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := openCounter(ctx, cfg, log)
	if err != nil {
		log.Error("open counter store", "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		log.Error("configure notifiers", "error", err)
		os.Exit(1)
	}

	source := buildSource(cfg, rs, log)

	ctrl := pipeline.NewController(store, fanout, log)
	runner := pipeline.NewRunner(source, rs, ctrl, log)

	log.Info("monitoring", "subreddits", rs.Multireddit())

	if err := runner.Run(ctx); err != nil {
		log.Error("pipeline stopped", "error", err)
		os.Exit(1)
	}

	log.Info("monitor stopped")
}

func openCounter(ctx context.Context, cfg *config.Config, log *slog.Logger) (counter.Store, error) {
	if cfg.RedisAddr != "" {
		log.Info("using redis counter", "addr", cfg.RedisAddr)
		return counter.NewRedis(ctx, cfg.RedisAddr)
	}

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create data directory %s: %w", dir, err)
		}
	}
	log.Info("using sqlite counter", "path", cfg.DatabasePath)
	return counter.NewSQLite(cfg.DatabasePath)
}

func buildFanout(ctx context.Context, cfg *config.Config, log *slog.Logger) (*notify.Fanout, error) {
	var notifiers []notify.Notifier

	if cfg.ProwlAPIKey != "" {
		prowl := notify.NewProwl(http.DefaultClient, cfg.ProwlAPIKey)
		if err := prowl.Verify(ctx); err != nil {
			return nil, fmt.Errorf("verify prowl key: %w", err)
		}
		log.Info("prowl api key verified")
		notifiers = append(notifiers, prowl)
	}

	if cfg.TelegramBotToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			return nil, fmt.Errorf("create telegram transport: %w", err)
		}
		notifiers = append(notifiers, tg)
	}

	return notify.NewFanout(log, notifiers...), nil
}

func buildSource(cfg *config.Config, rs *rules.Set, log *slog.Logger) stream.Source {
	if cfg.HasRedditCredentials() {
		creds := stream.Credentials{
			ClientID:     cfg.RedditClientID,
			ClientSecret: cfg.RedditClientSecret,
			Username:     cfg.RedditUsername,
			Password:     cfg.RedditPassword,
			UserAgent:    cfg.UserAgent,
		}
		return stream.NewReddit(http.DefaultClient, creds, rs.Subreddits, cfg.PollInterval, log)
	}

	feedURL := cfg.FeedURL
	if feedURL == "" {
		feedURL = fmt.Sprintf("https://www.reddit.com/r/%s/new.rss", rs.Multireddit())
	}
	log.Info("no api credentials, polling public feed", "url", feedURL)
	return stream.NewFeed(http.DefaultClient, feedURL, cfg.UserAgent, cfg.PollInterval, log)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
