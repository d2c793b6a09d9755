// Command loe-notifier watches the LOE hourly-outage schedule and notifies
// Telegram subscribers when the schedule for their group changes.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	gcs "cloud.google.com/go/storage"

	"loe-notifier/bot"
	"loe-notifier/config"
	"loe-notifier/loe"
	"loe-notifier/poll"
	"loe-notifier/schedule"
	"loe-notifier/storage"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	// Default to local storage mode if no bucket is configured.
	localPath := cfg.LocalStorage
	if cfg.StorageBucket == "" && localPath == "" {
		localPath = "./data"
		logger.Info("No storage bucket set, defaulting to local storage", "storage_path", localPath)
	}

	var gcsClient *gcs.Client
	if localPath != "" {
		if err := os.MkdirAll(localPath, 0o755); err != nil {
			logger.Error("Failed to create local storage directory", "error", err)
			os.Exit(1)
		}
	} else {
		gcsClient, err = gcs.NewClient(ctx)
		if err != nil {
			logger.Error("Failed to initialize storage client", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := gcsClient.Close(); err != nil {
				logger.Warn("Failed to close storage client", "error", err)
			}
		}()
	}

	store := storage.New(gcsClient, cfg.StorageBucket, localPath, logger)

	client := loe.New(&http.Client{Timeout: cfg.FetchTimeout()}, cfg.APIURL, logger)
	schedules := schedule.NewService(client, cfg.StrictGroupMatch, logger)

	tg, err := bot.New(cfg.TelegramToken, store, schedules, logger)
	if err != nil {
		logger.Error("Failed to initialize Telegram bot", "error", err)
		os.Exit(1)
	}

	monitor := poll.New(schedules, store, tg, logger)
	scheduler, err := poll.NewScheduler(monitor, cfg.CheckInterval(), logger)
	if err != nil {
		logger.Error("Failed to initialize poll scheduler", "error", err)
		os.Exit(1)
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler.Start()
	logger.Info("Service started", "check_interval", cfg.CheckInterval().String())

	tg.Run(runCtx)

	// Let an in-flight cycle finish before exiting so the store stays intact.
	<-scheduler.Stop().Done()
	logger.Info("Service stopped")
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
