// Package main implements a service that watches a campus notice page and
// forwards newly published notifications to Telegram subscribers.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/joho/godotenv"
	tele "gopkg.in/telebot.v4"

	"campus-notifier/bot"
	"campus-notifier/config"
	"campus-notifier/extract"
	"campus-notifier/poll"
	"campus-notifier/registry"
	"campus-notifier/storage"
	"campus-notifier/telegram"
	"campus-notifier/whatsapp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	tbot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		logger.Error("Failed to initialize Telegram bot", "error", err)
		os.Exit(1)
	}

	subscribers := registry.New(store, logger)
	commands := bot.New(tbot, subscribers, logger)

	var secondary poll.TextSender
	if cfg.WhatsAppEnabled() {
		secondary = whatsapp.New(cfg.WhatsAppAPIURL, cfg.WhatsAppAuthToken, cfg.WhatsAppRecipient, logger)
		logger.Info("WhatsApp channel enabled", "recipient", cfg.WhatsAppRecipient)
	}

	monitor := poll.New(poll.Options{
		PageURL:     cfg.PageURL,
		Interval:    cfg.CheckInterval,
		ChannelID:   cfg.ChannelID,
		Extractor:   extract.New(logger),
		Store:       store,
		Subscribers: subscribers,
		Telegram:    telegram.New(tbot, logger),
		WhatsApp:    secondary,
		Logger:      logger,
	})

	// Command handling runs alongside the poll loop; both stop on signal.
	go commands.Start(ctx)

	if err := monitor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Poll loop failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Shutdown complete")
}

// openStore picks the bucket backend when configured, the local data
// directory otherwise.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage.Store, func(), error) {
	if cfg.Bucket != "" {
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, nil, err
		}
		closeClient := func() {
			if err := client.Close(); err != nil {
				logger.Warn("Failed to close storage client", "error", err)
			}
		}
		logger.Info("Using bucket storage", "bucket", cfg.Bucket)
		return storage.New(client, cfg.Bucket, "", logger), closeClient, nil
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, nil, err
	}
	logger.Info("Using local storage", "path", cfg.DataDir)
	return storage.New(nil, "", cfg.DataDir, logger), func() {}, nil
}
