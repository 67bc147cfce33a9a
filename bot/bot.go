// Package bot handles the inbound subscribe and unsubscribe commands.
package bot

import (
	"context"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"
)

const (
	welcomeReply = "👋 Welcome to the Notification Bot!\n\n" +
		"I'll keep you updated with the latest notifications.\n" +
		"Use /stop to unsubscribe from notifications."
	goodbyeReply = "You've been unsubscribed from notifications. Use /start to subscribe again."
	errorReply   = "Something went wrong, please try again later."

	commandTimeout = 10 * time.Second
)

// Registry is the subscriber surface the commands mutate.
type Registry interface {
	Add(ctx context.Context, userID int64) error
	Remove(ctx context.Context, userID int64) error
}

// Bot runs the Telegram long-poller and answers /start and /stop.
type Bot struct {
	bot      *tele.Bot
	registry Registry
	logger   *slog.Logger
}

// New registers the command handlers on b.
func New(b *tele.Bot, registry Registry, logger *slog.Logger) *Bot {
	cb := &Bot{bot: b, registry: registry, logger: logger}

	b.Handle("/start", func(c tele.Context) error {
		return c.Send(cb.handleStart(c.Sender().ID))
	})
	b.Handle("/stop", func(c tele.Context) error {
		return c.Send(cb.handleStop(c.Sender().ID))
	})

	return cb
}

// Start runs the long-poller until ctx is cancelled. It blocks.
func (b *Bot) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		b.bot.Stop()
	}()
	b.logger.Info("Command polling started")
	b.bot.Start()
	b.logger.Info("Command polling stopped")
}

func (b *Bot) handleStart(userID int64) string {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := b.registry.Add(ctx, userID); err != nil {
		b.logger.Error("Subscribe failed", "user_id", userID, "error", err)
		return errorReply
	}
	return welcomeReply
}

func (b *Bot) handleStop(userID int64) string {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := b.registry.Remove(ctx, userID); err != nil {
		b.logger.Error("Unsubscribe failed", "user_id", userID, "error", err)
		return errorReply
	}
	return goodbyeReply
}
