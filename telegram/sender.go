// Package telegram delivers notification messages through the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"campus-notifier/pkg/notifier"
)

const (
	maxAttempts  = 5
	baseBackoff  = time.Second
	maxBackoff   = 30 * time.Second
	messagePause = 600 * time.Millisecond
)

// API is the subset of the bot client the sender needs. *tele.Bot satisfies it.
type API interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// DeliveryError reports a message that was abandoned after retries and the
// plain-text fallback both failed.
type DeliveryError struct {
	ChatID int64
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %d abandoned: %v", e.ChatID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Sender sends messages with flood-aware retry, a plain fallback for
// provider rejections, and a fixed pause between successive sends.
type Sender struct {
	api     API
	logger  *slog.Logger
	limiter *rate.Limiter

	// retry schedule; fixed in production, shortened in tests
	base time.Duration
	max  time.Duration
}

// New creates a sender over the given bot client.
func New(api API, logger *slog.Logger) *Sender {
	return &Sender{
		api:     api,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Every(messagePause), 1),
		base:    baseBackoff,
		max:     maxBackoff,
	}
}

// DeliverItem formats one item and sends it to the destination chat.
// A provider rejection of the formatted message triggers exactly one
// unformatted fallback send; if that fails too the message is abandoned
// and a *DeliveryError returned. Callers continue with the next message.
func (s *Sender) DeliverItem(ctx context.Context, chatID int64, sec notifier.Section, it notifier.Item) error {
	err := s.Send(ctx, chatID, notifier.FormatMessage(sec, it))
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var rej *rejectedError
	if !errors.As(err, &rej) {
		// Retries exhausted on rate limiting or transport failure.
		s.logger.Error("Giving up on message after retries", "chat_id", chatID, "error", err)
		return &DeliveryError{ChatID: chatID, Err: err}
	}

	// Formatting-related rejections should not silently drop a notification:
	// try once more with nothing but title and link.
	s.logger.Error("Message rejected, trying plain fallback", "chat_id", chatID, "error", err)
	if werr := s.limiter.Wait(ctx); werr != nil {
		return werr
	}
	if _, ferr := s.api.Send(tele.ChatID(chatID), notifier.FormatFallback(it)); ferr != nil {
		s.logger.Error("Fallback message also failed", "chat_id", chatID, "error", ferr)
		return &DeliveryError{ChatID: chatID, Err: ferr}
	}
	return nil
}

// Send sends one message, retrying rate-limit and transport failures with
// exponential backoff (doubling from 1s, capped at 30s, up to 5 attempts).
// A flood wait sleeps for the provider-specified duration when that is
// larger than the current backoff. Provider rejections are returned
// immediately so the caller can decide on a fallback.
func (s *Sender) Send(ctx context.Context, chatID int64, text string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	delay := s.base
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		_, err := s.api.Send(tele.ChatID(chatID), text)
		if err == nil {
			return nil
		}
		lastErr = err

		var flood *tele.FloodError
		switch {
		case errors.As(err, &flood):
			wait := time.Duration(flood.RetryAfter) * time.Second
			if wait < delay {
				wait = delay
			}
			s.logger.Warn("Rate limited", "chat_id", chatID, "attempt", attempt, "retry_in", wait.String())
			if serr := sleep(ctx, wait); serr != nil {
				return serr
			}
		case isAPIError(err):
			// Provider rejected the message; retrying the same payload is pointless.
			return &rejectedError{err: err}
		default:
			s.logger.Warn("Network error, will retry", "chat_id", chatID, "attempt", attempt, "retry_in", delay.String(), "error", err)
			if serr := sleep(ctx, delay); serr != nil {
				return serr
			}
		}

		delay *= 2
		if delay > s.max {
			delay = s.max
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", maxAttempts, lastErr)
}

// rejectedError marks a provider rejection so DeliverItem can tell it apart
// from exhausted retries.
type rejectedError struct {
	err error
}

func (e *rejectedError) Error() string { return e.err.Error() }

func (e *rejectedError) Unwrap() error { return e.err }

// isAPIError reports whether err is a non-flood provider rejection.
func isAPIError(err error) bool {
	var flood *tele.FloodError
	if errors.As(err, &flood) {
		return false
	}
	var apiErr *tele.Error
	return errors.As(err, &apiErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
