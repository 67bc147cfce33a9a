// Package poll drives the fetch → extract → diff → deliver → persist cycle.
package poll

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"campus-notifier/pkg/notifier"
)

// errorPause is the short pause after an unexpected cycle failure, as
// opposed to the regular interval after a completed or skipped cycle.
const errorPause = time.Second

// FetchError indicates the page could not be fetched this cycle
// (transport failure or non-200 status). The cycle is skipped.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// errCyclePanic marks a recovered panic so Run can shorten the wait.
var errCyclePanic = errors.New("cycle panicked")

// Extractor parses a page body into a snapshot.
type Extractor interface {
	Extract(r io.Reader) (notifier.Snapshot, error)
}

// Store persists the last-seen snapshot.
type Store interface {
	LoadSnapshot(ctx context.Context) (notifier.Snapshot, error)
	SaveSnapshot(ctx context.Context, snap notifier.Snapshot) error
}

// Subscribers lists the registered recipients.
type Subscribers interface {
	List(ctx context.Context) ([]int64, error)
}

// ChatSender delivers one item to a chat, with its own retry and fallback.
type ChatSender interface {
	DeliverItem(ctx context.Context, chatID int64, sec notifier.Section, it notifier.Item) error
}

// TextSender delivers a preformatted message to a fixed secondary channel.
type TextSender interface {
	Send(ctx context.Context, text string) error
}

// Options wires a Monitor.
type Options struct {
	Client      *http.Client
	PageURL     string
	Interval    time.Duration
	ChannelID   int64      // 0 disables the broadcast channel
	Extractor   Extractor
	Store       Store
	Subscribers Subscribers
	Telegram    ChatSender
	WhatsApp    TextSender // nil disables the secondary channel
	Logger      *slog.Logger
}

// Monitor owns the poll cycle. It is the only reader and writer of the
// persisted snapshot; the subscriber registry is shared with the bot.
type Monitor struct {
	client      *http.Client
	pageURL     string
	interval    time.Duration
	channelID   int64
	extractor   Extractor
	store       Store
	subscribers Subscribers
	telegram    ChatSender
	whatsapp    TextSender
	logger      *slog.Logger
}

// New creates a monitor.
func New(opts Options) *Monitor {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Monitor{
		client:      client,
		pageURL:     opts.PageURL,
		interval:    opts.Interval,
		channelID:   opts.ChannelID,
		extractor:   opts.Extractor,
		store:       opts.Store,
		subscribers: opts.Subscribers,
		telegram:    opts.Telegram,
		whatsapp:    opts.WhatsApp,
		logger:      opts.Logger,
	}
}

// Run polls until ctx is cancelled. A failed cycle never stops the loop:
// fetch/parse/storage errors skip to the next interval, and a panic inside
// a cycle is recovered and followed by a short pause.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("Poll loop started", "url", m.pageURL, "interval", m.interval.String())

	for {
		err := m.CheckOnce(ctx)

		wait := m.interval
		switch {
		case err == nil:
		case ctx.Err() != nil:
			m.logger.Info("Poll loop stopped", "reason", ctx.Err())
			return ctx.Err()
		case errors.Is(err, errCyclePanic):
			wait = errorPause
		default:
			m.logger.Error("Cycle skipped", "error", err)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			m.logger.Info("Poll loop stopped", "reason", ctx.Err())
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// CheckOnce runs a single poll cycle. Panics are contained here so a
// malformed page or a buggy handler can never take the loop down.
func (m *Monitor) CheckOnce(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Cycle panicked", "panic", r, "stack", string(debug.Stack()))
			err = errCyclePanic
		}
	}()
	return m.cycle(ctx)
}

func (m *Monitor) cycle(ctx context.Context) error {
	current, err := m.fetchSnapshot(ctx)
	if err != nil {
		return err
	}

	previous, err := m.store.LoadSnapshot(ctx)
	if err != nil {
		// State assumed unchanged; the next cycle retries the read.
		return fmt.Errorf("load previous snapshot: %w", err)
	}

	fresh := notifier.Diff(current, previous)
	if fresh.Total() == 0 {
		m.logger.Debug("No new notifications", "total_items", current.Total())
		return nil
	}

	m.logger.Info("New notifications detected", "count", fresh.Total())
	m.deliver(ctx, fresh)

	// Stored state advances only when something new was found, matching the
	// long-standing behavior of this service. A page that only removed items
	// leaves the stored snapshot untouched.
	if err := m.store.SaveSnapshot(ctx, current); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	return nil
}

// fetchSnapshot fetches the page with a bounded timeout and extracts it.
func (m *Monitor) fetchSnapshot(ctx context.Context) (notifier.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.pageURL, http.NoBody)
	if err != nil {
		return nil, &FetchError{URL: m.pageURL, Err: err}
	}
	req.Header.Set("User-Agent", "campus-notifier/1.0")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	start := time.Now()
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: m.pageURL, Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			m.logger.Warn("Failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: m.pageURL, Status: resp.StatusCode}
	}

	snap, err := m.extractor.Extract(resp.Body)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("Page fetched",
		"duration_ms", time.Since(start).Milliseconds(),
		"items", snap.Total())
	return snap, nil
}

// deliver sends every new item to the broadcast channel first, then to each
// subscriber, then to the secondary channel. Sends are sequential and a
// failed delivery never aborts the batch.
func (m *Monitor) deliver(ctx context.Context, fresh notifier.Snapshot) {
	if m.channelID != 0 {
		m.deliverTo(ctx, m.channelID, fresh)
	}

	users, err := m.subscribers.List(ctx)
	if err != nil {
		m.logger.Error("Failed to list subscribers", "error", err)
		users = nil
	}
	for _, userID := range users {
		if ctx.Err() != nil {
			return
		}
		m.deliverTo(ctx, userID, fresh)
	}

	if m.whatsapp != nil {
		m.deliverSecondary(ctx, fresh)
	}
}

func (m *Monitor) deliverTo(ctx context.Context, chatID int64, fresh notifier.Snapshot) {
	for _, sec := range notifier.Sections() {
		for _, it := range fresh[sec] {
			if ctx.Err() != nil {
				return
			}
			if err := m.telegram.DeliverItem(ctx, chatID, sec, it); err != nil {
				m.logger.Error("Delivery failed",
					"chat_id", chatID,
					"section", string(sec),
					"title", it.Title,
					"error", err)
			}
		}
	}
}

func (m *Monitor) deliverSecondary(ctx context.Context, fresh notifier.Snapshot) {
	for _, sec := range notifier.Sections() {
		for _, it := range fresh[sec] {
			if ctx.Err() != nil {
				return
			}
			if err := m.whatsapp.Send(ctx, notifier.FormatMessage(sec, it)); err != nil {
				m.logger.Error("Secondary delivery failed",
					"section", string(sec),
					"title", it.Title,
					"error", err)
			}
		}
	}
}
