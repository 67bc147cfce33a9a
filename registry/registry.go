// Package registry tracks opt-in subscribers.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Store is the persistence surface the registry needs.
type Store interface {
	LoadSubscribers(ctx context.Context) ([]int64, error)
	SaveSubscribers(ctx context.Context, users []int64) error
}

// Registry serializes read-modify-write of the subscriber set. The bot
// command handlers mutate it while the poll loop reads it, so every
// operation holds the lock for its full load/save span.
type Registry struct {
	mu     sync.Mutex
	store  Store
	logger *slog.Logger
}

// New creates a registry over the given store.
func New(store Store, logger *slog.Logger) *Registry {
	return &Registry{store: store, logger: logger}
}

// Add registers a subscriber. Adding an existing ID is a no-op.
func (r *Registry) Add(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.store.LoadSubscribers(ctx)
	if err != nil {
		return fmt.Errorf("load subscribers: %w", err)
	}
	for _, id := range users {
		if id == userID {
			return nil
		}
	}

	users = append(users, userID)
	if err := r.store.SaveSubscribers(ctx, users); err != nil {
		return fmt.Errorf("save subscribers: %w", err)
	}
	r.logger.Info("New subscriber", "user_id", userID, "total", len(users))
	return nil
}

// Remove unregisters a subscriber. Removing an absent ID is a no-op.
func (r *Registry) Remove(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.store.LoadSubscribers(ctx)
	if err != nil {
		return fmt.Errorf("load subscribers: %w", err)
	}

	kept := users[:0]
	for _, id := range users {
		if id != userID {
			kept = append(kept, id)
		}
	}
	if len(kept) == len(users) {
		return nil
	}

	if err := r.store.SaveSubscribers(ctx, kept); err != nil {
		return fmt.Errorf("save subscribers: %w", err)
	}
	r.logger.Info("Unsubscribed", "user_id", userID, "total", len(kept))
	return nil
}

// List returns the current subscriber IDs.
func (r *Registry) List(ctx context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.store.LoadSubscribers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load subscribers: %w", err)
	}
	return users, nil
}
