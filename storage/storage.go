// Package storage persists the last-seen snapshot and the subscriber set.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
	"github.com/codeGROOVE-dev/retry"

	"campus-notifier/pkg/notifier"
)

const (
	snapshotKey    = "notification_data.json"
	subscribersKey = "subscribers.json"
)

// Store persists whole JSON documents either under a local directory or in a
// Cloud Storage bucket. Exactly one of localPath and bucket is used.
type Store struct {
	client    *storage.Client
	logger    *slog.Logger
	localPath string
	bucket    string
}

// New creates a new store. When localPath is non-empty it takes precedence
// and client may be nil.
func New(client *storage.Client, bucket string, localPath string, logger *slog.Logger) *Store {
	return &Store{
		client:    client,
		logger:    logger,
		localPath: localPath,
		bucket:    bucket,
	}
}

// subscriberDoc matches the on-disk document shape of the subscriber set.
type subscriberDoc struct {
	Users []int64 `json:"users"`
}

// LoadSnapshot returns the last persisted snapshot, or an empty one when
// nothing has been stored yet.
func (s *Store) LoadSnapshot(ctx context.Context) (notifier.Snapshot, error) {
	data, err := s.read(ctx, snapshotKey)
	if err != nil {
		if isNotExist(err) {
			return notifier.Snapshot{}, nil
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var snap notifier.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// A corrupt document must not wedge the poll loop. Start over
		// empty; the next save rewrites the file.
		s.logger.Warn("Snapshot file is corrupt, starting with empty state", "key", snapshotKey, "error", err)
		return notifier.Snapshot{}, nil
	}
	return snap, nil
}

// SaveSnapshot overwrites the persisted snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, snap notifier.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.write(ctx, snapshotKey, data); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	s.logger.Info("Snapshot saved", "items", snap.Total())
	return nil
}

// LoadSubscribers returns the persisted subscriber IDs, empty when none.
func (s *Store) LoadSubscribers(ctx context.Context) ([]int64, error) {
	data, err := s.read(ctx, subscribersKey)
	if err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load subscribers: %w", err)
	}

	var doc subscriberDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("Subscriber file is corrupt, starting with empty state", "key", subscribersKey, "error", err)
		return nil, nil
	}
	return doc.Users, nil
}

// SaveSubscribers overwrites the persisted subscriber set.
func (s *Store) SaveSubscribers(ctx context.Context, users []int64) error {
	data, err := json.MarshalIndent(subscriberDoc{Users: users}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal subscribers: %w", err)
	}
	if err := s.write(ctx, subscribersKey, data); err != nil {
		return fmt.Errorf("save subscribers: %w", err)
	}
	s.logger.Info("Subscribers saved", "count", len(users))
	return nil
}

func (s *Store) read(ctx context.Context, key string) ([]byte, error) {
	// Local filesystem storage
	if s.localPath != "" {
		data, err := os.ReadFile(filepath.Join(s.localPath, key))
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errNotExist
			}
			return nil, fmt.Errorf("read from local storage: %w", err)
		}
		return data, nil
	}

	// Cloud Storage with retry logic for reliability
	var data []byte
	err := retry.Do(
		func() error {
			r, openErr := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
			if openErr != nil {
				if errors.Is(openErr, storage.ErrObjectNotExist) {
					return retry.Unrecoverable(errNotExist)
				}
				return fmt.Errorf("open storage reader: %w", openErr)
			}
			defer func() {
				if closeErr := r.Close(); closeErr != nil {
					s.logger.Warn("Failed to close storage reader", "error", closeErr)
				}
			}()

			var readErr error
			data, readErr = io.ReadAll(r)
			if readErr != nil {
				return fmt.Errorf("read from storage: %w", readErr)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.MaxJitter(2*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, retryErr error) {
			s.logger.Info("Retrying load operation after error", "attempt", n, "key", key, "error", retryErr)
		}),
	)
	if err != nil {
		if errors.Is(err, errNotExist) {
			return nil, errNotExist
		}
		return nil, fmt.Errorf("load after retries: %w", err)
	}
	return data, nil
}

func (s *Store) write(ctx context.Context, key string, data []byte) error {
	// Local filesystem storage
	if s.localPath != "" {
		path := filepath.Join(s.localPath, key)
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return fmt.Errorf("write to local storage: %w", err)
		}
		return nil
	}

	// Cloud Storage with retry logic for reliability
	err := retry.Do(
		func() error {
			w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
			if _, writeErr := w.Write(data); writeErr != nil {
				if closeErr := w.Close(); closeErr != nil {
					s.logger.Warn("Failed to close writer after error", "error", closeErr)
				}
				return fmt.Errorf("write to storage: %w", writeErr)
			}
			if closeErr := w.Close(); closeErr != nil {
				return fmt.Errorf("close storage writer: %w", closeErr)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.MaxJitter(2*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, retryErr error) {
			s.logger.Info("Retrying save operation after error", "attempt", n, "key", key, "error", retryErr)
		}),
	)
	if err != nil {
		return fmt.Errorf("save after retries: %w", err)
	}
	return nil
}

var errNotExist = errors.New("storage: object doesn't exist")

func isNotExist(err error) bool {
	return errors.Is(err, errNotExist)
}
