package registry

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store for tests.
type memStore struct {
	mu    sync.Mutex
	users []int64
	saves int
}

func (m *memStore) LoadSubscribers(context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int64, len(m.users))
	copy(out, m.users)
	return out, nil
}

func (m *memStore) SaveSubscribers(_ context.Context, users []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = make([]int64, len(users))
	copy(m.users, users)
	m.saves++
	return nil
}

func testRegistry() (*Registry, *memStore) {
	store := &memStore{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(store, logger), store
}

func TestAddAndList(t *testing.T) {
	r, _ := testRegistry()
	ctx := context.Background()

	require.NoError(t, r.Add(ctx, 101))
	require.NoError(t, r.Add(ctx, 102))

	users, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{101, 102}, users)
}

func TestAddIsIdempotent(t *testing.T) {
	r, store := testRegistry()
	ctx := context.Background()

	require.NoError(t, r.Add(ctx, 101))
	require.NoError(t, r.Add(ctx, 101))

	users, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{101}, users)
	assert.Equal(t, 1, store.saves, "duplicate add must not rewrite the document")
}

func TestRemove(t *testing.T) {
	r, _ := testRegistry()
	ctx := context.Background()

	require.NoError(t, r.Add(ctx, 101))
	require.NoError(t, r.Add(ctx, 102))
	require.NoError(t, r.Remove(ctx, 101))

	users, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{102}, users)
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	r, store := testRegistry()
	ctx := context.Background()

	require.NoError(t, r.Remove(ctx, 999))
	assert.Equal(t, 0, store.saves)
}

func TestConcurrentMutation(t *testing.T) {
	r, _ := testRegistry()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := int64(0); i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_ = r.Add(ctx, id)
		}(i)
	}
	wg.Wait()

	users, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 50)
}
