package bot

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
)

type fakeRegistry struct {
	added   []int64
	removed []int64
	err     error
}

func (f *fakeRegistry) Add(_ context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	f.added = append(f.added, id)
	return nil
}

func (f *fakeRegistry) Remove(_ context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	f.removed = append(f.removed, id)
	return nil
}

func testBot(reg Registry) *Bot {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return &Bot{registry: reg, logger: logger}
}

func TestHandleStartSubscribes(t *testing.T) {
	reg := &fakeRegistry{}
	b := testBot(reg)

	reply := b.handleStart(101)
	if reply != welcomeReply {
		t.Errorf("unexpected reply: %q", reply)
	}
	if len(reg.added) != 1 || reg.added[0] != 101 {
		t.Errorf("expected user 101 added, got %v", reg.added)
	}
}

func TestHandleStopUnsubscribes(t *testing.T) {
	reg := &fakeRegistry{}
	b := testBot(reg)

	reply := b.handleStop(101)
	if reply != goodbyeReply {
		t.Errorf("unexpected reply: %q", reply)
	}
	if len(reg.removed) != 1 || reg.removed[0] != 101 {
		t.Errorf("expected user 101 removed, got %v", reg.removed)
	}
}

func TestRegistryFailureGetsErrorReply(t *testing.T) {
	reg := &fakeRegistry{err: errors.New("storage unavailable")}
	b := testBot(reg)

	if reply := b.handleStart(101); reply != errorReply {
		t.Errorf("unexpected reply on Add failure: %q", reply)
	}
	if reply := b.handleStop(101); reply != errorReply {
		t.Errorf("unexpected reply on Remove failure: %q", reply)
	}
}
