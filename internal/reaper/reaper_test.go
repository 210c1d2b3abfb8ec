package reaper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/clock"
	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/logging"
)

type fakeSweepStore struct {
	calls  atomic.Int64
	swept  int64
	err    error
	notify chan struct{}
}

func (f *fakeSweepStore) SweepExpired(context.Context, time.Time) (int64, error) {
	f.calls.Add(1)
	if f.notify != nil {
		select {
		case f.notify <- struct{}{}:
		default:
		}
	}
	return f.swept, f.err
}

func TestReaper_SweepOnce(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("sweeps via the store", func(t *testing.T) {
		store := &fakeSweepStore{swept: 3}
		r := New(store, clock.NewFixed(now), logging.NewNop(), time.Minute)

		r.sweepOnce(context.Background())
		if got := store.calls.Load(); got != 1 {
			t.Fatalf("expected 1 sweep, got %d", got)
		}
	})

	t.Run("store errors do not propagate", func(t *testing.T) {
		store := &fakeSweepStore{err: errors.New("connection refused")}
		r := New(store, clock.NewFixed(now), logging.NewNop(), time.Minute)

		r.sweepOnce(context.Background())
		r.sweepOnce(context.Background())
		if got := store.calls.Load(); got != 2 {
			t.Fatalf("expected sweeps to keep running, got %d", got)
		}
	})
}

func TestReaper_StartStop(t *testing.T) {
	t.Parallel()

	store := &fakeSweepStore{notify: make(chan struct{}, 1)}
	r := New(store, clock.NewSystem(), logging.NewNop(), 10*time.Millisecond)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	select {
	case <-store.notify:
	case <-time.After(5 * time.Second):
		t.Fatal("no sweep within 5s")
	}

	r.Stop()
}
