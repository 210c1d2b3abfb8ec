// Package reaper runs the periodic sweep of expired reservation holds.
// It is an optimization on top of the lazy sweep-on-read paths, which
// remain the correctness baseline: if the reaper lags or is disabled,
// expired holds are still reclaimed the next time anyone reads them.
package reaper

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/clock"
	"github.com/Biaescu25/Aplicatie-Web-pentru-gestionarea-unei-florarii-online/internal/logging"
)

// Store is the sweep entry point: release every expired hold, resetting
// bid-locked products along the way, and report how many were dropped.
type Store interface {
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

type Reaper struct {
	cron     *cron.Cron
	store    Store
	clock    clock.Clock
	log      logging.Logger
	interval time.Duration
}

func New(store Store, clk clock.Clock, log logging.Logger, interval time.Duration) *Reaper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reaper{
		cron:     cron.New(),
		store:    store,
		clock:    clk,
		log:      log,
		interval: interval,
	}
}

func (r *Reaper) Start(ctx context.Context) error {
	_, err := r.cron.AddFunc(fmt.Sprintf("@every %s", r.interval), func() {
		r.sweepOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	r.cron.Start()
	r.log.Info("reaper started", "interval", r.interval.String())
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (r *Reaper) Stop() {
	<-r.cron.Stop().Done()
	r.log.Info("reaper stopped")
}

func (r *Reaper) sweepOnce(ctx context.Context) {
	swept, err := r.store.SweepExpired(ctx, r.clock.Now())
	if err != nil {
		r.log.Error("sweep failed", "error", err)
		return
	}
	if swept > 0 {
		r.log.Info("expired holds swept", "count", swept)
	}
}
