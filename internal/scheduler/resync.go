// Package scheduler drives the periodic reconciliation sweep. It only queues
// work: the sweep itself runs inside the engine's serialized loop, never here.
package scheduler

import (
	"context"
	"time"

	"github.com/localpub/localpub/internal/logger"
)

// Triggerable is the engine-side hook the scheduler pulls.
type Triggerable interface {
	TriggerResync()
}

// Resyncer periodically triggers a reconciliation sweep.
type Resyncer struct {
	engine   Triggerable
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
}

func NewResyncer(eng Triggerable, log logger.Logger, interval time.Duration) *Resyncer {
	return &Resyncer{
		engine:   eng,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic trigger loop. The initial sweep is not triggered
// here: the engine runs its own startup reconciliation.
func (r *Resyncer) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.logger.Debug("triggering periodic reconciliation sweep")
				r.engine.TriggerResync()
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the resyncer.
func (r *Resyncer) Stop() {
	close(r.stopCh)
}
