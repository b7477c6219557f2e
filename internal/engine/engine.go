// Package engine drives the mDNS responder from the container event stream.
// One serialized loop owns the publication table: events, periodic resync
// ticks and the manual resync trigger all funnel into a single select, so no
// two events are ever processed concurrently.
package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/localpub/localpub/internal/domain"
	"github.com/localpub/localpub/internal/labels"
	"github.com/localpub/localpub/internal/logger"
	"github.com/localpub/localpub/internal/table"
)

// EventType classifies container lifecycle events. Everything the daemon
// reacts to collapses into these two.
type EventType int

const (
	ContainerStart EventType = iota
	ContainerStop
)

// Event is one container lifecycle notification. Labels may be nil on stop
// events; only the ID matters there.
type Event struct {
	Type   EventType
	ID     string
	Labels map[string]string
}

// Container is one entry of the running-container listing.
type Container struct {
	ID     string
	Labels map[string]string
}

// EventSource is the container-runtime collaborator. Subscribe returns a
// lazy, non-restartable stream; an error on the error channel (or a closed
// event channel) is fatal to the engine, the daemon relies on its host
// restart policy rather than reconnecting forever.
type EventSource interface {
	ListRunning(ctx context.Context) ([]Container, error)
	Subscribe(ctx context.Context) (<-chan Event, <-chan error)
}

// Responder is the mDNS collaborator. Update applies a TXT-only change in
// place; everything else goes through Unregister/Register.
type Responder interface {
	Register(ctx context.Context, rec *domain.ServiceRecord) error
	Update(ctx context.Context, rec *domain.ServiceRecord) error
	Unregister(ctx context.Context, instance, service string) error
}

// ConflictError reports a name/type pair already claimed by another
// container. The existing holder stays published; the newcomer is skipped.
type ConflictError struct {
	Instance string
	Service  string
	HolderID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s.%s already published by container %s",
		e.Instance, e.Service, e.HolderID)
}

// Options configures an Engine.
type Options struct {
	TTLSeconds        uint32
	Debug             bool
	UnregisterTimeout time.Duration

	// StaticIntents are fixed records published alongside containers. They
	// flow through the same reconciliation path under synthetic IDs.
	StaticIntents []*domain.PublicationIntent

	// Now is the clock, injectable for tests. Defaults to time.Now.
	Now func() time.Time
}

// Engine is the reconciliation loop. It owns the publication table; no
// other component writes to it.
type Engine struct {
	source    EventSource
	responder Responder
	tbl       *table.Table
	parser    *labels.Parser
	logger    logger.Logger
	opts      Options

	resyncCh chan struct{}
	ready    atomic.Bool
}

func New(
	source EventSource,
	responder Responder,
	tbl *table.Table,
	log logger.Logger,
	resyncCh chan struct{},
	opts Options,
) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.UnregisterTimeout <= 0 {
		opts.UnregisterTimeout = 2 * time.Second
	}

	return &Engine{
		source:    source,
		responder: responder,
		tbl:       tbl,
		parser:    labels.NewParser(log),
		logger:    log,
		opts:      opts,
		resyncCh:  resyncCh,
	}
}

// Ready reports whether the startup reconciliation has completed.
func (e *Engine) Ready() bool {
	return e.ready.Load()
}

// TriggerResync queues a reconciliation sweep. Non-blocking: a sweep already
// pending absorbs the trigger.
func (e *Engine) TriggerResync() {
	select {
	case e.resyncCh <- struct{}{}:
	default:
	}
}

// Run processes the event stream until ctx is cancelled. On cancellation it
// performs the best-effort unregister sweep and returns nil. A failed event
// stream returns an error: the process is expected to exit and be restarted.
func (e *Engine) Run(ctx context.Context) error {
	// Subscribe before the initial listing so containers starting during the
	// listing are still observed. Double-processing is harmless: duplicate
	// identical starts are no-ops.
	events, errs := e.source.Subscribe(ctx)

	if err := e.resync(ctx); err != nil {
		return fmt.Errorf("startup reconciliation failed: %w", err)
	}
	e.ready.Store(true)
	e.logger.Info("startup reconciliation complete",
		logger.Int("published", e.tbl.Len()))

	for {
		select {
		case <-ctx.Done():
			e.shutdown()
			return nil

		case err := <-errs:
			// Cancellation also tears down the stream; don't mistake that for
			// a stream failure, the sweep must still run.
			if ctx.Err() != nil {
				e.shutdown()
				return nil
			}
			e.logger.Error("event stream failed", logger.Error(err))
			return fmt.Errorf("event stream failed: %w", err)

		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					e.shutdown()
					return nil
				}
				return fmt.Errorf("event stream closed")
			}
			e.process(ctx, ev)

		case <-e.resyncCh:
			if err := e.resync(ctx); err != nil {
				e.logger.Error("reconciliation sweep failed", logger.Error(err))
			}
		}
	}
}

func (e *Engine) process(ctx context.Context, ev Event) {
	switch ev.Type {
	case ContainerStart:
		e.handleStart(ctx, ev.ID, ev.Labels)
	case ContainerStop:
		e.handleStop(ctx, ev.ID)
	}
}

// handleStart publishes the record a starting container asks for, if any.
func (e *Engine) handleStart(ctx context.Context, id string, labelMap map[string]string) {
	intent, err := e.parser.Parse(labelMap)
	if err != nil {
		e.logger.Warn("container has malformed publish labels, skipping",
			logger.String("container", shortID(id)),
			logger.Error(err))
		return
	}
	if intent == nil {
		return
	}
	e.publish(ctx, id, intent)
}

// publish reconciles one container's intent against the table and the
// responder. Shared by live start events, the resync sweep and static
// records.
func (e *Engine) publish(ctx context.Context, id string, intent *domain.PublicationIntent) {
	rec := domain.BuildRecord(intent, domain.BuildContext{
		TTLSeconds:  e.opts.TTLSeconds,
		Debug:       e.opts.Debug,
		ContainerID: id,
		Now:         e.opts.Now(),
	})

	if cur, ok := e.tbl.Get(id); ok && cur.Record != nil {
		switch {
		case cur.State == table.Published && cur.Record.Equal(rec):
			// Duplicate start with an unchanged record: avoid re-registration churn.
			e.logger.Debug("record unchanged",
				logger.String("container", shortID(id)),
				logger.String("record", rec.Name()))
			return

		case cur.State == table.Published && cur.Record.SameEndpoint(rec):
			// Only TXT entries changed: the responder can swap them in place
			// with no observable gap.
			e.updateTxt(ctx, id, cur.Record, rec)
			return

		case cur.State == table.Published || cur.State == table.Publishing:
			// Record changed: two discrete responder calls, never a partial
			// mutation of the published record.
			e.logger.Info("record changed, replacing",
				logger.String("container", shortID(id)),
				logger.String("old", cur.Record.Name()),
				logger.String("new", rec.Name()))
			e.handleStop(ctx, id)
		}
	}

	if holder, ok := e.tbl.Claimant(rec.Instance, rec.Service, id); ok {
		cerr := &ConflictError{Instance: rec.Instance, Service: rec.Service, HolderID: holder}
		e.logger.Warn("name already claimed, not publishing",
			logger.String("container", shortID(id)),
			logger.Error(cerr))
		return
	}

	e.tbl.Put(id, table.Entry{State: table.Publishing, Record: rec})
	if err := e.responder.Register(ctx, rec); err != nil {
		// Back to unpublished; retried on the next event for this container
		// or on the next resync sweep. No tight retry loop.
		e.tbl.Remove(id)
		e.logger.Error("responder register failed",
			logger.String("container", shortID(id)),
			logger.String("record", rec.Name()),
			logger.Error(err))
		return
	}

	e.tbl.CompareAndTransition(id, table.Publishing, table.Entry{State: table.Published, Record: rec})
	e.logger.Info("published",
		logger.String("container", shortID(id)),
		logger.String("record", rec.Name()),
		logger.String("target", rec.Target),
		logger.Int("port", rec.Port))
}

func (e *Engine) updateTxt(ctx context.Context, id string, old, rec *domain.ServiceRecord) {
	if err := e.responder.Update(ctx, rec); err != nil {
		e.logger.Error("responder update failed, replacing record instead",
			logger.String("container", shortID(id)),
			logger.String("record", rec.Name()),
			logger.Error(err))
		// Fall back to the replace path.
		e.handleStop(ctx, id)
		e.tbl.Put(id, table.Entry{State: table.Publishing, Record: rec})
		if err := e.responder.Register(ctx, rec); err != nil {
			e.tbl.Remove(id)
			e.logger.Error("responder register failed",
				logger.String("container", shortID(id)),
				logger.String("record", rec.Name()),
				logger.Error(err))
			return
		}
		e.tbl.CompareAndTransition(id, table.Publishing, table.Entry{State: table.Published, Record: rec})
		return
	}

	e.tbl.Put(id, table.Entry{State: table.Published, Record: rec})
	e.logger.Info("updated TXT entries",
		logger.String("container", shortID(id)),
		logger.String("record", rec.Name()))
}

// handleStop withdraws a container's record. The entry is removed whatever
// the responder says: a failed unregister must not leave a stuck entry, TTL
// expiry on the wire is the backstop.
func (e *Engine) handleStop(ctx context.Context, id string) {
	cur, ok := e.tbl.Get(id)
	if !ok || (cur.State != table.Published && cur.State != table.Publishing) {
		return
	}

	rec := cur.Record
	e.tbl.Put(id, table.Entry{State: table.Unpublishing, Record: rec})
	if err := e.responder.Unregister(ctx, rec.Instance, rec.Service); err != nil {
		e.logger.Error("responder unregister failed, record will expire by TTL",
			logger.String("container", shortID(id)),
			logger.String("record", rec.Name()),
			logger.Error(err))
	} else {
		e.logger.Info("unpublished",
			logger.String("container", shortID(id)),
			logger.String("record", rec.Name()))
	}
	e.tbl.Remove(id)
}

// resync converges the table to the live container list: publishes running
// containers (and static records), withdraws entries whose container is gone.
// Also the opportunistic retry path for earlier responder failures.
func (e *Engine) resync(ctx context.Context) error {
	containers, err := e.source.ListRunning(ctx)
	if err != nil {
		return fmt.Errorf("failed to list running containers: %w", err)
	}

	seen := make(map[string]bool, len(containers)+len(e.opts.StaticIntents))
	for _, c := range containers {
		seen[c.ID] = true
		e.handleStart(ctx, c.ID, c.Labels)
	}

	for _, intent := range e.opts.StaticIntents {
		id := "static:" + intent.Host
		seen[id] = true
		e.publish(ctx, id, intent)
	}

	// Withdraw records whose container disappeared without a stop event.
	for id, entry := range e.tbl.All() {
		if seen[id] {
			continue
		}
		if entry.State == table.Published || entry.State == table.Publishing {
			e.logger.Info("container gone without stop event, withdrawing",
				logger.String("container", shortID(id)))
			e.handleStop(ctx, id)
		} else {
			e.tbl.Remove(id)
		}
	}

	return nil
}

// shutdown is the best-effort final unregister sweep. Each call gets a
// bounded grace period; a hung responder call is abandoned and the sweep
// moves on, the process exits regardless.
func (e *Engine) shutdown() {
	entries := e.tbl.All()
	e.logger.Info("withdrawing all published records",
		logger.Int("count", len(entries)))

	for id, entry := range entries {
		if entry.State != table.Published && entry.State != table.Publishing {
			e.tbl.Remove(id)
			continue
		}

		rec := entry.Record
		ctx, cancel := context.WithTimeout(context.Background(), e.opts.UnregisterTimeout)
		done := make(chan error, 1)
		go func() {
			done <- e.responder.Unregister(ctx, rec.Instance, rec.Service)
		}()

		select {
		case err := <-done:
			if err != nil {
				e.logger.Warn("unregister failed during shutdown, record will expire by TTL",
					logger.String("record", rec.Name()),
					logger.Error(err))
			}
		case <-ctx.Done():
			e.logger.Warn("unregister timed out during shutdown, record will expire by TTL",
				logger.String("record", rec.Name()))
		}
		cancel()
		e.tbl.Remove(id)
	}
}

// shortID truncates a container ID the way docker CLIs display them.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
