// Package responder adapts the grandcat/zeroconf mDNS responder to the
// engine's register/update/unregister contract. Each published record is its
// own zeroconf server instance, keyed by instance/type pair.
package responder

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/grandcat/zeroconf"

	"github.com/localpub/localpub/internal/domain"
	"github.com/localpub/localpub/internal/logger"
	"github.com/localpub/localpub/internal/netutil"
)

const mdnsDomain = "local."

// Zeroconf publishes records on the selected adapters.
//
// The engine serializes register/unregister calls; the mutex guards the
// server map against the shutdown sweep's bounded-timeout goroutines.
type Zeroconf struct {
	selection netutil.Selection
	logger    logger.Logger

	mu      sync.Mutex
	servers map[string]*zeroconf.Server
}

func NewZeroconf(sel netutil.Selection, log logger.Logger) *Zeroconf {
	return &Zeroconf{
		selection: sel,
		logger:    log,
		servers:   make(map[string]*zeroconf.Server),
	}
}

// Register announces a record. Idempotent: re-registering an instance/type
// pair replaces the previous announcement.
func (z *Zeroconf) Register(ctx context.Context, rec *domain.ServiceRecord) error {
	// zeroconf composes the FQDN from host and domain itself.
	host := strings.TrimSuffix(rec.Target, ".local")

	srv, err := zeroconf.RegisterProxy(
		rec.Instance,
		rec.Service,
		mdnsDomain,
		rec.Port,
		host,
		z.selection.IPs,
		rec.WireTxt(),
		z.interfaces(),
	)
	if err != nil {
		return fmt.Errorf("mdns register %s: %w", rec.Name(), err)
	}
	srv.TTL(rec.TTLSeconds)

	z.mu.Lock()
	if old, ok := z.servers[rec.Name()]; ok {
		old.Shutdown()
	}
	z.servers[rec.Name()] = srv
	z.mu.Unlock()

	z.logger.Debug("mdns record registered",
		logger.String("record", rec.Name()),
		logger.Strings("ips", z.selection.IPs))
	return nil
}

// Update swaps the TXT entries of an already-registered record in place.
func (z *Zeroconf) Update(ctx context.Context, rec *domain.ServiceRecord) error {
	z.mu.Lock()
	srv, ok := z.servers[rec.Name()]
	z.mu.Unlock()

	if !ok {
		return fmt.Errorf("mdns update %s: not registered", rec.Name())
	}
	srv.SetText(rec.WireTxt())
	return nil
}

// Unregister withdraws a record. Unknown records are a no-op: unregister is
// idempotent so a retried withdrawal never fails.
func (z *Zeroconf) Unregister(ctx context.Context, instance, service string) error {
	key := instance + "." + service

	z.mu.Lock()
	srv, ok := z.servers[key]
	delete(z.servers, key)
	z.mu.Unlock()

	if !ok {
		return nil
	}
	srv.Shutdown()
	z.logger.Debug("mdns record withdrawn", logger.String("record", key))
	return nil
}

// Close withdraws everything still registered.
func (z *Zeroconf) Close() {
	z.mu.Lock()
	defer z.mu.Unlock()

	for key, srv := range z.servers {
		srv.Shutdown()
		delete(z.servers, key)
	}
}

func (z *Zeroconf) interfaces() []net.Interface {
	if len(z.selection.Interfaces) == 0 {
		return nil // nil = all interfaces
	}
	return z.selection.Interfaces
}
