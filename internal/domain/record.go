package domain

import (
	"fmt"
	"strings"
	"time"
)

// Provenance TXT keys added in debug mode. Never semantically meaningful to
// consumers; excluded from change detection.
const (
	TxtKeyRegisteredAt = "registered-at"
	TxtKeyContainerID  = "container-id"
)

// ServiceRecord is the canonical, ready-to-publish representation of one
// mDNS/DNS-SD service. It is built once from a validated intent and never
// mutated afterwards.
type ServiceRecord struct {
	// Instance is the DNS-SD instance name, the first label of the host.
	// Example: test2
	Instance string

	// Service is the DNS-SD service type. Example: _http._tcp
	Service string

	// Target is the `.local` hostname answered for, without trailing dot.
	Target string

	Port       int
	TTLSeconds uint32

	// Txt are the entries from the intent, in order.
	Txt []TxtEntry

	// Provenance carries the debug-mode synthetic entries. Kept apart from
	// Txt so Equal can ignore them.
	Provenance []TxtEntry

	// ContainerID is the owning container (or synthetic static id).
	ContainerID string
}

// BuildContext supplies the process-level inputs of record building.
type BuildContext struct {
	TTLSeconds  uint32
	Debug       bool
	ContainerID string
	Now         time.Time
}

// BuildRecord derives the canonical record from a validated intent. Pure and
// total: the intent has already passed the parser, there is no failure mode.
func BuildRecord(intent *PublicationIntent, bctx BuildContext) *ServiceRecord {
	rec := &ServiceRecord{
		Instance:    instanceName(intent.Host),
		Service:     intent.ServiceType,
		Target:      intent.Host,
		Port:        intent.Port,
		TTLSeconds:  bctx.TTLSeconds,
		Txt:         intent.Txt,
		ContainerID: bctx.ContainerID,
	}

	if bctx.Debug {
		rec.Provenance = []TxtEntry{
			{Key: TxtKeyRegisteredAt, Value: bctx.Now.Format(time.RFC3339)},
			{Key: TxtKeyContainerID, Value: bctx.ContainerID},
		}
	}

	return rec
}

// instanceName extracts the first DNS label as instance name.
// Example: "test2.local" -> "test2"
func instanceName(host string) string {
	if i := strings.IndexByte(host, '.'); i > 0 {
		return host[:i]
	}
	return host
}

// Equal reports whether two records would publish the same data on the wire.
// Provenance entries are ignored: a record re-built for the same container at
// a later time must still compare equal.
func (r *ServiceRecord) Equal(other *ServiceRecord) bool {
	if !r.SameEndpoint(other) {
		return false
	}
	if len(r.Txt) != len(other.Txt) {
		return false
	}
	for i := range r.Txt {
		if r.Txt[i] != other.Txt[i] {
			return false
		}
	}
	return true
}

// SameEndpoint reports whether two records differ at most in their TXT
// entries. When true, a changed record can be applied as an in-place TXT
// update instead of an unregister/register cycle.
func (r *ServiceRecord) SameEndpoint(other *ServiceRecord) bool {
	return r.Instance == other.Instance &&
		r.Service == other.Service &&
		r.Target == other.Target &&
		r.Port == other.Port &&
		r.TTLSeconds == other.TTLSeconds
}

// WireTxt renders all TXT entries, provenance included, as `key=value`
// strings in publication order.
func (r *ServiceRecord) WireTxt() []string {
	out := make([]string, 0, len(r.Txt)+len(r.Provenance))
	for _, e := range r.Txt {
		out = append(out, e.Key+"="+e.Value)
	}
	for _, e := range r.Provenance {
		out = append(out, e.Key+"="+e.Value)
	}
	return out
}

// Name returns the instance/type pair as a display string.
// Example: "test2._http._tcp"
func (r *ServiceRecord) Name() string {
	return fmt.Sprintf("%s.%s", r.Instance, r.Service)
}
