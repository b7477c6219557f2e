// Package domain contains the pure publication types. They carry no
// dependency on docker, zeroconf or any other external source; all inputs
// are validated before they become one of these values.
package domain

// TxtEntry is one key/value pair of a DNS-SD TXT record. Keys are not
// required to be unique; insertion order is preserved and duplicates are
// kept, the consumer decides precedence.
type TxtEntry struct {
	Key   string
	Value string
}

// PublicationIntent is the validated desire, parsed from container labels,
// to publish a single `.local` name. A container without a publish label has
// no intent; a container with a malformed label has no intent either (the
// parse fails as a whole, never producing a partial value).
type PublicationIntent struct {
	// Host is the `.local` hostname to publish, without trailing dot.
	// Example: test2.local
	Host string

	// Port the service listens on. Defaults to 80 when the label carries
	// no `:port` suffix.
	Port int

	// ServiceType is the DNS-SD service type, either derived from Port via
	// ServiceTypeForPort or overridden by label. Example: _http._tcp
	ServiceType string

	// Txt holds the TXT entries from the label, in label order.
	Txt []TxtEntry
}

// serviceTypeByPort maps well-known ports to their DNS-SD service type.
var serviceTypeByPort = map[int]string{
	80:   "_http._tcp",
	443:  "_http._tcp",
	515:  "_printer._tcp",
	631:  "_ipp._tcp",
	9100: "_pdl-datastream._tcp",
	1883: "_mqtt._tcp",
}

// DefaultServiceType is used for ports with no well-known mapping.
const DefaultServiceType = "_http._tcp"

// ServiceTypeForPort returns the DNS-SD service type for a port.
func ServiceTypeForPort(port int) string {
	if t, ok := serviceTypeByPort[port]; ok {
		return t
	}
	return DefaultServiceType
}
