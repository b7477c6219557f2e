// Package labels turns container label maps into publication intents.
// This is the only place where the raw label "wire format" is interpreted;
// everything past this boundary works with validated domain values.
package labels

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/localpub/localpub/internal/domain"
	"github.com/localpub/localpub/internal/logger"
)

// Label keys recognized on containers.
const (
	KeyPublish     = "mdns.publish"     // <name>.local[:<port>], required
	KeyServiceType = "mdns.servicetype" // _type._proto, optional override
	KeyTxt         = "mdns.txt"         // k1=v1,k2=v2, optional
)

const defaultPort = 80

var (
	hostnameRule    = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.\-]*$`)
	serviceTypeRule = regexp.MustCompile(`^_[A-Za-z0-9\-]+\._(tcp|udp)$`)
)

// ParseError describes a malformed publish label. The container is skipped,
// never partially published.
type ParseError struct {
	Label  string
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("label %s=%q: %s", e.Label, e.Value, e.Reason)
}

// Parser converts label maps into intents. It holds a logger only to report
// soft failures (an invalid service type override falls back to the default
// instead of failing the parse).
type Parser struct {
	logger logger.Logger
}

func NewParser(log logger.Logger) *Parser {
	return &Parser{logger: log}
}

// Parse returns the publication intent carried by a label map.
// Returns (nil, nil) when the publish key is absent: the container is simply
// not a publication candidate. Returns a *ParseError when the publish key is
// present but malformed.
func (p *Parser) Parse(labelMap map[string]string) (*domain.PublicationIntent, error) {
	publish, ok := labelMap[KeyPublish]
	if !ok {
		return nil, nil
	}

	host, port, err := parsePublish(publish)
	if err != nil {
		return nil, err
	}

	txt, err := parseTxt(labelMap[KeyTxt])
	if err != nil {
		return nil, err
	}

	serviceType := domain.ServiceTypeForPort(port)
	if override, ok := labelMap[KeyServiceType]; ok {
		if serviceTypeRule.MatchString(override) {
			serviceType = override
		} else {
			p.logger.Warn("invalid service type override, using port-derived default",
				logger.String("label", KeyServiceType),
				logger.String("value", override),
				logger.String("default", serviceType))
		}
	}

	return &domain.PublicationIntent{
		Host:        host,
		Port:        port,
		ServiceType: serviceType,
		Txt:         txt,
	}, nil
}

// parsePublish splits "<name>.local[:<port>]" into its host and port parts.
// A trailing dot on the host is tolerated and trimmed.
func parsePublish(value string) (string, int, error) {
	host := strings.TrimSpace(value)
	port := defaultPort

	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		p, err := strconv.Atoi(host[i+1:])
		if err != nil || p < 1 || p > 65535 {
			return "", 0, &ParseError{Label: KeyPublish, Value: value, Reason: "invalid port"}
		}
		host, port = host[:i], p
	}

	host = strings.TrimSuffix(host, ".")
	if host == "" || !hostnameRule.MatchString(host) {
		return "", 0, &ParseError{Label: KeyPublish, Value: value, Reason: "invalid hostname"}
	}
	if !strings.HasSuffix(host, ".local") {
		return "", 0, &ParseError{Label: KeyPublish, Value: value, Reason: "hostname must end in .local"}
	}

	return host, port, nil
}

// parseTxt parses "k1=v1,k2=v2" into ordered entries. Duplicate keys are
// kept. An item without '=' fails the whole parse.
func parseTxt(value string) ([]domain.TxtEntry, error) {
	if value == "" {
		return nil, nil
	}

	items := strings.Split(value, ",")
	entries := make([]domain.TxtEntry, 0, len(items))
	for _, item := range items {
		key, val, ok := strings.Cut(item, "=")
		if !ok || key == "" {
			return nil, &ParseError{Label: KeyTxt, Value: value, Reason: "entries must be key=value"}
		}
		entries = append(entries, domain.TxtEntry{Key: key, Value: val})
	}
	return entries, nil
}
