package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	TTLSeconds uint32 // record TTL in seconds, ex: 3600

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Debug publishes provenance TXT entries (registration time, container id)
	// alongside each record. Follows LogLevel=debug.
	Debug bool

	Adapters     []string // interface names to publish on; empty = all non-loopback
	ExcludedNets []string // CIDRs whose addresses are never published on

	ResyncInterval    time.Duration // interval between reconciliation sweeps (ex: 10m)
	ShutdownTimeout   time.Duration // overall graceful-stop budget (ex: 5s)
	UnregisterTimeout time.Duration // per-record unregister grace at shutdown (ex: 2s)

	StaticRecordsFile string // optional YAML file with fixed records (empty = disabled)

	// Ops HTTP surface
	HTTPListen       string   // ex: ":8417"; empty = disabled
	HTTPAllowedCIDRS []string // optional, restrict ops endpoints to specific IPs/CIDRs
}

func Load() *Config {
	cfg := &Config{
		TTLSeconds: uint32(getenvInt("TTL", 3600)),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		PrettyLog: mustBool("PRETTY_LOG", false),

		Adapters:     splitAndTrim(getenv("ADAPTERS", "")),
		ExcludedNets: splitAndTrim(getenv("EXCLUDED_NETS", "")),

		ResyncInterval:    mustDuration("RESYNC_INTERVAL", 10*time.Minute),
		ShutdownTimeout:   mustDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
		UnregisterTimeout: mustDuration("UNREGISTER_TIMEOUT", 2*time.Second),

		StaticRecordsFile: getenv("STATIC_RECORDS", ""),

		HTTPListen:       getenv("HTTP_LISTEN", ""),
		HTTPAllowedCIDRS: splitAndTrim(getenv("HTTP_ALLOWED_CIDRS", "")),
	}

	cfg.Debug = cfg.LogLevel == "debug"

	if cfg.Debug {
		log.Printf("[DEBUG] cfg: %+v\n", *cfg)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
