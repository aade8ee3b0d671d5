// Package config loads the process-wide configuration snapshot from the
// environment. The snapshot is built once at startup and passed explicitly;
// nothing re-reads the environment after Load returns, so changing role
// membership requires a restart.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults applied when the corresponding variable is unset.
const (
	DefaultRowLimit   = 100
	DefaultMaxLimit   = 10000
	DefaultMaxRows    = 10000
	DefaultQueryTime  = 30 * time.Second
	DefaultHTTPPort   = "8080"
	DefaultLogLevel   = "info"
	DefaultEngineName = "mysql"
)

// Snapshot is the immutable process configuration. All fields are read-only
// after Load; concurrent readers need no synchronization.
type Snapshot struct {
	// Role membership sets, resolved per call. Admin wins over writer wins
	// over reader when an identity appears in more than one list.
	Admins  []string
	Writers []string
	Readers []string

	// Engine is one of "mysql", "postgres", "sqlite".
	Engine string
	DSN    string

	// Row and limit caps for SELECT tools.
	DefaultLimit int
	MaxLimit     int
	MaxRows      int

	QueryTimeout time.Duration

	HTTPPort      string
	LogLevel      string
	ClickHouseDSN string

	// APIKeyHash is the bcrypt hash of the transport API key. Empty
	// disables transport auth (local development).
	APIKeyHash string
}

var ErrMissingDSN = errors.New("DATABASE_DSN is required")

// Load reads the snapshot from the environment.
func Load() (*Snapshot, error) {
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		return nil, ErrMissingDSN
	}

	s := &Snapshot{
		Admins:  splitList(os.Getenv("GITHUB_ADMINS")),
		Writers: splitList(os.Getenv("GITHUB_WRITERS")),
		Readers: splitList(os.Getenv("GITHUB_READERS")),

		Engine: envOrDefault("DATABASE_ENGINE", DefaultEngineName),
		DSN:    dsn,

		DefaultLimit: envOrDefaultInt("TOOLGATE_DEFAULT_LIMIT", DefaultRowLimit),
		MaxLimit:     envOrDefaultInt("TOOLGATE_MAX_LIMIT", DefaultMaxLimit),
		MaxRows:      envOrDefaultInt("TOOLGATE_MAX_ROWS", DefaultMaxRows),

		QueryTimeout: envOrDefaultDuration("TOOLGATE_QUERY_TIMEOUT", DefaultQueryTime),

		HTTPPort:      envOrDefault("TOOLGATE_HTTP_PORT", DefaultHTTPPort),
		LogLevel:      envOrDefault("TOOLGATE_LOG_LEVEL", DefaultLogLevel),
		ClickHouseDSN: os.Getenv("CLICKHOUSE_DSN"),
		APIKeyHash:    os.Getenv("TOOLGATE_API_KEY_HASH"),
	}
	return s, nil
}

// splitList parses a comma-separated identity list, trimming whitespace and
// dropping empty entries.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
