package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("DATABASE_DSN", "")
	if _, err := Load(); !errors.Is(err, ErrMissingDSN) {
		t.Fatalf("got %v, want %v", err, ErrMissingDSN)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_DSN", "root@tcp(localhost:3306)/app")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine != "mysql" {
		t.Errorf("Engine = %q, want mysql", cfg.Engine)
	}
	if cfg.DefaultLimit != DefaultRowLimit || cfg.MaxLimit != DefaultMaxLimit {
		t.Errorf("limits = %d/%d, want %d/%d", cfg.DefaultLimit, cfg.MaxLimit, DefaultRowLimit, DefaultMaxLimit)
	}
	if cfg.QueryTimeout != DefaultQueryTime {
		t.Errorf("QueryTimeout = %v, want %v", cfg.QueryTimeout, DefaultQueryTime)
	}
	if cfg.HTTPPort != DefaultHTTPPort {
		t.Errorf("HTTPPort = %q, want %q", cfg.HTTPPort, DefaultHTTPPort)
	}
	if len(cfg.Admins)+len(cfg.Writers)+len(cfg.Readers) != 0 {
		t.Errorf("expected empty role lists, got %v/%v/%v", cfg.Admins, cfg.Writers, cfg.Readers)
	}
}

func TestLoadRoleLists(t *testing.T) {
	t.Setenv("DATABASE_DSN", "root@tcp(localhost:3306)/app")
	t.Setenv("GITHUB_ADMINS", "alice")
	t.Setenv("GITHUB_WRITERS", " bob , carol ")
	t.Setenv("GITHUB_READERS", "dave,,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Admins) != 1 || cfg.Admins[0] != "alice" {
		t.Errorf("Admins = %v", cfg.Admins)
	}
	if len(cfg.Writers) != 2 || cfg.Writers[0] != "bob" || cfg.Writers[1] != "carol" {
		t.Errorf("Writers = %v", cfg.Writers)
	}
	if len(cfg.Readers) != 1 || cfg.Readers[0] != "dave" {
		t.Errorf("Readers = %v", cfg.Readers)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_DSN", "postgres://app@localhost/app")
	t.Setenv("DATABASE_ENGINE", "postgres")
	t.Setenv("TOOLGATE_DEFAULT_LIMIT", "25")
	t.Setenv("TOOLGATE_MAX_LIMIT", "500")
	t.Setenv("TOOLGATE_QUERY_TIMEOUT", "5s")
	t.Setenv("TOOLGATE_HTTP_PORT", "9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine != "postgres" {
		t.Errorf("Engine = %q", cfg.Engine)
	}
	if cfg.DefaultLimit != 25 || cfg.MaxLimit != 500 {
		t.Errorf("limits = %d/%d", cfg.DefaultLimit, cfg.MaxLimit)
	}
	if cfg.QueryTimeout != 5*time.Second {
		t.Errorf("QueryTimeout = %v", cfg.QueryTimeout)
	}
	if cfg.HTTPPort != "9000" {
		t.Errorf("HTTPPort = %q", cfg.HTTPPort)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("DATABASE_DSN", "root@tcp(localhost:3306)/app")
	t.Setenv("TOOLGATE_DEFAULT_LIMIT", "not-a-number")
	t.Setenv("TOOLGATE_QUERY_TIMEOUT", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultLimit != DefaultRowLimit {
		t.Errorf("DefaultLimit = %d, want default %d", cfg.DefaultLimit, DefaultRowLimit)
	}
	if cfg.QueryTimeout != DefaultQueryTime {
		t.Errorf("QueryTimeout = %v, want default %v", cfg.QueryTimeout, DefaultQueryTime)
	}
}
