package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("expected path %s, got %s", path, resolved)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}

	def := Default()
	if cfg.Addr != def.Addr || cfg.SendTimeout != def.SendTimeout || cfg.DBDriver != def.DBDriver {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if cfg.MaxMessageBytes != 64<<10 {
		t.Fatalf("expected 64KiB frame limit, got %d", cfg.MaxMessageBytes)
	}
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("addr: \":9000\"\nsend_timeout: 2s\ndb_driver: postgres\ndb_dsn: postgres://localhost/chat\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("ROOMCAST_ADDR", ":9100")
	t.Setenv("ROOMCAST_ALLOWED_ORIGINS", "example.com,*.example.org")

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Addr != ":9100" {
		t.Fatalf("env should win over file, got %q", cfg.Addr)
	}
	if cfg.SendTimeout != 2*time.Second {
		t.Fatalf("file should win over defaults, got %v", cfg.SendTimeout)
	}
	if cfg.DBDriver != DriverPostgres || cfg.DBDSN != "postgres://localhost/chat" {
		t.Fatalf("unexpected db settings: %s %s", cfg.DBDriver, cfg.DBDSN)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "*.example.org" {
		t.Fatalf("unexpected origins: %v", cfg.AllowedOrigins)
	}
}

func TestUpdateFrom(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Addr: ":7000", DBDSN: "other.db"})

	if cfg.Addr != ":7000" || cfg.DBDSN != "other.db" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.JWTTTL != Default().JWTTTL {
		t.Fatalf("zero override should keep default ttl, got %v", cfg.JWTTTL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, false},
		{"empty dsn", func(c *Config) { c.DBDSN = "" }, false},
		{"empty secret", func(c *Config) { c.JWTSecret = "" }, false},
		{"zero send timeout", func(c *Config) { c.SendTimeout = 0 }, false},
		{"negative rate limit", func(c *Config) { c.RateLimitPerMinute = -1 }, false},
		{"rate limit disabled", func(c *Config) { c.RateLimitPerMinute = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.ok && err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
