package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gofibs.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	return path
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if cfg.Redis.URL != "" {
		t.Errorf("Redis.URL = %q, want archive disabled", cfg.Redis.URL)
	}
}

func TestDecodeOverlaysDefaults(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.decode([]byte(`
server:
  port: 9090
  read_timeout: 5s
redis:
  url: redis://localhost:6379/2
  ttl: 72h
session:
  name: gflohr
log:
  level: debug
  format: json
`))
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}

	want := DefaultConfig()
	want.Server.Port = 9090
	want.Server.ReadTimeout = 5 * time.Second
	want.Redis.URL = "redis://localhost:6379/2"
	want.Redis.TTL = 72 * time.Hour
	want.Session.Name = "gflohr"
	want.Log.Level = "debug"
	want.Log.Format = "json"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.decode([]byte("server:\n  prot: 1\n")); err == nil {
		t.Error("decode accepted unknown key server.prot")
	}
}

func TestDecodeEmpty(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.decode(nil); err != nil {
		t.Errorf("decode(nil) = %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("empty document changed config:\n%s", diff)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyEnv(env(map[string]string{
		"GOFIBS_HOST":             "0.0.0.0",
		"GOFIBS_PORT":             "8181",
		"GOFIBS_MAX_SLOW_WORKERS": "2",
		"GOFIBS_REDIS_URL":        "redis://cache:6379/0",
		"GOFIBS_REDIS_TTL":        "1h",
		"GOFIBS_NAME":             " gflohr ",
		"GOFIBS_LOG_CALLER":       "true",
		"GOFIBS_RELAY_ADDR":       ":4321",
		"GOFIBS_LOG_FILE":         "",
		"PORT":                    "1",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv error: %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 8181 || cfg.Server.MaxSlowWorkers != 2 {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Redis.URL != "redis://cache:6379/0" || cfg.Redis.TTL != time.Hour || cfg.Redis.Prefix != "fibs:" {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
	if cfg.Session.Name != "gflohr" {
		t.Errorf("Session.Name = %q, want gflohr", cfg.Session.Name)
	}
	if cfg.Relay.Addr != ":4321" {
		t.Errorf("Relay.Addr = %q, want :4321", cfg.Relay.Addr)
	}
	if !cfg.Log.Caller || cfg.Log.File != "" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestApplyEnvErrors(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyEnv(env(map[string]string{
		"GOFIBS_PORT":      "eighty",
		"GOFIBS_REDIS_TTL": "forever",
	}))
	if err == nil {
		t.Fatal("ApplyEnv accepted invalid values")
	}
	for _, key := range []string{"GOFIBS_PORT", "GOFIBS_REDIS_TTL"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not name %s", err, key)
		}
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want default kept", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"port", func(c *Config) { c.Server.Port = 70000 }},
		{"workers", func(c *Config) { c.Server.MaxFastWorkers = -1 }},
		{"ttl", func(c *Config) { c.Redis.TTL = -time.Second }},
		{"level", func(c *Config) { c.Log.Level = "verbose" }},
		{"format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "server:\n  port: 9000\nlog:\n  level: warn\n")
	t.Setenv("GOFIBS_PORT", "9001")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Port != 9001 {
		t.Errorf("Port = %d, want environment to win", cfg.Server.Port)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load of missing file succeeded")
	}
	if _, err := Load(writeFile(t, "log:\n  level: verbose\n")); err == nil {
		t.Error("Load accepted invalid level")
	}
}
