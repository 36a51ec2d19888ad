// Package config loads the gofibs configuration from a YAML file and
// GOFIBS_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/yourusername/gofibs/internal/logging"
)

// EnvPrefix prefixes all environment overrides.
const EnvPrefix = "GOFIBS_"

// Config is the complete configuration.
type Config struct {
	Server  ServerConfig   `yaml:"server"`
	Redis   RedisConfig    `yaml:"redis"`
	Session SessionConfig  `yaml:"session"`
	Relay   RelayConfig    `yaml:"relay"`
	Log     logging.Config `yaml:"log"`
}

// ServerConfig configures the API server.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxFastWorkers  int           `yaml:"max_fast_workers"`
	MaxSlowWorkers  int           `yaml:"max_slow_workers"`
}

// RedisConfig configures the match archive. An empty URL disables it.
type RedisConfig struct {
	URL    string        `yaml:"url"`
	Prefix string        `yaml:"prefix"`
	TTL    time.Duration `yaml:"ttl"`
}

// SessionConfig configures session replays.
type SessionConfig struct {
	Name string `yaml:"name"` // Login name of the client
}

// RelayConfig configures the TCP session relay. An empty address
// disables it.
type RelayConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxFastWorkers:  100,
			MaxSlowWorkers:  4,
		},
		Redis: RedisConfig{
			Prefix: "fibs:",
		},
		Log: logging.DefaultConfig(),
	}
}

// Load returns the defaults overlaid with the YAML file at path, if path
// is not empty, and then with the environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := cfg.decode(raw); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// decode overlays a YAML document. Unknown keys are errors.
func (c *Config) decode(raw []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from GOFIBS_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(EnvPrefix + key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := get(key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := get(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := get(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := get(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	str("HOST", &c.Server.Host)
	num("PORT", &c.Server.Port)
	dur("READ_TIMEOUT", &c.Server.ReadTimeout)
	dur("WRITE_TIMEOUT", &c.Server.WriteTimeout)
	num("MAX_FAST_WORKERS", &c.Server.MaxFastWorkers)
	num("MAX_SLOW_WORKERS", &c.Server.MaxSlowWorkers)

	str("REDIS_URL", &c.Redis.URL)
	str("REDIS_PREFIX", &c.Redis.Prefix)
	dur("REDIS_TTL", &c.Redis.TTL)

	str("NAME", &c.Session.Name)
	str("RELAY_ADDR", &c.Relay.Addr)

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("LOG_FILE", &c.Log.File)
	flag("LOG_CALLER", &c.Log.Caller)

	return errors.Join(errs...)
}

// Validate checks value ranges and the logging settings.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.MaxFastWorkers < 0 || c.Server.MaxSlowWorkers < 0 {
		errs = append(errs, errors.New("server worker limits must not be negative"))
	}
	if c.Redis.TTL < 0 {
		errs = append(errs, errors.New("redis.ttl must not be negative"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
