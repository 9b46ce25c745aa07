// Package config handles wampcli configuration loading.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LevelTrace is a custom log level below Debug, for logging individual
// inbound/outbound WAMP frames rather than just state transitions.
const LevelTrace = slog.Level(-8)

// ParseLogLevel converts the configured LogLevel string to a slog.Level.
// Supported values: trace, debug, info, warn, error (case-insensitive).
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "trace":
		return LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (valid: trace, debug, info, warn, error)", s)
	}
}

// ReplaceLogLevelNames is a slog.HandlerOptions.ReplaceAttr that renders
// LevelTrace as "TRACE" instead of slog's default "DEBUG-8".
func ReplaceLogLevelNames(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if level, ok := a.Value.Any().(slog.Level); ok && level == LevelTrace {
			a.Value = slog.StringValue("TRACE")
		}
	}
	return a
}

// searchPathsFunc is indirected so tests can override it without touching
// the real filesystem outside a temp dir.
var searchPathsFunc = DefaultSearchPaths

// DefaultSearchPaths returns the config file search order. An explicit path
// (from -config) is checked first by FindConfig. Then: ./wampcli.yaml,
// ~/.config/wampcli/config.yaml, /etc/wampcli/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"wampcli.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "wampcli", "config.yaml"))
	}

	paths = append(paths, "/etc/wampcli/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches searchPathsFunc() and returns the first that exists.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	paths := searchPathsFunc()
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", paths)
}

// Config holds wampcli's connection and codec settings. After Load or
// Default returns, every field is usable without further nil/zero checks.
type Config struct {
	URL              string   `yaml:"url"`
	Realm            string   `yaml:"realm"`
	ConnectTimeoutMS int      `yaml:"connect_timeout_ms"`
	KeepaliveMS      int      `yaml:"keepalive_ms"`
	Codecs           []string `yaml:"codecs"` // preference order, e.g. [msgpack, json]
	AuthSecret       string   `yaml:"auth_secret"`
	LogLevel         string   `yaml:"log_level"`
}

// ConnectTimeout returns ConnectTimeoutMS as a time.Duration.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutMS) * time.Millisecond
}

// Keepalive returns KeepaliveMS as a time.Duration.
func (c *Config) Keepalive() time.Duration {
	return time.Duration(c.KeepaliveMS) * time.Millisecond
}

// Load reads configuration from a YAML file, expands environment variables,
// applies defaults for any unset fields, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g. ${WAMPCLI_AUTH_SECRET}) as a
	// convenience for container deployments.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// applyDefaults fills zero-value fields with sensible defaults. Called
// automatically by Load.
func (c *Config) applyDefaults() {
	if c.Realm == "" {
		c.Realm = "realm1"
	}
	if c.ConnectTimeoutMS == 0 {
		c.ConnectTimeoutMS = 5000
	}
	if c.KeepaliveMS == 0 {
		c.KeepaliveMS = 5000
	}
	if len(c.Codecs) == 0 {
		c.Codecs = []string{"msgpack", "json"}
	}
}

// Validate checks that the configuration is internally consistent. It runs
// after applyDefaults, so it can assume defaults are populated.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("url must not be empty")
	}
	if c.ConnectTimeoutMS < 1 {
		return fmt.Errorf("connect_timeout_ms %d must be positive", c.ConnectTimeoutMS)
	}
	if c.KeepaliveMS < 1 {
		return fmt.Errorf("keepalive_ms %d must be positive", c.KeepaliveMS)
	}
	for _, codec := range c.Codecs {
		if codec != "msgpack" && codec != "json" {
			return fmt.Errorf("codecs: unknown codec %q (want msgpack or json)", codec)
		}
	}
	if c.LogLevel != "" {
		if _, err := ParseLogLevel(c.LogLevel); err != nil {
			return err
		}
	}
	return nil
}

// Default returns a configuration suitable for a local router on the
// default WAMP port, with all defaults already applied.
func Default() *Config {
	cfg := &Config{URL: "ws://127.0.0.1:8080/ws"}
	cfg.applyDefaults()
	return cfg
}
