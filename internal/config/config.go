// Package config loads the waygate configuration file: logging, server,
// redis wiring and the engine tunables.
package config

import (
	"fmt"
	"os"

	"github.com/averycross/waygate/internal/engine"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP control surface.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// RedisConfig configures the optional redis-backed visit store and
// cross-replica lock.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`

	// LockKey namespaces the distributed single-flight lock; usually the
	// shared subject's identity.
	LockKey string `yaml:"lock_key"`
}

// Config is the full configuration document. All sections are optional;
// zero config yields a working local engine.
type Config struct {
	LogLevel string       `yaml:"log_level"`
	Server   ServerConfig `yaml:"server"`
	Redis    RedisConfig  `yaml:"redis"`

	// Engine holds tunable overrides as an untyped map so partially
	// specified files and flag-sourced overrides merge the same way.
	Engine map[string]any `yaml:"engine"`
}

// Default returns the zero-config defaults.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Server:   ServerConfig{Port: 8080},
		Redis:    RedisConfig{Address: "localhost:6379", LockKey: "subject"},
	}
}

// Load reads and parses a config file. An empty path returns defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	return cfg, nil
}

// Tunables materializes the engine overrides on top of the defaults.
// Durations accept Go syntax ("60s", "800ms"); numbers are weakly typed so
// a YAML `1` lands in a float64 field without ceremony.
func (c *Config) Tunables() (engine.Tunables, error) {
	tun := engine.DefaultTunables()
	if len(c.Engine) == 0 {
		return tun, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &tun,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused:      true,
	})
	if err != nil {
		return tun, err
	}
	if err := dec.Decode(c.Engine); err != nil {
		return tun, fmt.Errorf("invalid engine tunables: %w", err)
	}
	return tun, nil
}
