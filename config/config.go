package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/c360/telestate/errors"
	"github.com/c360/telestate/gateway"
	"github.com/c360/telestate/natsbridge"
	"github.com/c360/telestate/registry"
)

// PlatformConfig identifies the running daemon instance.
type PlatformConfig struct {
	ID          string `json:"id"`                    // Instance identifier (e.g. "telestated-1")
	Environment string `json:"environment,omitempty"` // "prod", "dev", "test"
	LogLevel    string `json:"log_level,omitempty"`   // debug, info, warn, error
}

// SlogLevel maps the configured level name to a slog level. Unknown or
// empty names fall back to info.
func (c PlatformConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Port    int    `json:"port,omitempty"`
	Path    string `json:"path,omitempty"`
}

// Validate checks the metrics section.
func (c MetricsConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Port < 0 || c.Port > 65535 {
		return errors.WrapInvalid(
			fmt.Errorf("port %d", c.Port),
			"MetricsConfig", "Validate", "metrics port out of range")
	}
	return nil
}

// Config is the full daemon configuration.
type Config struct {
	Platform PlatformConfig    `json:"platform"`
	Registry registry.Config   `json:"registry"`
	Metrics  MetricsConfig     `json:"metrics"`
	NATS     natsbridge.Config `json:"nats"`
	Gateway  gateway.Config    `json:"gateway"`
}

// Default returns a runnable single-slot configuration with metrics on
// and the network-facing transports off.
func Default() Config {
	return Config{
		Platform: PlatformConfig{
			ID:       "telestated",
			LogLevel: "info",
		},
		Registry: registry.DefaultConfig(),
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
		NATS:    natsbridge.DefaultConfig(),
		Gateway: gateway.DefaultConfig(),
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if c.Platform.ID == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "platform.id")
	}
	if err := c.Registry.Validate(); err != nil {
		return errors.Wrap(err, "Config", "Validate", "registry section")
	}
	if err := c.Metrics.Validate(); err != nil {
		return errors.Wrap(err, "Config", "Validate", "metrics section")
	}
	if err := c.NATS.Validate(); err != nil {
		return errors.Wrap(err, "Config", "Validate", "nats section")
	}
	if err := c.Gateway.Validate(); err != nil {
		return errors.Wrap(err, "Config", "Validate", "gateway section")
	}
	return nil
}

// Load reads a JSON config file, layering it over the defaults. The loaded
// configuration is validated before being returned.
func Load(path string) (*Config, error) {
	data, err := safeReadFile(path)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Config", "Load", "read config file")
	}

	if err := validateJSONDepth(data); err != nil {
		return nil, errors.WrapInvalid(err, "Config", "Load", "check JSON structure")
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WrapInvalid(err, "Config", "Load", "parse config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ToJSON renders the configuration for debugging.
func (c *Config) ToJSON() (string, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", errors.WrapInvalid(err, "Config", "ToJSON", "marshal config")
	}
	return string(data), nil
}
