package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/MeKo-Tech/cardpanda/internal/barcode"
	"github.com/MeKo-Tech/cardpanda/internal/export"
)

// ValidationError reports a configuration key with an unacceptable value.
type ValidationError struct {
	Key    string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v (%s)", e.Key, e.Value, e.Reason)
}

var (
	validLogLevels     = []string{"debug", "info", "warn", "error"}
	validRenderFormats = []string{"text", "json"}
)

// DefaultStorePath returns the card store location under the user's data
// directory ($XDG_DATA_HOME/cardpanda or ~/.local/share/cardpanda).
func DefaultStorePath() string {
	if dir, ok := os.LookupEnv("XDG_DATA_HOME"); ok && dir != "" {
		return filepath.Join(dir, "cardpanda", "cards.yaml")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "cardpanda", "cards.yaml")
	}
	return "cards.yaml"
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Store: StoreConfig{
			Path: DefaultStorePath(),
		},
		Render: RenderConfig{
			DisabledEncoders: []string{},
			Format:           "text",
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			TimeoutSec:      30,
			ShutdownTimeout: 10,
			MaxBodyKB:       64,
		},
		Export: ExportConfig{
			PageSize: export.DefaultPageSize,
		},
		Batch: BatchConfig{
			Workers: 0,
		},
	}
}

// Validate validates the configuration and returns the first problem found
// as a *ValidationError.
func (c *Config) Validate() error {
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return &ValidationError{"log_level", c.LogLevel, "must be one of: " + strings.Join(validLogLevels, ", ")}
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		return &ValidationError{"store.path", c.Store.Path, "must not be empty"}
	}
	if c.Render.Format != "" && !slices.Contains(validRenderFormats, c.Render.Format) {
		return &ValidationError{"render.format", c.Render.Format, "must be one of: " + strings.Join(validRenderFormats, ", ")}
	}
	if _, err := c.DisabledAlgorithms(); err != nil {
		return &ValidationError{"render.disabled_encoders", c.Render.DisabledEncoders, err.Error()}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return &ValidationError{"server.port", c.Server.Port, "must be between 1 and 65535"}
	}
	if c.Server.TimeoutSec <= 0 {
		return &ValidationError{"server.timeout_sec", c.Server.TimeoutSec, "must be positive"}
	}
	if c.Server.ShutdownTimeout < 0 {
		return &ValidationError{"server.shutdown_timeout", c.Server.ShutdownTimeout, "must not be negative"}
	}
	if c.Server.MaxBodyKB <= 0 {
		return &ValidationError{"server.max_body_kb", c.Server.MaxBodyKB, "must be positive"}
	}
	if c.Server.RateLimitPerMinute < 0 {
		return &ValidationError{"server.rate_limit_per_minute", c.Server.RateLimitPerMinute, "must not be negative"}
	}

	if !export.ValidPageSize(c.Export.PageSize) {
		return &ValidationError{"export.page_size", c.Export.PageSize, "must be one of: " + strings.Join(export.PageSizes, ", ")}
	}
	if c.Batch.Workers < 0 {
		return &ValidationError{"batch.workers", c.Batch.Workers, "must not be negative"}
	}
	return nil
}

// DisabledAlgorithms parses render.disabled_encoders.
func (c *Config) DisabledAlgorithms() ([]barcode.Algorithm, error) {
	out := make([]barcode.Algorithm, 0, len(c.Render.DisabledEncoders))
	for _, name := range c.Render.DisabledEncoders {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		a, err := barcode.ParseAlgorithm(name)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Registry returns the default encoder registry minus the disabled encoders.
func (c *Config) Registry() (*barcode.Registry, error) {
	algs, err := c.DisabledAlgorithms()
	if err != nil {
		return nil, err
	}
	return barcode.DefaultRegistry().Without(algs...), nil
}
