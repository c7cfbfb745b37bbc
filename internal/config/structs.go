//nolint:lll
package config

// Config represents the complete configuration for cardpanda.
// It is loaded from configuration files, environment variables and
// command-line flags, in increasing order of precedence.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Card store
	Store StoreConfig `mapstructure:"store" yaml:"store" json:"store"`

	// Barcode rendering
	Render RenderConfig `mapstructure:"render" yaml:"render" json:"render"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// PDF export
	Export ExportConfig `mapstructure:"export" yaml:"export" json:"export"`

	// Manifest rendering
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`
}

// StoreConfig locates the card store file.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path" json:"path"`
}

// RenderConfig contains renderer settings.
type RenderConfig struct {
	// DisabledEncoders removes encoder algorithms from the registry, forcing
	// the fallback chain for the types they serve.
	DisabledEncoders []string `mapstructure:"disabled_encoders" yaml:"disabled_encoders" json:"disabled_encoders"`
	// Format is the report format printed by render commands (text or json).
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	MaxBodyKB       int    `mapstructure:"max_body_kb" yaml:"max_body_kb" json:"max_body_kb"`
	// RateLimitPerMinute caps render and capture requests per client; 0 disables.
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute" json:"rate_limit_per_minute"`
}

// ExportConfig contains PDF export settings.
type ExportConfig struct {
	PageSize string `mapstructure:"page_size" yaml:"page_size" json:"page_size"`
}

// BatchConfig contains manifest rendering settings. Zero workers means one
// per CPU.
type BatchConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers" json:"workers"`
}
