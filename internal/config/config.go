// Package config loads and validates application configuration from YAML
// files and environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Layouts       LayoutsConfig       `yaml:"layouts"`
	Components    ComponentsConfig    `yaml:"components"`
	Render        RenderConfig        `yaml:"render"`
	Persistence   PersistenceConfig   `yaml:"persistence"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig describes HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	HandlerTimeout  time.Duration `yaml:"handler_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORS            CORSConfig    `yaml:"cors"`
}

// CORSConfig describes Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	MaxAge         int      `yaml:"max_age"`
}

// LayoutsConfig describes where to find layout configuration files.
type LayoutsConfig struct {
	Directories   []string `yaml:"directories"`
	HotReload     bool     `yaml:"hot_reload"`
	FailOnInvalid bool     `yaml:"fail_on_invalid"`
}

// ComponentsConfig describes the component registry sources.
type ComponentsConfig struct {
	// Manifest is an optional YAML file of deployment-specific component
	// entries registered on top of the compiled-in set.
	Manifest string `yaml:"manifest"`
}

// RenderConfig describes renderer settings.
type RenderConfig struct {
	CacheTTL                time.Duration `yaml:"cache_ttl"`
	CacheMaxEntries         int           `yaml:"cache_max_entries"`
	VirtualizationThreshold int           `yaml:"virtualization_threshold"`
	MaxRetries              int           `yaml:"max_retries"`
}

// PersistenceConfig describes where user layout choices are stored.
type PersistenceConfig struct {
	Driver string `yaml:"driver"` // memory | sqlite
	Path   string `yaml:"path"`   // sqlite database file
}

// ObservabilityConfig describes logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel string        `yaml:"log_level"`
	Metrics  MetricsConfig `yaml:"metrics"`
}

// MetricsConfig describes Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			HandlerTimeout:  25 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			CORS: CORSConfig{
				AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders: []string{"Authorization", "Content-Type", "X-Correlation-Id"},
				MaxAge:         86400,
			},
		},
		Layouts: LayoutsConfig{
			Directories:   []string{"/layouts"},
			FailOnInvalid: true,
		},
		Render: RenderConfig{
			CacheTTL:                5 * time.Minute,
			CacheMaxEntries:         256,
			VirtualizationThreshold: 500,
			MaxRetries:              2,
		},
		Persistence: PersistenceConfig{
			Driver: "memory",
		},
		Observability: ObservabilityConfig{
			LogLevel: "info",
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}

// Load reads a YAML config file, applies environment variable overrides,
// and validates required fields.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required fields are present and valid.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	if len(c.Layouts.Directories) == 0 {
		errs = append(errs, "layouts.directories must not be empty")
	}
	switch c.Persistence.Driver {
	case "memory":
	case "sqlite":
		if c.Persistence.Path == "" {
			errs = append(errs, "persistence.path is required for the sqlite driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("unsupported persistence driver %q", c.Persistence.Driver))
	}
	if c.Render.VirtualizationThreshold < 0 {
		errs = append(errs, "render.virtualization_threshold must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// applyEnvOverrides reads SLATE_* environment variables and overrides config
// values. Only the most commonly overridden fields are supported.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SLATE_SERVER_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SLATE_LAYOUT_DIRS"); v != "" {
		cfg.Layouts.Directories = strings.Split(v, ",")
	}
	if v := os.Getenv("SLATE_COMPONENT_MANIFEST"); v != "" {
		cfg.Components.Manifest = v
	}
	if v := os.Getenv("SLATE_PERSISTENCE_DRIVER"); v != "" {
		cfg.Persistence.Driver = v
	}
	if v := os.Getenv("SLATE_PERSISTENCE_PATH"); v != "" {
		cfg.Persistence.Path = v
	}
	if v := os.Getenv("SLATE_LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
}
