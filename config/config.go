package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alorle/tv-channels/internal/edcb"
	"github.com/alorle/tv-channels/internal/logo"
)

// Catalog store kinds.
const (
	StoreBolt   = "bolt"
	StoreMemory = "memory"
)

// Config holds the complete application configuration
type Config struct {
	// HTTP server settings
	HTTP struct {
		Address      string        `yaml:"address"`
		Port         string        `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"http"`

	// Remote logo backend. An empty kind disables the remote step.
	Backend struct {
		Kind         string        `yaml:"kind"`
		MirakurunURL string        `yaml:"mirakurun_url"`
		EDCBURL      string        `yaml:"edcb_url"`
		Timeout      time.Duration `yaml:"timeout"`
	} `yaml:"backend"`

	// Channel and program catalog
	Catalog struct {
		Store          string `yaml:"store"`
		DBPath         string `yaml:"db_path"`
		SeedFile       string `yaml:"seed_file"`
		ReloadSchedule string `yaml:"reload_schedule"`
	} `yaml:"catalog"`

	// Bundled logo assets
	Logos struct {
		Dir    string        `yaml:"dir"`
		MaxAge time.Duration `yaml:"max_age"`
	} `yaml:"logos"`

	Resilience ResilienceConfig `yaml:"resilience"`

	LogLevel string `yaml:"log_level"`
}

// BackendConfig returns the backend selection passed to the logo resolver.
func (c *Config) BackendConfig() logo.BackendConfig {
	return logo.BackendConfig{
		Kind:         logo.BackendKind(c.Backend.Kind),
		MirakurunURL: c.Backend.MirakurunURL,
		EDCBURL:      c.Backend.EDCBURL,
	}
}

// SlogLevel maps LogLevel to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	var errors []string

	if c.HTTP.Address == "" {
		errors = append(errors, "HTTP address is required")
	}
	if c.HTTP.Port == "" {
		errors = append(errors, "HTTP port is required")
	}
	if c.HTTP.ReadTimeout <= 0 {
		errors = append(errors, "HTTP read timeout must be positive")
	}
	if c.HTTP.WriteTimeout <= 0 {
		errors = append(errors, "HTTP write timeout must be positive")
	}

	switch logo.BackendKind(c.Backend.Kind) {
	case "":
	case logo.BackendMirakurun:
		if err := validateHTTPURL(c.Backend.MirakurunURL); err != nil {
			errors = append(errors, fmt.Sprintf("Mirakurun URL: %v", err))
		}
	case logo.BackendEDCB:
		if _, err := edcb.ParseEndpoint(c.Backend.EDCBURL); err != nil {
			errors = append(errors, fmt.Sprintf("EDCB URL: %v", err))
		}
	default:
		errors = append(errors, fmt.Sprintf("Backend kind must be one of: %s, %s or empty", logo.BackendMirakurun, logo.BackendEDCB))
	}
	if c.Backend.Timeout <= 0 {
		errors = append(errors, "Backend timeout must be positive")
	}

	switch c.Catalog.Store {
	case StoreBolt:
		if c.Catalog.DBPath == "" {
			errors = append(errors, "Catalog db path is required for the bolt store")
		}
	case StoreMemory:
	default:
		errors = append(errors, fmt.Sprintf("Catalog store must be one of: %s, %s", StoreBolt, StoreMemory))
	}

	if c.Logos.Dir == "" {
		errors = append(errors, "Logos directory is required")
	}
	if c.Logos.MaxAge <= 0 {
		errors = append(errors, "Logos max age must be positive")
	}

	if !validLogLevels[strings.ToUpper(c.LogLevel)] {
		errors = append(errors, "Log level must be one of: DEBUG, INFO, WARN, ERROR")
	}

	if err := c.Resilience.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("Resilience config: %v", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

var validLogLevels = map[string]bool{
	"DEBUG": true,
	"INFO":  true,
	"WARN":  true,
	"ERROR": true,
}

func validateHTTPURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

// Default returns a Config with sensible default values
func Default() *Config {
	cfg := &Config{}

	cfg.HTTP.Address = "127.0.0.1"
	cfg.HTTP.Port = "8080"
	cfg.HTTP.ReadTimeout = 10 * time.Second
	cfg.HTTP.WriteTimeout = 30 * time.Second

	cfg.Backend.Kind = ""
	cfg.Backend.Timeout = logo.DefaultBackendTimeout

	cfg.Catalog.Store = StoreBolt
	cfg.Catalog.DBPath = "data/tv-channels.db"
	cfg.Catalog.SeedFile = "channels.yaml"
	cfg.Catalog.ReloadSchedule = "@every 1h"

	cfg.Logos.Dir = "logos"
	cfg.Logos.MaxAge = 30 * 24 * time.Hour

	cfg.Resilience = *DefaultResilienceConfig()

	cfg.LogLevel = "INFO"

	return cfg
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Load loads configuration from a file (if present) and applies environment variable overrides
func Load() (*Config, error) {
	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); err == nil {
		cfg, err = LoadFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg = Default()
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) error {
	parser := &envParser{}

	parser.parseString("HTTP_ADDRESS", &cfg.HTTP.Address)
	parser.parseString("HTTP_PORT", &cfg.HTTP.Port)
	parser.parseDuration("HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout)
	parser.parseDuration("HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout)

	parser.parseString("BACKEND_KIND", &cfg.Backend.Kind)
	parser.parseString("MIRAKURUN_URL", &cfg.Backend.MirakurunURL)
	parser.parseString("EDCB_URL", &cfg.Backend.EDCBURL)
	parser.parseDuration("BACKEND_TIMEOUT", &cfg.Backend.Timeout)

	parser.parseEnum("CATALOG_STORE", &cfg.Catalog.Store, map[string]bool{StoreBolt: true, StoreMemory: true}, strings.ToLower)
	parser.parseString("CATALOG_DB_PATH", &cfg.Catalog.DBPath)
	parser.parseString("CATALOG_SEED_FILE", &cfg.Catalog.SeedFile)
	parser.parseString("CATALOG_RELOAD_SCHEDULE", &cfg.Catalog.ReloadSchedule)

	if val := os.Getenv("LOGOS_DIR"); val != "" {
		absPath, err := absDir(val)
		if err != nil {
			return err
		}
		cfg.Logos.Dir = absPath
	}
	parser.parseDuration("LOGOS_MAX_AGE", &cfg.Logos.MaxAge)

	parser.parseEnum("LOG_LEVEL", &cfg.LogLevel, validLogLevels, strings.ToUpper)

	applyResilienceEnv(parser, &cfg.Resilience)

	return parser.err()
}

// absDir normalizes a directory path to an absolute one
func absDir(dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("directory cannot be empty")
	}

	if !filepath.IsAbs(dir) {
		absPath, err := filepath.Abs(dir)
		if err != nil {
			return "", fmt.Errorf("failed to resolve absolute path for %s: %w", dir, err)
		}
		return absPath, nil
	}

	return dir, nil
}

// LogValue renders the configuration for the startup log line.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("http_address", c.HTTP.Address),
		slog.String("http_port", c.HTTP.Port),
		slog.String("backend_kind", c.Backend.Kind),
		slog.String("mirakurun_url", c.Backend.MirakurunURL),
		slog.String("edcb_url", c.Backend.EDCBURL),
		slog.Duration("backend_timeout", c.Backend.Timeout),
		slog.String("catalog_store", c.Catalog.Store),
		slog.String("catalog_db_path", c.Catalog.DBPath),
		slog.String("catalog_seed_file", c.Catalog.SeedFile),
		slog.String("catalog_reload_schedule", c.Catalog.ReloadSchedule),
		slog.String("logos_dir", c.Logos.Dir),
		slog.Duration("logos_max_age", c.Logos.MaxAge),
		slog.Int("cb_failure_threshold", c.Resilience.CBFailureThreshold),
		slog.Duration("cb_timeout", c.Resilience.CBTimeout),
		slog.String("log_level", c.LogLevel),
	)
}
