package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ResilienceConfig groups the settings guarding calls to the remote logo backend
type ResilienceConfig struct {
	CBFailureThreshold int           `yaml:"cb_failure_threshold"`  // Consecutive transport failures before opening
	CBTimeout          time.Duration `yaml:"cb_timeout"`            // Time spent open before probing again
	CBHalfOpenRequests int           `yaml:"cb_half_open_requests"` // Probe calls allowed while half-open

	HealthCheckTimeout time.Duration `yaml:"health_check_timeout"` // Upper bound for /api/health
}

// DefaultResilienceConfig returns a ResilienceConfig with sensible defaults
func DefaultResilienceConfig() *ResilienceConfig {
	return &ResilienceConfig{
		CBFailureThreshold: 5,
		CBTimeout:          30 * time.Second,
		CBHalfOpenRequests: 1,
		HealthCheckTimeout: 5 * time.Second,
	}
}

// envParser is a helper for parsing environment variables with validation
type envParser struct {
	errors []string
}

func (p *envParser) err() error {
	if len(p.errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(p.errors, "\n  - "))
	}
	return nil
}

func (p *envParser) parseString(envName string, target *string) {
	if val := os.Getenv(envName); val != "" {
		*target = val
	}
}

// parseDuration parses a duration environment variable, ensuring it's positive
func (p *envParser) parseDuration(envName string, target *time.Duration) {
	val := os.Getenv(envName)
	if val == "" {
		return
	}

	duration, err := time.ParseDuration(val)
	if err != nil {
		p.errors = append(p.errors, fmt.Sprintf("%s: invalid duration format (use '30s', '1m', etc.)", envName))
		return
	}

	if duration <= 0 {
		p.errors = append(p.errors, fmt.Sprintf("%s must be positive", envName))
		return
	}

	*target = duration
}

// parseInt parses an integer environment variable, ensuring it's positive
func (p *envParser) parseInt(envName string, target *int) {
	val := os.Getenv(envName)
	if val == "" {
		return
	}

	intVal, err := strconv.Atoi(val)
	if err != nil {
		p.errors = append(p.errors, fmt.Sprintf("%s: must be a valid integer", envName))
		return
	}

	if intVal <= 0 {
		p.errors = append(p.errors, fmt.Sprintf("%s must be positive", envName))
		return
	}

	*target = intVal
}

// parseEnum parses an enum environment variable after normalizing it
func (p *envParser) parseEnum(envName string, target *string, validValues map[string]bool, normalize func(string) string) {
	val := os.Getenv(envName)
	if val == "" {
		return
	}

	normalized := normalize(val)
	if !validValues[normalized] {
		var validList []string
		for k := range validValues {
			validList = append(validList, k)
		}
		sort.Strings(validList)
		p.errors = append(p.errors, fmt.Sprintf("%s must be one of: %s", envName, strings.Join(validList, ", ")))
		return
	}

	*target = normalized
}

func applyResilienceEnv(p *envParser, cfg *ResilienceConfig) {
	p.parseInt("CB_FAILURE_THRESHOLD", &cfg.CBFailureThreshold)
	p.parseDuration("CB_TIMEOUT", &cfg.CBTimeout)
	p.parseInt("CB_HALF_OPEN_REQUESTS", &cfg.CBHalfOpenRequests)
	p.parseDuration("HEALTH_CHECK_TIMEOUT", &cfg.HealthCheckTimeout)
}

// LoadFromEnv returns the default resilience configuration with environment
// overrides applied, or an error if any value is invalid
func LoadFromEnv() (*ResilienceConfig, error) {
	cfg := DefaultResilienceConfig()
	parser := &envParser{}
	applyResilienceEnv(parser, cfg)
	if err := parser.err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate performs additional validation on the configuration
func (c *ResilienceConfig) Validate() error {
	var errors []string

	if c.CBFailureThreshold <= 0 {
		errors = append(errors, "CBFailureThreshold must be positive")
	}

	if c.CBTimeout <= 0 {
		errors = append(errors, "CBTimeout must be positive")
	}

	if c.CBHalfOpenRequests <= 0 {
		errors = append(errors, "CBHalfOpenRequests must be positive")
	}

	if c.HealthCheckTimeout <= 0 {
		errors = append(errors, "HealthCheckTimeout must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}
