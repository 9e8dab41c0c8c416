// Package config loads process configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds environment-provided defaults for the CLI.
// Explicit command-line flags always take precedence.
type Config struct {
	// Format is the default output format (text or json).
	Format string `env:"POC_FORMAT" envDefault:"text"`

	// Verbose enables debug logging.
	Verbose bool `env:"POC_VERBOSE" envDefault:"false"`

	// DB is the history store path. Empty disables recording.
	DB string `env:"POC_DB"`

	// Concurrency bounds parallel compilation of policy bundles.
	Concurrency int `env:"POC_CONCURRENCY" envDefault:"4"`

	// Include lists glob patterns selecting plain-text policy files.
	Include []string `env:"POC_INCLUDE" envDefault:"**/*.policy,**/*.txt" envSeparator:","`
}

// DefaultInclude returns the policy file patterns used when POC_INCLUDE is unset.
func DefaultInclude() []string {
	return []string{"**/*.policy", "**/*.txt"}
}

// Load reads Config from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values no command can honor.
func (c Config) Validate() error {
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("POC_FORMAT: invalid format %q: must be text or json", c.Format)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("POC_CONCURRENCY: must be at least 1, got %d", c.Concurrency)
	}
	if len(c.Include) == 0 {
		return fmt.Errorf("POC_INCLUDE: at least one pattern is required")
	}
	return nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
