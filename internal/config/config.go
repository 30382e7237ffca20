// Package config provides configuration management for the captoken CLI.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Version   int             `yaml:"version"`
	Home      string          `yaml:"home"`
	Engine    EngineConfig    `yaml:"engine"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
	Counter   CounterConfig   `yaml:"counter"`

	// Warnings accumulates non-fatal problems noticed while applying
	// environment overrides (e.g. an out-of-range max_gas value); never
	// fatal on their own. No CLI command prints them.
	Warnings []string `yaml:"-"`
}

// EngineConfig carries policy-evaluator defaults.
type EngineConfig struct {
	MaxGas int `yaml:"max_gas"`
}

// RateLimitConfig bounds the CLI's batch verify path (internal/policy.Throttle).
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Color         string `yaml:"color"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// CounterConfig locates the tamper-evident per_day_count store
// (internal/counter) a host wires into the policy evaluator's
// per-day-count operator. KeyHex is empty by default: with no key
// configured, the CLI leaves PerDayCount unset and the evaluator falls
// back to its documented zero default rather than opening an unkeyed store.
type CounterConfig struct {
	Path   string `yaml:"path"`
	KeyHex string `yaml:"key"`
}

// Load reads configuration from the specified file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// GetHome returns the captoken home directory path.
func (c *Config) GetHome() string {
	return c.Home
}

// GetMaxGas returns the configured default operation budget.
func (c *Config) GetMaxGas() int {
	return c.Engine.MaxGas
}

// GetRateLimit returns the configured batch-verify rate limit.
func (c *Config) GetRateLimit() RateLimitConfig {
	return c.RateLimit
}

// GetCounter returns the configured per_day_count store location and key.
func (c *Config) GetCounter() CounterConfig {
	return c.Counter
}

// GetLoggingLevel returns the configured logging level.
func (c *Config) GetLoggingLevel() string {
	return c.Logging.Level
}

// GetLoggingFile returns the configured log file path.
func (c *Config) GetLoggingFile() string {
	return c.Logging.File
}

// GetOutputFormat returns the default output format.
func (c *Config) GetOutputFormat() string {
	return c.Output.DefaultFormat
}

// IsVerbose returns true if verbose output is enabled.
func (c *Config) IsVerbose() bool {
	return c.Output.Verbose
}

// DefaultHome returns the default captoken home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".captoken"
	}
	return filepath.Join(home, ".captoken")
}
