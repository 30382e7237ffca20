package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"1", "1", true},
		{"true", "true", true},
		{"TRUE", "TRUE", true},
		{"yes", "yes", true},
		{"YES", "YES", true},
		{"on", "on", true},
		{"ON", "ON", true},
		{"with spaces", "  true  ", true},
		{"0", "0", false},
		{"false", "false", false},
		{"FALSE", "FALSE", false},
		{"no", "no", false},
		{"off", "off", false},
		{"empty", "", false},
		{"random", "random", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			result := parseBool(tc.input)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestApplyEnvironment_Internal(t *testing.T) {
	// Cannot run in parallel because we modify environment variables.

	t.Run("CAPTOKEN_HOME", func(t *testing.T) {
		cfg := Defaults()
		originalHome := cfg.Home

		t.Setenv(EnvHome, "/custom/home")
		ApplyEnvironment(cfg)

		assert.Equal(t, "/custom/home", cfg.Home)
		assert.NotEqual(t, originalHome, cfg.Home)
	})

	t.Run("CAPTOKEN_MAX_GAS valid", func(t *testing.T) {
		cfg := Defaults()

		t.Setenv(EnvMaxGas, "42000")
		ApplyEnvironment(cfg)

		assert.Equal(t, 42000, cfg.Engine.MaxGas)
		assert.Empty(t, cfg.Warnings)
	})

	t.Run("CAPTOKEN_MAX_GAS invalid leaves default and warns", func(t *testing.T) {
		cfg := Defaults()
		original := cfg.Engine.MaxGas

		t.Setenv(EnvMaxGas, "not-a-number")
		ApplyEnvironment(cfg)

		assert.Equal(t, original, cfg.Engine.MaxGas)
		assert.NotEmpty(t, cfg.Warnings)
	})

	t.Run("CAPTOKEN_OUTPUT_FORMAT", func(t *testing.T) {
		cfg := Defaults()

		t.Setenv(EnvOutputFormat, "JSON")
		ApplyEnvironment(cfg)

		assert.Equal(t, "json", cfg.Output.DefaultFormat)
	})

	t.Run("CAPTOKEN_VERBOSE", func(t *testing.T) {
		tests := []struct {
			name     string
			value    string
			expected bool
		}{
			{"true", "true", true},
			{"1", "1", true},
			{"yes", "yes", true},
			{"false", "false", false},
			{"0", "0", false},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				cfg := Defaults()

				t.Setenv(EnvVerbose, tc.value)
				ApplyEnvironment(cfg)

				assert.Equal(t, tc.expected, cfg.Output.Verbose)
			})
		}
	})

	t.Run("CAPTOKEN_LOG_LEVEL", func(t *testing.T) {
		cfg := Defaults()

		t.Setenv(EnvLogLevel, "DEBUG")
		ApplyEnvironment(cfg)

		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("NO_COLOR", func(t *testing.T) {
		cfg := Defaults()
		originalColor := cfg.Output.Color

		t.Setenv(EnvNoColor, "1")
		ApplyEnvironment(cfg)

		assert.Equal(t, "never", cfg.Output.Color)
		assert.NotEqual(t, originalColor, cfg.Output.Color)
	})

	t.Run("CAPTOKEN_RATE_LIMIT_RPS and BURST", func(t *testing.T) {
		cfg := Defaults()

		t.Setenv(EnvRateLimitRPS, "12.5")
		t.Setenv(EnvRateLimitBurst, "30")
		ApplyEnvironment(cfg)

		assert.InEpsilon(t, 12.5, cfg.RateLimit.RequestsPerSecond, 0.001)
		assert.Equal(t, 30, cfg.RateLimit.Burst)
	})

	t.Run("CAPTOKEN_RATE_LIMIT_RPS invalid leaves default and warns", func(t *testing.T) {
		cfg := Defaults()
		original := cfg.RateLimit.RequestsPerSecond

		t.Setenv(EnvRateLimitRPS, "-1")
		ApplyEnvironment(cfg)

		assert.InEpsilon(t, original, cfg.RateLimit.RequestsPerSecond, 0.001)
		assert.NotEmpty(t, cfg.Warnings)
	})

	t.Run("CAPTOKEN_COUNTER_PATH and KEY", func(t *testing.T) {
		cfg := Defaults()

		t.Setenv(EnvCounterPath, "/custom/counters.json")
		t.Setenv(EnvCounterKey, "aabbcc")
		ApplyEnvironment(cfg)

		assert.Equal(t, "/custom/counters.json", cfg.Counter.Path)
		assert.Equal(t, "aabbcc", cfg.Counter.KeyHex)
	})

	t.Run("multiple env vars", func(t *testing.T) {
		cfg := Defaults()

		t.Setenv(EnvHome, "/custom/home")
		t.Setenv(EnvMaxGas, "20000")
		t.Setenv(EnvOutputFormat, "json")
		t.Setenv(EnvVerbose, "true")

		ApplyEnvironment(cfg)

		assert.Equal(t, "/custom/home", cfg.Home)
		assert.Equal(t, 20000, cfg.Engine.MaxGas)
		assert.Equal(t, "json", cfg.Output.DefaultFormat)
		assert.True(t, cfg.Output.Verbose)
	})
}
