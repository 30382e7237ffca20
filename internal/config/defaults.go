package config

import "github.com/captoken/spl/internal/policy"

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.captoken",
		Engine: EngineConfig{
			MaxGas: policy.DefaultMaxGas,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "~/.captoken/captoken.log",
		},
		Counter: CounterConfig{
			Path: "~/.captoken/counters.json",
		},
	}
}
