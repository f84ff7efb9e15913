package config

import "time"

// Default values for configuration options.
const (
	// DefaultUpdateInterval is the default time between polls (1 second).
	DefaultUpdateInterval = time.Second
	// DefaultFailureThreshold opens a target's circuit after five dead polls.
	DefaultFailureThreshold = 5
	// DefaultBreakerTimeout is how long an open circuit waits before retrying.
	DefaultBreakerTimeout = 30 * time.Second
)

// DefaultConfig returns a Config that polls the local machine once a second
// with the native backend.
func DefaultConfig() Config {
	return Config{
		UpdateInterval: DefaultUpdateInterval,
		Backend:        BackendNative,
		Units:          UnitsClassic,
		ClearScreen:    true,
		Local:          true,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Breaker: BreakerConfig{
			FailureThreshold: DefaultFailureThreshold,
			Timeout:          DefaultBreakerTimeout,
		},
	}
}
