package sysmon

import "time"

// DefaultInterval is the polling interval used when Options.Interval is zero.
const DefaultInterval = time.Second

// Options configures a Monitor.
type Options struct {
	// Interval is the time between polls in Run.
	// Zero means DefaultInterval.
	Interval time.Duration

	// Breaker configures the per-target circuit breakers.
	// Zero fields take DefaultCircuitBreakerConfig values.
	Breaker CircuitBreakerConfig

	// Logger receives operational messages.
	// If nil, no logging is performed.
	Logger Logger

	// Metrics sets a custom metrics collector.
	// If nil, DefaultMetrics() is used.
	Metrics *Metrics
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Interval: DefaultInterval,
		Breaker:  DefaultCircuitBreakerConfig(),
	}
}
