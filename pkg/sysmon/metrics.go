package sysmon

import (
	"expvar"
	"sync/atomic"
	"time"
)

// Metrics provides operational metrics for a Monitor.
// It uses Go's expvar package for exposition, which can be accessed via the
// /debug/vars HTTP endpoint when an HTTP server is running.
//
// Thread-safe for concurrent use.
//
// Example usage:
//
//	metrics := sysmon.NewMetrics()
//	metrics.RegisterExpvar()
//	http.ListenAndServe("localhost:6060", nil) // serves /debug/vars
type Metrics struct {
	// Counters
	polls             atomic.Int64
	pollErrors        atomic.Int64
	sourceUnavailable atomic.Int64
	degenerateDeltas  atomic.Int64
	circuitRejections atomic.Int64
	circuitOpens      atomic.Int64
	configReloads     atomic.Int64
	renderErrors      atomic.Int64

	// Latency tracking (stored as nanoseconds)
	pollLatencyNs    atomic.Int64
	pollLatencyCount atomic.Int64

	// Current state gauges
	running       atomic.Int32
	activeTargets atomic.Int32

	// Registration tracking to prevent duplicate expvar registration
	registered atomic.Bool
}

// NewMetrics creates a new Metrics instance.
// Call RegisterExpvar() to expose metrics via the /debug/vars endpoint.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RegisterExpvar registers all metrics with Go's expvar package.
// Safe to call multiple times; subsequent calls are no-ops. Only one
// Metrics instance per process can be registered.
func (m *Metrics) RegisterExpvar() {
	if m.registered.Swap(true) {
		return
	}

	expvar.Publish("sysmon_polls_total", expvar.Func(func() any { return m.polls.Load() }))
	expvar.Publish("sysmon_poll_errors_total", expvar.Func(func() any { return m.pollErrors.Load() }))
	expvar.Publish("sysmon_source_unavailable_total", expvar.Func(func() any { return m.sourceUnavailable.Load() }))
	expvar.Publish("sysmon_degenerate_deltas_total", expvar.Func(func() any { return m.degenerateDeltas.Load() }))
	expvar.Publish("sysmon_circuit_rejections_total", expvar.Func(func() any { return m.circuitRejections.Load() }))
	expvar.Publish("sysmon_circuit_opens_total", expvar.Func(func() any { return m.circuitOpens.Load() }))
	expvar.Publish("sysmon_config_reloads_total", expvar.Func(func() any { return m.configReloads.Load() }))
	expvar.Publish("sysmon_render_errors_total", expvar.Func(func() any { return m.renderErrors.Load() }))

	expvar.Publish("sysmon_running", expvar.Func(func() any { return m.running.Load() }))
	expvar.Publish("sysmon_active_targets", expvar.Func(func() any { return m.activeTargets.Load() }))

	expvar.Publish("sysmon_poll_latency_avg_ms", expvar.Func(func() any {
		count := m.pollLatencyCount.Load()
		if count == 0 {
			return float64(0)
		}
		return float64(m.pollLatencyNs.Load()) / float64(count) / 1e6
	}))
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Polls:             m.polls.Load(),
		PollErrors:        m.pollErrors.Load(),
		SourceUnavailable: m.sourceUnavailable.Load(),
		DegenerateDeltas:  m.degenerateDeltas.Load(),
		CircuitRejections: m.circuitRejections.Load(),
		CircuitOpens:      m.circuitOpens.Load(),
		ConfigReloads:     m.configReloads.Load(),
		RenderErrors:      m.renderErrors.Load(),

		Running:       m.running.Load() > 0,
		ActiveTargets: int(m.activeTargets.Load()),

		PollLatencyAvg: safeDivide(m.pollLatencyNs.Load(), m.pollLatencyCount.Load()),
	}
}

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot struct {
	// Counters
	Polls             int64
	PollErrors        int64
	SourceUnavailable int64
	DegenerateDeltas  int64
	CircuitRejections int64
	CircuitOpens      int64
	ConfigReloads     int64
	RenderErrors      int64

	// Gauges
	Running       bool
	ActiveTargets int

	// Latency averages
	PollLatencyAvg time.Duration
}

// IncrementPolls records a completed target poll.
func (m *Metrics) IncrementPolls() {
	m.polls.Add(1)
}

// IncrementPollErrors records a poll that returned an error.
func (m *Metrics) IncrementPollErrors() {
	m.pollErrors.Add(1)
}

// AddSourceUnavailable records n unreadable metric sources.
func (m *Metrics) AddSourceUnavailable(n int) {
	m.sourceUnavailable.Add(int64(n))
}

// IncrementDegenerateDeltas records a CPU delta with no elapsed ticks.
func (m *Metrics) IncrementDegenerateDeltas() {
	m.degenerateDeltas.Add(1)
}

// IncrementCircuitRejections records a poll skipped by an open circuit.
func (m *Metrics) IncrementCircuitRejections() {
	m.circuitRejections.Add(1)
}

// IncrementCircuitOpens records a circuit transitioning to open.
func (m *Metrics) IncrementCircuitOpens() {
	m.circuitOpens.Add(1)
}

// IncrementConfigReloads records an applied configuration reload.
func (m *Metrics) IncrementConfigReloads() {
	m.configReloads.Add(1)
}

// IncrementRenderErrors records a frame that could not be written.
func (m *Metrics) IncrementRenderErrors() {
	m.renderErrors.Add(1)
}

// SetRunning updates the running state gauge.
func (m *Metrics) SetRunning(running bool) {
	if running {
		m.running.Store(1)
	} else {
		m.running.Store(0)
	}
}

// SetActiveTargets updates the active targets gauge.
func (m *Metrics) SetActiveTargets(count int) {
	m.activeTargets.Store(int32(count))
}

// RecordPollLatency records the duration of one target poll.
func (m *Metrics) RecordPollLatency(d time.Duration) {
	m.pollLatencyNs.Add(d.Nanoseconds())
	m.pollLatencyCount.Add(1)
}

// Reset clears all metrics. Useful for testing.
func (m *Metrics) Reset() {
	m.polls.Store(0)
	m.pollErrors.Store(0)
	m.sourceUnavailable.Store(0)
	m.degenerateDeltas.Store(0)
	m.circuitRejections.Store(0)
	m.circuitOpens.Store(0)
	m.configReloads.Store(0)
	m.renderErrors.Store(0)

	m.pollLatencyNs.Store(0)
	m.pollLatencyCount.Store(0)

	m.running.Store(0)
	m.activeTargets.Store(0)
}

// safeDivide performs safe division, returning 0 for divide by zero.
func safeDivide(total, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(total / count)
}

// defaultMetrics is a global metrics instance for convenience.
var defaultMetrics = NewMetrics()

// DefaultMetrics returns the global default Metrics instance.
func DefaultMetrics() *Metrics {
	return defaultMetrics
}
