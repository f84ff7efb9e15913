package sysmon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/opd-ai/go-sysmon/internal/monitor"
	"github.com/opd-ai/go-sysmon/internal/platform"
)

// Target is one host to poll.
type Target struct {
	// Name identifies the target in samples, logs and health checks.
	Name string
	// OS is the target's operating system for display (a GOOS value or
	// uname -s output). It may be empty.
	OS string
	// Backend reads the target's metrics. The Monitor owns it from New
	// until Close.
	Backend platform.Backend
}

// Result is the outcome of polling one target.
type Result struct {
	// Sample is always set; fields whose source failed are zero.
	Sample monitor.Sample
	// OS is copied from the Target.
	OS string
	// Status is the target's health after this poll.
	Status HealthStatus
	// Err is the poll error: a *monitor.UpdateError for partial or total
	// source failures, or ErrCircuitOpen when the target was skipped.
	Err error
}

// Monitor polls a fixed set of targets, each with its own Sampler and
// circuit breaker. It is safe for concurrent use.
type Monitor struct {
	targets []*target
	logger  Logger
	metrics *Metrics

	interval   atomic.Int64
	intervalCh chan time.Duration
	running    atomic.Bool
	startTime  atomic.Int64
	closeOnce  sync.Once
	closeErr   error
}

type target struct {
	name    string
	os      string
	sampler *monitor.Sampler
	breaker *CircuitBreaker

	mu         sync.Mutex
	lastErr    error
	lastFailed bool
	lastPoll   time.Time
	polls      uint64
	polled     bool
}

// New creates a Monitor for targets. Target names must be unique and every
// target needs a backend. A nil opts means DefaultOptions().
func New(targets []Target, opts *Options) (*Monitor, error) {
	if opts == nil {
		defaultOpts := DefaultOptions()
		opts = &defaultOpts
	}
	if len(targets) == 0 {
		return nil, errors.New("no targets to monitor")
	}

	m := &Monitor{
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		intervalCh: make(chan time.Duration, 1),
	}
	if m.logger == nil {
		m.logger = NopLogger()
	}
	if m.metrics == nil {
		m.metrics = DefaultMetrics()
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	m.interval.Store(int64(interval))

	seen := make(map[string]bool, len(targets))
	for _, t := range targets {
		if t.Name == "" {
			return nil, errors.New("target name is required")
		}
		if t.Backend == nil {
			return nil, fmt.Errorf("target %s: backend is required", t.Name)
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("duplicate target name %q", t.Name)
		}
		seen[t.Name] = true
		m.targets = append(m.targets, m.newTarget(t, opts.Breaker))
	}

	m.metrics.SetActiveTargets(len(m.targets))
	return m, nil
}

func (m *Monitor) newTarget(t Target, breaker CircuitBreakerConfig) *target {
	name := t.Name
	userHook := breaker.OnStateChange
	breaker.OnStateChange = func(from, to CircuitState) {
		if to == CircuitOpen {
			m.metrics.IncrementCircuitOpens()
		}
		m.logger.Info("circuit state changed", "target", name, "from", from.String(), "to", to.String())
		if userHook != nil {
			userHook(from, to)
		}
	}

	return &target{
		name:    t.Name,
		os:      t.OS,
		sampler: monitor.NewSampler(t.Name, t.Backend),
		breaker: NewCircuitBreaker(breaker),
	}
}

// Initialize initializes every backend concurrently. Targets whose backend
// failed stay in the Monitor; their polls report source-unavailable until
// the backend recovers or the circuit opens. The returned error joins one
// *TargetError per failure; FailedTargets lists them.
func (m *Monitor) Initialize(ctx context.Context) error {
	errs := make([]error, len(m.targets))

	var g errgroup.Group
	for i, t := range m.targets {
		g.Go(func() error {
			if err := t.sampler.Backend().Initialize(ctx); err != nil {
				errs[i] = &TargetError{Target: t.name, Err: err}
				m.logger.Warn("backend initialization failed", "target", t.name, "backend", t.sampler.Backend().Name(), "error", err)
				return nil
			}
			m.logger.Debug("backend initialized", "target", t.name, "backend", t.sampler.Backend().Name())
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

// PollAll polls every target concurrently and returns one Result per
// target in the order they were given to New.
func (m *Monitor) PollAll(ctx context.Context) []Result {
	results := make([]Result, len(m.targets))

	var g errgroup.Group
	for i, t := range m.targets {
		g.Go(func() error {
			results[i] = m.poll(ctx, t)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (m *Monitor) poll(ctx context.Context, t *target) Result {
	start := time.Now()
	var sample monitor.Sample
	var pollErr error
	var failed bool

	err := t.breaker.Execute(func() error {
		sample, pollErr = t.sampler.Poll(ctx)
		if failed = pollFailed(sample, pollErr); failed {
			return pollErr
		}
		return nil
	})

	if errors.Is(err, ErrCircuitOpen) {
		m.metrics.IncrementCircuitRejections()
		m.logger.Debug("target skipped", "target", t.name)
		return Result{
			Sample: monitor.Sample{
				Target:        t.name,
				CPUStatus:     monitor.DeltaUnavailable,
				LoadSupported: t.sampler.Backend().Capabilities().LoadAverage,
				Timestamp:     start,
			},
			OS:     t.os,
			Status: HealthUnhealthy,
			Err:    &TargetError{Target: t.name, Err: ErrCircuitOpen},
		}
	}

	m.metrics.IncrementPolls()
	m.metrics.RecordPollLatency(time.Since(start))
	if sample.CPUStatus == monitor.DeltaDegenerate {
		m.metrics.IncrementDegenerateDeltas()
		m.logger.Debug("degenerate CPU delta, repeating previous value", "target", t.name, "cpu", sample.CPUPercent)
	}
	if pollErr != nil {
		m.metrics.IncrementPollErrors()
		if ue := monitor.AsUpdateError(pollErr); ue != nil {
			for _, ce := range ue.Errors {
				if errors.Is(ce, platform.ErrSourceUnavailable) {
					m.metrics.AddSourceUnavailable(1)
				}
			}
		}
		m.logger.Warn("poll failed", "target", t.name, "error", pollErr)
	}

	t.mu.Lock()
	t.polls++
	t.polled = true
	t.lastPoll = sample.Timestamp
	t.lastErr = pollErr
	t.lastFailed = failed
	t.mu.Unlock()

	return Result{
		Sample: sample,
		OS:     t.os,
		Status: t.status(),
		Err:    pollErr,
	}
}

// pollFailed reports whether a poll produced no data at all. An
// unsupported load average does not keep a poll alive.
func pollFailed(sample monitor.Sample, err error) bool {
	ue := monitor.AsUpdateError(err)
	if ue == nil {
		return false
	}
	if ue.Unavailable() {
		return true
	}
	return !sample.LoadSupported &&
		ue.UnavailableFrom(monitor.ErrorSourceCPU) &&
		ue.UnavailableFrom(monitor.ErrorSourceMemory)
}

func (t *target) status() HealthStatus {
	if t.breaker.State() != CircuitClosed {
		return HealthUnhealthy
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case !t.polled:
		return HealthDegraded
	case t.lastErr == nil:
		return HealthOK
	case t.lastFailed:
		return HealthUnhealthy
	default:
		return HealthDegraded
	}
}

// Run polls all targets immediately and then once per interval, passing
// each round of results to onResults, until ctx is cancelled. It returns
// nil on cancellation.
func (m *Monitor) Run(ctx context.Context, onResults func([]Result)) error {
	if !m.running.CompareAndSwap(false, true) {
		return errors.New("monitor already running")
	}
	m.startTime.Store(time.Now().UnixNano())
	m.metrics.SetRunning(true)
	defer func() {
		m.running.Store(false)
		m.metrics.SetRunning(false)
	}()

	ticker := time.NewTicker(m.Interval())
	defer ticker.Stop()

	for {
		results := m.PollAll(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if onResults != nil {
			onResults(results)
		}

		select {
		case <-ctx.Done():
			return nil
		case d := <-m.intervalCh:
			ticker.Reset(d)
			m.logger.Info("update interval changed", "interval", d.String())
			// Wait a full new interval before the next poll.
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		case <-ticker.C:
		}
	}
}

// Interval returns the current polling interval.
func (m *Monitor) Interval() time.Duration {
	return time.Duration(m.interval.Load())
}

// SetInterval changes the polling interval. A running loop picks it up
// after its current wait. Non-positive values are ignored.
func (m *Monitor) SetInterval(d time.Duration) {
	if d <= 0 || time.Duration(m.interval.Swap(int64(d))) == d {
		return
	}
	// Replace any pending change that Run has not consumed yet.
	select {
	case <-m.intervalCh:
	default:
	}
	m.intervalCh <- d
}

// IsRunning reports whether Run is active.
func (m *Monitor) IsRunning() bool {
	return m.running.Load()
}

// Targets returns the target names in polling order.
func (m *Monitor) Targets() []string {
	names := make([]string, len(m.targets))
	for i, t := range m.targets {
		names[i] = t.name
	}
	return names
}

// Metrics returns the metrics collector for this monitor.
func (m *Monitor) Metrics() *Metrics {
	return m.metrics
}

// Health returns the health of every target and an overall status.
func (m *Monitor) Health() HealthCheck {
	now := time.Now()
	check := HealthCheck{
		Status:    HealthOK,
		Timestamp: now,
		Targets:   make(map[string]TargetHealth, len(m.targets)),
	}
	if m.running.Load() {
		check.Uptime = now.Sub(time.Unix(0, m.startTime.Load()))
	}

	unhealthy := 0
	for _, t := range m.targets {
		status := t.status()
		t.mu.Lock()
		th := TargetHealth{
			Status:   status,
			Circuit:  t.breaker.State(),
			LastPoll: t.lastPoll,
			Polls:    t.polls,
		}
		switch {
		case th.Circuit == CircuitOpen:
			th.Message = "circuit open, polls suspended"
		case t.lastErr != nil:
			th.Message = t.lastErr.Error()
		case !t.polled:
			th.Message = "not polled yet"
		default:
			th.Message = "all sources read"
		}
		t.mu.Unlock()

		check.Targets[t.name] = th
		check.Status = worse(check.Status, status)
		if status == HealthUnhealthy {
			unhealthy++
		}
	}

	switch check.Status {
	case HealthOK:
		check.Message = "All targets healthy"
	case HealthDegraded:
		check.Message = "Some targets report partial data"
	default:
		check.Message = fmt.Sprintf("%d of %d targets unhealthy", unhealthy, len(m.targets))
	}
	return check
}

// Close closes every backend. It is safe to call more than once.
func (m *Monitor) Close() error {
	m.closeOnce.Do(func() {
		var errs []error
		for _, t := range m.targets {
			if err := t.sampler.Backend().Close(); err != nil {
				errs = append(errs, &TargetError{Target: t.name, Err: err})
			}
		}
		m.metrics.SetActiveTargets(0)
		m.closeErr = errors.Join(errs...)
	})
	return m.closeErr
}
