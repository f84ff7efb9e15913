package sysmon

import (
	"errors"
	"sync"
	"time"
)

// CircuitState represents the current state of a circuit breaker.
type CircuitState int

const (
	// CircuitClosed indicates the target is polled normally.
	CircuitClosed CircuitState = iota
	// CircuitOpen indicates the target is skipped.
	CircuitOpen
	// CircuitHalfOpen indicates a trial poll is allowed.
	CircuitHalfOpen
)

// String returns the string representation of the circuit state.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s CircuitState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ErrCircuitOpen is returned when a target is skipped because its circuit is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig contains configuration for a circuit breaker.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failed polls before
	// opening the circuit. Default: 5
	FailureThreshold int

	// SuccessThreshold is the number of consecutive successes in half-open
	// state required to close the circuit. Default: 1
	SuccessThreshold int

	// Timeout is how long the circuit stays open before a trial poll.
	// Default: 30 seconds
	Timeout time.Duration

	// OnStateChange is called synchronously, without the breaker's lock
	// held, after every state change.
	OnStateChange func(from, to CircuitState)
}

// DefaultCircuitBreakerConfig returns a CircuitBreakerConfig with sensible defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 1,
		Timeout:          30 * time.Second,
	}
}

// CircuitBreaker stops polling a target that keeps failing and retries it
// after a cool-down. Only one trial poll runs while half-open.
type CircuitBreaker struct {
	config CircuitBreakerConfig
	now    func() time.Time

	mu              sync.Mutex
	state           CircuitState
	failures        int
	successes       int
	openedAt        time.Time
	trialInFlight   bool
	totalSuccesses  int64
	totalFailures   int64
	totalRejections int64
}

// NewCircuitBreaker creates a new circuit breaker with the given configuration.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	defaults := DefaultCircuitBreakerConfig()
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = defaults.FailureThreshold
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = defaults.SuccessThreshold
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}

	return &CircuitBreaker{
		config: config,
		now:    time.Now,
		state:  CircuitClosed,
	}
}

// Execute runs fn unless the circuit is open, in which case it returns
// ErrCircuitOpen without calling fn. A non-nil error from fn counts as a
// failure.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.allow() {
		return ErrCircuitOpen
	}

	err := fn()
	cb.record(err == nil)
	return err
}

// State returns the current state of the circuit breaker. An open circuit
// whose timeout has elapsed reports CircuitHalfOpen.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitOpen && cb.now().Sub(cb.openedAt) >= cb.config.Timeout {
		return CircuitHalfOpen
	}
	return cb.state
}

// Stats returns circuit breaker statistics.
func (cb *CircuitBreaker) Stats() CircuitBreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return CircuitBreakerStats{
		State:           cb.state,
		Failures:        cb.failures,
		TotalSuccesses:  cb.totalSuccesses,
		TotalFailures:   cb.totalFailures,
		TotalRejections: cb.totalRejections,
		OpenedAt:        cb.openedAt,
	}
}

// CircuitBreakerStats contains statistics about circuit breaker operation.
type CircuitBreakerStats struct {
	// State is the current circuit state.
	State CircuitState
	// Failures is the current number of consecutive failures.
	Failures int
	// TotalSuccesses is the total number of successful polls.
	TotalSuccesses int64
	// TotalFailures is the total number of failed polls.
	TotalFailures int64
	// TotalRejections is the total number of polls skipped while open.
	TotalRejections int64
	// OpenedAt is when the circuit last opened.
	OpenedAt time.Time
}

// Reset closes the circuit and clears the failure count.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	from := cb.state
	cb.state = CircuitClosed
	cb.failures = 0
	cb.successes = 0
	cb.trialInFlight = false
	cb.mu.Unlock()

	cb.notify(from, CircuitClosed)
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()

	switch cb.state {
	case CircuitClosed:
		cb.mu.Unlock()
		return true

	case CircuitOpen:
		if cb.now().Sub(cb.openedAt) < cb.config.Timeout {
			cb.totalRejections++
			cb.mu.Unlock()
			return false
		}
		cb.state = CircuitHalfOpen
		cb.successes = 0
		cb.trialInFlight = true
		cb.mu.Unlock()
		cb.notify(CircuitOpen, CircuitHalfOpen)
		return true

	default:
		if cb.trialInFlight {
			cb.totalRejections++
			cb.mu.Unlock()
			return false
		}
		cb.trialInFlight = true
		cb.mu.Unlock()
		return true
	}
}

func (cb *CircuitBreaker) record(success bool) {
	cb.mu.Lock()
	from := cb.state

	if success {
		cb.totalSuccesses++
		cb.failures = 0
		if cb.state == CircuitHalfOpen {
			cb.trialInFlight = false
			cb.successes++
			if cb.successes >= cb.config.SuccessThreshold {
				cb.state = CircuitClosed
				cb.successes = 0
			}
		}
	} else {
		cb.totalFailures++
		cb.failures++
		switch cb.state {
		case CircuitClosed:
			if cb.failures >= cb.config.FailureThreshold {
				cb.state = CircuitOpen
				cb.openedAt = cb.now()
			}
		case CircuitHalfOpen:
			// Any failure while half-open reopens the circuit.
			cb.trialInFlight = false
			cb.state = CircuitOpen
			cb.openedAt = cb.now()
			cb.successes = 0
		}
	}

	to := cb.state
	cb.mu.Unlock()
	cb.notify(from, to)
}

func (cb *CircuitBreaker) notify(from, to CircuitState) {
	if from != to && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(from, to)
	}
}
