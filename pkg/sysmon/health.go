package sysmon

import "time"

// HealthStatus represents the health state of a target or the whole monitor.
type HealthStatus string

const (
	// HealthOK indicates every source of the last poll was read.
	HealthOK HealthStatus = "ok"
	// HealthDegraded indicates partial data or no poll yet.
	HealthDegraded HealthStatus = "degraded"
	// HealthUnhealthy indicates no data: every source failed or the circuit is open.
	HealthUnhealthy HealthStatus = "unhealthy"
)

// worse returns the more severe of two statuses.
func worse(a, b HealthStatus) HealthStatus {
	rank := func(s HealthStatus) int {
		switch s {
		case HealthOK:
			return 0
		case HealthDegraded:
			return 1
		default:
			return 2
		}
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}

// HealthCheck contains the health of the monitor and each of its targets.
type HealthCheck struct {
	// Status is the worst status among the targets.
	Status HealthStatus `json:"status"`

	// Timestamp is when the health check was performed.
	Timestamp time.Time `json:"timestamp"`

	// Uptime is the time since Run started (zero if not running).
	Uptime time.Duration `json:"uptime_ns"`

	// Targets maps target names to their health.
	Targets map[string]TargetHealth `json:"targets"`

	// Message provides additional context about the health status.
	Message string `json:"message"`
}

// TargetHealth represents the health of one polled target.
type TargetHealth struct {
	// Status is the health status of this target.
	Status HealthStatus `json:"status"`

	// Circuit is the state of the target's circuit breaker.
	Circuit CircuitState `json:"circuit"`

	// Message provides details, usually the last poll error.
	Message string `json:"message"`

	// LastPoll is when the target was last polled successfully or partially.
	LastPoll time.Time `json:"last_poll"`

	// Polls is the number of polls that reached the backend.
	Polls uint64 `json:"polls"`
}

// IsHealthy returns true if the overall status is HealthOK.
func (h HealthCheck) IsHealthy() bool {
	return h.Status == HealthOK
}

// IsDegraded returns true if the overall status is HealthDegraded.
func (h HealthCheck) IsDegraded() bool {
	return h.Status == HealthDegraded
}

// IsUnhealthy returns true if the overall status is HealthUnhealthy.
func (h HealthCheck) IsUnhealthy() bool {
	return h.Status == HealthUnhealthy
}
