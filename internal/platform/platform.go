package platform

import (
	"context"
)

// Backend is the per-OS source of raw host metrics.
// Exactly one Backend is active per monitored target.
type Backend interface {
	// Name returns the backend identifier (e.g., "linux", "darwin", "windows", "portable").
	Name() string

	// Capabilities reports which metrics the backend can actually produce.
	Capabilities() Capabilities

	// Initialize acquires long-lived resources such as query handles or
	// SSH connections. It must be called before the first read.
	Initialize(ctx context.Context) error

	// Close releases resources acquired by Initialize.
	Close() error

	// ReadCPUCounters returns the cumulative aggregate CPU counters.
	// On failure it returns zero counters and an error matching ErrSourceUnavailable.
	ReadCPUCounters(ctx context.Context) (CPUCounters, error)

	// ReadMemory returns the current physical memory snapshot in bytes.
	ReadMemory(ctx context.Context) (MemorySnapshot, error)

	// ReadLoadAverage returns the 1, 5 and 15 minute load averages.
	// Backends without load average support return the zero triple and nil.
	ReadLoadAverage(ctx context.Context) (LoadAverage, error)
}

// Capabilities describes optional metrics a backend supports.
type Capabilities struct {
	// LoadAverage is false on platforms whose kernel has no load average.
	LoadAverage bool
}

// CPUCounters is a cumulative snapshot of aggregate CPU time.
// Both values only grow while the host is up; the unit is backend specific
// (clock ticks, 100ns intervals) but always the same for Total and Idle.
type CPUCounters struct {
	Total uint64
	Idle  uint64
}

// MemorySnapshot holds physical memory occupancy in bytes.
// Used is always Total minus Free.
type MemorySnapshot struct {
	Total uint64
	Used  uint64
	Free  uint64
}

// LoadAverage holds the 1, 5 and 15 minute run-queue averages.
type LoadAverage struct {
	One     float64
	Five    float64
	Fifteen float64
}

// IsZero reports whether l is the zero triple.
func (l LoadAverage) IsZero() bool {
	return l.One == 0 && l.Five == 0 && l.Fifteen == 0
}

// NewMemorySnapshot builds a snapshot from total and free byte counts.
// A free value larger than total is capped so Used never underflows.
func NewMemorySnapshot(total, free uint64) MemorySnapshot {
	if free > total {
		free = total
	}
	return MemorySnapshot{
		Total: total,
		Used:  total - free,
		Free:  free,
	}
}
