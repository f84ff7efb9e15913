// Package monitor turns raw platform counters into host metric samples.
//
// A Sampler owns one Backend and one Tracker and produces a Sample per Poll.
// Samplers for different targets share nothing and may be polled
// concurrently.
package monitor

import (
	"time"

	"github.com/opd-ai/go-sysmon/internal/platform"
)

// LocalTarget is the target name of the machine the process runs on.
const LocalTarget = "local"

// Sample is the result of one poll of a single target.
type Sample struct {
	// Target names the polled host ("local" for the machine itself).
	Target string

	// CPUPercent is the aggregate utilization since the previous poll, in [0, 100].
	CPUPercent float64

	// CPUStatus tells how CPUPercent was derived.
	CPUStatus DeltaStatus

	// Load holds the load averages; the zero triple when unsupported.
	Load platform.LoadAverage

	// LoadSupported is false when Load is the unsupported sentinel.
	LoadSupported bool

	// Memory holds physical memory occupancy in bytes.
	Memory platform.MemorySnapshot

	// Timestamp is when the poll started.
	Timestamp time.Time
}
