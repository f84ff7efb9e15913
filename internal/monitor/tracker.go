package monitor

import (
	"github.com/opd-ai/go-sysmon/internal/platform"
)

// DeltaStatus describes how a Tracker produced its result.
type DeltaStatus int

const (
	// DeltaPriming means the tracker had no previous sample; the result is 0.
	DeltaPriming DeltaStatus = iota
	// DeltaOK means the result was computed from a valid delta.
	DeltaOK
	// DeltaDegenerate means no ticks elapsed or the counters went backwards;
	// the previous result was repeated.
	DeltaDegenerate
	// DeltaUnavailable means the counters could not be read; the result is 0
	// and the tracker was left untouched.
	DeltaUnavailable
)

// String returns the string representation of a DeltaStatus.
func (s DeltaStatus) String() string {
	switch s {
	case DeltaPriming:
		return "priming"
	case DeltaOK:
		return "ok"
	case DeltaDegenerate:
		return "degenerate"
	case DeltaUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Tracker turns successive cumulative CPU counters into a utilization
// percentage. Each monitored target needs its own Tracker.
//
// A Tracker is not safe for concurrent use.
type Tracker struct {
	initialized bool
	prev        platform.CPUCounters
	last        float64
}

// NewTracker returns an uninitialized Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Update records current and returns the utilization since the previous call.
// The first call after creation or Reset returns 0. The result is always
// within [0, 100].
func (t *Tracker) Update(current platform.CPUCounters) (float64, DeltaStatus) {
	if !t.initialized {
		t.initialized = true
		t.prev = current
		t.last = 0
		return 0, DeltaPriming
	}

	prev := t.prev
	t.prev = current

	// Equal totals mean no ticks elapsed; a smaller total means the
	// counters were reset. Either way the new sample becomes the baseline.
	if current.Total <= prev.Total {
		return t.last, DeltaDegenerate
	}

	totalDelta := float64(current.Total - prev.Total)
	var idleDelta float64
	if current.Idle > prev.Idle {
		idleDelta = float64(current.Idle - prev.Idle)
	}

	t.last = clampPercent(100 * (1 - idleDelta/totalDelta))
	return t.last, DeltaOK
}

// Last returns the most recent result, or 0 if none was computed yet.
func (t *Tracker) Last() float64 {
	return t.last
}

// Initialized reports whether the tracker holds a previous sample.
func (t *Tracker) Initialized() bool {
	return t.initialized
}

// Reset returns the tracker to its uninitialized state.
func (t *Tracker) Reset() {
	*t = Tracker{}
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
