package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/opd-ai/go-sysmon/internal/platform"
)

// Sampler polls one target. It owns the target's Backend and Tracker, so
// two targets never share delta state.
type Sampler struct {
	name    string
	backend platform.Backend
	memory  *MemoryReader
	load    *LoadReader
	now     func() time.Time

	mu      sync.Mutex
	tracker *Tracker
}

// NewSampler creates a Sampler for backend. The backend must already be
// initialized.
func NewSampler(name string, backend platform.Backend) *Sampler {
	return &Sampler{
		name:    name,
		backend: backend,
		memory:  NewMemoryReader(backend),
		load:    NewLoadReader(backend),
		now:     time.Now,
		tracker: NewTracker(),
	}
}

// Name returns the target name.
func (s *Sampler) Name() string {
	return s.name
}

// Backend returns the backend the sampler reads from.
func (s *Sampler) Backend() platform.Backend {
	return s.backend
}

// Poll reads CPU counters, memory and load averages once.
//
// The returned Sample is always usable: fields whose source failed are zero
// and the failures are reported together as an *UpdateError. A failed CPU
// read leaves the tracker untouched, so the next successful read still
// deltas against the last good sample.
func (s *Sampler) Poll(ctx context.Context) (Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sample := Sample{
		Target:        s.name,
		Timestamp:     s.now(),
		LoadSupported: s.load.Supported(),
	}
	errs := &UpdateError{}

	counters, err := s.backend.ReadCPUCounters(ctx)
	if err != nil {
		errs.add(ErrorSourceCPU, err)
		sample.CPUStatus = DeltaUnavailable
	} else {
		sample.CPUPercent, sample.CPUStatus = s.tracker.Update(counters)
	}

	mem, err := s.memory.Read(ctx)
	errs.add(ErrorSourceMemory, err)
	sample.Memory = mem

	load, err := s.load.Read(ctx)
	errs.add(ErrorSourceLoad, err)
	sample.Load = load

	return sample, errs.errOrNil()
}

// Reset drops the tracker's previous sample; the next Poll reports 0% CPU.
func (s *Sampler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracker.Reset()
}
