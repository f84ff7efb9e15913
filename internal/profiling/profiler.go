// Package profiling records pprof profiles of a sysmon run: a CPU profile
// spanning the whole run and a heap profile taken as the run ends.
package profiling

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"sync"
)

var (
	errActive   = errors.New("profiling already active")
	errInactive = errors.New("profiling not active")
)

// Config names the profile files. Leave a path empty to skip that profile.
type Config struct {
	CPUPath  string
	HeapPath string
}

// Enabled reports whether at least one profile will be written.
func (c Config) Enabled() bool {
	return c.CPUPath != "" || c.HeapPath != ""
}

// Profiler brackets a run with Start and Stop. Methods may be called from
// any goroutine.
type Profiler struct {
	cfg Config

	mu     sync.Mutex
	active bool
	cpuOut *os.File // nil unless a CPU profile is being recorded
}

func New(cfg Config) *Profiler {
	return &Profiler{cfg: cfg}
}

// Start opens the CPU profile and begins sampling. With no CPU path it only
// marks the profiler active, so Stop still writes the heap profile.
func (p *Profiler) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active {
		return errActive
	}
	if p.cfg.CPUPath != "" {
		out, err := os.Create(p.cfg.CPUPath)
		if err != nil {
			return fmt.Errorf("cpu profile: %w", err)
		}
		if err := pprof.StartCPUProfile(out); err != nil {
			out.Close()
			return fmt.Errorf("cpu profile %s: %w", p.cfg.CPUPath, err)
		}
		p.cpuOut = out
	}
	p.active = true
	return nil
}

// Stop flushes the CPU profile and writes the heap profile. The profiler is
// inactive afterwards even if either write failed; both failures are
// returned together.
func (p *Profiler) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.active {
		return errInactive
	}
	p.active = false

	var cpuErr, heapErr error
	if p.cpuOut != nil {
		pprof.StopCPUProfile()
		if err := p.cpuOut.Close(); err != nil {
			cpuErr = fmt.Errorf("cpu profile %s: %w", p.cfg.CPUPath, err)
		}
		p.cpuOut = nil
	}
	if p.cfg.HeapPath != "" {
		heapErr = WriteHeapProfile(p.cfg.HeapPath)
	}
	return errors.Join(cpuErr, heapErr)
}

// Active reports whether Start has been called without a matching Stop.
func (p *Profiler) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// WriteHeapProfile collects garbage first so the profile shows live objects
// only, then writes it to path.
func WriteHeapProfile(path string) error {
	runtime.GC()

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("heap profile: %w", err)
	}
	if err := pprof.WriteHeapProfile(out); err != nil {
		out.Close()
		return fmt.Errorf("heap profile %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("heap profile %s: %w", path, err)
	}
	return nil
}
