// Package platformtest provides a scriptable platform.Backend for tests.
package platformtest

import (
	"context"
	"sync"

	"github.com/opd-ai/go-sysmon/internal/platform"
)

// FakeBackend returns queued readings in order. When a queue runs dry the
// last value is repeated. Errors set with Fail* are returned instead of a
// reading until cleared.
type FakeBackend struct {
	mu sync.Mutex

	name string
	caps platform.Capabilities

	counters queue[platform.CPUCounters]
	memory   queue[platform.MemorySnapshot]
	load     queue[platform.LoadAverage]

	cpuErr  error
	memErr  error
	loadErr error
	initErr error

	Initialized bool
	Closed      bool
	CPUReads    int
}

// NewFakeBackend creates a FakeBackend with load average support.
func NewFakeBackend(name string) *FakeBackend {
	return &FakeBackend{
		name: name,
		caps: platform.Capabilities{LoadAverage: true},
	}
}

// WithoutLoadAverage makes the fake behave like a platform without load averages.
func (f *FakeBackend) WithoutLoadAverage() *FakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.caps.LoadAverage = false
	return f
}

// QueueCounters appends CPU counter readings.
func (f *FakeBackend) QueueCounters(c ...platform.CPUCounters) *FakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters.push(c...)
	return f
}

// QueueMemory appends memory readings.
func (f *FakeBackend) QueueMemory(m ...platform.MemorySnapshot) *FakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memory.push(m...)
	return f
}

// QueueLoad appends load average readings.
func (f *FakeBackend) QueueLoad(l ...platform.LoadAverage) *FakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.load.push(l...)
	return f
}

// FailCPU makes ReadCPUCounters return err (nil clears it).
func (f *FakeBackend) FailCPU(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cpuErr = err
}

// FailMemory makes ReadMemory return err (nil clears it).
func (f *FakeBackend) FailMemory(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memErr = err
}

// FailLoad makes ReadLoadAverage return err (nil clears it).
func (f *FakeBackend) FailLoad(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadErr = err
}

// FailInitialize makes Initialize return err.
func (f *FakeBackend) FailInitialize(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initErr = err
}

// FailAll makes every read return err.
func (f *FakeBackend) FailAll(err error) {
	f.FailCPU(err)
	f.FailMemory(err)
	f.FailLoad(err)
}

func (f *FakeBackend) Name() string { return f.name }

func (f *FakeBackend) Capabilities() platform.Capabilities {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.caps
}

func (f *FakeBackend) Initialize(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.initErr != nil {
		return f.initErr
	}
	f.Initialized = true
	return nil
}

func (f *FakeBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

func (f *FakeBackend) ReadCPUCounters(ctx context.Context) (platform.CPUCounters, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CPUReads++
	if f.cpuErr != nil {
		return platform.CPUCounters{}, f.cpuErr
	}
	return f.counters.next(), nil
}

func (f *FakeBackend) ReadMemory(ctx context.Context) (platform.MemorySnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.memErr != nil {
		return platform.MemorySnapshot{}, f.memErr
	}
	return f.memory.next(), nil
}

func (f *FakeBackend) ReadLoadAverage(ctx context.Context) (platform.LoadAverage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.caps.LoadAverage {
		return platform.LoadAverage{}, nil
	}
	if f.loadErr != nil {
		return platform.LoadAverage{}, f.loadErr
	}
	return f.load.next(), nil
}

// queue hands out values in order and repeats the last one once empty.
type queue[T any] struct {
	items []T
	last  T
}

func (q *queue[T]) push(v ...T) {
	q.items = append(q.items, v...)
}

func (q *queue[T]) next() T {
	if len(q.items) > 0 {
		q.last = q.items[0]
		q.items = q.items[1:]
	}
	return q.last
}
