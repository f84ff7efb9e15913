package platform

import (
	"context"
	"errors"
	"math"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// portableBackend implements Backend on top of gopsutil. It serves hosts
// without a native backend.
type portableBackend struct {
	goos   string
	times  func(ctx context.Context, percpu bool) ([]cpu.TimesStat, error)
	memory func(ctx context.Context) (*mem.VirtualMemoryStat, error)
	avg    func(ctx context.Context) (*load.AvgStat, error)
}

// NewPortableBackend creates a gopsutil backed Backend for the running OS.
func NewPortableBackend() Backend {
	return newPortableBackend(runtime.GOOS)
}

func newPortableBackend(goos string) *portableBackend {
	return &portableBackend{
		goos:   goos,
		times:  cpu.TimesWithContext,
		memory: mem.VirtualMemoryWithContext,
		avg:    load.AvgWithContext,
	}
}

func (b *portableBackend) Name() string {
	return "portable"
}

func (b *portableBackend) Capabilities() Capabilities {
	return Capabilities{LoadAverage: b.goos != "windows"}
}

func (b *portableBackend) Initialize(ctx context.Context) error {
	return nil
}

func (b *portableBackend) Close() error {
	return nil
}

func (b *portableBackend) ReadCPUCounters(ctx context.Context) (CPUCounters, error) {
	stats, err := b.times(ctx, false)
	if err != nil {
		return CPUCounters{}, unavailable("gopsutil/cpu", "reading times", err)
	}
	if len(stats) == 0 {
		return CPUCounters{}, unavailable("gopsutil/cpu", "reading times", errors.New("no aggregate cpu entry"))
	}
	return countersFromTimes(stats[0]), nil
}

// countersFromTimes converts gopsutil seconds into centisecond ticks using
// the same total and idle definitions as the proc-table backend.
func countersFromTimes(t cpu.TimesStat) CPUCounters {
	times := cpuTimes{
		user:    secondsToTicks(t.User),
		nice:    secondsToTicks(t.Nice),
		system:  secondsToTicks(t.System),
		idle:    secondsToTicks(t.Idle),
		iowait:  secondsToTicks(t.Iowait),
		irq:     secondsToTicks(t.Irq),
		softirq: secondsToTicks(t.Softirq),
		steal:   secondsToTicks(t.Steal),
	}
	return times.counters()
}

func secondsToTicks(s float64) uint64 {
	if s <= 0 || math.IsNaN(s) {
		return 0
	}
	return uint64(math.Round(s * 100))
}

func (b *portableBackend) ReadMemory(ctx context.Context) (MemorySnapshot, error) {
	vm, err := b.memory(ctx)
	if err != nil {
		return MemorySnapshot{}, unavailable("gopsutil/mem", "reading virtual memory", err)
	}
	return NewMemorySnapshot(vm.Total, vm.Free), nil
}

func (b *portableBackend) ReadLoadAverage(ctx context.Context) (LoadAverage, error) {
	if !b.Capabilities().LoadAverage {
		return LoadAverage{}, nil
	}

	avg, err := b.avg(ctx)
	if err != nil {
		return LoadAverage{}, unavailable("gopsutil/load", "reading averages", err)
	}
	return LoadAverage{One: avg.Load1, Five: avg.Load5, Fifteen: avg.Load15}, nil
}
