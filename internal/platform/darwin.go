//go:build darwin

package platform

import (
	"context"

	"github.com/shirou/gopsutil/v4/cpu"
	"golang.org/x/sys/unix"
)

// darwinBackend implements Backend for macOS using Mach host statistics.
// CPU and memory reads live in darwin_cgo.go and darwin_nocgo.go; cpuTimes
// is only consulted by the nocgo build.
type darwinBackend struct {
	sysctlRaw func(name string, args ...int) ([]byte, error)
	cpuTimes  func(ctx context.Context, percpu bool) ([]cpu.TimesStat, error)
}

// NewDarwinBackend creates the host-statistics backend.
func NewDarwinBackend() Backend {
	return newDarwinBackend()
}

func newDarwinBackend() *darwinBackend {
	return &darwinBackend{
		sysctlRaw: unix.SysctlRaw,
		cpuTimes:  cpu.TimesWithContext,
	}
}

func (b *darwinBackend) Name() string {
	return "darwin"
}

func (b *darwinBackend) Capabilities() Capabilities {
	return Capabilities{LoadAverage: true}
}

func (b *darwinBackend) Initialize(ctx context.Context) error {
	return nil
}

func (b *darwinBackend) Close() error {
	return nil
}

func (b *darwinBackend) ReadLoadAverage(ctx context.Context) (LoadAverage, error) {
	raw, err := b.sysctlRaw("vm.loadavg")
	if err != nil {
		return LoadAverage{}, unavailable("vm.loadavg", "sysctl", err)
	}

	load, err := parseLoadavgSysctl(raw)
	if err != nil {
		return LoadAverage{}, unavailable("vm.loadavg", "decoding", err)
	}
	return load, nil
}
