//go:build darwin && !cgo

package platform

import (
	"context"
	"errors"
	"os/exec"
)

// ReadCPUCounters sums the per-processor tick counts gopsutil fetches from
// host_processor_info without cgo. Values arrive in seconds and are scaled
// back to centisecond ticks.
func (b *darwinBackend) ReadCPUCounters(ctx context.Context) (CPUCounters, error) {
	stats, err := b.cpuTimes(ctx, true)
	if err != nil {
		return CPUCounters{}, unavailable("host_processor_info", "querying", err)
	}
	if len(stats) == 0 {
		return CPUCounters{}, unavailable("host_processor_info", "querying", errors.New("no processors reported"))
	}

	var user, system, idle uint64
	for _, s := range stats {
		user += secondsToTicks(s.User) + secondsToTicks(s.Nice)
		system += secondsToTicks(s.System)
		idle += secondsToTicks(s.Idle)
	}
	return CPUCounters{Total: user + system + idle, Idle: idle}, nil
}

// ReadMemory falls back to vm_stat(1), which reports the same page counts
// as host_statistics64.
func (b *darwinBackend) ReadMemory(ctx context.Context) (MemorySnapshot, error) {
	out, err := exec.CommandContext(ctx, "vm_stat").Output()
	if err != nil {
		return MemorySnapshot{}, unavailable("vm_stat", "running", err)
	}

	mem, err := parseVMStatOutput(string(out))
	if err != nil {
		return MemorySnapshot{}, unavailable("vm_stat", "parsing", err)
	}
	return mem, nil
}
