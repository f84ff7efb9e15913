//go:build linux

package platform

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// linuxBackend implements Backend for Linux using the proc table and sysinfo(2).
type linuxBackend struct {
	procStatPath    string
	procLoadavgPath string
	sysinfo         func(*unix.Sysinfo_t) error
}

// NewLinuxBackend creates the proc-table backend.
func NewLinuxBackend() Backend {
	return newLinuxBackend()
}

func newLinuxBackend() *linuxBackend {
	return &linuxBackend{
		procStatPath:    "/proc/stat",
		procLoadavgPath: "/proc/loadavg",
		sysinfo:         unix.Sysinfo,
	}
}

func (b *linuxBackend) Name() string {
	return "linux"
}

func (b *linuxBackend) Capabilities() Capabilities {
	return Capabilities{LoadAverage: true}
}

// Initialize is a no-op; the proc table needs no handles.
func (b *linuxBackend) Initialize(ctx context.Context) error {
	return nil
}

func (b *linuxBackend) Close() error {
	return nil
}

func (b *linuxBackend) ReadCPUCounters(ctx context.Context) (CPUCounters, error) {
	path := b.procStatPath

	file, err := os.Open(path)
	if err != nil {
		return CPUCounters{}, unavailable(path, "opening", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return CPUCounters{}, unavailable(path, "reading", err)
		}
		return CPUCounters{}, unavailable(path, "reading", fmt.Errorf("empty file"))
	}

	times, err := parseProcStatLine(scanner.Text())
	if err != nil {
		return CPUCounters{}, unavailable(path, "parsing", err)
	}
	return times.counters(), nil
}

func (b *linuxBackend) ReadMemory(ctx context.Context) (MemorySnapshot, error) {
	var info unix.Sysinfo_t
	if err := b.sysinfo(&info); err != nil {
		return MemorySnapshot{}, unavailable("sysinfo", "querying", err)
	}

	// mem_unit is 0 on kernels before 2.3.23, where sizes are in bytes.
	unit := uint64(info.Unit)
	if unit == 0 {
		unit = 1
	}

	return NewMemorySnapshot(uint64(info.Totalram)*unit, uint64(info.Freeram)*unit), nil
}

func (b *linuxBackend) ReadLoadAverage(ctx context.Context) (LoadAverage, error) {
	path := b.procLoadavgPath

	data, err := os.ReadFile(path)
	if err != nil {
		return LoadAverage{}, unavailable(path, "reading", err)
	}

	load, err := parseLoadAverage(string(data))
	if err != nil {
		return LoadAverage{}, unavailable(path, "parsing", err)
	}
	return load, nil
}
