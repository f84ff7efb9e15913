package platform

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// parseProcStatLine parses the aggregate "cpu" line of /proc/stat:
//
//	cpu  user nice system idle iowait irq softirq steal [guest guest_nice]
//
// Kernels older than 2.6.11 omit the trailing fields; missing values read as zero.
// This function is used by both the local and the remote proc-table backends.
func parseProcStatLine(line string) (cpuTimes, error) {
	fields := strings.Fields(line)
	if len(fields) < 5 || fields[0] != "cpu" {
		return cpuTimes{}, fmt.Errorf("unexpected /proc/stat format: %q", line)
	}

	values := make([]uint64, 8)
	for i := 1; i < len(fields) && i <= len(values); i++ {
		v, err := strconv.ParseUint(fields[i], 10, 64)
		if err != nil {
			return cpuTimes{}, fmt.Errorf("parsing /proc/stat field %d: %w", i, err)
		}
		values[i-1] = v
	}

	return cpuTimes{
		user:    values[0],
		nice:    values[1],
		system:  values[2],
		idle:    values[3],
		iowait:  values[4],
		irq:     values[5],
		softirq: values[6],
		steal:   values[7],
	}, nil
}

// firstLine returns the first line of s without its terminator.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimRight(s, "\r")
}

// parseLoadAverage parses the output of /proc/loadavg.
func parseLoadAverage(output string) (LoadAverage, error) {
	fields := strings.Fields(output)
	if len(fields) < 3 {
		return LoadAverage{}, fmt.Errorf("unexpected /proc/loadavg format: %q", output)
	}

	var loads [3]float64
	for i, name := range []string{"1min", "5min", "15min"} {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return LoadAverage{}, fmt.Errorf("failed to parse %s load: %w", name, err)
		}
		loads[i] = v
	}

	return LoadAverage{One: loads[0], Five: loads[1], Fifteen: loads[2]}, nil
}

// parseMemInfoOutput extracts MemTotal and MemFree from /proc/meminfo.
// Values in /proc/meminfo are in kB, the unit multiplier is 1024.
func parseMemInfoOutput(output string) (MemorySnapshot, error) {
	var total, free uint64
	var haveTotal, haveFree bool

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}

		value, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}

		switch strings.TrimSuffix(fields[0], ":") {
		case "MemTotal":
			total, haveTotal = value*1024, true
		case "MemFree":
			free, haveFree = value*1024, true
		}
	}
	if err := scanner.Err(); err != nil {
		return MemorySnapshot{}, fmt.Errorf("reading meminfo: %w", err)
	}
	if !haveTotal || !haveFree {
		return MemorySnapshot{}, fmt.Errorf("meminfo missing MemTotal or MemFree")
	}

	return NewMemorySnapshot(total, free), nil
}

// memoryFromPages applies the host-statistics page arithmetic: the sum of
// free, active, inactive and wired pages is the total, free pages are free.
func memoryFromPages(free, active, inactive, wired, pageSize uint64) MemorySnapshot {
	total := (free + active + inactive + wired) * pageSize
	return NewMemorySnapshot(total, free*pageSize)
}

var vmStatPageSize = regexp.MustCompile(`page size of (\d+) bytes`)

// parseVMStatOutput parses the output of macOS vm_stat(1).
func parseVMStatOutput(output string) (MemorySnapshot, error) {
	var pageSize uint64 = 4096
	if m := vmStatPageSize.FindStringSubmatch(output); m != nil {
		if v, err := strconv.ParseUint(m[1], 10, 64); err == nil && v > 0 {
			pageSize = v
		}
	}

	pages := make(map[string]uint64)
	for _, line := range strings.Split(output, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		v, err := strconv.ParseUint(strings.TrimSuffix(strings.TrimSpace(value), "."), 10, 64)
		if err != nil {
			continue
		}
		pages[strings.TrimSpace(key)] = v
	}

	free, ok := pages["Pages free"]
	if !ok {
		return MemorySnapshot{}, fmt.Errorf("vm_stat output missing \"Pages free\"")
	}

	return memoryFromPages(free, pages["Pages active"], pages["Pages inactive"],
		pages["Pages wired down"], pageSize), nil
}

// parseLoadavgSysctl decodes the raw vm.loadavg sysctl value, a
// struct loadavg { fixpt_t ldavg[3]; long fscale; } on 64-bit darwin.
func parseLoadavgSysctl(raw []byte) (LoadAverage, error) {
	if len(raw) < 24 {
		return LoadAverage{}, fmt.Errorf("vm.loadavg: short buffer (%d bytes)", len(raw))
	}

	fscale := binary.LittleEndian.Uint64(raw[16:24])
	if fscale == 0 {
		return LoadAverage{}, fmt.Errorf("vm.loadavg: zero fscale")
	}

	scale := float64(fscale)
	return LoadAverage{
		One:     float64(binary.LittleEndian.Uint32(raw[0:4])) / scale,
		Five:    float64(binary.LittleEndian.Uint32(raw[4:8])) / scale,
		Fifteen: float64(binary.LittleEndian.Uint32(raw[8:12])) / scale,
	}, nil
}
