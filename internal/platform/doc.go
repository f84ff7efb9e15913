// Package platform provides the host metric sources used by go-sysmon.
//
// Every supported operating system exposes CPU time, memory occupancy and load
// averages through a different kernel interface. The package hides those
// differences behind a single Backend interface so the sampling code in
// internal/monitor never needs to know which one is active.
//
// # Backends
//
// The native backend is selected at build time:
//
//   - linux: /proc/stat, sysinfo(2) and /proc/loadavg (the proc-table backend)
//   - darwin: host_processor_info, host_statistics64 and the vm.loadavg sysctl
//   - windows: a long-lived PDH query and GlobalMemoryStatusEx
//
// Two more backends are selected by configuration:
//
//   - portable: gopsutil, for hosts without a native backend
//   - remote: the proc-table algorithm evaluated over SSH against a Linux host
//
// # Usage
//
//	b, err := platform.NewBackend(platform.KindNative)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := b.Initialize(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Close()
//
//	counters, err := b.ReadCPUCounters(ctx)
//
// Backends return raw cumulative CPU counters. Converting two of them into a
// utilization percentage is the job of monitor.Tracker.
//
// # Errors
//
// Reads fail closed: a zero value plus an error that matches
// ErrSourceUnavailable under errors.Is. Platforms without load averages
// report the zero triple with a nil error; Capabilities tells the two apart.
//
// # Thread Safety
//
// Backends are safe for concurrent use unless otherwise documented.
package platform
