// Package sysmon polls CPU utilization, load averages and memory on the
// local machine and on remote Linux hosts.
//
// # Basic Usage
//
// Build a Monitor from one Target per host, initialize the backends and
// poll:
//
//	backend, err := platform.NewBackend(platform.KindNative)
//	if err != nil {
//		log.Fatal(err)
//	}
//	m, err := sysmon.New([]sysmon.Target{{Name: "local", Backend: backend}}, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer m.Close()
//
//	if err := m.Initialize(ctx); err != nil {
//		log.Fatal(err)
//	}
//	for _, r := range m.PollAll(ctx) {
//		fmt.Printf("%s: %.2f%%\n", r.Sample.Target, r.Sample.CPUPercent)
//	}
//
// # Refresh Loop
//
// [Monitor.Run] polls every target once per interval until its context is
// cancelled and hands each round of results to a callback. The interval can
// be changed while running with [Monitor.SetInterval].
//
// # Failure Handling
//
// Every target owns a [CircuitBreaker]. A poll in which all three sources
// (CPU, memory and load) were unavailable counts as a failure; after
// enough consecutive failures the target is skipped until the breaker's
// timeout elapses. Partial failures are reported in [Result.Err] but never
// open the circuit.
//
// # Observability
//
// [Monitor.Health] summarizes every target, and [Metrics] publishes
// counters through expvar.
package sysmon
