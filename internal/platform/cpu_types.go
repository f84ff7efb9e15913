package platform

// cpuTimes stores the aggregate "cpu" line of /proc/stat.
// It is shared by the local proc-table backend and the remote SSH backend.
type cpuTimes struct {
	user    uint64
	nice    uint64
	system  uint64
	idle    uint64
	iowait  uint64
	irq     uint64
	softirq uint64
	steal   uint64
}

func (t cpuTimes) total() uint64 {
	return t.user + t.nice + t.system + t.idle + t.iowait + t.irq + t.softirq + t.steal
}

// idleTime counts iowait as idle, matching top(1).
func (t cpuTimes) idleTime() uint64 {
	return t.idle + t.iowait
}

func (t cpuTimes) counters() CPUCounters {
	return CPUCounters{Total: t.total(), Idle: t.idleTime()}
}
