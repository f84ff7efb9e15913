//go:build windows

package platform

import (
	"context"
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modPdh                    = windows.NewLazySystemDLL("pdh.dll")
	procPdhOpenQueryW         = modPdh.NewProc("PdhOpenQueryW")
	procPdhAddEnglishCounterW = modPdh.NewProc("PdhAddEnglishCounterW")
	procPdhCollectQueryData   = modPdh.NewProc("PdhCollectQueryData")
	procPdhGetRawCounterValue = modPdh.NewProc("PdhGetRawCounterValue")
	procPdhCloseQuery         = modPdh.NewProc("PdhCloseQuery")

	modKernel32              = windows.NewLazySystemDLL("kernel32.dll")
	procGlobalMemoryStatusEx = modKernel32.NewProc("GlobalMemoryStatusEx")
)

const (
	pdhCStatusValidData = 0x00000000
	pdhCStatusNewData   = 0x00000001

	// The English name works regardless of the display language.
	processorTimeCounter = `\Processor(_Total)\% Processor Time`
)

// pdhRawCounter matches the Windows PDH_RAW_COUNTER structure.
type pdhRawCounter struct {
	CStatus     uint32
	TimeStamp   windows.Filetime
	FirstValue  int64
	SecondValue int64
	MultiCount  uint32
}

// memoryStatusEx matches the Windows MEMORYSTATUSEX structure. Length must
// hold the structure size before the call.
type memoryStatusEx struct {
	Length               uint32
	MemoryLoad           uint32
	TotalPhys            uint64
	AvailPhys            uint64
	TotalPageFile        uint64
	AvailPageFile        uint64
	TotalVirtual         uint64
	AvailVirtual         uint64
	AvailExtendedVirtual uint64
}

func globalMemoryStatusEx(s *memoryStatusEx) error {
	if ret, _, err := procGlobalMemoryStatusEx.Call(uintptr(unsafe.Pointer(s))); ret == 0 {
		return err
	}
	return nil
}

// windowsBackend implements Backend for Windows using a PDH query.
//
// "% Processor Time" is a PERF_100NSEC_TIMER_INV counter: FirstValue is the
// cumulative idle time and SecondValue the 100ns timestamp base, so the pair
// maps directly onto CPUCounters{Idle, Total}.
type windowsBackend struct {
	mu           sync.Mutex
	query        uintptr
	counter      uintptr
	memoryStatus func(*memoryStatusEx) error
}

// NewWindowsBackend creates the performance-counter backend.
func NewWindowsBackend() Backend {
	return newWindowsBackend()
}

func newWindowsBackend() *windowsBackend {
	return &windowsBackend{memoryStatus: globalMemoryStatusEx}
}

func (b *windowsBackend) Name() string {
	return "windows"
}

// Capabilities reports no load average; the Windows kernel does not keep one.
func (b *windowsBackend) Capabilities() Capabilities {
	return Capabilities{LoadAverage: false}
}

// Initialize opens the PDH query, adds the processor time counter and
// collects the priming sample. The handles live until Close.
func (b *windowsBackend) Initialize(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.query != 0 {
		return nil
	}

	var query uintptr
	if ret, _, _ := procPdhOpenQueryW.Call(0, 0, uintptr(unsafe.Pointer(&query))); ret != 0 {
		return unavailable("PdhOpenQuery", "opening query", pdhStatus(ret))
	}

	path, err := windows.UTF16PtrFromString(processorTimeCounter)
	if err != nil {
		procPdhCloseQuery.Call(query)
		return fmt.Errorf("encoding counter path: %w", err)
	}

	var counter uintptr
	if ret, _, _ := procPdhAddEnglishCounterW.Call(query, uintptr(unsafe.Pointer(path)), 0, uintptr(unsafe.Pointer(&counter))); ret != 0 {
		procPdhCloseQuery.Call(query)
		return unavailable("PdhAddEnglishCounter", "adding "+processorTimeCounter, pdhStatus(ret))
	}

	if ret, _, _ := procPdhCollectQueryData.Call(query); ret != 0 {
		procPdhCloseQuery.Call(query)
		return unavailable("PdhCollectQueryData", "priming query", pdhStatus(ret))
	}

	b.query = query
	b.counter = counter
	return nil
}

func (b *windowsBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.query == 0 {
		return nil
	}
	ret, _, _ := procPdhCloseQuery.Call(b.query)
	b.query = 0
	b.counter = 0
	if ret != 0 {
		return fmt.Errorf("PdhCloseQuery: %w", pdhStatus(ret))
	}
	return nil
}

func (b *windowsBackend) ReadCPUCounters(ctx context.Context) (CPUCounters, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.query == 0 {
		return CPUCounters{}, unavailable("PdhCollectQueryData", "collecting", ErrNotInitialized)
	}

	if ret, _, _ := procPdhCollectQueryData.Call(b.query); ret != 0 {
		return CPUCounters{}, unavailable("PdhCollectQueryData", "collecting", pdhStatus(ret))
	}

	var counterType uint32
	var raw pdhRawCounter
	ret, _, _ := procPdhGetRawCounterValue.Call(
		b.counter,
		uintptr(unsafe.Pointer(&counterType)),
		uintptr(unsafe.Pointer(&raw)),
	)
	if ret != 0 {
		return CPUCounters{}, unavailable("PdhGetRawCounterValue", "reading", pdhStatus(ret))
	}

	return countersFromRaw(raw)
}

func countersFromRaw(raw pdhRawCounter) (CPUCounters, error) {
	if raw.CStatus != pdhCStatusValidData && raw.CStatus != pdhCStatusNewData {
		return CPUCounters{}, unavailable("PdhGetRawCounterValue", "reading", pdhStatus(uintptr(raw.CStatus)))
	}
	if raw.FirstValue < 0 || raw.SecondValue < 0 {
		return CPUCounters{}, unavailable("PdhGetRawCounterValue", "reading", fmt.Errorf("negative raw value"))
	}
	return CPUCounters{Total: uint64(raw.SecondValue), Idle: uint64(raw.FirstValue)}, nil
}

func (b *windowsBackend) ReadMemory(ctx context.Context) (MemorySnapshot, error) {
	status := memoryStatusEx{}
	status.Length = uint32(unsafe.Sizeof(status))
	if err := b.memoryStatus(&status); err != nil {
		return MemorySnapshot{}, unavailable("GlobalMemoryStatusEx", "querying", err)
	}
	return NewMemorySnapshot(status.TotalPhys, status.AvailPhys), nil
}

// ReadLoadAverage always returns the zero triple without error.
func (b *windowsBackend) ReadLoadAverage(ctx context.Context) (LoadAverage, error) {
	return LoadAverage{}, nil
}

// pdhStatus formats a PDH_STATUS code.
type pdhStatus uintptr

func (s pdhStatus) Error() string {
	return fmt.Sprintf("PDH status 0x%08x", uint32(s))
}
