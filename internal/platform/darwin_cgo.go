//go:build darwin && cgo

package platform

/*
#include <mach/mach.h>
#include <mach/mach_host.h>
#include <mach/processor_info.h>
#include <mach/vm_statistics.h>

// mach_task_self() is a macro, wrap it for cgo.
static mach_port_t sysmon_task_self() {
	return mach_task_self();
}
*/
import "C"

import (
	"context"
	"fmt"
	"unsafe"
)

func (b *darwinBackend) ReadCPUCounters(ctx context.Context) (CPUCounters, error) {
	var count C.mach_msg_type_number_t
	var cpuLoad C.processor_cpu_load_info_t
	var numCPUs C.natural_t

	ret := C.host_processor_info(
		C.mach_host_self(),
		C.PROCESSOR_CPU_LOAD_INFO,
		&numCPUs,
		(*C.processor_info_array_t)(unsafe.Pointer(&cpuLoad)),
		&count,
	)
	if ret != C.KERN_SUCCESS {
		return CPUCounters{}, unavailable("host_processor_info", "querying", fmt.Errorf("kern_return_t %d", int(ret)))
	}
	defer C.vm_deallocate(
		C.sysmon_task_self(),
		C.vm_address_t(uintptr(unsafe.Pointer(cpuLoad))),
		C.vm_size_t(count)*C.vm_size_t(unsafe.Sizeof(C.integer_t(0))),
	)

	var user, system, idle uint64
	for _, cpu := range unsafe.Slice(cpuLoad, int(numCPUs)) {
		user += uint64(cpu.cpu_ticks[C.CPU_STATE_USER]) + uint64(cpu.cpu_ticks[C.CPU_STATE_NICE])
		system += uint64(cpu.cpu_ticks[C.CPU_STATE_SYSTEM])
		idle += uint64(cpu.cpu_ticks[C.CPU_STATE_IDLE])
	}

	return CPUCounters{Total: user + system + idle, Idle: idle}, nil
}

func (b *darwinBackend) ReadMemory(ctx context.Context) (MemorySnapshot, error) {
	var pageSize C.vm_size_t
	if ret := C.host_page_size(C.mach_host_self(), &pageSize); ret != C.KERN_SUCCESS {
		return MemorySnapshot{}, unavailable("host_page_size", "querying", fmt.Errorf("kern_return_t %d", int(ret)))
	}

	var vmstat C.vm_statistics64_data_t
	vmCount := C.mach_msg_type_number_t(C.HOST_VM_INFO64_COUNT)
	ret := C.host_statistics64(
		C.mach_host_self(),
		C.HOST_VM_INFO64,
		(*C.integer_t)(unsafe.Pointer(&vmstat)),
		&vmCount,
	)
	if ret != C.KERN_SUCCESS {
		return MemorySnapshot{}, unavailable("host_statistics64", "querying", fmt.Errorf("kern_return_t %d", int(ret)))
	}

	return memoryFromPages(
		uint64(vmstat.free_count),
		uint64(vmstat.active_count),
		uint64(vmstat.inactive_count),
		uint64(vmstat.wire_count),
		uint64(pageSize),
	), nil
}
