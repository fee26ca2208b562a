// Package sysmon samples system-wide CPU and memory usage together with the
// Go heap of the current process.
package sysmon

import (
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Stats holds a single snapshot of resource usage.
type Stats struct {
	CPUPercent float64 // system-wide, 0.0 .. 100.0
	MemPercent float64 // system-wide, 0.0 .. 100.0
	HeapAlloc  uint64  // bytes allocated on the Go heap
	Goroutines int
}

// Sample collects a snapshot. CPU uses interval=0 (delta since the previous
// call). System values are zero when they cannot be read.
func Sample() Stats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s := Stats{HeapAlloc: ms.HeapAlloc, Goroutines: runtime.NumGoroutine()}

	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		s.CPUPercent = min(max(pcts[0], 0), 100)
	}
	if vm, err := mem.VirtualMemory(); err == nil && vm != nil {
		s.MemPercent = vm.UsedPercent
	}
	return s
}
