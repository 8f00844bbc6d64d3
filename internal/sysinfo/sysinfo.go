// Package sysinfo bounds the pyramid builder's worker pool to the host's
// logical CPU count and available memory.
package sysinfo

import "runtime"

// MaxWorkers is the hard upper bound on worker pool size. Beyond this,
// memory pressure and disk I/O contention dominate over added parallelism.
const MaxWorkers = 8

// ComputeWorkerCount applies min(logical_cpu_count, memory_budget /
// perSliceBytes, MaxWorkers), with a floor of 1. memory_budget is the
// fraction of total system RAM considered safe to use for in-flight slice
// buffers; perSliceBytes is the caller's estimate of peak memory per worker
// (e.g. two input slices plus one output slice, at the stack's bit depth).
func ComputeWorkerCount(perSliceBytes int64) int {
	n := runtime.NumCPU()

	if total, err := totalSystemRAM(); err == nil && perSliceBytes > 0 {
		budget := int64(float64(total) * memoryPressureFraction)
		byMemory := int(budget / perSliceBytes)
		if byMemory < n {
			n = byMemory
		}
	}

	if n > MaxWorkers {
		n = MaxWorkers
	}
	if n < 1 {
		n = 1
	}
	return n
}

// memoryPressureFraction is the share of total RAM considered available for
// slice buffers before other processes and the OS page cache are squeezed.
const memoryPressureFraction = 0.5
