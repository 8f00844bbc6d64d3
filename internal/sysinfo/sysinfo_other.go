//go:build !linux && !darwin

package sysinfo

import "fmt"

// totalSystemRAM is not implemented on this platform; ComputeWorkerCount
// falls back to the logical CPU count alone.
func totalSystemRAM() (uint64, error) {
	return 0, fmt.Errorf("sysinfo: total RAM detection unsupported on this platform")
}
