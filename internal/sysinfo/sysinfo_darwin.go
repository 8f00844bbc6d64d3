//go:build darwin

package sysinfo

import (
	"fmt"
	"syscall"
	"unsafe"
)

// totalSystemRAM returns total physical RAM in bytes via
// sysctl(CTL_HW, HW_MEMSIZE).
func totalSystemRAM() (uint64, error) {
	const (
		ctlHW     = 6
		hwMemsize = 24
	)
	mib := [2]int32{ctlHW, hwMemsize}
	var memsize uint64
	size := uintptr(8)

	_, _, errno := syscall.Syscall6(
		syscall.SYS___SYSCTL,
		uintptr(unsafe.Pointer(&mib[0])), uintptr(len(mib)),
		uintptr(unsafe.Pointer(&memsize)), uintptr(unsafe.Pointer(&size)),
		0, 0,
	)
	if errno != 0 {
		return 0, fmt.Errorf("sysinfo: sysctl hw.memsize: %w", errno)
	}
	return memsize, nil
}
