//go:build linux

package sysinfo

import "syscall"

// totalSystemRAM returns total physical RAM in bytes via sysinfo(2).
func totalSystemRAM() (uint64, error) {
	var info syscall.Sysinfo_t
	if err := syscall.Sysinfo(&info); err != nil {
		return 0, err
	}
	return uint64(info.Totalram) * uint64(info.Unit), nil
}
