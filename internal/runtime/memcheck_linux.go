//go:build linux

package runtime

import (
	"golang.org/x/sys/unix"
)

func availableMemoryBytes() (int64, error) {
	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err != nil {
		return 0, err
	}
	return int64(si.Freeram+si.Bufferram) * int64(si.Unit), nil
}
