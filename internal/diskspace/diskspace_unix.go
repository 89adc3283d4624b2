//go:build !windows

package diskspace

import (
	"path/filepath"
	"syscall"
)

// GetAvailableSpace returns the bytes available to the current user on the
// filesystem containing path, or 0 if the filesystem cannot be probed.
func GetAvailableSpace(path string) int64 {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(filepath.Dir(path), &stat); err != nil {
		return 0
	}

	// Bavail is the block count available to unprivileged users, which is
	// what a download running as a normal user can actually consume.
	return int64(stat.Bavail) * int64(stat.Bsize)
}
