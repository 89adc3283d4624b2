// Package diskspace checks free space on the filesystem backing a target
// path before large downloads are written to it.
package diskspace

import (
	"errors"
	"fmt"
)

// InsufficientSpaceError indicates that the filesystem backing Path cannot
// hold RequiredBytes.
type InsufficientSpaceError struct {
	Path           string
	RequiredBytes  int64
	AvailableBytes int64
}

func (e *InsufficientSpaceError) Error() string {
	requiredMB := float64(e.RequiredBytes) / (1024 * 1024)
	availableMB := float64(e.AvailableBytes) / (1024 * 1024)
	return fmt.Sprintf("insufficient disk space for %s: need %.2f MB, have %.2f MB available",
		e.Path, requiredMB, availableMB)
}

// IsInsufficientSpaceError reports whether err is an *InsufficientSpaceError.
func IsInsufficientSpaceError(err error) bool {
	var ise *InsufficientSpaceError
	return errors.As(err, &ise)
}

// CheckAvailableSpace reports whether the filesystem that will hold
// targetPath has room for requiredBytes, scaled by safetyMargin (1.1 asks
// for a 10% buffer). The target itself need not exist; its parent directory
// is probed. A failed probe is not an error: network and virtual
// filesystems often cannot be measured, and the write is allowed to
// proceed and fail on its own.
func CheckAvailableSpace(targetPath string, requiredBytes int64, safetyMargin float64) error {
	availableBytes := GetAvailableSpace(targetPath)
	if availableBytes == 0 {
		return nil
	}

	requiredWithMargin := int64(float64(requiredBytes) * safetyMargin)
	if availableBytes < requiredWithMargin {
		return &InsufficientSpaceError{
			Path:           targetPath,
			RequiredBytes:  requiredWithMargin,
			AvailableBytes: availableBytes,
		}
	}
	return nil
}
