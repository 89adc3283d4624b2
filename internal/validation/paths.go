// Package validation provides input validation utilities for the ferrite CLI.
package validation

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

// ValidateFilename validates a bare filename (not a full path). Callers use
// it before embedding a name in a wire header or joining it onto a directory.
//
// Returns an error if the filename:
//   - Is empty
//   - Contains path separators (/ or \)
//   - Is the literal ".."
//   - Contains null bytes
func ValidateFilename(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	// Check for null bytes
	if strings.ContainsRune(filename, 0) {
		return fmt.Errorf("filename contains null byte: %s", filename)
	}

	// Reject path separators (both Unix and Windows style)
	if strings.ContainsRune(filename, '/') || strings.ContainsRune(filename, '\\') {
		return fmt.Errorf("filename cannot contain path separators: %s", filename)
	}

	// Reject ".." filename to prevent traversal
	// Note: Since path separators (/ and \) are already rejected above,
	// we only need to check for the literal ".." filename, not patterns like "../"
	// This allows legitimate filenames like "foo..bar.txt" or "data..v2.csv"
	if filename == ".." {
		return fmt.Errorf("filename cannot be '..': %s", filename)
	}

	return nil
}

// ValidateFirmwarePath checks that a firmware image path points at an
// existing regular file. Directories and missing paths are rejected before
// any network I/O happens.
func ValidateFirmwarePath(path string) error {
	if path == "" {
		return fmt.Errorf("firmware path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("firmware file not found: %s", path)
		}
		return fmt.Errorf("cannot access firmware file %s: %w", path, err)
	}

	if info.IsDir() {
		return fmt.Errorf("firmware path is a directory, expected a file: %s", path)
	}

	return nil
}

// ValidateProjectID parses a project identifier as a UUID.
// The server addresses all project routes by UUID; catching a typo here
// gives a clearer message than a remote 404.
func ValidateProjectID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid project id %q: %w", id, err)
	}
	return parsed, nil
}
