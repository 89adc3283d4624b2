package diskspace

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

// TestCheckAvailableSpace_SmallFile verifies a tiny requirement against a
// real filesystem passes.
func TestCheckAvailableSpace_SmallFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "report.pdf")

	if err := CheckAvailableSpace(target, 1024, 1.1); err != nil {
		t.Errorf("expected no error for 1KB requirement, got: %v", err)
	}
}

// TestCheckAvailableSpace_VeryLargeFile verifies an absurd requirement is
// rejected with the typed error.
func TestCheckAvailableSpace_VeryLargeFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "report.pdf")

	// 100TB should exceed available space on any test machine.
	err := CheckAvailableSpace(target, 100*1024*1024*1024*1024, 1.1)
	if err == nil {
		t.Skip("system reports over 100TB free, cannot exercise rejection")
	}
	if !IsInsufficientSpaceError(err) {
		t.Errorf("expected InsufficientSpaceError, got %T: %v", err, err)
	}
}

// TestCheckAvailableSpace_SafetyMargin verifies the margin multiplier is
// applied to the requirement, not the free space.
func TestCheckAvailableSpace_SafetyMargin(t *testing.T) {
	target := filepath.Join(t.TempDir(), "report.pdf")

	available := GetAvailableSpace(target)
	if available == 0 {
		t.Skip("could not determine available space")
	}

	// Half the free space with a 10% margin must fit.
	if err := CheckAvailableSpace(target, available/2, 1.1); err != nil {
		t.Errorf("expected half of free space to fit, got: %v", err)
	}

	// Asking for everything with a margin cannot fit.
	if err := CheckAvailableSpace(target, available, 1.1); err != nil {
		if !IsInsufficientSpaceError(err) {
			t.Errorf("expected InsufficientSpaceError, got %T: %v", err, err)
		}
	}
}

// TestGetAvailableSpace verifies the probe returns a non-zero figure for a
// real directory.
func TestGetAvailableSpace(t *testing.T) {
	target := filepath.Join(t.TempDir(), "report.pdf")

	if available := GetAvailableSpace(target); available == 0 {
		t.Error("expected non-zero available space for temp dir")
	}
}

// TestIsInsufficientSpaceError verifies detection through wrapping.
func TestIsInsufficientSpaceError(t *testing.T) {
	ise := &InsufficientSpaceError{Path: "/tmp/report.pdf", RequiredBytes: 1000, AvailableBytes: 500}

	if !IsInsufficientSpaceError(ise) {
		t.Error("expected true for *InsufficientSpaceError")
	}
	if !IsInsufficientSpaceError(errors.Join(errors.New("saving report"), ise)) {
		t.Error("expected true for wrapped *InsufficientSpaceError")
	}
	if IsInsufficientSpaceError(errors.New("some other error")) {
		t.Error("expected false for unrelated error")
	}
	if IsInsufficientSpaceError(nil) {
		t.Error("expected false for nil")
	}
}

// TestInsufficientSpaceErrorMessage verifies the message names the path and
// both byte figures in MB.
func TestInsufficientSpaceErrorMessage(t *testing.T) {
	err := &InsufficientSpaceError{
		Path:           "/tmp/report.pdf",
		RequiredBytes:  100 * 1024 * 1024,
		AvailableBytes: 50 * 1024 * 1024,
	}

	msg := err.Error()
	for _, want := range []string{"/tmp/report.pdf", "100.00", "50.00"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message %q missing %q", msg, want)
		}
	}
}
