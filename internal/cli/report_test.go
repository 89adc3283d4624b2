package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

// TestReportFilePath_HappyPath verifies the target lands in the output
// directory as <project-id>.pdf.
func TestReportFilePath_HappyPath(t *testing.T) {
	dir := t.TempDir()
	id := uuid.New()

	target, err := reportFilePath(dir, id)
	if err != nil {
		t.Fatalf("reportFilePath() error: %v", err)
	}
	want := filepath.Join(dir, id.String()+".pdf")
	if target != want {
		t.Errorf("reportFilePath() = %q, want %q", target, want)
	}
}

// TestReportFilePath_MissingDirectory verifies a nonexistent output
// directory is rejected before any network I/O.
func TestReportFilePath_MissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "absent")

	_, err := reportFilePath(dir, uuid.New())
	if err == nil {
		t.Fatal("reportFilePath() should fail for a missing directory")
	}
	if !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("error %q should mention the missing directory", err)
	}
}

// TestReportFilePath_NotADirectory verifies a file given as the output
// directory is rejected.
func TestReportFilePath_NotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	_, err := reportFilePath(path, uuid.New())
	if err == nil {
		t.Fatal("reportFilePath() should fail when the output path is a file")
	}
	if !strings.Contains(err.Error(), "not a directory") {
		t.Errorf("error %q should mention the path is not a directory", err)
	}
}

// TestReportFilePath_RefusesOverwrite verifies an existing report file
// is never overwritten.
func TestReportFilePath_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	id := uuid.New()
	existing := filepath.Join(dir, id.String()+".pdf")
	if err := os.WriteFile(existing, []byte("old report"), 0644); err != nil {
		t.Fatalf("writing existing report: %v", err)
	}

	_, err := reportFilePath(dir, id)
	if err == nil {
		t.Fatal("reportFilePath() should refuse to overwrite an existing report")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("error %q should mention the collision", err)
	}

	data, readErr := os.ReadFile(existing)
	if readErr != nil || string(data) != "old report" {
		t.Errorf("existing report was disturbed: %q, %v", data, readErr)
	}
}
