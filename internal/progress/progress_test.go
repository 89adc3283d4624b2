package progress

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

// recordingReporter captures every Update call for assertions.
type recordingReporter struct {
	updates []int64
}

func (r *recordingReporter) Start(total int64, description string) {}
func (r *recordingReporter) Update(current int64)                  { r.updates = append(r.updates, current) }
func (r *recordingReporter) Finish()                               {}
func (r *recordingReporter) Error(err error)                       {}
func (r *recordingReporter) SetDescription(desc string)            {}

// TestProgressReader_ReportsRunningTotal verifies updates carry the
// cumulative byte count, not per-read deltas.
func TestProgressReader_ReportsRunningTotal(t *testing.T) {
	src := strings.NewReader("0123456789abcdef")
	rec := &recordingReporter{}
	pr := NewProgressReader(src, 16, rec)

	buf := make([]byte, 4)
	var out bytes.Buffer
	for {
		n, err := pr.Read(buf)
		out.Write(buf[:n])
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected read error: %v", err)
		}
	}

	if out.String() != "0123456789abcdef" {
		t.Errorf("reader corrupted data: %q", out.String())
	}
	if pr.BytesRead() != 16 {
		t.Errorf("BytesRead() = %d, want 16", pr.BytesRead())
	}

	var last int64
	for i, u := range rec.updates {
		if u < last {
			t.Errorf("update %d went backwards: %d after %d", i, u, last)
		}
		last = u
	}
	if last != 16 {
		t.Errorf("final update = %d, want 16", last)
	}
}

// TestProgressReader_CountsBytesBeforeFailure verifies the running count
// survives a mid-stream error, which is what failure offsets are built on.
func TestProgressReader_CountsBytesBeforeFailure(t *testing.T) {
	src := io.MultiReader(
		strings.NewReader("0123456789"),
		&failingReader{err: errors.New("connection reset")},
	)
	rec := &recordingReporter{}
	pr := NewProgressReader(src, 20, rec)

	_, err := io.Copy(io.Discard, pr)
	if err == nil {
		t.Fatal("expected mid-stream error")
	}
	if pr.BytesRead() != 10 {
		t.Errorf("BytesRead() = %d, want 10", pr.BytesRead())
	}
}

type failingReader struct{ err error }

func (f *failingReader) Read(p []byte) (int, error) { return 0, f.err }

// TestNoOpProgress_SafeWithoutStart verifies the silent reporter tolerates
// any call sequence.
func TestNoOpProgress_SafeWithoutStart(t *testing.T) {
	p := NewNoOpProgress()
	p.Update(5)
	p.SetDescription("uploading firmware")
	p.Error(errors.New("x"))
	p.Finish()
}

// TestCLIProgress_SafeWithoutStart verifies calls before Start do not
// panic; the bar is created lazily.
func TestCLIProgress_SafeWithoutStart(t *testing.T) {
	p := NewCLIProgress()
	p.Update(5)
	p.SetDescription("uploading firmware")
	p.Error(errors.New("stream reset"))
	p.Finish()
}
