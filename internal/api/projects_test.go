package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

// TestProjectOverview_PassesDocumentThrough verifies the overview comes
// back byte-identical, uninterpreted.
func TestProjectOverview_PassesDocumentThrough(t *testing.T) {
	doc := `{"analyzers":{"PeimDxe":{"findings":3}},"firmware":{"vendor":"AMI"}}`
	id := uuid.New()

	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		want := "/api/v1/projects/" + id.String() + "/overview"
		if r.URL.Path != want {
			t.Errorf("path = %s, want %s", r.URL.Path, want)
		}
		fmt.Fprint(w, doc)
	}))
	defer srv.Close()

	client, store := newTestClient(t, srv.URL)
	saveSession(t, store, "access", "refresh", time.Now().Add(time.Hour))

	got, err := client.ProjectOverview(context.Background(), id)
	if err != nil {
		t.Fatalf("ProjectOverview() error: %v", err)
	}
	if string(got) != doc {
		t.Errorf("overview = %s, want the document unmodified", got)
	}
}

// TestProjectOverview_NotFoundNamesProject verifies the 404 message
// carries the project ID.
func TestProjectOverview_NotFoundNamesProject(t *testing.T) {
	id := uuid.New()
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusNotFound)
	}))
	defer srv.Close()

	client, store := newTestClient(t, srv.URL)
	saveSession(t, store, "access", "refresh", time.Now().Add(time.Hour))

	_, err := client.ProjectOverview(context.Background(), id)
	if KindOf(err) != KindNotFound {
		t.Fatalf("error kind = %v, want KindNotFound", KindOf(err))
	}
	if !strings.Contains(err.Error(), id.String()) {
		t.Errorf("error %q should name project %s", err.Error(), id)
	}
}

// TestProjectAnalysis_DecodesResult verifies analyzer results decode with
// the raw payload intact.
func TestProjectAnalysis_DecodesResult(t *testing.T) {
	projectID := uuid.New()
	analysisID := uuid.New()

	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		want := fmt.Sprintf("/api/v1/projects/%s/analysis/PeimDxe", projectID)
		if r.URL.Path != want {
			t.Errorf("path = %s, want %s", r.URL.Path, want)
		}
		fmt.Fprintf(w, `{"id":%q,"project_id":%q,"name":"PeimDxe","status":"completed","result":{"modules":42}}`,
			analysisID, projectID)
	}))
	defer srv.Close()

	client, store := newTestClient(t, srv.URL)
	saveSession(t, store, "access", "refresh", time.Now().Add(time.Hour))

	analysis, err := client.ProjectAnalysis(context.Background(), projectID, "PeimDxe")
	if err != nil {
		t.Fatalf("ProjectAnalysis() error: %v", err)
	}
	if analysis.AnalyzerName != "PeimDxe" || analysis.Status != "completed" {
		t.Errorf("analysis = %+v, want PeimDxe/completed", analysis)
	}
	if string(analysis.Result) != `{"modules":42}` {
		t.Errorf("result = %s, want raw analyzer payload", analysis.Result)
	}
}

// TestProjectAnalysis_EmptyAnalyzerRejected verifies the client refuses a
// blank analyzer name before any network I/O.
func TestProjectAnalysis_EmptyAnalyzerRejected(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		hits++
	}))
	defer srv.Close()

	client, store := newTestClient(t, srv.URL)
	saveSession(t, store, "access", "refresh", time.Now().Add(time.Hour))

	_, err := client.ProjectAnalysis(context.Background(), uuid.New(), "  ")
	if KindOf(err) != KindBadRequest {
		t.Fatalf("error kind = %v, want KindBadRequest", KindOf(err))
	}
	if hits != 0 {
		t.Errorf("server saw %d requests, want 0", hits)
	}
}

// TestDownloadReport_StreamsBytes verifies the PDF lands in the writer
// with the right Accept header and byte count.
func TestDownloadReport_StreamsBytes(t *testing.T) {
	id := uuid.New()
	pdf := append([]byte("%PDF-1.7\n"), bytes.Repeat([]byte{0xAB}, 4096)...)

	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if got := r.Header.Get("Accept"); got != "application/pdf" {
			t.Errorf("Accept = %q, want application/pdf", got)
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(pdf)
	}))
	defer srv.Close()

	client, store := newTestClient(t, srv.URL)
	saveSession(t, store, "access", "refresh", time.Now().Add(time.Hour))

	var out bytes.Buffer
	n, err := client.DownloadReport(context.Background(), id, &out, nil)
	if err != nil {
		t.Fatalf("DownloadReport() error: %v", err)
	}
	if n != int64(len(pdf)) {
		t.Errorf("DownloadReport() = %d bytes, want %d", n, len(pdf))
	}
	if !bytes.Equal(out.Bytes(), pdf) {
		t.Error("downloaded report differs from the served bytes")
	}
}

// TestDownloadReport_WriteFaultIsLocalStorage verifies a failing
// destination surfaces as KindLocalStorage, not a network error.
func TestDownloadReport_WriteFaultIsLocalStorage(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		_, _ = w.Write(bytes.Repeat([]byte{1}, 64<<10))
	}))
	defer srv.Close()

	client, store := newTestClient(t, srv.URL)
	saveSession(t, store, "access", "refresh", time.Now().Add(time.Hour))

	_, err := client.DownloadReport(context.Background(), uuid.New(), &fullDiskWriter{}, nil)
	if KindOf(err) != KindLocalStorage {
		t.Fatalf("error kind = %v, want KindLocalStorage", KindOf(err))
	}
}

// fullDiskWriter fails like os.File does when the disk is full.
type fullDiskWriter struct{}

func (fullDiskWriter) Write(p []byte) (int, error) {
	return 0, &fs.PathError{Op: "write", Path: "report.pdf", Err: errors.New("no space left on device")}
}

// TestDeleteProject_OK verifies the happy path hits the right route.
func TestDeleteProject_OK(t *testing.T) {
	id := uuid.New()
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodDelete || r.URL.Path != "/api/v1/projects/"+id.String() {
			t.Errorf("got %s %s, want DELETE /api/v1/projects/%s", r.Method, r.URL.Path, id)
		}
	}))
	defer srv.Close()

	client, store := newTestClient(t, srv.URL)
	saveSession(t, store, "access", "refresh", time.Now().Add(time.Hour))

	if err := client.DeleteProject(context.Background(), id); err != nil {
		t.Fatalf("DeleteProject() error: %v", err)
	}
}
