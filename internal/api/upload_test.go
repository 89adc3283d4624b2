package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func writeFirmware(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "firmware.bin")
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("writing firmware fixture: %v", err)
	}
	return path
}

// TestCreateProject_StreamsMultipart verifies the field order and content
// of the upload body, and that the response ID comes back.
func TestCreateProject_StreamsMultipart(t *testing.T) {
	projectID := uuid.New()
	firmware := writeFirmware(t, 64<<10)

	var gotFields map[string]string
	var gotFile []byte
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		reader, err := r.MultipartReader()
		if err != nil {
			t.Errorf("expected multipart body: %v", err)
			w.WriteHeader(nethttp.StatusBadRequest)
			return
		}
		gotFields = map[string]string{}
		for {
			part, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Errorf("reading part: %v", err)
				break
			}
			data, _ := io.ReadAll(part)
			if part.FormName() == "file" {
				gotFile = data
			} else {
				gotFields[part.FormName()] = string(data)
			}
		}
		fmt.Fprintf(w, `{"id":%q}`, projectID)
	}))
	defer srv.Close()

	client, store := newTestClient(t, srv.URL)
	saveSession(t, store, "access", "refresh", time.Now().Add(time.Hour))

	id, err := client.CreateProject(context.Background(), UploadSpec{
		FirmwarePath: firmware,
		Name:         "router-fw",
		FirmwareType: "uefi",
		Subtype:      "x86_64",
		Description:  "vendor image",
	})
	if err != nil {
		t.Fatalf("CreateProject() error: %v", err)
	}
	if id != projectID {
		t.Errorf("CreateProject() id = %s, want %s", id, projectID)
	}

	want := map[string]string{
		"name":        "router-fw",
		"type":        "uefi",
		"subtype":     "x86_64",
		"description": "vendor image",
	}
	for k, v := range want {
		if gotFields[k] != v {
			t.Errorf("field %s = %q, want %q", k, gotFields[k], v)
		}
	}

	fixture, _ := os.ReadFile(firmware)
	if !bytes.Equal(gotFile, fixture) {
		t.Errorf("uploaded file differs: got %d bytes, want %d", len(gotFile), len(fixture))
	}
}

// TestCreateProject_ValidationBeforeNetwork verifies a missing firmware
// file is rejected client-side with zero server traffic.
func TestCreateProject_ValidationBeforeNetwork(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		hits++
	}))
	defer srv.Close()

	client, store := newTestClient(t, srv.URL)
	saveSession(t, store, "access", "refresh", time.Now().Add(time.Hour))

	_, err := client.CreateProject(context.Background(), UploadSpec{
		FirmwarePath: filepath.Join(t.TempDir(), "does-not-exist.bin"),
		Name:         "x",
		FirmwareType: "uefi",
	})
	if KindOf(err) != KindBadRequest {
		t.Fatalf("error kind = %v, want KindBadRequest", KindOf(err))
	}
	if hits != 0 {
		t.Errorf("server saw %d requests, want 0", hits)
	}
}

// TestCreateProject_MidStreamFailureCarriesOffset verifies a connection
// dying partway through the body surfaces KindUploadFailed with a non-zero
// byte offset.
func TestCreateProject_MidStreamFailureCarriesOffset(t *testing.T) {
	firmware := writeFirmware(t, 1<<20)

	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		// Consume enough body to be sure the file part started flowing,
		// then kill the connection.
		buf := make([]byte, 64<<10)
		_, _ = io.ReadFull(r.Body, buf)
		panic(nethttp.ErrAbortHandler)
	}))
	defer srv.Close()

	client, store := newTestClient(t, srv.URL)
	saveSession(t, store, "access", "refresh", time.Now().Add(time.Hour))

	_, err := client.CreateProject(context.Background(), UploadSpec{
		FirmwarePath: firmware,
		Name:         "router-fw",
		FirmwareType: "uefi",
	})

	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Kind != KindUploadFailed {
		t.Fatalf("error = %v (kind %v), want KindUploadFailed", err, KindOf(err))
	}
	if apiErr.Offset <= 0 {
		t.Errorf("Offset = %d, want > 0 after partial stream", apiErr.Offset)
	}
	if apiErr.Offset > 1<<20 {
		t.Errorf("Offset = %d exceeds the file size", apiErr.Offset)
	}
}

// TestCreateProject_401RestreamsWholeBody verifies the refresh-and-retry
// path re-sends the complete firmware, not a drained pipe.
func TestCreateProject_401RestreamsWholeBody(t *testing.T) {
	projectID := uuid.New()
	firmware := writeFirmware(t, 128 << 10)

	var mu sync.Mutex
	uploads := 0
	var secondFile []byte

	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path == "/api/v1/auth/refresh" {
			fmt.Fprint(w, `{"access_token":"access-new","refresh_token":"refresh-new","expires_in":3600}`)
			return
		}

		mu.Lock()
		uploads++
		n := uploads
		mu.Unlock()

		if n == 1 {
			// Reject without reading the body.
			w.WriteHeader(nethttp.StatusUnauthorized)
			return
		}

		if err := r.ParseMultipartForm(1 << 22); err != nil {
			t.Errorf("second upload not parseable: %v", err)
			w.WriteHeader(nethttp.StatusBadRequest)
			return
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("second upload missing file: %v", err)
			w.WriteHeader(nethttp.StatusBadRequest)
			return
		}
		defer f.Close()
		secondFile, _ = io.ReadAll(f)
		fmt.Fprintf(w, `{"id":%q}`, projectID)
	}))
	defer srv.Close()

	client, store := newTestClient(t, srv.URL)
	saveSession(t, store, "access-stale", "refresh-old", time.Now().Add(time.Hour))

	id, err := client.CreateProject(context.Background(), UploadSpec{
		FirmwarePath: firmware,
		Name:         "router-fw",
		FirmwareType: "uefi",
	})
	if err != nil {
		t.Fatalf("CreateProject() error: %v", err)
	}
	if id != projectID {
		t.Errorf("CreateProject() id = %s, want %s", id, projectID)
	}

	mu.Lock()
	defer mu.Unlock()
	if uploads != 2 {
		t.Errorf("server saw %d uploads, want 2 (rejected + retried)", uploads)
	}
	fixture, _ := os.ReadFile(firmware)
	if !bytes.Equal(secondFile, fixture) {
		t.Errorf("retried upload truncated: got %d bytes, want %d", len(secondFile), len(fixture))
	}
}

// TestWriteUploadBody_PropagatesReadFault verifies a firmware read fault
// aborts the body and comes back as the producer error.
func TestWriteUploadBody_PropagatesReadFault(t *testing.T) {
	boom := errors.New("disk read failed")
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	consumed := make(chan error, 1)
	go func() {
		_, err := io.Copy(io.Discard, pr)
		consumed <- err
	}()

	err := writeUploadBody(form, pw, UploadSpec{
		FirmwarePath: "firmware.bin",
		Name:         "x",
		FirmwareType: "uefi",
	}, &failingReader{err: boom})

	if !errors.Is(err, boom) {
		t.Fatalf("writeUploadBody() error = %v, want the read fault", err)
	}
	if err := <-consumed; !errors.Is(err, boom) {
		t.Errorf("pipe consumer got %v, want the read fault propagated", err)
	}
}

type failingReader struct{ err error }

func (f *failingReader) Read(p []byte) (int, error) { return 0, f.err }
