package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ferrite-sec/ferrite-cli/internal/credential"
	"github.com/ferrite-sec/ferrite-cli/internal/models"
	"github.com/ferrite-sec/ferrite-cli/internal/progress"
	"github.com/ferrite-sec/ferrite-cli/internal/validation"
	"github.com/ferrite-sec/ferrite-cli/internal/version"
)

// UploadSpec describes a firmware image to submit for analysis.
type UploadSpec struct {
	FirmwarePath string
	Name         string
	FirmwareType string
	Subtype      string
	Description  string

	// Progress receives upload byte counts; nil means silent.
	Progress progress.Reporter
}

// Validate checks everything knowable before any network I/O.
func (s *UploadSpec) Validate() error {
	if err := validation.ValidateFirmwarePath(s.FirmwarePath); err != nil {
		return &Error{Kind: KindBadRequest, Message: err.Error()}
	}
	// The base name is embedded verbatim in the multipart header.
	if err := validation.ValidateFilename(filepath.Base(s.FirmwarePath)); err != nil {
		return &Error{Kind: KindBadRequest, Message: err.Error()}
	}
	if strings.TrimSpace(s.Name) == "" {
		return &Error{Kind: KindBadRequest, Message: "project name is required"}
	}
	if strings.TrimSpace(s.FirmwareType) == "" {
		return &Error{Kind: KindBadRequest, Message: "firmware type is required"}
	}
	return nil
}

// CreateProject uploads a firmware image and returns the new project's ID.
// The image is streamed through a pipe, never buffered whole. Uploads are
// POSTs and are not silently retried on transport failure; the single 401
// refresh-and-retry still applies, restreaming the file from the start.
func (c *Client) CreateProject(ctx context.Context, spec UploadSpec) (uuid.UUID, error) {
	if err := spec.Validate(); err != nil {
		return uuid.Nil, err
	}

	info, err := os.Stat(spec.FirmwarePath)
	if err != nil {
		return uuid.Nil, &Error{Kind: KindBadRequest, Message: "firmware file not readable", Err: err}
	}
	reporter := spec.Progress
	if reporter == nil {
		reporter = progress.NewNoOpProgress()
	}

	resp, err := c.authorized(ctx, func(cred *credential.Credential) (*nethttp.Response, error) {
		return c.uploadOnce(ctx, spec, cred, info.Size(), reporter)
	})
	if err != nil {
		return uuid.Nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return uuid.Nil, errorFromResponse(resp)
	}
	defer resp.Body.Close()

	var created models.ProjectID
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return uuid.Nil, &Error{Kind: KindServerError, Message: "malformed create response", Err: err}
	}
	return created.ID, nil
}

// uploadOnce streams one complete multipart body: the metadata fields,
// then the firmware image. A second call re-opens the file and streams
// from the beginning.
func (c *Client) uploadOnce(ctx context.Context, spec UploadSpec, cred *credential.Credential, size int64, reporter progress.Reporter) (*nethttp.Response, error) {
	file, err := os.Open(spec.FirmwarePath)
	if err != nil {
		return nil, &Error{Kind: KindBadRequest, Message: "cannot open firmware file", Err: err}
	}

	reporter.Start(size, "uploading "+filepath.Base(spec.FirmwarePath))
	counted := progress.NewProgressReader(file, size, reporter)

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	// The producer goroutine records its own fault so the consumer can
	// tell a local read failure from a transport one.
	var producerErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer file.Close()
		producerErr = writeUploadBody(form, pw, spec, counted)
	}()

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodPost, c.baseURL+"/api/v1/projects", pr)
	if err != nil {
		_ = pr.Close()
		<-done
		return nil, &Error{Kind: KindBadRequest, Message: "failed to build upload request", Err: err}
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	applyCredential(req, cred)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		_ = pr.Close()
		<-done
		reporter.Error(err)

		offset := counted.BytesRead()
		if producerErr != nil && !errors.Is(producerErr, io.ErrClosedPipe) {
			return nil, uploadFailed(offset, producerErr)
		}
		if offset > 0 {
			// The connection died after body streaming began.
			return nil, uploadFailed(offset, err)
		}
		return nil, &Error{Kind: KindNetwork, Message: "firmware upload failed", Err: err}
	}

	// The transport closes the pipe reader once it stops consuming the
	// body, so the producer always terminates. ErrClosedPipe here just
	// means the server answered before reading everything.
	<-done
	if producerErr != nil && !errors.Is(producerErr, io.ErrClosedPipe) {
		drainAndClose(resp.Body)
		reporter.Error(producerErr)
		return nil, uploadFailed(counted.BytesRead(), producerErr)
	}

	reporter.Finish()
	return resp, nil
}

// writeUploadBody emits the multipart fields in the order the platform
// expects: name, type, subtype, optional description, then the file. Any
// fault is propagated into the pipe so the request aborts.
func writeUploadBody(form *multipart.Writer, pw *io.PipeWriter, spec UploadSpec, file io.Reader) error {
	fail := func(err error) error {
		_ = pw.CloseWithError(err)
		return err
	}

	if err := form.WriteField("name", spec.Name); err != nil {
		return fail(err)
	}
	if err := form.WriteField("type", spec.FirmwareType); err != nil {
		return fail(err)
	}
	if err := form.WriteField("subtype", spec.Subtype); err != nil {
		return fail(err)
	}
	if spec.Description != "" {
		if err := form.WriteField("description", spec.Description); err != nil {
			return fail(err)
		}
	}

	part, err := form.CreateFormFile("file", filepath.Base(spec.FirmwarePath))
	if err != nil {
		return fail(err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fail(err)
	}
	if err := form.Close(); err != nil {
		return fail(err)
	}
	return pw.Close()
}

func uploadFailed(offset int64, cause error) *Error {
	return &Error{
		Kind:    KindUploadFailed,
		Message: "firmware upload failed",
		Offset:  offset,
		Err:     cause,
	}
}
