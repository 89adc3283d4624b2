package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	nethttp "net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/ferrite-sec/ferrite-cli/internal/models"
	"github.com/ferrite-sec/ferrite-cli/internal/progress"
)

// ListProjects returns all projects visible to the authenticated user.
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	resp, err := c.do(ctx, nethttp.MethodGet, "/api/v1/projects", nil, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var projects []models.Project
	if err := json.NewDecoder(resp.Body).Decode(&projects); err != nil {
		return nil, &Error{Kind: KindServerError, Message: "malformed project list", Err: err}
	}
	return projects, nil
}

// ProjectOverview returns the overview document exactly as the server sent
// it. Overview shape varies with the analyzers that ran, so the CLI passes
// it through uninterpreted.
func (c *Client) ProjectOverview(ctx context.Context, id uuid.UUID) (json.RawMessage, error) {
	path := fmt.Sprintf("/api/v1/projects/%s/overview", id)
	resp, err := c.do(ctx, nethttp.MethodGet, path, nil, true)
	if err != nil {
		return nil, describeNotFound(err, "project "+id.String())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "reading overview response", Err: err}
	}
	if !json.Valid(body) {
		return nil, &Error{Kind: KindServerError, Message: "malformed overview document"}
	}
	return json.RawMessage(body), nil
}

// ProjectAnalysis returns one analyzer's result for a project. Analyzer
// names are opaque to the CLI; the server decides what exists.
func (c *Client) ProjectAnalysis(ctx context.Context, id uuid.UUID, analyzer string) (*models.Analysis, error) {
	if strings.TrimSpace(analyzer) == "" {
		return nil, &Error{Kind: KindBadRequest, Message: "analyzer name is required"}
	}

	path := fmt.Sprintf("/api/v1/projects/%s/analysis/%s", id, url.PathEscape(analyzer))
	resp, err := c.do(ctx, nethttp.MethodGet, path, nil, true)
	if err != nil {
		return nil, describeNotFound(err, fmt.Sprintf("analysis %q for project %s", analyzer, id))
	}
	defer resp.Body.Close()

	var analysis models.Analysis
	if err := json.NewDecoder(resp.Body).Decode(&analysis); err != nil {
		return nil, &Error{Kind: KindServerError, Message: "malformed analysis response", Err: err}
	}
	return &analysis, nil
}

// DeleteProject removes a project and all its analysis results.
func (c *Client) DeleteProject(ctx context.Context, id uuid.UUID) error {
	path := fmt.Sprintf("/api/v1/projects/%s", id)
	resp, err := c.do(ctx, nethttp.MethodDelete, path, nil, true)
	if err != nil {
		return describeNotFound(err, "project "+id.String())
	}
	drainAndClose(resp.Body)
	return nil
}

// DownloadReport streams the project's PDF report into w and returns the
// byte count written. The reporter is driven from the copy loop; nil means
// silent.
func (c *Client) DownloadReport(ctx context.Context, id uuid.UUID, w io.Writer, reporter progress.Reporter) (int64, error) {
	if reporter == nil {
		reporter = progress.NewNoOpProgress()
	}

	r := request{
		method: nethttp.MethodGet,
		path:   fmt.Sprintf("/api/v1/projects/%s/report", id),
		accept: "application/pdf",
	}
	resp, err := c.send(ctx, r, true)
	if err != nil {
		return 0, describeNotFound(err, "report for project "+id.String())
	}
	defer resp.Body.Close()

	reporter.Start(resp.ContentLength, "downloading report")
	counted := progress.NewProgressReader(resp.Body, resp.ContentLength, reporter)

	n, err := io.Copy(w, counted)
	if err != nil {
		reporter.Error(err)
		// A path error means our side failed to write; anything else is
		// the connection dying under the copy.
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return n, &Error{Kind: KindLocalStorage, Message: "writing report to disk", Err: err}
		}
		return n, &Error{Kind: KindNetwork, Message: "report download interrupted", Err: err}
	}

	reporter.Finish()
	return n, nil
}
