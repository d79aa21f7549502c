package enrichment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Deji-py/insta-enricher/internal/domain"
)

// StartRequest is the multipart payload for creating a job.
type StartRequest struct {
	FileName string
	File     io.Reader
	Name     string
	Email    string
	Nodes    int
}

// StartJob submits a CSV for enrichment.
func (c *Client) StartJob(ctx context.Context, req StartRequest) (*domain.StartResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("csvFile", req.FileName)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, req.File); err != nil {
		return nil, fmt.Errorf("copy csv file: %w", err)
	}
	fields := [][2]string{
		{"name", req.Name},
		{"email", req.Email},
		{"numberOfNodes", strconv.Itoa(req.Nodes)},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("write field %s: %w", f[0], err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	resp, err := c.Do(ctx, http.MethodPost, "/start", &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	var out struct {
		Data *domain.StartResult `json:"data"`
	}
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	if out.Data == nil || out.Data.JobID == "" {
		return nil, errors.New("Invalid response from server") //nolint:staticcheck // user-facing text
	}
	return out.Data, nil
}

// GetStatus fetches the current snapshot of a job.
func (c *Client) GetStatus(ctx context.Context, jobID string) (*domain.Job, error) {
	var out struct {
		Data *domain.Job `json:"data"`
	}
	if err := c.getJSON(ctx, "/"+url.PathEscape(jobID)+"/status", &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return nil, domain.ErrNotFound("job %q returned no status data", jobID)
	}
	return out.Data, nil
}

// GetDownloadURL looks up the CSV URL of a finished job.
func (c *Client) GetDownloadURL(ctx context.Context, jobID string) (string, error) {
	var out struct {
		CSVURL string `json:"csvUrl"`
	}
	if err := c.getJSON(ctx, "/"+url.PathEscape(jobID)+"/download", &out); err != nil {
		return "", err
	}
	if out.CSVURL == "" {
		return "", ErrNoDownloadURL
	}
	return out.CSVURL, nil
}

// ListJobs returns the backend's job history.
func (c *Client) ListJobs(ctx context.Context) ([]domain.Job, error) {
	var out struct {
		Jobs []domain.Job `json:"jobs"`
	}
	if err := c.getJSON(ctx, "/jobs", &out); err != nil {
		return nil, err
	}
	if out.Jobs == nil {
		return []domain.Job{}, nil
	}
	return out.Jobs, nil
}

// DownloadAllURL returns the URL of the combined CSV for every job.
func (c *Client) DownloadAllURL(ctx context.Context) (string, error) {
	var out struct {
		DownloadURL string `json:"downloadUrl"`
	}
	if err := c.getJSON(ctx, "/download-all", &out); err != nil {
		return "", err
	}
	if out.DownloadURL == "" {
		return "", ErrNoDownloadURL
	}
	return out.DownloadURL, nil
}

// Fetch GETs an absolute URL, typically a result CSV handed out by the
// backend. The caller closes the returned body.
func (c *Client) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	resp, err := c.do(ctx, http.MethodGet, rawURL, nil, "")
	if err != nil {
		return nil, err
	}
	if err := CheckError(resp); err != nil {
		return nil, err
	}
	return resp.Body, nil
}
