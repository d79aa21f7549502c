// Package enrichment is the HTTP client for the enrichment backend's
// /api/enrichment endpoints.
package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const apiPrefix = "/api/enrichment"

// Client talks to the enrichment backend. The zero HTTPClient timeout is
// deliberate: callers bound requests with context deadlines.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
	UserAgent  string
}

// NewClient creates a client for the backend rooted at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{},
		Logger:     slog.Default(),
		UserAgent:  "insta-enricher",
	}
}

// Do sends a request to path under the API prefix. The caller owns the
// response body.
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	return c.do(ctx, method, c.BaseURL+apiPrefix+path, body, contentType)
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		c.logger().Error("no response received from server", "method", method, "url", url, "error", err)
		return nil, fmt.Errorf("execute request: %w (%w)", ErrNoResponse, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logStatus(method, url, resp.StatusCode)
	}
	return resp, nil
}

// logStatus records failed responses by status class.
func (c *Client) logStatus(method, url string, status int) {
	msg := fmt.Sprintf("error: %d", status)
	switch status {
	case http.StatusUnauthorized:
		msg = "unauthorized access"
	case http.StatusForbidden:
		msg = "forbidden access"
	case http.StatusNotFound:
		msg = "resource not found"
	case http.StatusTooManyRequests:
		msg = "too many requests - rate limited"
	case http.StatusInternalServerError:
		msg = "server error"
	}
	c.logger().Warn(msg, "method", method, "url", url, "status", status)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// ReadBody reads and closes the response body.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close() //nolint:errcheck
	return io.ReadAll(resp.Body)
}

// CheckError turns a non-2xx response into an *APIError, preferring the
// backend's {"error": "..."} text. The body is consumed on error.
func CheckError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := ReadBody(resp)
	return &APIError{HTTPStatus: resp.StatusCode, Message: errorText(body)}
}

func errorText(body []byte) string {
	var env struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Error != "" {
			return env.Error
		}
		if env.Message != "" {
			return env.Message
		}
		return ""
	}
	return strings.TrimSpace(string(body))
}

// envelope is the {success, error} wrapper every endpoint uses.
type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

// getJSON issues a request and decodes a successful envelope into out.
// A missing success flag counts as success.
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	resp, err := c.Do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func decode(resp *http.Response, out interface{}) error {
	if err := CheckError(resp); err != nil {
		return err
	}
	body, err := ReadBody(resp)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if env.Success != nil && !*env.Success {
		return &APIError{HTTPStatus: resp.StatusCode, Message: env.Error}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
