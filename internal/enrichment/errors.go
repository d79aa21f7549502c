package enrichment

import (
	"errors"
	"fmt"
)

// ErrNoResponse marks transport failures where the backend never answered.
var ErrNoResponse = errors.New("no response received from server")

// ErrNoDownloadURL is returned when the backend reports success without a URL.
var ErrNoDownloadURL = errors.New("Download URL not available") //nolint:staticcheck // user-facing text

// APIError is an application-level failure: a non-2xx status or a 2xx body
// with success=false. Message holds the backend's error text, if any.
type APIError struct {
	HTTPStatus int
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("request failed with status code %d", e.HTTPStatus)
	}
	return fmt.Sprintf("API error (HTTP %d): %s", e.HTTPStatus, msg)
}

// ErrorMessage reduces err to the single line shown to a user: the backend's
// error text when present, then the error's own text, then fallback.
func ErrorMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Message != "":
			return apiErr.Message
		case apiErr.HTTPStatus >= 200 && apiErr.HTTPStatus < 300:
			return fallback
		default:
			return fmt.Sprintf("Request failed with status code %d", apiErr.HTTPStatus)
		}
	}
	if errors.Is(err, ErrNoResponse) {
		return "Network error: " + ErrNoResponse.Error()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
