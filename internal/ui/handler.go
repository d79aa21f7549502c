// Package ui renders the server-side dashboard: upload, job status and job
// history views.
package ui

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	gomponents "maragu.dev/gomponents"

	"github.com/Deji-py/insta-enricher/internal/middleware"
	"github.com/Deji-py/insta-enricher/internal/service/history"
	"github.com/Deji-py/insta-enricher/internal/service/status"
	"github.com/Deji-py/insta-enricher/internal/service/submission"
)

// BulkDownloader resolves the combined CSV of every job.
type BulkDownloader interface {
	DownloadAllURL(ctx context.Context) (string, error)
}

type Handler struct {
	Submission   *submission.Service
	Pollers      *status.Registry
	History      *history.Service
	Bulk         BulkDownloader
	PollInterval time.Duration
	Production   bool

	now func() time.Time
}

func NewHandler(
	submissionSvc *submission.Service,
	pollers *status.Registry,
	historySvc *history.Service,
	bulk BulkDownloader,
	pollInterval time.Duration,
	production bool,
) *Handler {
	if pollInterval <= 0 {
		pollInterval = status.DefaultInterval
	}
	return &Handler{
		Submission:   submissionSvc,
		Pollers:      pollers,
		History:      historySvc,
		Bulk:         bulk,
		PollInterval: pollInterval,
		Production:   production,
		now:          time.Now,
	}
}

func (h *Handler) clock() time.Time {
	if h.now == nil {
		return time.Now()
	}
	return h.now()
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}

func requestLogger(r *http.Request) *slog.Logger {
	return middleware.LoggerFromContext(r.Context())
}
