package ui

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Deji-py/insta-enricher/internal/enrichment"
	"github.com/Deji-py/insta-enricher/internal/service/history"
)

// HistoryList shows the job list, loading it on the first visit only.
// Later visits show the cached list until Refresh.
func (h *Handler) HistoryList(w http.ResponseWriter, r *http.Request) {
	if h.History.Snapshot().State == history.StateLoading {
		_ = h.History.Load(r.Context())
	}
	h.renderHistory(w, r, http.StatusOK, "")
}

func (h *Handler) HistoryRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.History.Refresh(r.Context()); err != nil {
		requestLogger(r).Debug("job list refresh failed", "error", err)
	}
	http.Redirect(w, r, "/ui/history", http.StatusSeeOther)
}

// HistoryDownload resolves one job's result URL with its own lookup.
func (h *Handler) HistoryDownload(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	u, err := h.History.DownloadURL(r.Context(), jobID)
	if err != nil {
		h.renderHistory(w, r, downloadErrorStatus(err), history.DownloadMessage(err))
		return
	}
	http.Redirect(w, r, u, http.StatusFound)
}

func (h *Handler) DownloadAll(w http.ResponseWriter, r *http.Request) {
	u, err := h.Bulk.DownloadAllURL(r.Context())
	if err != nil {
		requestLogger(r).Warn("bulk download lookup failed", "error", err)
		h.renderHistory(w, r, downloadErrorStatus(err), enrichment.ErrorMessage(err, history.DownloadFallbackMessage))
		return
	}
	http.Redirect(w, r, u, http.StatusFound)
}

func (h *Handler) renderHistory(w http.ResponseWriter, r *http.Request, code int, downloadErr string) {
	renderHTML(w, code, historyPage(historyView{
		Snapshot:      h.History.Snapshot(),
		DownloadError: downloadErr,
		Now:           h.clock(),
		LastJobID:     lastJobID(r),
		CSRF:          csrfField(r),
	}))
}

func downloadErrorStatus(err error) int {
	if errors.Is(err, enrichment.ErrNoDownloadURL) {
		return http.StatusNotFound
	}
	var apiErr *enrichment.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatus == http.StatusNotFound {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}
