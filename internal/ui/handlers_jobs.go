package ui

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Deji-py/insta-enricher/internal/domain"
	"github.com/Deji-py/insta-enricher/internal/enrichment"
	"github.com/Deji-py/insta-enricher/internal/service/status"
)

const lastJobCookieName = "ui_last_job"

func lastJobID(r *http.Request) string {
	c, err := r.Cookie(lastJobCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

func rememberJob(w http.ResponseWriter, secure bool, jobID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     lastJobCookieName,
		Value:    jobID,
		Path:     "/ui",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// JobsIndex redirects ?id= lookups to the status view, else shows the
// lookup form.
func (h *Handler) JobsIndex(w http.ResponseWriter, r *http.Request) {
	if id := strings.TrimSpace(r.URL.Query().Get("id")); id != "" {
		http.Redirect(w, r, jobPath(id), http.StatusSeeOther)
		return
	}
	renderHTML(w, http.StatusOK, jobLookupPage(lastJobID(r)))
}

func (h *Handler) JobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	p, ok := h.poller(w, r, jobID)
	if !ok {
		return
	}
	rememberJob(w, h.Production, jobID)
	renderHTML(w, http.StatusOK, statusPage(statusView{
		Snapshot: p.Snapshot(),
		Started:  r.URL.Query().Get("started") != "",
		Now:      h.clock(),
		Interval: h.PollInterval,
		CSRF:     csrfField(r),
	}))
}

func (h *Handler) JobRefresh(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	p, ok := h.poller(w, r, jobID)
	if !ok {
		return
	}
	if err := p.Refresh(r.Context()); err != nil {
		requestLogger(r).Debug("job refresh failed", "job_id", jobID, "error", err)
	}
	http.Redirect(w, r, jobPath(jobID), http.StatusSeeOther)
}

// JobDownload redirects to the poller's cached result URL. A completed job
// without one gets a single fresh lookup.
func (h *Handler) JobDownload(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	p, ok := h.poller(w, r, jobID)
	if !ok {
		return
	}
	snap := p.Snapshot()
	if snap.DownloadURL == "" && snap.Job != nil && snap.Job.Status == domain.JobStatusCompleted {
		_ = p.FetchDownloadURL(r.Context())
		snap = p.Snapshot()
	}
	if snap.DownloadURL == "" {
		msg := enrichment.ErrNoDownloadURL.Error()
		if snap.Notice != "" {
			msg = snap.Notice
		}
		renderHTML(w, http.StatusNotFound, errorPage("Download Unavailable", msg))
		return
	}
	http.Redirect(w, r, snap.DownloadURL, http.StatusFound)
}

func (h *Handler) poller(w http.ResponseWriter, r *http.Request, jobID string) (*status.Poller, bool) {
	if strings.TrimSpace(jobID) == "" {
		renderHTML(w, http.StatusBadRequest, errorPage("Invalid Request", "Missing job ID."))
		return nil, false
	}
	p, err := h.Pollers.Get(jobID)
	if err != nil {
		if !errors.Is(err, status.ErrClosed) {
			requestLogger(r).Error("poller lookup failed", "job_id", jobID, "error", err)
		}
		renderHTML(w, http.StatusServiceUnavailable, errorPage("Unavailable", "The dashboard is shutting down."))
		return nil, false
	}
	return p, true
}
