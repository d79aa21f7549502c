package ui

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Deji-py/insta-enricher/internal/ui/assets"
)

// MountRoutes registers the HTML dashboard. It expects to be mounted at /ui.
func MountRoutes(r chi.Router, h *Handler) {
	staticFS, err := fs.Sub(assets.StaticFS(), "static")
	if err == nil {
		r.Handle("/static/*", http.StripPrefix("/ui/static/", http.FileServer(http.FS(staticFS))))
	}

	r.Group(func(r chi.Router) {
		r.Use(h.EnsureCSRFToken)
		r.Use(h.RequireCSRF)
		r.Get("/", h.Home)
		r.Get("/upload", h.UploadPage)
		r.Post("/upload", h.UploadSubmit)
		r.Get("/jobs", h.JobsIndex)
		r.Get("/jobs/{jobID}", h.JobStatus)
		r.Post("/jobs/{jobID}/refresh", h.JobRefresh)
		r.Get("/jobs/{jobID}/download", h.JobDownload)
		r.Get("/history", h.HistoryList)
		r.Post("/history/refresh", h.HistoryRefresh)
		r.Get("/history/{jobID}/download", h.HistoryDownload)
		r.Get("/download-all", h.DownloadAll)
	})
}

// MountAPI registers the JSON endpoints. It expects to be mounted at /api/v1.
func MountAPI(r chi.Router, h *Handler) {
	r.Get("/jobs/{jobID}/snapshot", h.JobSnapshotJSON)
}
