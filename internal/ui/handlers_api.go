package ui

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// JobSnapshotJSON serves the poller snapshot for a job. Viewing it keeps the
// poller alive like the HTML status view does.
func (h *Handler) JobSnapshotJSON(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	p, err := h.Pollers.Get(jobID)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"code":    http.StatusServiceUnavailable,
			"message": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, p.Snapshot())
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
