package ui

import (
	"errors"
	"net/http"

	"github.com/Deji-py/insta-enricher/internal/domain"
	"github.com/Deji-py/insta-enricher/internal/service/submission"
)

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/ui/upload", http.StatusFound)
}

func (h *Handler) UploadPage(w http.ResponseWriter, r *http.Request) {
	renderHTML(w, http.StatusOK, uploadPage(uploadView{LastJobID: lastJobID(r)}, csrfField(r)))
}

func (h *Handler) UploadSubmit(w http.ResponseWriter, r *http.Request) {
	if err := parseRequestForm(w, r); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			renderHTML(w, http.StatusRequestEntityTooLarge, uploadPage(uploadView{
				Error:     submission.MsgFileTooLarge,
				LastJobID: lastJobID(r),
			}, csrfField(r)))
			return
		}
	}

	form := submission.Form{
		Name:  formString(r.Form, "name"),
		Email: formString(r.Form, "email"),
		Nodes: formNodes(r.Form, "numberOfNodes"),
	}
	file, header, err := r.FormFile("csvFile")
	if err == nil {
		defer file.Close() //nolint:errcheck
		form.File = file
		form.FileName = header.Filename
		form.FileSize = header.Size
	}

	res, err := h.Submission.Submit(r.Context(), form)
	if err != nil {
		status := http.StatusBadGateway
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			status = http.StatusBadRequest
		case errors.Is(err, submission.ErrInProgress):
			status = http.StatusConflict
		}
		renderHTML(w, status, uploadPage(uploadView{
			Name:      form.Name,
			Email:     form.Email,
			Nodes:     max(form.Nodes, 0),
			Error:     submission.Message(err),
			LastJobID: lastJobID(r),
		}, csrfField(r)))
		return
	}

	requestLogger(r).Info("job created from dashboard", "job_id", res.JobID)
	rememberJob(w, h.Production, res.JobID)
	http.Redirect(w, r, jobPath(res.JobID)+"?started=1", http.StatusSeeOther)
}
