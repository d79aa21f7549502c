package ui

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"

	"github.com/Deji-py/insta-enricher/internal/service/submission"
)

// Double-submit CSRF: a random cookie, echoed in every form as csrf_token.
const (
	csrfCookieName = "enrich_csrf"
	csrfFormField  = "csrf_token"
	csrfHeader     = "X-CSRF-Token"
	csrfTokenBytes = 32

	// maxUploadBytes is the CSV limit plus headroom for the other fields, so
	// a file just over the limit still gets the friendly size message.
	maxUploadBytes  = submission.MaxFileSize + 1<<20
	maxUploadMemory = 1 << 20
)

type csrfContextKey struct{}

// EnsureCSRFToken issues the token cookie on first visit and exposes the
// token to the page renderers.
func (h *Handler) EnsureCSRFToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := cookieToken(r)
		if token == "" {
			token = newCSRFToken()
			http.SetCookie(w, &http.Cookie{
				Name:     csrfCookieName,
				Value:    token,
				Path:     "/ui",
				HttpOnly: true,
				Secure:   h.Production,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfContextKey{}, token)))
	})
}

// RequireCSRF rejects state-changing requests whose header or form token
// does not match the cookie.
func (h *Handler) RequireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if safeMethod(r.Method) {
			next.ServeHTTP(w, r)
			return
		}
		want := cookieToken(r)
		if want == "" {
			csrfReject(w, "Missing CSRF token cookie.")
			return
		}
		got, err := submittedToken(w, r)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			renderHTML(w, http.StatusRequestEntityTooLarge, errorPage("Upload Too Large", submission.MsgFileTooLarge))
			return
		}
		if subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
			csrfReject(w, "Invalid or missing CSRF token.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func safeMethod(m string) bool {
	return m == http.MethodGet || m == http.MethodHead || m == http.MethodOptions
}

func csrfReject(w http.ResponseWriter, detail string) {
	renderHTML(w, http.StatusForbidden, errorPage("CSRF Validation Failed", detail))
}

// submittedToken prefers the header, then parses the body for the form field.
func submittedToken(w http.ResponseWriter, r *http.Request) (string, error) {
	if v := strings.TrimSpace(r.Header.Get(csrfHeader)); v != "" {
		return v, nil
	}
	err := parseRequestForm(w, r)
	return strings.TrimSpace(r.Form.Get(csrfFormField)), err
}

// parseRequestForm handles urlencoded and multipart bodies; multipart is
// capped at maxUploadBytes.
func parseRequestForm(w http.ResponseWriter, r *http.Request) error {
	if r.Form != nil {
		return nil
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		return r.ParseMultipartForm(maxUploadMemory)
	}
	return r.ParseForm()
}

// csrfField is the hidden input every POST form carries.
func csrfField(r *http.Request) gomponents.Node {
	token, _ := r.Context().Value(csrfContextKey{}).(string)
	if token == "" {
		token = cookieToken(r)
	}
	return html.Input(html.Type("hidden"), html.Name(csrfFormField), html.Value(token))
}

func cookieToken(r *http.Request) string {
	c, err := r.Cookie(csrfCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

func newCSRFToken() string {
	b := make([]byte, csrfTokenBytes)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
