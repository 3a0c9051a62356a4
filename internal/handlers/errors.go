package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/diewo77/go-intake/auth"
	"github.com/diewo77/go-intake/gate"
	"github.com/diewo77/go-intake/httpx"
	"github.com/diewo77/go-intake/i18n"
	"github.com/diewo77/go-intake/internal/checkout"
	"github.com/diewo77/go-intake/internal/intake"
	"github.com/diewo77/go-intake/internal/services"
	"github.com/diewo77/go-intake/internal/storage"
	"github.com/diewo77/go-intake/internal/store"
	"github.com/diewo77/go-intake/view"
)

// statusOf maps a service error to an HTTP status and an error code. The
// code doubles as the i18n key suffix of the user-facing message.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, gate.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, gate.ErrForbidden), errors.Is(err, services.ErrNotStaffFlow):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, store.ErrNotFound), errors.Is(err, storage.ErrNotFound),
		errors.Is(err, services.ErrUnknownFlow), errors.Is(err, services.ErrWrongFlow),
		errors.Is(err, intake.ErrUnknownStep):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrMissingCase):
		return http.StatusBadRequest, "fid_missing"
	case errors.Is(err, intake.ErrInvalidPatch), errors.Is(err, httpx.ErrBadJSON),
		errors.Is(err, intake.ErrFinalStep), errors.Is(err, checkout.ErrBadEvent):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, intake.ErrNoAttachments):
		return http.StatusUnprocessableEntity, "no_attachments"
	case errors.Is(err, intake.ErrNotEditable), errors.Is(err, store.ErrNotEditable),
		errors.Is(err, store.ErrStatusConflict):
		return http.StatusConflict, "invalid_status"
	case errors.Is(err, intake.ErrUnsupportedFile):
		return http.StatusUnsupportedMediaType, "unsupported_file"
	case errors.Is(err, storage.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "file_too_large"
	case errors.Is(err, storage.ErrInvalidToken), errors.Is(err, checkout.ErrBadSignature):
		return http.StatusUnauthorized, "forbidden"
	case errors.Is(err, checkout.ErrGateway), errors.Is(err, checkout.ErrNotConfigured):
		return http.StatusBadGateway, "checkout_failed"
	case errors.Is(err, intake.ErrSaveFailed):
		return http.StatusServiceUnavailable, "save_failed"
	}
	return http.StatusInternalServerError, "internal"
}

// writeError answers a JSON request with the mapped status and a message
// localized in the request language.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	lang := i18n.LangFromContext(r.Context())
	httpx.JSONErrorMessage(w, status, code, i18n.T(lang, "error."+code), nil)
}

// renderError is writeError for pages. Unauthenticated visitors are sent to
// the login page.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusOf(err)
	if status == http.StatusUnauthorized && errors.Is(err, gate.ErrUnauthenticated) {
		http.Redirect(w, r, auth.LoginURL(r), http.StatusSeeOther)
		return
	}
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	lang := i18n.LangFromContext(r.Context())
	msg := i18n.T(lang, "error."+code)
	if rerr := view.RenderStatus(w, r, status, "error.html", map[string]any{"Title": msg, "Message": msg}); rerr != nil {
		http.Error(w, msg, status)
	}
}
