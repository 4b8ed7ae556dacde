package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/notekeeper/notekeeper/internal/common"
)

// msgFormNotSubmitted is the only thing a client learns about a CSRF or
// honeypot rejection.
const msgFormNotSubmitted = "Form not submitted properly"

type apiError struct {
	Status     string              `json:"status"`
	Code       string              `json:"code"`
	Message    string              `json:"message"`
	Fields     map[string][]string `json:"fields,omitempty"`
	FormErrors []string            `json:"formErrors,omitempty"`
	RedirectTo string              `json:"redirectTo,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, map[string]any{
		"status": "success",
		"data":   data,
	})
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, apiError{
		Status:  "error",
		Code:    code,
		Message: message,
	})
}

func mapDomainError(err error) (int, string, string) {
	switch {
	case errors.Is(err, common.ErrUnauthenticated):
		return http.StatusUnauthorized, "UNAUTHENTICATED", "login required"
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", err.Error()
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, common.ErrCsrfInvalid):
		return http.StatusForbidden, "CSRF_INVALID", msgFormNotSubmitted
	case errors.Is(err, common.ErrSpamDetected):
		return http.StatusBadRequest, "SPAM_DETECTED", msgFormNotSubmitted
	case errors.Is(err, common.ErrValidationFailed):
		return http.StatusBadRequest, "VALIDATION_ERROR", "validation failed"
	case errors.Is(err, common.ErrCredentialInvalid):
		return http.StatusBadRequest, "INVALID_CREDENTIALS", "Invalid username or password"
	case errors.Is(err, common.ErrTokenExpired), errors.Is(err, common.ErrInvalidToken):
		return http.StatusBadRequest, "VERIFY_REQUIRED", "verification expired, start again"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
	}
}

// respondError writes err using mapDomainError. Validation errors carry
// their field messages; credential errors become a form-level message.
// Unauthenticated responses name the login page with a way back to r.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := mapDomainError(err)
	body := apiError{Status: "error", Code: code, Message: message}

	var verr *common.ValidationError
	switch {
	case errors.As(err, &verr):
		body.Fields = verr.Fields
		body.FormErrors = verr.Form
	case errors.Is(err, common.ErrCredentialInvalid):
		body.FormErrors = []string{message}
	case errors.Is(err, common.ErrUnauthenticated):
		body.RedirectTo = loginRedirect(r)
	}

	if status >= http.StatusInternalServerError {
		h.log.Error(r.Context(), "request failed",
			"path", r.URL.Path,
			"request_id", requestIDFromContext(r.Context()),
			"error", err,
		)
	}

	writeJSON(w, status, body)
}

func loginRedirect(r *http.Request) string {
	return "/login?" + url.Values{common.RedirectToParam: {r.URL.RequestURI()}}.Encode()
}

// safeRedirect keeps redirects on this site. Anything that is not a plain
// absolute path falls back to def.
func safeRedirect(to, def string) string {
	if to == "" || to[0] != '/' || (len(to) > 1 && (to[1] == '/' || to[1] == '\\')) {
		return def
	}
	return to
}
