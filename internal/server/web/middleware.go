package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/notekeeper/notekeeper/internal/common"
	"github.com/notekeeper/notekeeper/internal/server/auth"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
	ctxKeyUserID    ctxKey = "user_id"
	ctxKeySessionID ctxKey = "session_id"
)

// maxFormBytes bounds request bodies read by ParseForm.
const maxFormBytes = 1 << 20

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.log.Error(r.Context(), "panic recovered",
					"request_id", requestIDFromContext(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
				)
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(payload []byte) (int, error) {
	if r.statusCode == 0 {
		r.statusCode = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(payload)
	r.bytes += n
	return n, err
}

func (h *Handler) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)

		statusCode := recorder.statusCode
		if statusCode == 0 {
			statusCode = http.StatusOK
		}

		fields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status_code", statusCode,
			"bytes", recorder.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestIDFromContext(r.Context()),
		}
		switch {
		case statusCode >= 500:
			h.log.Error(r.Context(), "http request completed", fields...)
		case statusCode >= 400:
			h.log.Warn(r.Context(), "http request completed", fields...)
		default:
			h.log.Info(r.Context(), "http request completed", fields...)
		}
	})
}

func requestIDFromContext(ctx context.Context) string {
	v := ctx.Value(ctxKeyRequestID)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func userIDFromContext(ctx context.Context) string {
	s, _ := ctx.Value(ctxKeyUserID).(string)
	return s
}

func sessionIDFromContext(ctx context.Context) string {
	s, _ := ctx.Value(ctxKeySessionID).(string)
	return s
}

// resolveSession returns the user and session behind the request cookie.
// A cookie that was sent but does not resolve is cleared.
func (h *Handler) resolveSession(w http.ResponseWriter, r *http.Request) (userID, sessionID string, err error) {
	sessionID, present, err := h.cookies.Read(r)
	if err == nil {
		userID, err = h.sessions.Resolve(r.Context(), sessionID)
	}
	if err != nil {
		if present && errors.Is(err, common.ErrUnauthenticated) {
			h.cookies.Clear(w)
		}
		return "", "", err
	}
	return userID, sessionID, nil
}

// requireUser rejects anonymous requests with 401 and a login redirect.
func (h *Handler) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, sessionID, err := h.resolveSession(w, r)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyUserID, userID)
		ctx = context.WithValue(ctx, ctxKeySessionID, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// optionalUser attaches the user when a valid session exists and lets the
// request through either way.
func (h *Handler) optionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, sessionID, err := h.resolveSession(w, r)
		if err != nil {
			if !errors.Is(err, common.ErrUnauthenticated) {
				h.respondError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyUserID, userID)
		ctx = context.WithValue(ctx, ctxKeySessionID, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAnonymous sends logged-in users home.
func (h *Handler) requireAnonymous(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, err := h.resolveSession(w, r)
		switch {
		case err == nil:
			http.Redirect(w, r, "/", http.StatusSeeOther)
		case errors.Is(err, common.ErrUnauthenticated):
			next.ServeHTTP(w, r)
		default:
			h.respondError(w, r, err)
		}
	})
}

// requireRole must run after requireUser.
func (h *Handler) requireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := h.authz.RequireRole(r.Context(), userIDFromContext(r.Context()), role); err != nil {
				h.respondError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requirePermission must run after requireUser. The permission string is
// parsed when the route is built, so a typo fails at startup.
func (h *Handler) requirePermission(permission string) func(http.Handler) http.Handler {
	q := auth.MustParsePermission(permission)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := h.authz.RequirePermission(r.Context(), userIDFromContext(r.Context()), q); err != nil {
				h.respondError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// checkCsrf parses the form and validates the anti-forgery token before any
// handler sees the submission.
func (h *Handler) checkCsrf(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "malformed form")
			return
		}
		if err := h.csrf.Validate(r); err != nil {
			h.log.Warn(r.Context(), "csrf rejected",
				"path", r.URL.Path,
				"reason", err.Error(),
				"request_id", requestIDFromContext(r.Context()),
			)
			h.respondError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkHoneypot must run after checkCsrf, which parses the form.
func (h *Handler) checkHoneypot(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h.honeypot.Check(r.PostForm); err != nil {
			h.log.Warn(r.Context(), "spam detected",
				"path", r.URL.Path,
				"reason", err.Error(),
				"request_id", requestIDFromContext(r.Context()),
			)
			h.respondError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
