// Package web is the HTTP transport: a chi router with session, CSRF and
// honeypot gates in front of JSON handlers for the auth, settings, notes
// and admin surfaces.
package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/notekeeper/notekeeper/internal/common"
	"github.com/notekeeper/notekeeper/internal/logging"
	"github.com/notekeeper/notekeeper/internal/server/guard"
	"github.com/notekeeper/notekeeper/internal/server/services"
)

// Pinger reports store health. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps is everything the transport needs from the rest of the server.
type Deps struct {
	DB       Pinger
	Auth     *services.AuthService
	Sessions *services.SessionManager
	Authz    *services.Authorizer
	Notes    *services.NotesService
	Users    *services.UsersService
	Cookies  *SessionCookies
	CSRF     *guard.CSRF
	Honeypot *guard.Honeypot
	Log      logging.Logger
}

// Handler holds the dependencies shared by all routes.
type Handler struct {
	db       Pinger
	auth     *services.AuthService
	sessions *services.SessionManager
	authz    *services.Authorizer
	notes    *services.NotesService
	users    *services.UsersService
	cookies  *SessionCookies
	csrf     *guard.CSRF
	honeypot *guard.Honeypot
	validate *validator.Validate
	log      logging.Logger
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		db:       d.DB,
		auth:     d.Auth,
		sessions: d.Sessions,
		authz:    d.Authz,
		notes:    d.Notes,
		users:    d.Users,
		cookies:  d.Cookies,
		csrf:     d.CSRF,
		honeypot: d.Honeypot,
		validate: newValidator(),
		log:      d.Log.With("module", "web"),
	}
}

// NewRouter registers routes and the middleware stack.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(h.recoverMiddleware)
	r.Use(h.loggingMiddleware)

	r.Get("/healthcheck", h.healthcheck)
	r.Get("/csrf", h.csrfToken)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAnonymous)
		r.Get("/login", h.formChallenge)
		r.Get("/signup", h.formChallenge)
		r.Get("/onboarding", h.onboardingChallenge)

		r.Group(func(r chi.Router) {
			r.Use(h.checkCsrf)
			r.Use(h.checkHoneypot)
			r.Post("/login", h.login)
			r.Post("/signup", h.signup)
			r.Post("/onboarding", h.onboarding)
		})
	})

	r.With(h.checkCsrf).Post("/logout", h.logout)

	r.Group(func(r chi.Router) {
		r.Use(h.optionalUser)
		r.Get("/users/{username}", h.userProfile)
		r.Get("/users/{username}/notes", h.listNotes)
		r.Get("/notes/{noteID}", h.getNote)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.requireUser)

		r.Get("/settings/profile", h.profile)
		r.Get("/resources/download-user-data", h.downloadUserData)

		r.Group(func(r chi.Router) {
			r.Use(h.checkCsrf)
			r.Post("/settings/profile", h.profileAction)
			r.Post("/settings/profile/sessions", h.sessionsAction)
			r.Post("/settings/profile/password", h.changePassword)
			r.Post("/users/{username}/notes", h.createNote)
			r.Post("/notes/{noteID}/edit", h.editNote)
			r.Post("/notes/{noteID}/delete", h.deleteNote)
			r.Delete("/notes/{noteID}/delete", h.deleteNote)
		})

		r.With(h.requireRole(common.RoleAdmin)).Get("/admin", h.admin)
		r.With(h.requirePermission("read:user:any")).Get("/users", h.listUsers)
	})

	return r
}

func (h *Handler) healthcheck(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		h.log.Error(r.Context(), "healthcheck failed", "error", err)
		writeError(w, http.StatusInternalServerError, "UNHEALTHY", "database unreachable")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
