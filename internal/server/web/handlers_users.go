package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// userProfile shows the public part of a profile.
func (h *Handler) userProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, newUserView(user, false))
}
