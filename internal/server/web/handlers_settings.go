package web

import (
	"fmt"
	"net/http"

	"github.com/notekeeper/notekeeper/internal/common"
)

const (
	intentDeleteData        = "delete-data"
	intentDeleteAllSessions = "delete-all-sessions"
)

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFromContext(ctx)

	user, err := h.users.Get(ctx, userID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	sessions, err := h.sessions.List(ctx, userID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	current := sessionIDFromContext(ctx)
	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, sessionView{
			Current:   s.ID == current,
			CreatedAt: s.CreatedAt,
			ExpiresAt: s.ExpiresAt,
		})
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"user":     newUserView(user, true),
		"sessions": views,
	})
}

// profileAction handles the account-level intents of the profile form.
func (h *Handler) profileAction(w http.ResponseWriter, r *http.Request) {
	switch intent := r.PostForm.Get("intent"); intent {
	case intentDeleteData:
		if err := h.auth.DeleteAccount(r.Context(), userIDFromContext(r.Context())); err != nil {
			h.respondError(w, r, err)
			return
		}
		h.cookies.Clear(w)
		writeSuccess(w, http.StatusOK, map[string]string{"redirectTo": "/"})
	default:
		h.respondError(w, r, invalidIntent(intent))
	}
}

// sessionsAction signs out every session of the user except this one.
func (h *Handler) sessionsAction(w http.ResponseWriter, r *http.Request) {
	intent := r.PostForm.Get("intent")
	if intent != intentDeleteAllSessions {
		h.respondError(w, r, invalidIntent(intent))
		return
	}

	ctx := r.Context()
	revoked, err := h.sessions.RevokeAllExcept(ctx, userIDFromContext(ctx), sessionIDFromContext(ctx))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]int64{"revoked": revoked})
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var form changePasswordForm
	if err := h.bindForm(r.PostForm, &form); err != nil {
		h.respondError(w, r, err)
		return
	}

	ctx := r.Context()
	err := h.auth.ChangePassword(ctx, userIDFromContext(ctx), sessionIDFromContext(ctx),
		form.CurrentPassword, form.NewPassword)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"redirectTo": "/settings/profile"})
}

// downloadUserData serves the account export as a JSON attachment.
func (h *Handler) downloadUserData(w http.ResponseWriter, r *http.Request) {
	export, err := h.users.Export(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Username+"-data.json"))
	writeJSON(w, http.StatusOK, export)
}

func invalidIntent(intent string) error {
	verr := common.NewValidationError()
	verr.Add("", "Invalid intent: "+intent)
	return verr
}
