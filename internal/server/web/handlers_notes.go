package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/notekeeper/notekeeper/internal/common"
	"github.com/notekeeper/notekeeper/internal/server/models"
	"github.com/notekeeper/notekeeper/internal/server/services"
)

// listNotes is public; the caller only matters for the canCreate hint.
func (h *Handler) listNotes(w http.ResponseWriter, r *http.Request) {
	owner, notes, err := h.notes.ListByOwner(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	views := make([]noteView, 0, len(notes))
	for _, n := range notes {
		views = append(views, newNoteView(n, false))
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"owner":     newUserView(owner, false),
		"notes":     views,
		"canCreate": userIDFromContext(r.Context()) == owner.ID,
	})
}

func (h *Handler) getNote(w http.ResponseWriter, r *http.Request) {
	noteID, ok := parseNoteID(r)
	if !ok {
		h.respondError(w, r, common.ErrNotFound)
		return
	}
	note, err := h.notes.Get(r.Context(), noteID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, newNoteView(note, true))
}

// createNote only lets users add notes to their own list.
func (h *Handler) createNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.users.Get(ctx, userIDFromContext(ctx))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if user.Username != models.NormalizeUsername(chi.URLParam(r, "username")) {
		h.respondError(w, r, &common.ForbiddenError{RequiredPermission: "create:note:own"})
		return
	}

	var form noteForm
	if err := h.bindForm(r.PostForm, &form); err != nil {
		h.respondError(w, r, err)
		return
	}

	note, err := h.notes.Create(ctx, user.ID, services.NoteInput{Title: form.Title, Content: form.Content})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, newNoteView(note, true))
}

func (h *Handler) editNote(w http.ResponseWriter, r *http.Request) {
	noteID, ok := parseNoteID(r)
	if !ok {
		h.respondError(w, r, common.ErrNotFound)
		return
	}

	var form noteForm
	if err := h.bindForm(r.PostForm, &form); err != nil {
		h.respondError(w, r, err)
		return
	}

	ctx := r.Context()
	note, err := h.notes.Update(ctx, userIDFromContext(ctx), noteID, services.NoteInput{Title: form.Title, Content: form.Content})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, newNoteView(note, true))
}

func (h *Handler) deleteNote(w http.ResponseWriter, r *http.Request) {
	noteID, ok := parseNoteID(r)
	if !ok {
		h.respondError(w, r, common.ErrNotFound)
		return
	}

	ctx := r.Context()
	if err := h.notes.Delete(ctx, userIDFromContext(ctx), noteID); err != nil {
		h.respondError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"redirectTo": "/"})
}

func parseNoteID(r *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "noteID"))
	if err != nil {
		return "", false
	}
	return id.String(), true
}
