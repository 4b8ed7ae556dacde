package web

import "net/http"

func (h *Handler) admin(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]string{"message": "ok"})
}

// listUsers is gated on read:user:any.
func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.users.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	views := make([]userView, 0, len(list))
	for _, u := range list {
		views = append(views, newUserView(u, true))
	}
	writeSuccess(w, http.StatusOK, views)
}
