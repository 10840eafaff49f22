package handlers

import (
	"net/http"
	"time"

	"jobflow/middleware"
	"jobflow/repository"
)

type NotificationHandler struct {
	notifications *repository.NotificationRepository
}

func NewNotificationHandler(repos *repository.Repositories) *NotificationHandler {
	return &NotificationHandler{notifications: repos.Notifications}
}

// List returns the user's latest notifications; ?unread=true filters read
// ones out.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	unread := r.URL.Query().Get("unread") == "true"
	list, err := h.notifications.ListForUser(r.Context(), user.ID, unread)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.notifications.MarkRead(r.Context(), id, user.ID, time.Now()); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
