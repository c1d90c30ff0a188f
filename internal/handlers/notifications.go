package handlers

import (
	"net/http"
	"strconv"

	"github.com/adi-253/parley/backend/internal/services"
	"github.com/go-chi/chi/v5"
)

// NotificationHandler serves the caller's notifications.
type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List handles GET /api/v1/notifications
// Query params:
//   - unread: "true" to return unread notifications only
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread"))
	list, err := h.notifications.List(r.Context(), c, unreadOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// MarkRead handles POST /api/v1/notifications/{notificationID}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(chi.URLParam(r, "notificationID"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	if err := h.notifications.MarkRead(r.Context(), c.UserID, uint(id)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
