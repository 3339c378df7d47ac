package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/potlucky/potluck-api/internal/authz"
	"github.com/potlucky/potluck-api/internal/notification"
	"github.com/rs/zerolog"
)

const defaultNotificationLimit = 50

type NotificationHandler struct {
	notifications notification.Service
	logger        zerolog.Logger
}

func NewNotificationHandler(notifications notification.Service, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		logger:        logger.With().Str("handler", "notification").Logger(),
	}
}

// List returns the caller's recent notifications, newest first.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := authz.UserIDFromRequest(r)

	limit := defaultNotificationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	notifications, err := h.notifications.ListRecent(r.Context(), userID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

// MarkRead flags one of the caller's notifications as read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := authz.UserIDFromRequest(r)
	notificationID := mux.Vars(r)["notificationID"]

	updated, err := h.notifications.MarkRead(r.Context(), userID, notificationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
