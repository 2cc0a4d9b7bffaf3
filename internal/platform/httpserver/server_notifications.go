package httpserver

import (
	"errors"
	"net/http"

	notificationerrors "stackit/contexts/community-qa/notification-service/domain/errors"
)

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "invalid_limit", Message: err.Error()})
		return
	}
	unreadOnly := r.URL.Query().Get("unread") == "true"
	resp, err := s.notifications.Handler.ListNotificationsHandler(r.Context(), identity.UserID, unreadOnly, limit)
	if err != nil {
		writeNotificationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	resp, err := s.notifications.Handler.UnreadCountHandler(r.Context(), identity.UserID)
	if err != nil {
		writeNotificationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	if err := s.notifications.Handler.MarkReadHandler(r.Context(), identity.UserID, r.PathValue("notification_id")); err != nil {
		writeNotificationDomainError(w, err)
		return
	}
	writeNoContent(w)
}

func (s *Server) handleMarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	resp, err := s.notifications.Handler.MarkAllReadHandler(r.Context(), identity.UserID)
	if err != nil {
		writeNotificationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeNotificationDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, notificationerrors.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "invalid_request", Message: err.Error()})
	case errors.Is(err, notificationerrors.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody{Code: "unauthorized", Message: err.Error()})
	case errors.Is(err, notificationerrors.ErrNotificationNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Code: "not_found", Message: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Code: "internal_error", Message: "internal server error"})
	}
}
