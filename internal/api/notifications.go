package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleListNotifications returns the caller's notifications, most
// recent first.
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	list, err := s.notifications.ListForUser(r.Context(), user.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// handleUnreadCount returns the caller's unread notification count.
func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	count, err := s.notifications.UnreadCount(r.Context(), user.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"unread": count})
}

// handleMarkNotificationRead marks one of the caller's notifications read.
func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.notifications.MarkRead(r.Context(), id, user.ID); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"read": id})
}

// handleDeleteNotification removes one of the caller's notifications.
func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.notifications.Delete(r.Context(), id, user.ID); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}
