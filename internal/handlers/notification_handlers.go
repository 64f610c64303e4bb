package handlers

import (
	"encoding/json"
	"net/http"

	"threadpost/internal/engine/actors"
	"threadpost/internal/middleware"

	"github.com/google/uuid"
)

// HandleNotifications lists the caller's notifications and acknowledges them.
func (s *Server) HandleNotifications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests("notifications")

		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		switch r.Method {
		case http.MethodGet:
			msg := &actors.GetNotificationsMsg{UserID: userID}
			result, ok := s.request(w, "notifications", s.Engine.GetNotificationActor(), msg)
			if !ok {
				return
			}
			writeJSON(w, http.StatusOK, result)

		case http.MethodPost:
			var req struct {
				NotificationID string `json:"notificationId"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}
			notificationID, err := uuid.Parse(req.NotificationID)
			if err != nil {
				http.Error(w, "Invalid notification ID", http.StatusBadRequest)
				return
			}

			msg := &actors.MarkNotificationReadMsg{
				NotificationID: notificationID,
				UserID:         userID,
			}
			result, ok := s.request(w, "notifications", s.Engine.GetNotificationActor(), msg)
			if !ok {
				return
			}
			writeJSON(w, http.StatusOK, map[string]bool{"success": result.(bool)})

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
