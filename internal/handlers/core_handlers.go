package handlers

import (
	"net/http"
	"time"
)

// HandleHealth handles health check requests
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		counts, err := s.DB.CountEntities(r.Context())
		if err != nil {
			http.Error(w, "Failed to get entity counts", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":             "healthy",
			"uptime":             s.Metrics.Uptime().Round(time.Second).String(),
			"user_count":         counts.Users,
			"message_count":      counts.Messages,
			"notification_count": counts.Notifications,
		})
	}
}
