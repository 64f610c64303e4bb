package handlers

import (
	"net/http"

	"threadpost/internal/engine/actors"
	"threadpost/internal/middleware"
)

// HandleInbox returns all received messages, newest first.
func (s *Server) HandleInbox() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests("inbox")

		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		msg := &actors.GetInboxMsg{UserID: userID}
		result, ok := s.request(w, "inbox", s.Engine.GetMessageActor(), msg)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// HandleUnread returns unread received messages, newest first.
func (s *Server) HandleUnread() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests("unread")

		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		msg := &actors.GetUnreadMsg{UserID: userID}
		result, ok := s.request(w, "unread", s.Engine.GetMessageActor(), msg)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// HandleUnreadCount returns the unread badge count.
func (s *Server) HandleUnreadCount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests("unread_count")

		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		msg := &actors.GetUnreadCountMsg{UserID: userID}
		result, ok := s.request(w, "unread_count", s.Engine.GetMessageActor(), msg)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"count": result.(int)})
	}
}

// HandleUnreadThreads returns unread messages that start a thread.
func (s *Server) HandleUnreadThreads() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests("unread_threads")

		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		msg := &actors.GetUnreadThreadRootsMsg{UserID: userID}
		result, ok := s.request(w, "unread_threads", s.Engine.GetMessageActor(), msg)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
