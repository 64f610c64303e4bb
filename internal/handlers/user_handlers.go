package handlers

import (
	"encoding/json"
	"net/http"

	"threadpost/internal/engine/actors"
	"threadpost/internal/middleware"

	"github.com/google/uuid"
)

// RegisterUserRequest represents a user registration request
type RegisterUserRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleUserRegistration registers a new user account.
func (s *Server) HandleUserRegistration() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests("user_register")

		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req RegisterUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		msg := &actors.RegisterUserMsg{
			Username:    req.Username,
			Email:       req.Email,
			Password:    req.Password,
			DisplayName: req.DisplayName,
		}
		result, ok := s.request(w, "user_register", s.Engine.GetUserSupervisor(), msg)
		if !ok {
			return
		}
		writeJSON(w, http.StatusCreated, result)
	}
}

// HandleUserLogin authenticates a user and returns a JWT.
func (s *Server) HandleUserLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests("user_login")

		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		msg := &actors.LoginMsg{Email: req.Email, Password: req.Password}
		result, ok := s.request(w, "user_login", s.Engine.GetUserSupervisor(), msg)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// HandleUserProfile returns a user's profile. Defaults to the caller; a
// userId query parameter selects someone else.
func (s *Server) HandleUserProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests("user_profile")

		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		if raw := r.URL.Query().Get("userId"); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				http.Error(w, "Invalid userId", http.StatusBadRequest)
				return
			}
			userID = parsed
		}

		msg := &actors.GetUserProfileMsg{UserID: userID}
		result, ok := s.request(w, "user_profile", s.Engine.GetUserSupervisor(), msg)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// HandleUserDataSummary reports what an account deletion would remove.
func (s *Server) HandleUserDataSummary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests("user_summary")

		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		msg := &actors.GetUserDataSummaryMsg{UserID: userID}
		result, ok := s.request(w, "user_summary", s.Engine.GetUserSupervisor(), msg)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// HandleDeleteUser deletes the caller's account and all data hanging off it.
func (s *Server) HandleDeleteUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests("user_delete")

		if r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		msg := &actors.DeleteUserMsg{UserID: userID}
		result, ok := s.request(w, "user_delete", s.Engine.GetUserSupervisor(), msg)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
