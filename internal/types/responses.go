package types

import "github.com/google/uuid"

// LoginResponse is returned by the login endpoint.
type LoginResponse struct {
	Success bool      `json:"success"`
	Token   string    `json:"token,omitempty"`
	UserID  uuid.UUID `json:"userId"`
	Error   string    `json:"error,omitempty"`
}

// StatusResponse is a generic success/failure envelope.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
