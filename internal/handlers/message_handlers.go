package handlers

import (
	"encoding/json"
	"net/http"

	"threadpost/internal/engine/actors"
	"threadpost/internal/middleware"
	"threadpost/internal/models"
	"threadpost/internal/types"

	"github.com/google/uuid"
)

// SendMessageRequest represents a request to send a message or a reply
type SendMessageRequest struct {
	ReceiverID string  `json:"receiverId"`
	Content    string  `json:"content"`
	ParentID   *string `json:"parentId,omitempty"`
}

// EditMessageRequest represents a request to edit a message's content
type EditMessageRequest struct {
	MessageID string  `json:"messageId"`
	Content   string  `json:"content"`
	Reason    *string `json:"reason,omitempty"`
}

// HistoryEntryResponse is an audit-log entry with its derived edit summary.
type HistoryEntryResponse struct {
	*models.MessageHistory
	Summary string `json:"summary"`
}

// HandleMessages handles sending messages, listing a user's messages and
// deleting a message.
func (s *Server) HandleMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests("messages")

		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		switch r.Method {
		case http.MethodPost:
			var req SendMessageRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}

			receiverID, err := uuid.Parse(req.ReceiverID)
			if err != nil {
				http.Error(w, "Invalid receiver ID", http.StatusBadRequest)
				return
			}

			var parentID *uuid.UUID
			if req.ParentID != nil {
				parsed, err := uuid.Parse(*req.ParentID)
				if err != nil {
					http.Error(w, "Invalid parent ID", http.StatusBadRequest)
					return
				}
				parentID = &parsed
			}

			msg := &actors.CreateMessageMsg{
				SenderID:   userID,
				ReceiverID: receiverID,
				Content:    req.Content,
				ParentID:   parentID,
			}
			result, ok := s.request(w, "messages", s.Engine.GetMessageActor(), msg)
			if !ok {
				return
			}
			writeJSON(w, http.StatusCreated, result)

		case http.MethodGet:
			msg := &actors.GetUserMessagesMsg{UserID: userID}
			result, ok := s.request(w, "messages", s.Engine.GetMessageActor(), msg)
			if !ok {
				return
			}
			writeJSON(w, http.StatusOK, result)

		case http.MethodDelete:
			messageID, ok := parseUUIDParam(w, r, "messageId")
			if !ok {
				return
			}
			msg := &actors.DeleteMessageMsg{MessageID: messageID, UserID: userID}
			result, ok := s.request(w, "messages", s.Engine.GetMessageActor(), msg)
			if !ok {
				return
			}
			writeJSON(w, http.StatusOK, types.StatusResponse{
				Success: result.(bool),
				Message: "message deleted",
			})

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleMessage serves a single message with its thread position, and edits.
func (s *Server) HandleMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests("message")

		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		switch r.Method {
		case http.MethodGet:
			messageID, ok := parseUUIDParam(w, r, "messageId")
			if !ok {
				return
			}
			msg := &actors.GetMessageMsg{MessageID: messageID, RequestingUserID: userID}
			result, ok := s.request(w, "message", s.Engine.GetMessageActor(), msg)
			if !ok {
				return
			}
			writeJSON(w, http.StatusOK, result)

		case http.MethodPut:
			var req EditMessageRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}
			messageID, err := uuid.Parse(req.MessageID)
			if err != nil {
				http.Error(w, "Invalid message ID", http.StatusBadRequest)
				return
			}
			msg := &actors.EditMessageMsg{
				MessageID: messageID,
				UserID:    userID,
				Content:   req.Content,
				Reason:    req.Reason,
			}
			result, ok := s.request(w, "message", s.Engine.GetMessageActor(), msg)
			if !ok {
				return
			}
			writeJSON(w, http.StatusOK, result)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleConversation gets messages between the caller and another user
func (s *Server) HandleConversation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests("conversation")

		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		otherID, ok := parseUUIDParam(w, r, "otherUserId")
		if !ok {
			return
		}

		msg := &actors.GetConversationMsg{UserID1: userID, UserID2: otherID}
		result, ok := s.request(w, "conversation", s.Engine.GetMessageActor(), msg)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// HandleThread returns the full thread containing a message, root first.
func (s *Server) HandleThread() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests("thread")

		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		messageID, ok := parseUUIDParam(w, r, "messageId")
		if !ok {
			return
		}

		msg := &actors.GetThreadMsg{MessageID: messageID}
		result, ok := s.request(w, "thread", s.Engine.GetMessageActor(), msg)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// HandleReplies returns replies below a message; ?direct=true limits the
// result to immediate children.
func (s *Server) HandleReplies() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests("replies")

		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		messageID, ok := parseUUIDParam(w, r, "messageId")
		if !ok {
			return
		}

		msg := &actors.GetRepliesMsg{
			MessageID:  messageID,
			DirectOnly: r.URL.Query().Get("direct") == "true",
		}
		result, ok := s.request(w, "replies", s.Engine.GetMessageActor(), msg)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// HandleMessageHistory returns the edit audit log of a message.
func (s *Server) HandleMessageHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests("message_history")

		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		messageID, ok := parseUUIDParam(w, r, "messageId")
		if !ok {
			return
		}

		msg := &actors.GetMessageHistoryMsg{MessageID: messageID, UserID: userID}
		result, ok := s.request(w, "message_history", s.Engine.GetMessageActor(), msg)
		if !ok {
			return
		}

		entries := result.([]*models.MessageHistory)
		response := make([]*HistoryEntryResponse, 0, len(entries))
		for _, entry := range entries {
			response = append(response, &HistoryEntryResponse{
				MessageHistory: entry,
				Summary:        entry.EditSummary(),
			})
		}
		writeJSON(w, http.StatusOK, response)
	}
}

// HandleMarkMessageRead marks a single message as read
func (s *Server) HandleMarkMessageRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests("mark_read")

		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		var req struct {
			MessageID string `json:"messageId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		messageID, err := uuid.Parse(req.MessageID)
		if err != nil {
			http.Error(w, "Invalid message ID", http.StatusBadRequest)
			return
		}

		msg := &actors.MarkMessageReadMsg{MessageID: messageID, UserID: userID}
		result, ok := s.request(w, "mark_read", s.Engine.GetMessageActor(), msg)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// HandleMarkAllRead marks every unread received message as read.
func (s *Server) HandleMarkAllRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests("mark_all_read")

		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		msg := &actors.MarkAllReadMsg{UserID: userID}
		result, ok := s.request(w, "mark_all_read", s.Engine.GetMessageActor(), msg)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
