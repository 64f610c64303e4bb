package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is a direct message between two users. A non-nil ParentID makes it
// a reply; messages form a forest of reply trees rooted at parentless nodes.
type Message struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	SenderID   uuid.UUID  `json:"senderId" db:"sender_id"`
	ReceiverID uuid.UUID  `json:"receiverId" db:"receiver_id"`
	Content    string     `json:"content" db:"content"`
	ParentID   *uuid.UUID `json:"parentId,omitempty" db:"parent_id"` // nil for thread roots
	SentAt     time.Time  `json:"sentAt" db:"sent_at"`
	IsRead     bool       `json:"isRead" db:"is_read"`
	Edited     bool       `json:"edited" db:"edited"`
	EditCount  int        `json:"editCount" db:"edit_count"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time  `json:"updatedAt" db:"updated_at"`

	// Populated by eager joins on the read paths, not columns of messages.
	SenderUsername       string  `json:"senderUsername,omitempty" db:"sender_username"`
	SenderDisplayName    string  `json:"senderDisplayName,omitempty" db:"sender_display_name"`
	ParentPreview        *string `json:"parentPreview,omitempty" db:"parent_preview"`
	ParentSenderUsername *string `json:"parentSenderUsername,omitempty" db:"parent_sender_username"`
}

// IsThreadRoot reports whether the message starts a thread.
func (m *Message) IsThreadRoot() bool {
	return m.ParentID == nil
}

// PreviewLimit is the hard character cap applied to message previews used in
// notification bodies and parent-context projections.
const PreviewLimit = 100

// Preview truncates content to PreviewLimit characters, appending an ellipsis
// marker when anything was cut. The boundary is a character count, not
// word-aware.
func Preview(content string) string {
	runes := []rune(content)
	if len(runes) <= PreviewLimit {
		return content
	}
	return string(runes[:PreviewLimit]) + "..."
}
