package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageHistory is one audit-log entry for a content edit. Entries are
// append-only: written when an edit actually changes content, never mutated,
// and removed only by cascade (message deleted, or editor deleted).
type MessageHistory struct {
	ID         uuid.UUID `json:"id" db:"id"`
	MessageID  uuid.UUID `json:"messageId" db:"message_id"`
	OldContent string    `json:"oldContent" db:"old_content"`
	NewContent string    `json:"newContent" db:"new_content"`
	EditReason *string   `json:"editReason,omitempty" db:"edit_reason"`
	EditedBy   uuid.UUID `json:"editedBy" db:"edited_by"`
	EditedAt   time.Time `json:"editedAt" db:"edited_at"`

	EditorUsername string `json:"editorUsername,omitempty" db:"editor_username"`
}

// EditSummary classifies the edit by content length delta. Derived on demand,
// never stored.
func (h *MessageHistory) EditSummary() string {
	oldLen := len([]rune(h.OldContent))
	newLen := len([]rune(h.NewContent))
	switch {
	case newLen > oldLen:
		return fmt.Sprintf("expanded by %d characters", newLen-oldLen)
	case newLen < oldLen:
		return fmt.Sprintf("shortened by %d characters", oldLen-newLen)
	default:
		return "same length"
	}
}
