// internal/hooks/audit.go
package hooks

import (
	"context"
	"time"

	"threadpost/internal/database"
	"threadpost/internal/models"

	"github.com/google/uuid"
)

// AuditRecorder writes one history entry per content edit. It fires on
// message.edited only, so unchanged-content saves never produce an entry.
type AuditRecorder struct {
	db database.DBAdapter
}

func NewAuditRecorder(db database.DBAdapter) *AuditRecorder {
	return &AuditRecorder{db: db}
}

func (a *AuditRecorder) Name() string { return "audit-recorder" }

func (a *AuditRecorder) Handle(ctx context.Context, event Event, payload *Payload) error {
	if event != EventMessageEdited {
		return nil
	}
	entry := &models.MessageHistory{
		ID:         uuid.New(),
		MessageID:  payload.Message.ID,
		OldContent: payload.OldContent,
		NewContent: payload.Message.Content,
		EditReason: payload.EditReason,
		EditedBy:   payload.Message.SenderID,
		EditedAt:   time.Now(),
	}
	return a.db.SaveMessageHistory(ctx, entry)
}
