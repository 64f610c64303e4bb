// internal/database/history_repository.go
package database

import (
	"context"

	"threadpost/internal/models"
	"threadpost/internal/utils"

	"github.com/google/uuid"
)

// SaveMessageHistory appends an audit-log entry. Entries are never updated.
func (p *PostgresDB) SaveMessageHistory(ctx context.Context, h *models.MessageHistory) error {
	_, err := p.DB.ExecContext(ctx, `
		INSERT INTO message_history (id, message_id, old_content, new_content,
			edit_reason, edited_by, edited_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		h.ID, h.MessageID, h.OldContent, h.NewContent, h.EditReason, h.EditedBy, h.EditedAt,
	)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to save message history", err)
	}
	return nil
}

// GetMessageHistory returns a message's edit entries oldest first, with the
// editor's username joined in.
func (p *PostgresDB) GetMessageHistory(ctx context.Context, messageID uuid.UUID) ([]*models.MessageHistory, error) {
	var entries []*models.MessageHistory
	err := p.DB.SelectContext(ctx, &entries, `
		SELECT h.id, h.message_id, h.old_content, h.new_content, h.edit_reason,
			h.edited_by, h.edited_at, u.username AS editor_username
		FROM message_history h
		JOIN users u ON h.edited_by = u.id
		WHERE h.message_id = $1
		ORDER BY h.edited_at ASC`, messageID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get message history", err)
	}
	return entries, nil
}
