// internal/database/message_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"threadpost/internal/models"
	"threadpost/internal/utils"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// messageColumns is the shared projection for message reads. Sender identity
// and parent context are joined in so list results are complete in one query.
const messageColumns = `
	m.id, m.sender_id, m.receiver_id, m.content, m.parent_id, m.sent_at,
	m.is_read, m.edited, m.edit_count, m.created_at, m.updated_at,
	u.username AS sender_username,
	u.display_name AS sender_display_name,
	p.content AS parent_preview,
	pu.username AS parent_sender_username`

const messageJoins = `
	FROM messages m
	JOIN users u ON m.sender_id = u.id
	LEFT JOIN messages p ON m.parent_id = p.id
	LEFT JOIN users pu ON p.sender_id = pu.id`

// trimParentPreviews shortens the joined parent content to preview length.
// Done in Go so the character boundary matches notification previews exactly.
func trimParentPreviews(messages []*models.Message) {
	for _, m := range messages {
		if m.ParentPreview != nil {
			preview := models.Preview(*m.ParentPreview)
			m.ParentPreview = &preview
		}
	}
}

// SaveMessage inserts a new message.
func (p *PostgresDB) SaveMessage(ctx context.Context, msg *models.Message) error {
	_, err := p.DB.ExecContext(ctx, `
		INSERT INTO messages (id, sender_id, receiver_id, content, parent_id, sent_at,
			is_read, edited, edit_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		msg.ID, msg.SenderID, msg.ReceiverID, msg.Content, msg.ParentID, msg.SentAt,
		msg.IsRead, msg.Edited, msg.EditCount, msg.CreatedAt, msg.UpdatedAt,
	)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to save message", err)
	}
	return nil
}

// GetMessage retrieves a message by ID with sender and parent context joined.
func (p *PostgresDB) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var msg models.Message
	err := p.DB.GetContext(ctx, &msg,
		`SELECT`+messageColumns+messageJoins+` WHERE m.id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, utils.NewAppError(utils.ErrNotFound, "message not found", nil)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get message", err)
	}
	trimParentPreviews([]*models.Message{&msg})
	return &msg, nil
}

// UpdateMessageContent replaces a message's content and bumps its edit
// counters. Callers are responsible for writing the audit-log entry.
func (p *PostgresDB) UpdateMessageContent(ctx context.Context, id uuid.UUID, content string) error {
	result, err := p.DB.ExecContext(ctx, `
		UPDATE messages
		SET content = $1, edited = TRUE, edit_count = edit_count + 1, updated_at = $2
		WHERE id = $3`,
		content, time.Now(), id,
	)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update message", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to check update result", err)
	}
	if rows == 0 {
		return utils.NewAppError(utils.ErrNotFound, "message not found", nil)
	}
	return nil
}

// MarkMessageRead flips a message to read. Returns false when the message was
// already read, so callers can tell a transition from a repeat.
func (p *PostgresDB) MarkMessageRead(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := p.DB.ExecContext(ctx, `
		UPDATE messages SET is_read = TRUE, updated_at = $1
		WHERE id = $2 AND is_read = FALSE`,
		time.Now(), id,
	)
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "failed to mark message read", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "failed to check update result", err)
	}
	if rows > 0 {
		return true, nil
	}

	// No transition: distinguish already-read from missing.
	var exists bool
	err = p.DB.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM messages WHERE id = $1)`, id)
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "failed to check message existence", err)
	}
	if !exists {
		return false, utils.NewAppError(utils.ErrNotFound, "message not found", nil)
	}
	return false, nil
}

// DeleteMessage removes a message. Replies, notifications and history entries
// under it go with it via the cascade foreign keys.
func (p *PostgresDB) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	result, err := p.DB.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to delete message", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to check delete result", err)
	}
	if rows == 0 {
		return utils.NewAppError(utils.ErrNotFound, "message not found", nil)
	}
	return nil
}

// GetMessagesByUser returns every message the user sent or received, newest
// first.
func (p *PostgresDB) GetMessagesByUser(ctx context.Context, userID uuid.UUID) ([]*models.Message, error) {
	var messages []*models.Message
	err := p.DB.SelectContext(ctx, &messages,
		`SELECT`+messageColumns+messageJoins+`
		WHERE m.sender_id = $1 OR m.receiver_id = $1
		ORDER BY m.sent_at DESC`, userID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get user messages", err)
	}
	trimParentPreviews(messages)
	return messages, nil
}

// GetConversation returns all messages exchanged between two users in
// chronological order.
func (p *PostgresDB) GetConversation(ctx context.Context, userID1, userID2 uuid.UUID) ([]*models.Message, error) {
	var messages []*models.Message
	err := p.DB.SelectContext(ctx, &messages,
		`SELECT`+messageColumns+messageJoins+`
		WHERE (m.sender_id = $1 AND m.receiver_id = $2)
		   OR (m.sender_id = $2 AND m.receiver_id = $1)
		ORDER BY m.sent_at ASC`, userID1, userID2)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get conversation", err)
	}
	trimParentPreviews(messages)
	return messages, nil
}

// GetRepliesTo fetches all direct children of the given parents in a single
// query. The thread walker calls this once per tree level, so the total number
// of queries for a full thread is bounded by its depth.
func (p *PostgresDB) GetRepliesTo(ctx context.Context, parentIDs []uuid.UUID) ([]*models.Message, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(
		`SELECT`+messageColumns+messageJoins+`
		WHERE m.parent_id IN (?)
		ORDER BY m.sent_at ASC`, parentIDs)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to build replies query", err)
	}
	query = p.DB.Rebind(query)

	var messages []*models.Message
	if err := p.DB.SelectContext(ctx, &messages, query, args...); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get replies", err)
	}
	trimParentPreviews(messages)
	return messages, nil
}

// GetUnreadMessages returns the user's unread received messages, newest first,
// with sender and parent context included in the single query.
func (p *PostgresDB) GetUnreadMessages(ctx context.Context, userID uuid.UUID) ([]*models.Message, error) {
	var messages []*models.Message
	err := p.DB.SelectContext(ctx, &messages,
		`SELECT`+messageColumns+messageJoins+`
		WHERE m.receiver_id = $1 AND m.is_read = FALSE
		ORDER BY m.sent_at DESC`, userID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get unread messages", err)
	}
	trimParentPreviews(messages)
	return messages, nil
}

// GetInbox returns all received messages, newest first.
func (p *PostgresDB) GetInbox(ctx context.Context, userID uuid.UUID) ([]*models.Message, error) {
	var messages []*models.Message
	err := p.DB.SelectContext(ctx, &messages,
		`SELECT`+messageColumns+messageJoins+`
		WHERE m.receiver_id = $1
		ORDER BY m.sent_at DESC`, userID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get inbox", err)
	}
	trimParentPreviews(messages)
	return messages, nil
}

// GetUnreadCount returns how many received messages are still unread.
func (p *PostgresDB) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := p.DB.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM messages WHERE receiver_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return 0, utils.NewAppError(utils.ErrDatabase, "failed to count unread messages", err)
	}
	return count, nil
}

// GetUnreadThreadRoots returns unread received messages that start a thread.
func (p *PostgresDB) GetUnreadThreadRoots(ctx context.Context, userID uuid.UUID) ([]*models.Message, error) {
	var messages []*models.Message
	err := p.DB.SelectContext(ctx, &messages,
		`SELECT`+messageColumns+messageJoins+`
		WHERE m.receiver_id = $1 AND m.is_read = FALSE AND m.parent_id IS NULL
		ORDER BY m.sent_at DESC`, userID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get unread thread roots", err)
	}
	trimParentPreviews(messages)
	return messages, nil
}

// MarkAllMessagesRead marks every unread received message as read and clears
// the matching message notifications in the same transaction. Returns how many
// messages transitioned.
func (p *PostgresDB) MarkAllMessagesRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	tx, err := p.DB.BeginTxx(ctx, nil)
	if err != nil {
		return 0, utils.NewAppError(utils.ErrDatabase, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE messages SET is_read = TRUE, updated_at = $1
		WHERE receiver_id = $2 AND is_read = FALSE`,
		time.Now(), userID,
	)
	if err != nil {
		return 0, utils.NewAppError(utils.ErrDatabase, "failed to mark messages read", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, utils.NewAppError(utils.ErrDatabase, "failed to check update result", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE notifications n SET is_read = TRUE
		FROM messages m
		WHERE n.message_id = m.id AND n.user_id = $1 AND m.receiver_id = $1 AND n.is_read = FALSE`,
		userID,
	)
	if err != nil {
		return 0, utils.NewAppError(utils.ErrDatabase, "failed to mark notifications read", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, utils.NewAppError(utils.ErrDatabase, "failed to commit transaction", err)
	}
	return rows, nil
}

// CountEntities returns totals for the health endpoint.
func (p *PostgresDB) CountEntities(ctx context.Context) (*EntityCounts, error) {
	var counts EntityCounts
	err := p.DB.GetContext(ctx, &counts, `
		SELECT
			(SELECT COUNT(*) FROM users) AS users,
			(SELECT COUNT(*) FROM messages) AS messages,
			(SELECT COUNT(*) FROM notifications) AS notifications`)
	if err != nil {
		return nil, fmt.Errorf("failed to count entities: %v", err)
	}
	return &counts, nil
}
