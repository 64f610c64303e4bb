// internal/database/notification_repository.go
package database

import (
	"context"

	"threadpost/internal/models"
	"threadpost/internal/utils"

	"github.com/google/uuid"
)

// SaveNotification inserts a notification row.
func (p *PostgresDB) SaveNotification(ctx context.Context, n *models.Notification) error {
	_, err := p.DB.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, message_id, kind, title, body, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, n.UserID, n.MessageID, n.Kind, n.Title, n.Body, n.IsRead, n.CreatedAt,
	)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to save notification", err)
	}
	return nil
}

// GetNotificationsByUser returns the user's notifications, newest first.
func (p *PostgresDB) GetNotificationsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Notification, error) {
	var notifications []*models.Notification
	err := p.DB.SelectContext(ctx, &notifications, `
		SELECT * FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get notifications", err)
	}
	return notifications, nil
}

// MarkNotificationRead marks one notification as read. The user filter keeps
// a user from acknowledging someone else's notification.
func (p *PostgresDB) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error {
	result, err := p.DB.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to mark notification read", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to check update result", err)
	}
	if rows == 0 {
		return utils.NewAppError(utils.ErrNotFound, "notification not found", nil)
	}
	return nil
}

// MarkMessageNotificationsRead clears every notification the user has for a
// message. Called when the message itself transitions to read.
func (p *PostgresDB) MarkMessageNotificationsRead(ctx context.Context, messageID, userID uuid.UUID) error {
	_, err := p.DB.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE message_id = $1 AND user_id = $2 AND is_read = FALSE`,
		messageID, userID)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to mark message notifications read", err)
	}
	return nil
}
