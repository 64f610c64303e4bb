// internal/hooks/fanout.go
package hooks

import (
	"context"
	"fmt"
	"time"

	"threadpost/internal/database"
	"threadpost/internal/models"

	"github.com/google/uuid"
)

// NotificationFanout turns message lifecycle events into per-recipient
// notifications. Creates and edits produce a notification for the receiver;
// the read transition clears the receiver's notifications for that message.
type NotificationFanout struct {
	db database.DBAdapter
}

func NewNotificationFanout(db database.DBAdapter) *NotificationFanout {
	return &NotificationFanout{db: db}
}

func (f *NotificationFanout) Name() string { return "notification-fanout" }

func (f *NotificationFanout) Handle(ctx context.Context, event Event, payload *Payload) error {
	switch event {
	case EventMessageCreated:
		return f.notifyNewMessage(ctx, payload)
	case EventMessageEdited:
		return f.notifyEdit(ctx, payload)
	case EventMessageRead:
		return f.db.MarkMessageNotificationsRead(ctx, payload.Message.ID, payload.Message.ReceiverID)
	default:
		return nil
	}
}

func (f *NotificationFanout) notifyNewMessage(ctx context.Context, payload *Payload) error {
	msg := payload.Message
	n := &models.Notification{
		ID:        uuid.New(),
		UserID:    msg.ReceiverID,
		MessageID: msg.ID,
		Kind:      models.NotificationNewMessage,
		Title:     fmt.Sprintf("New message from %s", payload.Sender.Username),
		Body:      fmt.Sprintf("%s sent you a message: %q", payload.Sender.Name(), models.Preview(msg.Content)),
		CreatedAt: time.Now(),
	}
	return f.db.SaveNotification(ctx, n)
}

func (f *NotificationFanout) notifyEdit(ctx context.Context, payload *Payload) error {
	msg := payload.Message
	n := &models.Notification{
		ID:        uuid.New(),
		UserID:    msg.ReceiverID,
		MessageID: msg.ID,
		Kind:      models.NotificationEdit,
		Title:     fmt.Sprintf("%s edited a message", payload.Sender.Username),
		Body:      fmt.Sprintf("Updated content: %q", models.Preview(msg.Content)),
		CreatedAt: time.Now(),
	}
	return f.db.SaveNotification(ctx, n)
}
