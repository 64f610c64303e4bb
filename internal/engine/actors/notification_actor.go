package actors

import (
	stdctx "context"

	"threadpost/internal/database"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// Message types for NotificationActor
type (
	GetNotificationsMsg struct {
		UserID uuid.UUID `json:"userId"`
	}

	MarkNotificationReadMsg struct {
		NotificationID uuid.UUID `json:"notificationId"`
		UserID         uuid.UUID `json:"userId"`
	}
)

// NotificationActor serves the per-user notification list. Writes come in
// through the fan-out hook, not through this actor.
type NotificationActor struct {
	db database.DBAdapter
}

func NewNotificationActor(db database.DBAdapter) actor.Actor {
	return &NotificationActor{db: db}
}

func (a *NotificationActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *GetNotificationsMsg:
		ctx := stdctx.Background()
		notifications, err := a.db.GetNotificationsByUser(ctx, msg.UserID)
		if err != nil {
			context.Respond(err)
			return
		}
		context.Respond(notifications)

	case *MarkNotificationReadMsg:
		ctx := stdctx.Background()
		if err := a.db.MarkNotificationRead(ctx, msg.NotificationID, msg.UserID); err != nil {
			context.Respond(err)
			return
		}
		context.Respond(true)
	}
}
