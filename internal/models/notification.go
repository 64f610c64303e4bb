package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind distinguishes why a notification was produced.
type NotificationKind string

const (
	NotificationNewMessage NotificationKind = "new_message"
	NotificationEdit       NotificationKind = "edit"
	NotificationSystem     NotificationKind = "system"
)

// Notification is a per-recipient notice derived from a message lifecycle
// event. It belongs to exactly one target user and one message and is
// deleted when either goes away.
type Notification struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	UserID    uuid.UUID        `json:"userId" db:"user_id"`
	MessageID uuid.UUID        `json:"messageId" db:"message_id"`
	Kind      NotificationKind `json:"kind" db:"kind"`
	Title     string           `json:"title" db:"title"`
	Body      string           `json:"body" db:"body"`
	IsRead    bool             `json:"isRead" db:"is_read"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
}
