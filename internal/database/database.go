// internal/database/database.go
package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"threadpost/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// UserDataSummary reports how much data a user owns, shown before account
// deletion so the cascade's impact is visible.
type UserDataSummary struct {
	SentMessages     int `json:"sentMessages" db:"sent_messages"`
	ReceivedMessages int `json:"receivedMessages" db:"received_messages"`
	Notifications    int `json:"notifications" db:"notifications"`
	EditHistories    int `json:"editHistories" db:"edit_histories"`
}

// EntityCounts feeds the health endpoint.
type EntityCounts struct {
	Users         int `json:"users" db:"users"`
	Messages      int `json:"messages" db:"messages"`
	Notifications int `json:"notifications" db:"notifications"`
}

// DBAdapter defines the common interface for storage backends. PostgreSQL is
// the production backend; the in-memory adapter backs tests and local runs.
//
// The four unread/inbox projections each touch the store exactly once, with
// sender and parent fields eagerly joined into the returned rows. Callers may
// iterate the results and read those fields without triggering further
// round trips; implementations that need per-row follow-up fetches violate
// the contract.
type DBAdapter interface {
	// Connection
	Close(ctx context.Context) error

	// User methods
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUserActivity(ctx context.Context, id uuid.UUID) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	GetUserDataSummary(ctx context.Context, id uuid.UUID) (*UserDataSummary, error)

	// Message methods
	SaveMessage(ctx context.Context, msg *models.Message) error
	GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error)
	UpdateMessageContent(ctx context.Context, id uuid.UUID, content string) error
	MarkMessageRead(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteMessage(ctx context.Context, id uuid.UUID) error
	GetMessagesByUser(ctx context.Context, userID uuid.UUID) ([]*models.Message, error)
	GetConversation(ctx context.Context, userID1, userID2 uuid.UUID) ([]*models.Message, error)
	GetRepliesTo(ctx context.Context, parentIDs []uuid.UUID) ([]*models.Message, error)

	// Unread / inbox projections
	GetUnreadMessages(ctx context.Context, userID uuid.UUID) ([]*models.Message, error)
	GetInbox(ctx context.Context, userID uuid.UUID) ([]*models.Message, error)
	GetUnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	GetUnreadThreadRoots(ctx context.Context, userID uuid.UUID) ([]*models.Message, error)
	MarkAllMessagesRead(ctx context.Context, userID uuid.UUID) (int64, error)

	// Notification methods
	SaveNotification(ctx context.Context, n *models.Notification) error
	GetNotificationsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error
	MarkMessageNotificationsRead(ctx context.Context, messageID, userID uuid.UUID) error

	// Audit log methods
	SaveMessageHistory(ctx context.Context, h *models.MessageHistory) error
	GetMessageHistory(ctx context.Context, messageID uuid.UUID) ([]*models.MessageHistory, error)

	// Health
	CountEntities(ctx context.Context) (*EntityCounts, error)
}

// PostgresDB represents a PostgreSQL database connection
type PostgresDB struct {
	DB *sqlx.DB
}

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(connectionString string) (*PostgresDB, error) {
	db, err := sqlx.Connect("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %v", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %v", err)
	}

	log.Println("Successfully connected to PostgreSQL!")

	return &PostgresDB{
		DB: db,
	}, nil
}

// Close closes the database connection
func (p *PostgresDB) Close(ctx context.Context) error {
	log.Println("Closing PostgreSQL connection...")
	return p.DB.Close()
}

// InitializeTables creates all necessary tables if they don't exist.
//
// Ownership edges (message→subtree, message→history, message→notification,
// user→notification, user→history-by-editor) are declared as cascade-on-delete
// foreign keys so the store enforces them; the lifecycle coordinator only has
// to cover the sender-or-receiver and editor lookups that are not plain
// ownership edges.
func (p *PostgresDB) InitializeTables(ctx context.Context) error {
	// Users table
	_, err := p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username VARCHAR(50) UNIQUE NOT NULL,
			email VARCHAR(100) UNIQUE NOT NULL,
			display_name VARCHAR(100) NOT NULL DEFAULT '',
			password_hash VARCHAR(100) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			last_active TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %v", err)
	}

	// Messages table
	_, err = p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS messages (
			id UUID PRIMARY KEY,
			sender_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			receiver_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			parent_id UUID REFERENCES messages(id) ON DELETE CASCADE,
			sent_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			is_read BOOLEAN DEFAULT FALSE NOT NULL,
			edited BOOLEAN DEFAULT FALSE NOT NULL,
			edit_count INTEGER DEFAULT 0 NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create messages table: %v", err)
	}

	// Message history table (audit log)
	_, err = p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS message_history (
			id UUID PRIMARY KEY,
			message_id UUID NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
			old_content TEXT NOT NULL,
			new_content TEXT NOT NULL,
			edit_reason TEXT,
			edited_by UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			edited_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create message_history table: %v", err)
	}

	// Notifications table
	_, err = p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS notifications (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			message_id UUID NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
			kind VARCHAR(20) NOT NULL DEFAULT 'new_message',
			title VARCHAR(255) NOT NULL,
			body TEXT NOT NULL,
			is_read BOOLEAN DEFAULT FALSE NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create notifications table: %v", err)
	}

	// Indexes backing the unread projections and the level-by-level thread walk
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_messages_receiver_unread ON messages (receiver_id, is_read, sent_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_parent ON messages (parent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages (sender_id, sent_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications (user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user_read ON notifications (user_id, is_read)`,
		`CREATE INDEX IF NOT EXISTS idx_history_message ON message_history (message_id)`,
		`CREATE INDEX IF NOT EXISTS idx_history_editor ON message_history (edited_by)`,
	}
	for _, stmt := range indexes {
		if _, err := p.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %v", err)
		}
	}

	return nil
}
