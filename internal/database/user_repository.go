// internal/database/user_repository.go
package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"threadpost/internal/models"
	"threadpost/internal/utils"

	"github.com/google/uuid"
)

// SaveUser inserts a new user. Duplicate usernames or emails surface as a
// DUPLICATE error instead of a raw constraint violation.
func (p *PostgresDB) SaveUser(ctx context.Context, user *models.User) error {
	_, err := p.DB.ExecContext(ctx, `
		INSERT INTO users (id, username, email, display_name, password_hash,
			created_at, updated_at, last_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.Username, user.Email, user.DisplayName, user.HashedPassword,
		user.CreatedAt, user.UpdatedAt, user.LastActive,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return utils.NewAppError(utils.ErrUserAlreadyExists, "username or email already taken", err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to save user", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (p *PostgresDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := p.DB.GetContext(ctx, &user, `SELECT * FROM users WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, utils.NewUserNotFoundError(id.String())
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get user", err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email, used by login.
func (p *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := p.DB.GetContext(ctx, &user, `SELECT * FROM users WHERE email = $1`, email)
	if err == sql.ErrNoRows {
		return nil, utils.NewUserNotFoundError(email)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get user by email", err)
	}
	return &user, nil
}

// UpdateUserActivity bumps the user's last-active timestamp.
func (p *PostgresDB) UpdateUserActivity(ctx context.Context, id uuid.UUID) error {
	_, err := p.DB.ExecContext(ctx,
		`UPDATE users SET last_active = $1 WHERE id = $2`, time.Now(), id)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update user activity", err)
	}
	return nil
}

// GetUserDataSummary counts the records a deletion would remove, so the
// account-deletion flow can show its scope first.
func (p *PostgresDB) GetUserDataSummary(ctx context.Context, id uuid.UUID) (*UserDataSummary, error) {
	var summary UserDataSummary
	err := p.DB.GetContext(ctx, &summary, `
		SELECT
			(SELECT COUNT(*) FROM messages WHERE sender_id = $1) AS sent_messages,
			(SELECT COUNT(*) FROM messages WHERE receiver_id = $1) AS received_messages,
			(SELECT COUNT(*) FROM notifications WHERE user_id = $1) AS notifications,
			(SELECT COUNT(*) FROM message_history WHERE edited_by = $1) AS edit_histories`,
		id)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to summarize user data", err)
	}
	return &summary, nil
}

// DeleteUser removes a user and everything hanging off the account in one
// transaction. Messages where the user is sender or receiver are deleted
// explicitly; their reply subtrees, notifications and history entries follow
// through the cascade foreign keys, as do the user's own notifications and the
// history entries they authored on other people's threads.
func (p *PostgresDB) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tx, err := p.DB.BeginTxx(ctx, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM messages WHERE sender_id = $1 OR receiver_id = $1`, id)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to delete user messages", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to delete user", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to check delete result", err)
	}
	if rows == 0 {
		return utils.NewUserNotFoundError(id.String())
	}

	if err := tx.Commit(); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to commit transaction", err)
	}
	return nil
}
