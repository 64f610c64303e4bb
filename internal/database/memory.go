// internal/database/memory.go
package database

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"threadpost/internal/models"
	"threadpost/internal/utils"

	"github.com/google/uuid"
)

// MemoryDB is an in-memory DBAdapter for tests and local development. It
// mirrors PostgresDB behavior including the cascade deletes, and counts store
// touches so tests can assert that the read projections stay single-query.
type MemoryDB struct {
	mu sync.RWMutex

	users         map[uuid.UUID]*models.User
	messages      map[uuid.UUID]*models.Message
	notifications map[uuid.UUID]*models.Notification
	histories     map[uuid.UUID]*models.MessageHistory

	queries int64
}

// NewMemoryDB creates an empty in-memory adapter.
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		users:         make(map[uuid.UUID]*models.User),
		messages:      make(map[uuid.UUID]*models.Message),
		notifications: make(map[uuid.UUID]*models.Notification),
		histories:     make(map[uuid.UUID]*models.MessageHistory),
	}
}

// QueryCount returns how many adapter operations have run since the last
// reset. One exported method call is one store touch, matching the one query
// (or one transaction) each PostgresDB method issues.
func (m *MemoryDB) QueryCount() int64 {
	return atomic.LoadInt64(&m.queries)
}

// ResetQueryCount zeroes the touch counter.
func (m *MemoryDB) ResetQueryCount() {
	atomic.StoreInt64(&m.queries, 0)
}

// Close releases all stored data.
func (m *MemoryDB) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = make(map[uuid.UUID]*models.User)
	m.messages = make(map[uuid.UUID]*models.Message)
	m.notifications = make(map[uuid.UUID]*models.Notification)
	m.histories = make(map[uuid.UUID]*models.MessageHistory)
	return nil
}

// --- User methods ---

func (m *MemoryDB) SaveUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	atomic.AddInt64(&m.queries, 1)

	for _, existing := range m.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return utils.NewAppError(utils.ErrUserAlreadyExists, "username or email already taken", nil)
		}
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *MemoryDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	atomic.AddInt64(&m.queries, 1)

	user, ok := m.users[id]
	if !ok {
		return nil, utils.NewUserNotFoundError(id.String())
	}
	copied := *user
	return &copied, nil
}

func (m *MemoryDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	atomic.AddInt64(&m.queries, 1)

	for _, user := range m.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, utils.NewUserNotFoundError(email)
}

func (m *MemoryDB) UpdateUserActivity(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	atomic.AddInt64(&m.queries, 1)

	if user, ok := m.users[id]; ok {
		user.LastActive = time.Now()
	}
	return nil
}

func (m *MemoryDB) GetUserDataSummary(ctx context.Context, id uuid.UUID) (*UserDataSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	atomic.AddInt64(&m.queries, 1)

	summary := &UserDataSummary{}
	for _, msg := range m.messages {
		if msg.SenderID == id {
			summary.SentMessages++
		}
		if msg.ReceiverID == id {
			summary.ReceivedMessages++
		}
	}
	for _, n := range m.notifications {
		if n.UserID == id {
			summary.Notifications++
		}
	}
	for _, h := range m.histories {
		if h.EditedBy == id {
			summary.EditHistories++
		}
	}
	return summary, nil
}

func (m *MemoryDB) DeleteUser(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	atomic.AddInt64(&m.queries, 1)

	if _, ok := m.users[id]; !ok {
		return utils.NewUserNotFoundError(id.String())
	}

	for msgID, msg := range m.messages {
		if msg.SenderID == id || msg.ReceiverID == id {
			m.deleteMessageTreeLocked(msgID)
		}
	}
	for nID, n := range m.notifications {
		if n.UserID == id {
			delete(m.notifications, nID)
		}
	}
	for hID, h := range m.histories {
		if h.EditedBy == id {
			delete(m.histories, hID)
		}
	}
	delete(m.users, id)
	return nil
}

// --- Message methods ---

// joinMessage fills the eager-join fields the same way the SQL projection
// does, so both adapters return identical shapes.
func (m *MemoryDB) joinMessage(msg *models.Message) *models.Message {
	copied := *msg
	if sender, ok := m.users[msg.SenderID]; ok {
		copied.SenderUsername = sender.Username
		copied.SenderDisplayName = sender.DisplayName
	}
	if msg.ParentID != nil {
		if parent, ok := m.messages[*msg.ParentID]; ok {
			preview := models.Preview(parent.Content)
			copied.ParentPreview = &preview
			if parentSender, ok := m.users[parent.SenderID]; ok {
				username := parentSender.Username
				copied.ParentSenderUsername = &username
			}
		}
	}
	return &copied
}

func (m *MemoryDB) SaveMessage(ctx context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	atomic.AddInt64(&m.queries, 1)

	copied := *msg
	m.messages[msg.ID] = &copied
	return nil
}

func (m *MemoryDB) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	atomic.AddInt64(&m.queries, 1)

	msg, ok := m.messages[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrNotFound, "message not found", nil)
	}
	return m.joinMessage(msg), nil
}

func (m *MemoryDB) UpdateMessageContent(ctx context.Context, id uuid.UUID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	atomic.AddInt64(&m.queries, 1)

	msg, ok := m.messages[id]
	if !ok {
		return utils.NewAppError(utils.ErrNotFound, "message not found", nil)
	}
	msg.Content = content
	msg.Edited = true
	msg.EditCount++
	msg.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryDB) MarkMessageRead(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	atomic.AddInt64(&m.queries, 1)

	msg, ok := m.messages[id]
	if !ok {
		return false, utils.NewAppError(utils.ErrNotFound, "message not found", nil)
	}
	if msg.IsRead {
		return false, nil
	}
	msg.IsRead = true
	msg.UpdatedAt = time.Now()
	return true, nil
}

// deleteMessageTreeLocked removes a message and its whole reply subtree along
// with dependent notifications and history entries. Caller holds the lock.
func (m *MemoryDB) deleteMessageTreeLocked(id uuid.UUID) {
	if _, ok := m.messages[id]; !ok {
		return
	}
	var children []uuid.UUID
	for childID, child := range m.messages {
		if child.ParentID != nil && *child.ParentID == id {
			children = append(children, childID)
		}
	}
	for _, childID := range children {
		m.deleteMessageTreeLocked(childID)
	}
	for nID, n := range m.notifications {
		if n.MessageID == id {
			delete(m.notifications, nID)
		}
	}
	for hID, h := range m.histories {
		if h.MessageID == id {
			delete(m.histories, hID)
		}
	}
	delete(m.messages, id)
}

func (m *MemoryDB) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	atomic.AddInt64(&m.queries, 1)

	if _, ok := m.messages[id]; !ok {
		return utils.NewAppError(utils.ErrNotFound, "message not found", nil)
	}
	m.deleteMessageTreeLocked(id)
	return nil
}

func (m *MemoryDB) GetMessagesByUser(ctx context.Context, userID uuid.UUID) ([]*models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	atomic.AddInt64(&m.queries, 1)

	var result []*models.Message
	for _, msg := range m.messages {
		if msg.SenderID == userID || msg.ReceiverID == userID {
			result = append(result, m.joinMessage(msg))
		}
	}
	sortNewestFirst(result)
	return result, nil
}

func (m *MemoryDB) GetConversation(ctx context.Context, userID1, userID2 uuid.UUID) ([]*models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	atomic.AddInt64(&m.queries, 1)

	var result []*models.Message
	for _, msg := range m.messages {
		if (msg.SenderID == userID1 && msg.ReceiverID == userID2) ||
			(msg.SenderID == userID2 && msg.ReceiverID == userID1) {
			result = append(result, m.joinMessage(msg))
		}
	}
	sortOldestFirst(result)
	return result, nil
}

func (m *MemoryDB) GetRepliesTo(ctx context.Context, parentIDs []uuid.UUID) ([]*models.Message, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	atomic.AddInt64(&m.queries, 1)

	wanted := make(map[uuid.UUID]struct{}, len(parentIDs))
	for _, id := range parentIDs {
		wanted[id] = struct{}{}
	}
	var result []*models.Message
	for _, msg := range m.messages {
		if msg.ParentID == nil {
			continue
		}
		if _, ok := wanted[*msg.ParentID]; ok {
			result = append(result, m.joinMessage(msg))
		}
	}
	sortOldestFirst(result)
	return result, nil
}

func (m *MemoryDB) GetUnreadMessages(ctx context.Context, userID uuid.UUID) ([]*models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	atomic.AddInt64(&m.queries, 1)

	var result []*models.Message
	for _, msg := range m.messages {
		if msg.ReceiverID == userID && !msg.IsRead {
			result = append(result, m.joinMessage(msg))
		}
	}
	sortNewestFirst(result)
	return result, nil
}

func (m *MemoryDB) GetInbox(ctx context.Context, userID uuid.UUID) ([]*models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	atomic.AddInt64(&m.queries, 1)

	var result []*models.Message
	for _, msg := range m.messages {
		if msg.ReceiverID == userID {
			result = append(result, m.joinMessage(msg))
		}
	}
	sortNewestFirst(result)
	return result, nil
}

func (m *MemoryDB) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	atomic.AddInt64(&m.queries, 1)

	count := 0
	for _, msg := range m.messages {
		if msg.ReceiverID == userID && !msg.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *MemoryDB) GetUnreadThreadRoots(ctx context.Context, userID uuid.UUID) ([]*models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	atomic.AddInt64(&m.queries, 1)

	var result []*models.Message
	for _, msg := range m.messages {
		if msg.ReceiverID == userID && !msg.IsRead && msg.ParentID == nil {
			result = append(result, m.joinMessage(msg))
		}
	}
	sortNewestFirst(result)
	return result, nil
}

func (m *MemoryDB) MarkAllMessagesRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	atomic.AddInt64(&m.queries, 1)

	var changed int64
	now := time.Now()
	for _, msg := range m.messages {
		if msg.ReceiverID == userID && !msg.IsRead {
			msg.IsRead = true
			msg.UpdatedAt = now
			changed++
			for _, n := range m.notifications {
				if n.UserID == userID && n.MessageID == msg.ID {
					n.IsRead = true
				}
			}
		}
	}
	return changed, nil
}

// --- Notification methods ---

func (m *MemoryDB) SaveNotification(ctx context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	atomic.AddInt64(&m.queries, 1)

	copied := *n
	m.notifications[n.ID] = &copied
	return nil
}

func (m *MemoryDB) GetNotificationsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	atomic.AddInt64(&m.queries, 1)

	var result []*models.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			copied := *n
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MemoryDB) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	atomic.AddInt64(&m.queries, 1)

	n, ok := m.notifications[id]
	if !ok || n.UserID != userID {
		return utils.NewAppError(utils.ErrNotFound, "notification not found", nil)
	}
	n.IsRead = true
	return nil
}

func (m *MemoryDB) MarkMessageNotificationsRead(ctx context.Context, messageID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	atomic.AddInt64(&m.queries, 1)

	for _, n := range m.notifications {
		if n.MessageID == messageID && n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

// --- Audit log methods ---

func (m *MemoryDB) SaveMessageHistory(ctx context.Context, h *models.MessageHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	atomic.AddInt64(&m.queries, 1)

	copied := *h
	m.histories[h.ID] = &copied
	return nil
}

func (m *MemoryDB) GetMessageHistory(ctx context.Context, messageID uuid.UUID) ([]*models.MessageHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	atomic.AddInt64(&m.queries, 1)

	var result []*models.MessageHistory
	for _, h := range m.histories {
		if h.MessageID == messageID {
			copied := *h
			if editor, ok := m.users[h.EditedBy]; ok {
				copied.EditorUsername = editor.Username
			}
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].EditedAt.Before(result[j].EditedAt)
	})
	return result, nil
}

// --- Health ---

func (m *MemoryDB) CountEntities(ctx context.Context) (*EntityCounts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	atomic.AddInt64(&m.queries, 1)

	return &EntityCounts{
		Users:         len(m.users),
		Messages:      len(m.messages),
		Notifications: len(m.notifications),
	}, nil
}

func sortNewestFirst(messages []*models.Message) {
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].SentAt.After(messages[j].SentAt)
	})
}

func sortOldestFirst(messages []*models.Message) {
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].SentAt.Before(messages[j].SentAt)
	})
}
