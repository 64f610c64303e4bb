// internal/thread/thread.go
package thread

import (
	"context"

	"threadpost/internal/database"
	"threadpost/internal/models"
	"threadpost/internal/utils"

	"github.com/google/uuid"
)

// Walker traverses reply trees on top of the storage adapter. Descent is
// breadth-first, one query per tree level, so the query count for a whole
// thread is bounded by its depth rather than its size.
type Walker struct {
	db database.DBAdapter
}

func NewWalker(db database.DBAdapter) *Walker {
	return &Walker{db: db}
}

// RootOf follows parent pointers up to the thread root. A parentless message
// is its own root. A cycle in parent pointers means corrupted data and is
// reported as an error rather than looping.
func (w *Walker) RootOf(ctx context.Context, msg *models.Message) (*models.Message, error) {
	seen := map[uuid.UUID]struct{}{msg.ID: {}}
	current := msg
	for current.ParentID != nil {
		parent, err := w.db.GetMessage(ctx, *current.ParentID)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[parent.ID]; ok {
			return nil, utils.NewAppError(utils.ErrDatabase, "parent pointer cycle detected", nil)
		}
		seen[parent.ID] = struct{}{}
		current = parent
	}
	return current, nil
}

// DepthOf counts parent hops to the root: 0 for a thread root, 1 for a direct
// reply, and so on.
func (w *Walker) DepthOf(ctx context.Context, msg *models.Message) (int, error) {
	seen := map[uuid.UUID]struct{}{msg.ID: {}}
	depth := 0
	current := msg
	for current.ParentID != nil {
		parent, err := w.db.GetMessage(ctx, *current.ParentID)
		if err != nil {
			return 0, err
		}
		if _, ok := seen[parent.ID]; ok {
			return 0, utils.NewAppError(utils.ErrDatabase, "parent pointer cycle detected", nil)
		}
		seen[parent.ID] = struct{}{}
		depth++
		current = parent
	}
	return depth, nil
}

// descend collects every message strictly below the given frontier,
// level by level. A message showing up twice means the parent pointers
// form a cycle; that is reported as an error rather than looping.
func (w *Walker) descend(ctx context.Context, frontier []uuid.UUID) ([]*models.Message, error) {
	seen := make(map[uuid.UUID]struct{}, len(frontier))
	for _, id := range frontier {
		seen[id] = struct{}{}
	}
	var collected []*models.Message
	for len(frontier) > 0 {
		level, err := w.db.GetRepliesTo(ctx, frontier)
		if err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for _, msg := range level {
			if _, ok := seen[msg.ID]; ok {
				return nil, utils.NewAppError(utils.ErrDatabase, "parent pointer cycle detected", nil)
			}
			seen[msg.ID] = struct{}{}
			collected = append(collected, msg)
			frontier = append(frontier, msg.ID)
		}
	}
	return collected, nil
}

// ThreadMessages returns the root followed by all of its descendants in
// breadth-first order, each level sorted chronologically.
func (w *Walker) ThreadMessages(ctx context.Context, rootID uuid.UUID) ([]*models.Message, error) {
	root, err := w.db.GetMessage(ctx, rootID)
	if err != nil {
		return nil, err
	}
	descendants, err := w.descend(ctx, []uuid.UUID{root.ID})
	if err != nil {
		return nil, err
	}
	return append([]*models.Message{root}, descendants...), nil
}

// AllReplies returns every message below the given one, breadth-first.
func (w *Walker) AllReplies(ctx context.Context, messageID uuid.UUID) ([]*models.Message, error) {
	if _, err := w.db.GetMessage(ctx, messageID); err != nil {
		return nil, err
	}
	return w.descend(ctx, []uuid.UUID{messageID})
}

// DirectReplies returns only the immediate children, chronologically.
func (w *Walker) DirectReplies(ctx context.Context, messageID uuid.UUID) ([]*models.Message, error) {
	if _, err := w.db.GetMessage(ctx, messageID); err != nil {
		return nil, err
	}
	return w.db.GetRepliesTo(ctx, []uuid.UUID{messageID})
}

// ReplyCount counts all descendants of a message.
func (w *Walker) ReplyCount(ctx context.Context, messageID uuid.UUID) (int, error) {
	replies, err := w.AllReplies(ctx, messageID)
	if err != nil {
		return 0, err
	}
	return len(replies), nil
}

// CanReply reports whether the user may reply to the message: they must be a
// participant of the message itself or of its thread root.
func (w *Walker) CanReply(ctx context.Context, msg *models.Message, userID uuid.UUID) (bool, error) {
	if msg.SenderID == userID || msg.ReceiverID == userID {
		return true, nil
	}
	root, err := w.RootOf(ctx, msg)
	if err != nil {
		return false, err
	}
	return root.SenderID == userID || root.ReceiverID == userID, nil
}
