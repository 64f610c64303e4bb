package thread

import (
	"context"
	"testing"
	"time"

	"threadpost/internal/database"
	"threadpost/internal/models"
	"threadpost/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fixture struct {
	db     *database.MemoryDB
	walker *Walker
	alice  *models.User
	bob    *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := database.NewMemoryDB()
	f := &fixture{
		db:     db,
		walker: NewWalker(db),
		alice:  &models.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com"},
		bob:    &models.User{ID: uuid.New(), Username: "bob", Email: "bob@example.com"},
	}
	assert.NoError(t, db.SaveUser(context.Background(), f.alice))
	assert.NoError(t, db.SaveUser(context.Background(), f.bob))
	return f
}

func (f *fixture) message(t *testing.T, sender, receiver *models.User, content string, parentID *uuid.UUID) *models.Message {
	t.Helper()
	msg := &models.Message{
		ID:         uuid.New(),
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Content:    content,
		ParentID:   parentID,
		SentAt:     time.Now(),
	}
	assert.NoError(t, f.db.SaveMessage(context.Background(), msg))
	return msg
}

func TestRootAndDepth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root := f.message(t, f.alice, f.bob, "root", nil)
	reply := f.message(t, f.bob, f.alice, "reply", &root.ID)
	deep := f.message(t, f.alice, f.bob, "deep", &reply.ID)

	for _, tc := range []struct {
		msg   *models.Message
		depth int
	}{
		{root, 0},
		{reply, 1},
		{deep, 2},
	} {
		got, err := f.walker.RootOf(ctx, tc.msg)
		assert.NoError(t, err)
		assert.Equal(t, root.ID, got.ID)

		depth, err := f.walker.DepthOf(ctx, tc.msg)
		assert.NoError(t, err)
		assert.Equal(t, tc.depth, depth)
	}
}

func TestThreadMessagesLevelOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root := f.message(t, f.alice, f.bob, "root", nil)
	r1 := f.message(t, f.bob, f.alice, "r1", &root.ID)
	r2 := f.message(t, f.bob, f.alice, "r2", &root.ID)
	r1a := f.message(t, f.alice, f.bob, "r1a", &r1.ID)
	f.message(t, f.alice, f.bob, "other thread", nil)

	messages, err := f.walker.ThreadMessages(ctx, root.ID)
	assert.NoError(t, err)
	assert.Len(t, messages, 4)

	// Root first, then levels in order
	assert.Equal(t, root.ID, messages[0].ID)
	level1 := []uuid.UUID{messages[1].ID, messages[2].ID}
	assert.Contains(t, level1, r1.ID)
	assert.Contains(t, level1, r2.ID)
	assert.Equal(t, r1a.ID, messages[3].ID)
}

func TestThreadQueryCountBoundedByDepth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A wide two-level tree: many siblings must not add queries.
	root := f.message(t, f.alice, f.bob, "root", nil)
	for i := 0; i < 10; i++ {
		reply := f.message(t, f.bob, f.alice, "reply", &root.ID)
		f.message(t, f.alice, f.bob, "nested", &reply.ID)
	}

	f.db.ResetQueryCount()
	messages, err := f.walker.ThreadMessages(ctx, root.ID)
	assert.NoError(t, err)
	assert.Len(t, messages, 21)

	// 1 root fetch + one query per level (2 levels with children, 1 empty)
	assert.LessOrEqual(t, f.db.QueryCount(), int64(4))
}

func TestRepliesAndCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root := f.message(t, f.alice, f.bob, "root", nil)
	r1 := f.message(t, f.bob, f.alice, "r1", &root.ID)
	f.message(t, f.bob, f.alice, "r2", &root.ID)
	f.message(t, f.alice, f.bob, "r1a", &r1.ID)

	direct, err := f.walker.DirectReplies(ctx, root.ID)
	assert.NoError(t, err)
	assert.Len(t, direct, 2)

	all, err := f.walker.AllReplies(ctx, root.ID)
	assert.NoError(t, err)
	assert.Len(t, all, 3)

	count, err := f.walker.ReplyCount(ctx, root.ID)
	assert.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = f.walker.ReplyCount(ctx, r1.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

// cyclicStore serves two messages whose parent pointers form a loop,
// the kind of corruption the walker must refuse to follow.
type cyclicStore struct {
	database.DBAdapter
	a, b *models.Message
}

func (c *cyclicStore) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	if id == c.a.ID {
		return c.a, nil
	}
	return c.b, nil
}

func (c *cyclicStore) GetRepliesTo(ctx context.Context, parentIDs []uuid.UUID) ([]*models.Message, error) {
	var result []*models.Message
	for _, id := range parentIDs {
		if id == c.a.ID {
			result = append(result, c.b)
		} else {
			result = append(result, c.a)
		}
	}
	return result, nil
}

func TestCycleDetection(t *testing.T) {
	ctx := context.Background()

	a := &models.Message{ID: uuid.New(), Content: "a"}
	b := &models.Message{ID: uuid.New(), Content: "b", ParentID: &a.ID}
	a.ParentID = &b.ID

	walker := NewWalker(&cyclicStore{a: a, b: b})

	_, err := walker.RootOf(ctx, a)
	assert.True(t, utils.IsErrorCode(err, utils.ErrDatabase))

	_, err = walker.DepthOf(ctx, b)
	assert.True(t, utils.IsErrorCode(err, utils.ErrDatabase))

	_, err = walker.AllReplies(ctx, a.ID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrDatabase))

	_, err = walker.ThreadMessages(ctx, b.ID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrDatabase))
}

func TestCanReply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	carol := &models.User{ID: uuid.New(), Username: "carol", Email: "carol@example.com"}
	assert.NoError(t, f.db.SaveUser(ctx, carol))

	root := f.message(t, f.alice, f.bob, "root", nil)
	reply := f.message(t, f.bob, f.alice, "reply", &root.ID)

	for _, user := range []*models.User{f.alice, f.bob} {
		ok, err := f.walker.CanReply(ctx, reply, user.ID)
		assert.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := f.walker.CanReply(ctx, reply, carol.ID)
	assert.NoError(t, err)
	assert.False(t, ok)
}
