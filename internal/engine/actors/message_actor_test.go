package actors

import (
	stdctx "context"
	"fmt"
	"testing"
	"time"

	"threadpost/internal/database"
	"threadpost/internal/hooks"
	"threadpost/internal/models"
	"threadpost/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type actorFixture struct {
	system *actor.ActorSystem
	pid    *actor.PID
	db     *database.MemoryDB
	alice  *models.User
	bob    *models.User
}

func newActorFixture(t *testing.T) *actorFixture {
	t.Helper()

	db := database.NewMemoryDB()
	registry := hooks.NewRegistry()
	registry.Register(hooks.NewAuditRecorder(db), hooks.EventMessageEdited)
	registry.Register(hooks.NewNotificationFanout(db),
		hooks.EventMessageCreated, hooks.EventMessageEdited, hooks.EventMessageRead)

	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMessageActor(db, registry, utils.NewMetricsCollector())
	})
	pid := system.Root.Spawn(props)

	f := &actorFixture{
		system: system,
		pid:    pid,
		db:     db,
		alice:  &models.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com"},
		bob:    &models.User{ID: uuid.New(), Username: "bob", Email: "bob@example.com", DisplayName: "Bob B."},
	}
	assert.NoError(t, db.SaveUser(stdctx.Background(), f.alice))
	assert.NoError(t, db.SaveUser(stdctx.Background(), f.bob))
	return f
}

func (f *actorFixture) ask(t *testing.T, msg interface{}) interface{} {
	t.Helper()
	future := f.system.Root.RequestFuture(f.pid, msg, 5*time.Second)
	result, err := future.Result()
	assert.NoError(t, err)
	return result
}

func TestCreateMessageNotifiesReceiver(t *testing.T) {
	f := newActorFixture(t)

	result := f.ask(t, &CreateMessageMsg{
		SenderID:   f.alice.ID,
		ReceiverID: f.bob.ID,
		Content:    "hello bob",
	})
	message := result.(*models.Message)
	assert.Equal(t, "hello bob", message.Content)
	assert.False(t, message.IsRead)
	assert.True(t, message.IsThreadRoot())

	notifications, err := f.db.GetNotificationsByUser(stdctx.Background(), f.bob.ID)
	assert.NoError(t, err)
	assert.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationNewMessage, notifications[0].Kind)
	assert.Equal(t, "New message from alice", notifications[0].Title)
	assert.Equal(t, `alice sent you a message: "hello bob"`, notifications[0].Body)
}

func TestCreateMessageValidation(t *testing.T) {
	f := newActorFixture(t)

	result := f.ask(t, &CreateMessageMsg{
		SenderID:   f.alice.ID,
		ReceiverID: f.bob.ID,
		Content:    "   ",
	})
	appErr := result.(*utils.AppError)
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)

	result = f.ask(t, &CreateMessageMsg{
		SenderID:   f.alice.ID,
		ReceiverID: uuid.New(),
		Content:    "hi",
	})
	appErr = result.(*utils.AppError)
	assert.Equal(t, utils.ErrUserNotFound, appErr.Code)

	missingParent := uuid.New()
	result = f.ask(t, &CreateMessageMsg{
		SenderID:   f.alice.ID,
		ReceiverID: f.bob.ID,
		Content:    "hi",
		ParentID:   &missingParent,
	})
	appErr = result.(*utils.AppError)
	assert.Equal(t, utils.ErrInvalidParent, appErr.Code)
}

// faultyStore fails message lookups to mimic a store outage.
type faultyStore struct {
	database.DBAdapter
	failGetMessage bool
}

func (s *faultyStore) GetMessage(ctx stdctx.Context, id uuid.UUID) (*models.Message, error) {
	if s.failGetMessage {
		return nil, utils.NewAppError(utils.ErrDatabase, "store unavailable", nil)
	}
	return s.DBAdapter.GetMessage(ctx, id)
}

func TestCreateReplyStoreFailureKeepsItsCode(t *testing.T) {
	db := database.NewMemoryDB()
	alice := &models.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com"}
	bob := &models.User{ID: uuid.New(), Username: "bob", Email: "bob@example.com"}
	assert.NoError(t, db.SaveUser(stdctx.Background(), alice))
	assert.NoError(t, db.SaveUser(stdctx.Background(), bob))

	parent := &models.Message{
		ID:         uuid.New(),
		SenderID:   alice.ID,
		ReceiverID: bob.ID,
		Content:    "root",
		SentAt:     time.Now(),
	}
	assert.NoError(t, db.SaveMessage(stdctx.Background(), parent))

	store := &faultyStore{DBAdapter: db, failGetMessage: true}
	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMessageActor(store, hooks.NewRegistry(), utils.NewMetricsCollector())
	})
	pid := system.Root.Spawn(props)

	future := system.Root.RequestFuture(pid, &CreateMessageMsg{
		SenderID:   bob.ID,
		ReceiverID: alice.ID,
		Content:    "reply",
		ParentID:   &parent.ID,
	}, 5*time.Second)
	result, err := future.Result()
	assert.NoError(t, err)

	// The parent exists; a failed lookup is not the caller's fault.
	appErr := result.(*utils.AppError)
	assert.Equal(t, utils.ErrDatabase, appErr.Code)
}

func TestReplyPermissions(t *testing.T) {
	f := newActorFixture(t)

	carol := &models.User{ID: uuid.New(), Username: "carol", Email: "carol@example.com"}
	assert.NoError(t, f.db.SaveUser(stdctx.Background(), carol))

	root := f.ask(t, &CreateMessageMsg{
		SenderID:   f.alice.ID,
		ReceiverID: f.bob.ID,
		Content:    "root",
	}).(*models.Message)

	// Participants can reply
	reply := f.ask(t, &CreateMessageMsg{
		SenderID:   f.bob.ID,
		ReceiverID: f.alice.ID,
		Content:    "reply",
		ParentID:   &root.ID,
	}).(*models.Message)
	assert.Equal(t, root.ID, *reply.ParentID)

	// Outsiders cannot
	result := f.ask(t, &CreateMessageMsg{
		SenderID:   carol.ID,
		ReceiverID: f.alice.ID,
		Content:    "intruding",
		ParentID:   &root.ID,
	})
	appErr := result.(*utils.AppError)
	assert.Equal(t, utils.ErrForbidden, appErr.Code)
}

func TestEditMessageRecordsHistoryExactlyOnce(t *testing.T) {
	f := newActorFixture(t)

	message := f.ask(t, &CreateMessageMsg{
		SenderID:   f.alice.ID,
		ReceiverID: f.bob.ID,
		Content:    "first draft",
	}).(*models.Message)

	edited := f.ask(t, &EditMessageMsg{
		MessageID: message.ID,
		UserID:    f.alice.ID,
		Content:   "second draft",
	}).(*models.Message)
	assert.True(t, edited.Edited)
	assert.Equal(t, 1, edited.EditCount)

	history, err := f.db.GetMessageHistory(stdctx.Background(), message.ID)
	assert.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Equal(t, "first draft", history[0].OldContent)
	assert.Equal(t, "second draft", history[0].NewContent)
	assert.Equal(t, f.alice.ID, history[0].EditedBy)

	// Bob gets a second notification for the edit
	notifications, err := f.db.GetNotificationsByUser(stdctx.Background(), f.bob.ID)
	assert.NoError(t, err)
	assert.Len(t, notifications, 2)
}

func TestEditIdenticalContentIsNoOp(t *testing.T) {
	f := newActorFixture(t)

	message := f.ask(t, &CreateMessageMsg{
		SenderID:   f.alice.ID,
		ReceiverID: f.bob.ID,
		Content:    "stable content",
	}).(*models.Message)

	result := f.ask(t, &EditMessageMsg{
		MessageID: message.ID,
		UserID:    f.alice.ID,
		Content:   "stable content",
	}).(*models.Message)
	assert.False(t, result.Edited)
	assert.Equal(t, 0, result.EditCount)

	history, err := f.db.GetMessageHistory(stdctx.Background(), message.ID)
	assert.NoError(t, err)
	assert.Empty(t, history)

	// Only the creation notification exists
	notifications, err := f.db.GetNotificationsByUser(stdctx.Background(), f.bob.ID)
	assert.NoError(t, err)
	assert.Len(t, notifications, 1)
}

func TestEditForbiddenForReceiver(t *testing.T) {
	f := newActorFixture(t)

	message := f.ask(t, &CreateMessageMsg{
		SenderID:   f.alice.ID,
		ReceiverID: f.bob.ID,
		Content:    "alice's words",
	}).(*models.Message)

	result := f.ask(t, &EditMessageMsg{
		MessageID: message.ID,
		UserID:    f.bob.ID,
		Content:   "bob's rewrite",
	})
	appErr := result.(*utils.AppError)
	assert.Equal(t, utils.ErrForbidden, appErr.Code)
}

func TestMarkReadTransitionAndIdempotence(t *testing.T) {
	f := newActorFixture(t)

	message := f.ask(t, &CreateMessageMsg{
		SenderID:   f.alice.ID,
		ReceiverID: f.bob.ID,
		Content:    "unread",
	}).(*models.Message)

	// Sender cannot mark it read
	result := f.ask(t, &MarkMessageReadMsg{MessageID: message.ID, UserID: f.alice.ID})
	appErr := result.(*utils.AppError)
	assert.Equal(t, utils.ErrForbidden, appErr.Code)

	// First mark transitions and clears the notification
	first := f.ask(t, &MarkMessageReadMsg{MessageID: message.ID, UserID: f.bob.ID}).(*MarkReadResult)
	assert.True(t, first.Changed)

	notifications, err := f.db.GetNotificationsByUser(stdctx.Background(), f.bob.ID)
	assert.NoError(t, err)
	assert.Len(t, notifications, 1)
	assert.True(t, notifications[0].IsRead)

	// Second mark is a no-op
	second := f.ask(t, &MarkMessageReadMsg{MessageID: message.ID, UserID: f.bob.ID}).(*MarkReadResult)
	assert.False(t, second.Changed)
}

func TestThreadTraversal(t *testing.T) {
	f := newActorFixture(t)

	root := f.ask(t, &CreateMessageMsg{
		SenderID:   f.alice.ID,
		ReceiverID: f.bob.ID,
		Content:    "root",
	}).(*models.Message)

	reply := f.ask(t, &CreateMessageMsg{
		SenderID:   f.bob.ID,
		ReceiverID: f.alice.ID,
		Content:    "reply",
		ParentID:   &root.ID,
	}).(*models.Message)

	nested := f.ask(t, &CreateMessageMsg{
		SenderID:   f.alice.ID,
		ReceiverID: f.bob.ID,
		Content:    "nested",
		ParentID:   &reply.ID,
	}).(*models.Message)

	// Thread lookup from any member lands on the same root
	for _, id := range []uuid.UUID{root.ID, reply.ID, nested.ID} {
		view := f.ask(t, &GetThreadMsg{MessageID: id}).(*ThreadView)
		assert.Equal(t, root.ID, view.RootID)
		assert.Equal(t, 3, view.Count)
		assert.Equal(t, root.ID, view.Messages[0].ID)
	}

	// Message view carries position data
	view := f.ask(t, &GetMessageMsg{MessageID: nested.ID, RequestingUserID: f.alice.ID}).(*MessageView)
	assert.Equal(t, 2, view.Depth)
	assert.Equal(t, root.ID, view.RootID)
	assert.Equal(t, 0, view.ReplyCount)
	assert.True(t, view.CanReply)

	rootView := f.ask(t, &GetMessageMsg{MessageID: root.ID, RequestingUserID: f.alice.ID}).(*MessageView)
	assert.Equal(t, 0, rootView.Depth)
	assert.Equal(t, 2, rootView.ReplyCount)
}

func TestDeleteMessageCascades(t *testing.T) {
	f := newActorFixture(t)

	root := f.ask(t, &CreateMessageMsg{
		SenderID:   f.alice.ID,
		ReceiverID: f.bob.ID,
		Content:    "root",
	}).(*models.Message)

	f.ask(t, &CreateMessageMsg{
		SenderID:   f.bob.ID,
		ReceiverID: f.alice.ID,
		Content:    "reply",
		ParentID:   &root.ID,
	})

	// Receiver cannot delete
	result := f.ask(t, &DeleteMessageMsg{MessageID: root.ID, UserID: f.bob.ID})
	appErr := result.(*utils.AppError)
	assert.Equal(t, utils.ErrForbidden, appErr.Code)

	// Sender deletes root, subtree goes too
	ok := f.ask(t, &DeleteMessageMsg{MessageID: root.ID, UserID: f.alice.ID}).(bool)
	assert.True(t, ok)

	counts, err := f.db.CountEntities(stdctx.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, counts.Messages)
	assert.Equal(t, 0, counts.Notifications)
}

func TestUnreadProjections(t *testing.T) {
	f := newActorFixture(t)

	root := f.ask(t, &CreateMessageMsg{
		SenderID:   f.alice.ID,
		ReceiverID: f.bob.ID,
		Content:    "root",
	}).(*models.Message)
	f.ask(t, &CreateMessageMsg{
		SenderID:   f.alice.ID,
		ReceiverID: f.bob.ID,
		Content:    "reply",
		ParentID:   &root.ID,
	})

	unread := f.ask(t, &GetUnreadMsg{UserID: f.bob.ID}).([]*models.Message)
	assert.Len(t, unread, 2)

	count := f.ask(t, &GetUnreadCountMsg{UserID: f.bob.ID}).(int)
	assert.Equal(t, len(unread), count)

	roots := f.ask(t, &GetUnreadThreadRootsMsg{UserID: f.bob.ID}).([]*models.Message)
	assert.Len(t, roots, 1)
	assert.Equal(t, root.ID, roots[0].ID)

	marked := f.ask(t, &MarkAllReadMsg{UserID: f.bob.ID}).(*MarkAllReadResult)
	assert.EqualValues(t, 2, marked.Updated)

	count = f.ask(t, &GetUnreadCountMsg{UserID: f.bob.ID}).(int)
	assert.Equal(t, 0, count)
}

func TestMessageHistoryAccessControl(t *testing.T) {
	f := newActorFixture(t)

	carol := &models.User{ID: uuid.New(), Username: "carol", Email: "carol@example.com"}
	assert.NoError(t, f.db.SaveUser(stdctx.Background(), carol))

	message := f.ask(t, &CreateMessageMsg{
		SenderID:   f.alice.ID,
		ReceiverID: f.bob.ID,
		Content:    "v1",
	}).(*models.Message)

	for i := 2; i <= 3; i++ {
		f.ask(t, &EditMessageMsg{
			MessageID: message.ID,
			UserID:    f.alice.ID,
			Content:   fmt.Sprintf("v%d", i),
		})
	}

	entries := f.ask(t, &GetMessageHistoryMsg{MessageID: message.ID, UserID: f.bob.ID}).([]*models.MessageHistory)
	assert.Len(t, entries, 2)
	assert.Equal(t, "v1", entries[0].OldContent)
	assert.Equal(t, "v3", entries[1].NewContent)

	result := f.ask(t, &GetMessageHistoryMsg{MessageID: message.ID, UserID: carol.ID})
	appErr := result.(*utils.AppError)
	assert.Equal(t, utils.ErrForbidden, appErr.Code)
}
