package actors

import (
	stdctx "context"
	"log"
	"strings"
	"time"

	"threadpost/internal/database"
	"threadpost/internal/hooks"
	"threadpost/internal/models"
	"threadpost/internal/thread"
	"threadpost/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// Message types for MessageActor
type (
	CreateMessageMsg struct {
		SenderID   uuid.UUID  `json:"senderId"`
		ReceiverID uuid.UUID  `json:"receiverId"`
		Content    string     `json:"content"`
		ParentID   *uuid.UUID `json:"parentId,omitempty"`
	}

	GetMessageMsg struct {
		MessageID        uuid.UUID `json:"messageId"`
		RequestingUserID uuid.UUID `json:"requestingUserId"`
	}

	EditMessageMsg struct {
		MessageID uuid.UUID `json:"messageId"`
		UserID    uuid.UUID `json:"userId"`
		Content   string    `json:"content"`
		Reason    *string   `json:"reason,omitempty"`
	}

	MarkMessageReadMsg struct {
		MessageID uuid.UUID `json:"messageId"`
		UserID    uuid.UUID `json:"userId"`
	}

	MarkAllReadMsg struct {
		UserID uuid.UUID `json:"userId"`
	}

	DeleteMessageMsg struct {
		MessageID uuid.UUID `json:"messageId"`
		UserID    uuid.UUID `json:"userId"`
	}

	GetUserMessagesMsg struct {
		UserID uuid.UUID `json:"userId"`
	}

	GetConversationMsg struct {
		UserID1 uuid.UUID `json:"userId1"`
		UserID2 uuid.UUID `json:"userId2"`
	}

	GetThreadMsg struct {
		MessageID uuid.UUID `json:"messageId"`
	}

	GetRepliesMsg struct {
		MessageID  uuid.UUID `json:"messageId"`
		DirectOnly bool      `json:"directOnly"`
	}

	GetMessageHistoryMsg struct {
		MessageID uuid.UUID `json:"messageId"`
		UserID    uuid.UUID `json:"userId"`
	}

	GetUnreadMsg struct {
		UserID uuid.UUID `json:"userId"`
	}

	GetInboxMsg struct {
		UserID uuid.UUID `json:"userId"`
	}

	GetUnreadCountMsg struct {
		UserID uuid.UUID `json:"userId"`
	}

	GetUnreadThreadRootsMsg struct {
		UserID uuid.UUID `json:"userId"`
	}
)

// MessageView is a single message enriched with its thread position.
type MessageView struct {
	Message    *models.Message `json:"message"`
	RootID     uuid.UUID       `json:"rootId"`
	Depth      int             `json:"depth"`
	ReplyCount int             `json:"replyCount"`
	CanReply   bool            `json:"canReply"`
}

// ThreadView is a whole thread: root first, then descendants level by level.
type ThreadView struct {
	RootID   uuid.UUID         `json:"rootId"`
	Messages []*models.Message `json:"messages"`
	Count    int               `json:"count"`
}

// MarkReadResult reports whether the read flag actually transitioned.
type MarkReadResult struct {
	MessageID uuid.UUID `json:"messageId"`
	Changed   bool      `json:"changed"`
}

// MarkAllReadResult reports how many messages transitioned.
type MarkAllReadResult struct {
	Updated int64 `json:"updated"`
}

// MessageActor owns message lifecycle operations. Every state change goes
// through the store first and then fires the matching lifecycle hook, so
// notifications and the audit log always describe committed writes.
type MessageActor struct {
	db      database.DBAdapter
	walker  *thread.Walker
	hooks   *hooks.Registry
	metrics *utils.MetricsCollector
}

func NewMessageActor(db database.DBAdapter, registry *hooks.Registry, metrics *utils.MetricsCollector) actor.Actor {
	return &MessageActor{
		db:      db,
		walker:  thread.NewWalker(db),
		hooks:   registry,
		metrics: metrics,
	}
}

func (a *MessageActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("MessageActor started with PID: %v", context.Self())

	case *CreateMessageMsg:
		a.handleCreateMessage(context, msg)
	case *GetMessageMsg:
		a.handleGetMessage(context, msg)
	case *EditMessageMsg:
		a.handleEditMessage(context, msg)
	case *MarkMessageReadMsg:
		a.handleMarkMessageRead(context, msg)
	case *MarkAllReadMsg:
		a.handleMarkAllRead(context, msg)
	case *DeleteMessageMsg:
		a.handleDeleteMessage(context, msg)
	case *GetUserMessagesMsg:
		a.handleGetUserMessages(context, msg)
	case *GetConversationMsg:
		a.handleGetConversation(context, msg)
	case *GetThreadMsg:
		a.handleGetThread(context, msg)
	case *GetRepliesMsg:
		a.handleGetReplies(context, msg)
	case *GetMessageHistoryMsg:
		a.handleGetMessageHistory(context, msg)
	case *GetUnreadMsg:
		a.handleGetUnread(context, msg)
	case *GetInboxMsg:
		a.handleGetInbox(context, msg)
	case *GetUnreadCountMsg:
		a.handleGetUnreadCount(context, msg)
	case *GetUnreadThreadRootsMsg:
		a.handleGetUnreadThreadRoots(context, msg)
	}
}

func (a *MessageActor) handleCreateMessage(context actor.Context, msg *CreateMessageMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	if strings.TrimSpace(msg.Content) == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "message content cannot be empty", nil))
		return
	}

	sender, err := a.db.GetUser(ctx, msg.SenderID)
	if err != nil {
		context.Respond(utils.NewUserNotFoundError(msg.SenderID.String()))
		return
	}
	if _, err := a.db.GetUser(ctx, msg.ReceiverID); err != nil {
		context.Respond(utils.NewUserNotFoundError(msg.ReceiverID.String()))
		return
	}

	if msg.ParentID != nil {
		parent, err := a.db.GetMessage(ctx, *msg.ParentID)
		if err != nil {
			// Only a missing parent is the caller's fault; store failures
			// keep their own code.
			if utils.IsErrorCode(err, utils.ErrNotFound) {
				err = utils.NewAppError(utils.ErrInvalidParent, "parent message does not exist", err)
			}
			context.Respond(err)
			return
		}
		allowed, err := a.walker.CanReply(ctx, parent, msg.SenderID)
		if err != nil {
			context.Respond(err)
			return
		}
		if !allowed {
			context.Respond(utils.NewForbiddenError("not a participant of this thread"))
			return
		}
	}

	now := time.Now()
	newMessage := &models.Message{
		ID:         uuid.New(),
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Content:    msg.Content,
		ParentID:   msg.ParentID,
		SentAt:     now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := a.db.SaveMessage(ctx, newMessage); err != nil {
		context.Respond(err)
		return
	}
	newMessage.SenderUsername = sender.Username
	newMessage.SenderDisplayName = sender.DisplayName

	a.hooks.Fire(ctx, hooks.EventMessageCreated, &hooks.Payload{
		Message: newMessage,
		Sender:  sender,
	})

	a.metrics.AddOperationLatency("create_message", time.Since(startTime))
	log.Printf("New message %s sent from %s to %s", newMessage.ID, msg.SenderID, msg.ReceiverID)
	context.Respond(newMessage)
}

func (a *MessageActor) handleGetMessage(context actor.Context, msg *GetMessageMsg) {
	ctx := stdctx.Background()

	message, err := a.db.GetMessage(ctx, msg.MessageID)
	if err != nil {
		context.Respond(err)
		return
	}

	root, err := a.walker.RootOf(ctx, message)
	if err != nil {
		context.Respond(err)
		return
	}
	depth, err := a.walker.DepthOf(ctx, message)
	if err != nil {
		context.Respond(err)
		return
	}
	replyCount, err := a.walker.ReplyCount(ctx, message.ID)
	if err != nil {
		context.Respond(err)
		return
	}
	canReply, err := a.walker.CanReply(ctx, message, msg.RequestingUserID)
	if err != nil {
		context.Respond(err)
		return
	}

	context.Respond(&MessageView{
		Message:    message,
		RootID:     root.ID,
		Depth:      depth,
		ReplyCount: replyCount,
		CanReply:   canReply,
	})
}

func (a *MessageActor) handleEditMessage(context actor.Context, msg *EditMessageMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	message, err := a.db.GetMessage(ctx, msg.MessageID)
	if err != nil {
		context.Respond(err)
		return
	}
	if message.SenderID != msg.UserID {
		context.Respond(utils.NewForbiddenError("only the sender can edit a message"))
		return
	}
	if strings.TrimSpace(msg.Content) == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "message content cannot be empty", nil))
		return
	}

	// Saving identical content is a full no-op: no counter bump, no history
	// entry, no notification.
	if message.Content == msg.Content {
		context.Respond(message)
		return
	}

	oldContent := message.Content
	if err := a.db.UpdateMessageContent(ctx, msg.MessageID, msg.Content); err != nil {
		context.Respond(err)
		return
	}
	message.Content = msg.Content
	message.Edited = true
	message.EditCount++
	message.UpdatedAt = time.Now()

	sender, err := a.db.GetUser(ctx, message.SenderID)
	if err != nil {
		log.Printf("Edit hooks skipped, sender lookup failed: %v", err)
		context.Respond(message)
		return
	}

	a.hooks.Fire(ctx, hooks.EventMessageEdited, &hooks.Payload{
		Message:    message,
		Sender:     sender,
		OldContent: oldContent,
		EditReason: msg.Reason,
	})

	a.metrics.AddOperationLatency("edit_message", time.Since(startTime))
	context.Respond(message)
}

func (a *MessageActor) handleMarkMessageRead(context actor.Context, msg *MarkMessageReadMsg) {
	ctx := stdctx.Background()

	message, err := a.db.GetMessage(ctx, msg.MessageID)
	if err != nil {
		context.Respond(err)
		return
	}
	if message.ReceiverID != msg.UserID {
		context.Respond(utils.NewForbiddenError("only the receiver can mark a message read"))
		return
	}

	changed, err := a.db.MarkMessageRead(ctx, msg.MessageID)
	if err != nil {
		context.Respond(err)
		return
	}

	// Only an actual unread-to-read transition propagates; repeats are
	// idempotent and fire nothing.
	if changed {
		message.IsRead = true
		a.hooks.Fire(ctx, hooks.EventMessageRead, &hooks.Payload{Message: message})
	}

	context.Respond(&MarkReadResult{MessageID: msg.MessageID, Changed: changed})
}

func (a *MessageActor) handleMarkAllRead(context actor.Context, msg *MarkAllReadMsg) {
	ctx := stdctx.Background()

	updated, err := a.db.MarkAllMessagesRead(ctx, msg.UserID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(&MarkAllReadResult{Updated: updated})
}

func (a *MessageActor) handleDeleteMessage(context actor.Context, msg *DeleteMessageMsg) {
	ctx := stdctx.Background()

	message, err := a.db.GetMessage(ctx, msg.MessageID)
	if err != nil {
		context.Respond(err)
		return
	}
	if message.SenderID != msg.UserID {
		context.Respond(utils.NewForbiddenError("only the sender can delete a message"))
		return
	}

	// Replies, notifications and history entries go with the message.
	if err := a.db.DeleteMessage(ctx, msg.MessageID); err != nil {
		context.Respond(err)
		return
	}

	a.hooks.Fire(ctx, hooks.EventMessageDeleted, &hooks.Payload{Message: message})

	log.Printf("Message %s deleted by %s", msg.MessageID, msg.UserID)
	context.Respond(true)
}

func (a *MessageActor) handleGetUserMessages(context actor.Context, msg *GetUserMessagesMsg) {
	ctx := stdctx.Background()

	messages, err := a.db.GetMessagesByUser(ctx, msg.UserID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(messages)
}

func (a *MessageActor) handleGetConversation(context actor.Context, msg *GetConversationMsg) {
	ctx := stdctx.Background()

	messages, err := a.db.GetConversation(ctx, msg.UserID1, msg.UserID2)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(messages)
}

func (a *MessageActor) handleGetThread(context actor.Context, msg *GetThreadMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	message, err := a.db.GetMessage(ctx, msg.MessageID)
	if err != nil {
		context.Respond(err)
		return
	}
	root, err := a.walker.RootOf(ctx, message)
	if err != nil {
		context.Respond(err)
		return
	}
	messages, err := a.walker.ThreadMessages(ctx, root.ID)
	if err != nil {
		context.Respond(err)
		return
	}

	a.metrics.AddOperationLatency("get_thread", time.Since(startTime))
	context.Respond(&ThreadView{
		RootID:   root.ID,
		Messages: messages,
		Count:    len(messages),
	})
}

func (a *MessageActor) handleGetReplies(context actor.Context, msg *GetRepliesMsg) {
	ctx := stdctx.Background()

	var (
		replies []*models.Message
		err     error
	)
	if msg.DirectOnly {
		replies, err = a.walker.DirectReplies(ctx, msg.MessageID)
	} else {
		replies, err = a.walker.AllReplies(ctx, msg.MessageID)
	}
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(replies)
}

func (a *MessageActor) handleGetMessageHistory(context actor.Context, msg *GetMessageHistoryMsg) {
	ctx := stdctx.Background()

	message, err := a.db.GetMessage(ctx, msg.MessageID)
	if err != nil {
		context.Respond(err)
		return
	}
	// The audit log is participant-only.
	if message.SenderID != msg.UserID && message.ReceiverID != msg.UserID {
		context.Respond(utils.NewForbiddenError("not a participant of this message"))
		return
	}

	entries, err := a.db.GetMessageHistory(ctx, msg.MessageID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(entries)
}

func (a *MessageActor) handleGetUnread(context actor.Context, msg *GetUnreadMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	messages, err := a.db.GetUnreadMessages(ctx, msg.UserID)
	if err != nil {
		context.Respond(err)
		return
	}
	a.metrics.AddOperationLatency("get_unread", time.Since(startTime))
	context.Respond(messages)
}

func (a *MessageActor) handleGetInbox(context actor.Context, msg *GetInboxMsg) {
	ctx := stdctx.Background()

	messages, err := a.db.GetInbox(ctx, msg.UserID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(messages)
}

func (a *MessageActor) handleGetUnreadCount(context actor.Context, msg *GetUnreadCountMsg) {
	ctx := stdctx.Background()

	count, err := a.db.GetUnreadCount(ctx, msg.UserID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(count)
}

func (a *MessageActor) handleGetUnreadThreadRoots(context actor.Context, msg *GetUnreadThreadRootsMsg) {
	ctx := stdctx.Background()

	messages, err := a.db.GetUnreadThreadRoots(ctx, msg.UserID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(messages)
}
