package engine

import (
	"threadpost/internal/database"
	"threadpost/internal/engine/actors"
	"threadpost/internal/hooks"
	"threadpost/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

// Engine coordinates communication between actors
type Engine struct {
	messageActor      *actor.PID
	notificationActor *actor.PID
	userSupervisor    *actor.PID
}

// NewEngine spawns the actor tree. All actors share one storage adapter and
// one hook registry, so lifecycle side effects are consistent no matter which
// actor triggered the write.
func NewEngine(system *actor.ActorSystem, db database.DBAdapter, registry *hooks.Registry, metrics *utils.MetricsCollector) *Engine {
	context := system.Root

	messageProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewMessageActor(db, registry, metrics)
	})
	messagePID := context.Spawn(messageProps)

	notificationProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewNotificationActor(db)
	})
	notificationPID := context.Spawn(notificationProps)

	userProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewUserSupervisor(db)
	})
	userPID := context.Spawn(userProps)

	return &Engine{
		messageActor:      messagePID,
		notificationActor: notificationPID,
		userSupervisor:    userPID,
	}
}

// GetMessageActor returns the PID of the message actor
func (e *Engine) GetMessageActor() *actor.PID {
	return e.messageActor
}

// GetNotificationActor returns the PID of the notification actor
func (e *Engine) GetNotificationActor() *actor.PID {
	return e.notificationActor
}

// GetUserSupervisor returns the PID of the user supervisor
func (e *Engine) GetUserSupervisor() *actor.PID {
	return e.userSupervisor
}
