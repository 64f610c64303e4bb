package actors

import (
	stdctx "context"
	"testing"
	"time"

	"threadpost/internal/database"
	"threadpost/internal/models"
	"threadpost/internal/types"
	"threadpost/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func spawnSupervisor(t *testing.T) (*actor.ActorSystem, *actor.PID, *database.MemoryDB) {
	t.Helper()
	db := database.NewMemoryDB()
	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewUserSupervisor(db)
	})
	return system, system.Root.Spawn(props), db
}

func askSupervisor(t *testing.T, system *actor.ActorSystem, pid *actor.PID, msg interface{}) interface{} {
	t.Helper()
	future := system.Root.RequestFuture(pid, msg, 5*time.Second)
	result, err := future.Result()
	assert.NoError(t, err)
	return result
}

func registerTestUser(t *testing.T, system *actor.ActorSystem, pid *actor.PID, username string) uuid.UUID {
	t.Helper()
	result := askSupervisor(t, system, pid, &RegisterUserMsg{
		Username: username,
		Email:    username + "@example.com",
		Password: "longenoughpassword",
	})
	user := result.(*models.User)
	return user.ID
}

func seedTestMessage(t *testing.T, db *database.MemoryDB, sender, receiver uuid.UUID) {
	t.Helper()
	err := db.SaveMessage(stdctx.Background(), &models.Message{
		ID:         uuid.New(),
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    "test message",
		SentAt:     time.Now(),
	})
	assert.NoError(t, err)
}

func TestUserRegistrationAndLogin(t *testing.T) {
	system, pid, _ := spawnSupervisor(t)

	result := askSupervisor(t, system, pid, &RegisterUserMsg{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "longenoughpassword",
	})
	user := result.(*models.User)
	assert.Equal(t, "alice", user.Username)
	assert.NotEmpty(t, user.HashedPassword)
	assert.NotEqual(t, "longenoughpassword", user.HashedPassword)

	login := askSupervisor(t, system, pid, &LoginMsg{
		Email:    "alice@example.com",
		Password: "longenoughpassword",
	}).(*types.LoginResponse)
	assert.True(t, login.Success)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, user.ID, login.UserID)

	badLogin := askSupervisor(t, system, pid, &LoginMsg{
		Email:    "alice@example.com",
		Password: "wrongpassword",
	}).(*types.LoginResponse)
	assert.False(t, badLogin.Success)
	assert.Empty(t, badLogin.Token)
}

func TestRegistrationValidation(t *testing.T) {
	system, pid, _ := spawnSupervisor(t)

	result := askSupervisor(t, system, pid, &RegisterUserMsg{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "short",
	})
	appErr := result.(*utils.AppError)
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)

	registerTestUser(t, system, pid, "alice")
	result = askSupervisor(t, system, pid, &RegisterUserMsg{
		Username: "alice",
		Email:    "other@example.com",
		Password: "longenoughpassword",
	})
	appErr = result.(*utils.AppError)
	assert.Equal(t, utils.ErrUserAlreadyExists, appErr.Code)
}

func TestDeleteUserReportsRemovedData(t *testing.T) {
	system, pid, db := spawnSupervisor(t)
	ctx := stdctx.Background()

	alice := registerTestUser(t, system, pid, "alice")
	bob := registerTestUser(t, system, pid, "bob")

	seedTestMessage(t, db, alice, bob)
	seedTestMessage(t, db, bob, alice)

	result := askSupervisor(t, system, pid, &DeleteUserMsg{UserID: alice}).(*DeleteUserResult)
	assert.True(t, result.Deleted)
	assert.Equal(t, 1, result.Removed.SentMessages)
	assert.Equal(t, 1, result.Removed.ReceivedMessages)

	_, err := db.GetUser(ctx, alice)
	assert.True(t, utils.IsErrorCode(err, utils.ErrUserNotFound))

	counts, err := db.CountEntities(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, counts.Users)
	assert.Equal(t, 0, counts.Messages)
}

func TestDeleteUnknownUser(t *testing.T) {
	system, pid, _ := spawnSupervisor(t)

	result := askSupervisor(t, system, pid, &DeleteUserMsg{UserID: uuid.New()})
	appErr := result.(*utils.AppError)
	assert.Equal(t, utils.ErrUserNotFound, appErr.Code)
}
