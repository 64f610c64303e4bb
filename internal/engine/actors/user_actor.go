package actors

import (
	stdctx "context"
	"log"
	"strings"
	"time"

	"threadpost/internal/database"
	"threadpost/internal/middleware"
	"threadpost/internal/models"
	"threadpost/internal/types"
	"threadpost/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Message types for UserSupervisor
type (
	RegisterUserMsg struct {
		Username    string `json:"username"`
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"displayName"`
	}

	LoginMsg struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	GetUserProfileMsg struct {
		UserID uuid.UUID `json:"userId"`
	}

	GetUserDataSummaryMsg struct {
		UserID uuid.UUID `json:"userId"`
	}

	DeleteUserMsg struct {
		UserID uuid.UUID `json:"userId"`
	}
)

// DeleteUserResult reports what the account deletion removed.
type DeleteUserResult struct {
	UserID  uuid.UUID                 `json:"userId"`
	Deleted bool                      `json:"deleted"`
	Removed *database.UserDataSummary `json:"removed"`
}

// UserSupervisor manages user accounts: registration, login, profile reads
// and the account-deletion cascade.
type UserSupervisor struct {
	db database.DBAdapter
}

func NewUserSupervisor(db database.DBAdapter) actor.Actor {
	return &UserSupervisor{db: db}
}

func (s *UserSupervisor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("UserSupervisor started with PID: %v", context.Self())

	case *RegisterUserMsg:
		s.handleRegister(context, msg)
	case *LoginMsg:
		s.handleLogin(context, msg)
	case *GetUserProfileMsg:
		s.handleGetProfile(context, msg)
	case *GetUserDataSummaryMsg:
		s.handleGetDataSummary(context, msg)
	case *DeleteUserMsg:
		s.handleDeleteUser(context, msg)
	}
}

func (s *UserSupervisor) handleRegister(context actor.Context, msg *RegisterUserMsg) {
	ctx := stdctx.Background()

	if strings.TrimSpace(msg.Username) == "" || strings.TrimSpace(msg.Email) == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "username and email are required", nil))
		return
	}
	if len(msg.Password) < 8 {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "password must be at least 8 characters", nil))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(msg.Password), 14)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "failed to hash password", err))
		return
	}

	now := time.Now()
	user := &models.User{
		ID:             uuid.New(),
		Username:       msg.Username,
		Email:          msg.Email,
		DisplayName:    msg.DisplayName,
		HashedPassword: string(hashed),
		CreatedAt:      now,
		UpdatedAt:      now,
		LastActive:     now,
	}

	if err := s.db.SaveUser(ctx, user); err != nil {
		context.Respond(err)
		return
	}

	log.Printf("Registered user %s (%s)", user.Username, user.ID)
	context.Respond(user)
}

func (s *UserSupervisor) handleLogin(context actor.Context, msg *LoginMsg) {
	ctx := stdctx.Background()

	user, err := s.db.GetUserByEmail(ctx, msg.Email)
	if err != nil {
		context.Respond(&types.LoginResponse{
			Success: false,
			Error:   "Invalid credentials",
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(msg.Password)); err != nil {
		context.Respond(&types.LoginResponse{
			Success: false,
			Error:   "Invalid credentials",
		})
		return
	}

	token, err := middleware.GenerateToken(user.ID)
	if err != nil {
		log.Printf("Failed to generate auth token: %v", err)
		context.Respond(&types.LoginResponse{
			Success: false,
			Error:   "Authentication error",
		})
		return
	}

	if err := s.db.UpdateUserActivity(ctx, user.ID); err != nil {
		log.Printf("Warning: failed to update user activity: %v", err)
	}

	log.Printf("Login successful for user: %s", user.Username)
	context.Respond(&types.LoginResponse{
		Success: true,
		Token:   token,
		UserID:  user.ID,
	})
}

func (s *UserSupervisor) handleGetProfile(context actor.Context, msg *GetUserProfileMsg) {
	ctx := stdctx.Background()

	user, err := s.db.GetUser(ctx, msg.UserID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(user)
}

func (s *UserSupervisor) handleGetDataSummary(context actor.Context, msg *GetUserDataSummaryMsg) {
	ctx := stdctx.Background()

	summary, err := s.db.GetUserDataSummary(ctx, msg.UserID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(summary)
}

func (s *UserSupervisor) handleDeleteUser(context actor.Context, msg *DeleteUserMsg) {
	ctx := stdctx.Background()

	// Snapshot what will go before the cascade runs, so the response can
	// report it.
	summary, err := s.db.GetUserDataSummary(ctx, msg.UserID)
	if err != nil {
		context.Respond(err)
		return
	}

	if err := s.db.DeleteUser(ctx, msg.UserID); err != nil {
		context.Respond(err)
		return
	}

	log.Printf("Deleted user %s (removed %d sent, %d received messages)",
		msg.UserID, summary.SentMessages, summary.ReceivedMessages)
	context.Respond(&DeleteUserResult{
		UserID:  msg.UserID,
		Deleted: true,
		Removed: summary,
	})
}
