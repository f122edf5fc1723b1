package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rpgsocial/platform/internal/auth"
	"github.com/rpgsocial/platform/internal/domain"
	"github.com/rpgsocial/platform/internal/guard"
	"github.com/rpgsocial/platform/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles user registration and login.
type AuthService struct {
	db       repository.DB
	accounts repository.AuthUserRepository
	users    repository.UserRepository
	outbox   repository.OutboxRepository
	jwtMgr   *auth.JWTManager
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	db repository.DB,
	accounts repository.AuthUserRepository,
	users repository.UserRepository,
	outbox repository.OutboxRepository,
	jwtMgr *auth.JWTManager,
) *AuthService {
	return &AuthService{
		db:       db,
		accounts: accounts,
		users:    users,
		outbox:   outbox,
		jwtMgr:   jwtMgr,
	}
}

// RegisterInput holds the registration request fields.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// AuthResult is returned on successful registration or login.
type AuthResult struct {
	Token    string    `json:"token"`
	UserID   uuid.UUID `json:"user_id"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
	XP       int64     `json:"xp"`
	Level    int       `json:"level"`
}

// Register creates a new account within a single transaction. The user row
// starts at xp=0, level=1.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if err := domain.ValidateEmail(input.Email); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if len(input.Password) < 8 {
		return nil, domain.ErrValidation("password must be at least 8 characters")
	}
	if err := domain.ValidateUsername(input.Username); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	existing, err := s.accounts.FindByEmail(ctx, s.db, input.Email)
	if err != nil {
		return nil, domain.ErrInternal("find user", err)
	}
	if existing != nil {
		return nil, domain.ErrConflict("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.ErrInternal("hash password", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	userID := uuid.New()

	// The users row must exist before auth_users: its FK is checked per
	// statement, not at commit.
	user := &domain.User{
		ID:       userID,
		Username: input.Username,
	}
	if err := s.users.Create(ctx, tx, user); err != nil {
		return nil, domain.ErrInternal("create user", err)
	}

	account := &domain.AuthUser{
		ID:           userID,
		Email:        input.Email,
		PasswordHash: string(hash),
	}
	if err := s.accounts.Create(ctx, tx, account); err != nil {
		return nil, domain.ErrInternal("create auth user", err)
	}

	if err := s.outbox.Insert(ctx, tx, domain.NewUserCreatedEvent(userID, input.Email, input.Username)); err != nil {
		return nil, domain.ErrInternal("insert user event", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	token, err := s.jwtMgr.GenerateToken(auth.RealmUser, userID, input.Email, "")
	if err != nil {
		return nil, domain.ErrInternal("generate token", err)
	}

	return &AuthResult{
		Token:    token,
		UserID:   userID,
		Email:    input.Email,
		Username: input.Username,
		XP:       user.XP,
		Level:    user.Level,
	}, nil
}

// LoginInput holds the login request fields. IP is filled in by the handler
// from the connection, not the body.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	IP       string `json:"-"`
}

// Login authenticates a user and returns a JWT. Repeated failures for the
// same email lock the account for a cooldown window.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	if err := guard.CheckLocked(ctx, s.db, input.Email, string(auth.RealmUser)); err != nil {
		return nil, err
	}

	account, err := s.accounts.FindByEmail(ctx, s.db, input.Email)
	if err != nil {
		return nil, domain.ErrInternal("find user", err)
	}
	if account == nil {
		guard.RecordAttempt(ctx, s.db, input.Email, string(auth.RealmUser), input.IP, false)
		return nil, domain.ErrUnauthorized("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(input.Password)); err != nil {
		guard.RecordAttempt(ctx, s.db, input.Email, string(auth.RealmUser), input.IP, false)
		return nil, domain.ErrUnauthorized("invalid credentials")
	}

	guard.RecordAttempt(ctx, s.db, input.Email, string(auth.RealmUser), input.IP, true)

	user, err := s.users.FindByID(ctx, s.db, account.ID)
	if err != nil {
		return nil, domain.ErrInternal("find user record", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound("user", account.ID.String())
	}

	token, err := s.jwtMgr.GenerateToken(auth.RealmUser, account.ID, account.Email, "")
	if err != nil {
		return nil, domain.ErrInternal("generate token", err)
	}

	return &AuthResult{
		Token:    token,
		UserID:   account.ID,
		Email:    account.Email,
		Username: user.Username,
		XP:       user.XP,
		Level:    user.Level,
	}, nil
}
