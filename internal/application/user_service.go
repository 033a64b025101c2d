package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/meeting-rooms/internal/persistence"
)

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	CreateUser(ctx context.Context, user User, passwordHash string) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
}

// UserService handles account signup and lookup.
type UserService struct {
	users     UserRepository
	hash      PasswordHasher
	validator *inputValidator
	now       func() time.Time
	logger    *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository, hash PasswordHasher, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, hash, now, nil)
}

// NewUserServiceWithLogger wires dependencies with a specified logger.
func NewUserServiceWithLogger(users UserRepository, hash PasswordHasher, now func() time.Time, logger *slog.Logger) *UserService {
	if hash == nil {
		hash = HashPassword
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, hash: hash, validator: newInputValidator(), now: now, logger: defaultLogger(logger)}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// Signup creates a regular account.
func (s *UserService) Signup(ctx context.Context, input SignupInput) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	logger := s.loggerWith(ctx, "Signup", "username", input.Username)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "signup failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "account created")
	}()

	vErr := &ValidationError{}
	vErr.merge(s.validator.Struct(input))
	if input.Password1 != "" && input.Password2 != "" && input.Password1 != input.Password2 {
		vErr.add("password2", "The two password fields didn't match.")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var hash string
	hash, err = s.hash(input.Password1)
	if err != nil {
		err = fmt.Errorf("hash password: %w", err)
		return
	}

	user, err = s.users.CreateUser(ctx, User{
		Username:  input.Username,
		Email:     input.Email,
		CreatedAt: s.now(),
	}, hash)
	if err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			err = fieldError("username", "A user with that username already exists.")
			return
		}
		err = mapUserRepoError(err)
	}
	return
}

// GetUser returns the account with id.
func (s *UserService) GetUser(ctx context.Context, id int64) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return User{}, mapUserRepoError(err)
	}
	return user, nil
}

func mapUserRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	default:
		return err
	}
}
