package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bookcourier/book-courier-api/internal/application"
	"github.com/bookcourier/book-courier-api/internal/domain"
	"github.com/bookcourier/book-courier-api/internal/infrastructure/persistence/postgres"
	"github.com/google/uuid"
)

// CreateUserCommand registers an account. Registration is idempotent
// on email: re-registering an existing mailbox is not an error.
type CreateUserCommand struct {
	Email string
	Name  string
}

// UserService manages account records.
type UserService struct {
	users  application.UserRepository
	logger *slog.Logger
}

func NewUserService(users application.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		users:  users,
		logger: logger,
	}
}

// Create registers a user. The second return value reports whether the
// email was already registered, in which case the existing record is
// returned unchanged.
func (s *UserService) Create(ctx context.Context, cmd CreateUserCommand) (*domain.User, bool, error) {
	if cmd.Email == "" {
		return nil, false, application.NewValidationError("email is required")
	}

	existing, err := s.users.FindByEmail(ctx, cmd.Email)
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, postgres.ErrUserNotFound) {
		return nil, false, application.NewInternalError(err)
	}

	user := &domain.User{
		ID:        uuid.New().String(),
		Email:     cmd.Email,
		Name:      cmd.Name,
		Role:      "user",
		CreatedAt: time.Now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		// Two registrations can race past the read; the email unique
		// constraint settles it.
		if postgres.IsUniqueViolation(err) {
			existing, ferr := s.users.FindByEmail(ctx, cmd.Email)
			if ferr != nil {
				return nil, false, application.NewInternalError(ferr)
			}
			return existing, true, nil
		}
		return nil, false, application.NewInternalError(err)
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return user, false, nil
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	return users, nil
}

// Role returns the role recorded for email, defaulting to "user" for
// unknown mailboxes so the storefront can always render something.
func (s *UserService) Role(ctx context.Context, email string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			return "user", nil
		}
		return "", application.NewInternalError(err)
	}
	return user.Role, nil
}

// UpdateProfile changes a user's name and/or role. Nil fields are left
// untouched.
func (s *UserService) UpdateProfile(ctx context.Context, id string, name, role *string) (*application.UpdateOutcome, error) {
	if name == nil && role == nil {
		return nil, application.NewValidationError("No valid update field provided")
	}

	outcome, err := s.users.Update(ctx, id, name, role)
	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			return nil, application.NewNotFoundError("user not found")
		}
		return nil, application.NewInternalError(err)
	}
	return outcome, nil
}
