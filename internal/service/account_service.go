package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/starter-kit/account-service/internal/auth"
	"github.com/starter-kit/account-service/internal/domain"
	"github.com/starter-kit/account-service/internal/events"
	"github.com/starter-kit/account-service/internal/notify"
	"github.com/starter-kit/account-service/internal/repository"
	apperrors "github.com/starter-kit/account-service/pkg/util"
)

// ErrInvalidCredentials rejects bad email/password combinations without
// revealing which part was wrong.
var ErrInvalidCredentials = apperrors.NewUnauthorized("invalid credentials")

// RequestOrigin captures where a request came from, for alert emails.
type RequestOrigin struct {
	IPAddress string
	UserAgent string
}

// RegisterInput is the self-registration payload after form validation.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// ProfileInput is the self-service profile payload. Role and status are
// deliberately absent; only admins touch those.
type ProfileInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// AccountService coordinates self-service account flows: registration,
// login, profile edits, password change and reset.
type AccountService struct {
	users      repository.UserRepository
	resets     *auth.ResetTokenManager
	dispatcher events.Dispatcher
	mailer     *notify.Dispatcher
	bcryptCost int
}

// AccountDependencies bundles collaborators for the account service.
type AccountDependencies struct {
	UserRepo   repository.UserRepository
	ResetsMgr  *auth.ResetTokenManager
	Dispatcher events.Dispatcher
	Mailer     *notify.Dispatcher
}

// NewAccountService builds the service.
func NewAccountService(deps AccountDependencies, bcryptCost int) *AccountService {
	return &AccountService{
		users:      deps.UserRepo,
		resets:     deps.ResetsMgr,
		dispatcher: deps.Dispatcher,
		mailer:     deps.Mailer,
		bcryptCost: bcryptCost,
	}
}

// Register creates a new account with the DEFAULT role, then publishes the
// registered event. Persistence always happens before the event leaves.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if err := s.ensureEmailFree(ctx, input.Email, ""); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		Role:         domain.RoleDefault,
		IsActive:     true,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	_ = s.dispatcher.Publish(ctx, events.Event{
		Type:      events.EventUserRegistered,
		User:      user,
		Timestamp: time.Now(),
	})
	return user, nil
}

// Authenticate verifies credentials and publishes the sign-in alert event.
// The alert fires on every successful login; there is no trusted-device
// memory.
func (s *AccountService) Authenticate(ctx context.Context, email, password string, origin RequestOrigin) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	_ = s.dispatcher.Publish(ctx, events.Event{
		Type:      events.EventUserLoggedIn,
		User:      user,
		Timestamp: time.Now(),
		Payload: events.LoginPayload{
			IPAddress: origin.IPAddress,
			UserAgent: origin.UserAgent,
		},
	})
	return user, nil
}

// UpdateProfile applies the self-service field set.
func (s *AccountService) UpdateProfile(ctx context.Context, user *domain.User, input ProfileInput) error {
	if input.Email != user.Email {
		if err := s.ensureEmailFree(ctx, input.Email, user.ID); err != nil {
			return err
		}
	}

	user.FirstName = input.FirstName
	user.LastName = input.LastName
	user.Email = input.Email
	user.Phone = input.Phone
	return s.users.Update(ctx, user)
}

// ChangePassword verifies the current password, persists the new hash and
// publishes the changed-password alert with the request origin.
func (s *AccountService) ChangePassword(ctx context.Context, user *domain.User, currentPassword, newPassword string, origin RequestOrigin) error {
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewValidationError("password change failed", map[string]any{
			"current_password": "current password is incorrect",
		})
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	_ = s.dispatcher.Publish(ctx, events.Event{
		Type:      events.EventPasswordChanged,
		User:      user,
		Timestamp: time.Now(),
		Payload:   events.PasswordChangedPayload{IPAddress: origin.IPAddress},
	})
	return nil
}

// RequestPasswordReset emails a single-use reset link. Unknown addresses are
// ignored silently so the endpoint does not leak which emails exist.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}

	token, err := s.resets.GenerateToken(user.ID)
	if err != nil {
		return err
	}

	s.mailer.Dispatch(
		"Password reset for your Starter Kit account",
		"emails/password_reset",
		map[string]any{
			"user":  user,
			"token": token,
		},
		[]string{user.Email},
	)
	return nil
}

// ConfirmPasswordReset redeems the token and stores the new password.
func (s *AccountService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	userID, err := s.resets.Redeem(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrResetTokenInvalid) {
			return apperrors.NewValidationError("reset link is invalid or expired", nil)
		}
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", nil)
		}
		return err
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}

func (s *AccountService) ensureEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	if existing.ID == selfID {
		return nil
	}
	return apperrors.NewConflict("email already registered", map[string]any{"email": email})
}
