package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/starter-kit/account-service/internal/auth"
	"github.com/starter-kit/account-service/internal/domain"
	"github.com/starter-kit/account-service/internal/events"
	"github.com/starter-kit/account-service/internal/repository"
	apperrors "github.com/starter-kit/account-service/pkg/util"
)

// AdminUserInput is the field set an admin controls, including role and
// active status.
type AdminUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Role      domain.Role
	IsActive  bool
}

// UserListing is one page of the management listing plus its aggregates.
type UserListing struct {
	Users      []*domain.User
	Total      int
	Page       int
	PageSize   int
	TotalPages int
	PrevPage   int
	NextPage   int
	Counts     repository.RoleCounts
}

// UserAdminService implements the admin-facing user management operations.
type UserAdminService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	bcryptCost int
}

// NewUserAdminService builds the service.
func NewUserAdminService(users repository.UserRepository, dispatcher events.Dispatcher, bcryptCost int) *UserAdminService {
	return &UserAdminService{users: users, dispatcher: dispatcher, bcryptCost: bcryptCost}
}

// List returns a page of users matching the filter, newest first, with role
// counts for the dashboard header.
func (s *UserAdminService) List(ctx context.Context, filter repository.ListFilter) (*UserListing, error) {
	if filter.PageSize <= 0 {
		filter.PageSize = repository.DefaultPageSize
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	counts, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, err
	}

	totalPages := (total + filter.PageSize - 1) / filter.PageSize
	if totalPages < 1 {
		totalPages = 1
	}

	return &UserListing{
		Users:      users,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
		PrevPage:   filter.Page - 1,
		NextPage:   filter.Page + 1,
		Counts:     counts,
	}, nil
}

// Get loads a user for the edit form.
func (s *UserAdminService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	return user, nil
}

// Create stores an admin-provisioned account with an explicitly chosen role,
// then publishes the registered event so the welcome email goes out. A
// missing password is rejected before anything is persisted.
func (s *UserAdminService) Create(ctx context.Context, input AdminUserInput, password string) (*domain.User, error) {
	if password == "" {
		return nil, apperrors.NewValidationError("password is required", map[string]any{
			"password": "password is required when creating a user",
		})
	}
	if err := s.ensureEmailFree(ctx, input.Email, ""); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		Phone:        input.Phone,
		Role:         input.Role,
		IsActive:     input.IsActive,
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

// Update applies the admin field set. The inactive state is captured before
// binding; only the inactive-to-active flip publishes the activated event.
// Every other change, including active-to-inactive, is silent.
func (s *UserAdminService) Update(ctx context.Context, id string, input AdminUserInput) (*domain.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	wasInactive := !user.IsActive

	if input.Email != user.Email {
		if err := s.ensureEmailFree(ctx, input.Email, user.ID); err != nil {
			return nil, err
		}
	}

	user.FirstName = input.FirstName
	user.LastName = input.LastName
	user.Email = input.Email
	user.Phone = input.Phone
	user.Role = input.Role
	user.IsActive = input.IsActive

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}

	if wasInactive && user.IsActive {
		_ = s.dispatcher.Publish(ctx, events.Event{
			Type:      events.EventUserActivated,
			User:      user,
			Timestamp: time.Now(),
		})
	}
	return user, nil
}

// Delete removes the account immediately. There is no soft delete; deleting
// an id that vanished under a concurrent request surfaces as not found.
func (s *UserAdminService) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", nil)
		}
		return err
	}
	return nil
}

func (s *UserAdminService) ensureEmailFree(ctx context.Context, email, selfID string) error {
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
