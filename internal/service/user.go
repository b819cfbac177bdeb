package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/dukerupert/epharmacy/internal/domain"
)

// UserService implements domain.UserService.
type UserService struct {
	users domain.UserStore
}

var _ domain.UserService = (*UserService)(nil)

// NewUserService creates a new UserService instance
func NewUserService(store domain.Store) *UserService {
	return &UserService{users: store.Users()}
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrUserNotFound, "user.get", "failed to load user")
	}
	return u, nil
}

// UpdateProfile applies the non-nil fields of in.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in domain.ProfileUpdate) (*domain.User, error) {
	const op = "user.update_profile"

	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var verr error
	if in.Name != nil {
		if name := strings.TrimSpace(*in.Name); name == "" {
			verr = domain.AddFieldError(verr, "name", "must not be empty")
		} else {
			u.Name = name
		}
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			verr = domain.AddFieldError(verr, "email", "must be a valid email address")
		} else {
			u.Email = email
		}
	}
	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
	}
	if verr != nil {
		return nil, verr
	}

	if err := s.users.Update(ctx, u); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.ErrEmailTaken
		}
		return nil, notFoundOr(err, domain.ErrUserNotFound, op, "failed to update user")
	}
	return u, nil
}

// ListUsers returns a page of accounts for admins.
func (s *UserService) ListUsers(ctx context.Context, page domain.PageRequest) (*domain.Page[domain.User], error) {
	page = page.Normalize(domain.DefaultPageLimit, domain.MaxPageLimit)
	items, total, err := s.users.List(ctx, page)
	if err != nil {
		return nil, storeErr(err, "user.list", "failed to list users")
	}
	return domain.NewPage(items, total, page), nil
}
