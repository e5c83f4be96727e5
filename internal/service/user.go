package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shelfkeep/library-server/internal/domain"
	domainerrors "github.com/shelfkeep/library-server/internal/errors"
	"github.com/shelfkeep/library-server/internal/logger"
	"github.com/shelfkeep/library-server/internal/store"
	"github.com/shelfkeep/library-server/internal/validation"
)

// UserService manages library patrons.
type UserService struct {
	store     store.Store
	logger    *slog.Logger
	validator *validation.Validator
}

// NewUserService creates a new user service.
func NewUserService(store store.Store, logger *slog.Logger) *UserService {
	return &UserService{
		store:     store,
		logger:    logger,
		validator: validation.New(),
	}
}

func (s *UserService) log(ctx context.Context) *slog.Logger {
	return logger.FromContext(ctx, s.logger)
}

// UserRequest contains the mutable fields of a user.
type UserRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=100"`
	Email string `json:"email" validate:"required,email_address"`
}

// UpdateUserRequest is a UserRequest that may repeat the target id.
type UpdateUserRequest struct {
	ID int64 `json:"id"`
	UserRequest
}

// ListUsers returns every user.
func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, internalError(s.log(ctx), "list users failed", err)
	}
	return users, nil
}

// GetUser returns a single user.
func (s *UserService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFoundf("user %d not found", id)
	}
	if err != nil {
		return nil, internalError(s.log(ctx), "get user failed", err, "user_id", id)
	}
	return u, nil
}

// CreateUser registers a user with a unique email.
func (s *UserService) CreateUser(ctx context.Context, req UserRequest) (*domain.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, req.Email, 0); err != nil {
		return nil, err
	}

	u := &domain.User{Name: req.Name, Email: req.Email}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, emailTaken(req.Email)
		}
		return nil, internalError(s.log(ctx), "create user failed", err)
	}

	s.log(ctx).Info("user created", "user_id", u.ID)
	return u, nil
}

// UpdateUser overwrites name and email of an existing user.
func (s *UserService) UpdateUser(ctx context.Context, id int64, req UpdateUserRequest) (*domain.User, error) {
	if err := idMismatch(id, req.ID); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.GetUser(ctx, id); err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, req.Email, id); err != nil {
		return nil, err
	}

	u := &domain.User{ID: id, Name: req.Name, Email: req.Email}
	if err := s.store.UpdateUser(ctx, u); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			// Deleted between the read and the write.
			return nil, domainerrors.NotFoundf("user %d not found", id)
		case errors.Is(err, store.ErrAlreadyExists):
			return nil, emailTaken(req.Email)
		}
		return nil, internalError(s.log(ctx), "update user failed", err, "user_id", id)
	}

	s.log(ctx).Info("user updated", "user_id", id)
	return u, nil
}

// DeleteUser removes a user. Users with loan records are protected by the
// store's foreign key, reported as a conflict.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if _, err := s.GetUser(ctx, id); err != nil {
		return err
	}

	if err := s.store.DeleteUser(ctx, id); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return domainerrors.NotFoundf("user %d not found", id)
		case errors.Is(err, store.ErrForeignKey):
			s.log(ctx).Warn("delete of user with loan records rejected", "user_id", id)
			return domainerrors.Conflictf("user %d has loan records", id)
		}
		return internalError(s.log(ctx), "delete user failed", err, "user_id", id)
	}

	s.log(ctx).Info("user deleted", "user_id", id)
	return nil
}

// ensureEmailFree fails with a conflict if email belongs to a user other than selfID.
func (s *UserService) ensureEmailFree(ctx context.Context, email string, selfID int64) error {
	existing, err := s.store.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil
	case err != nil:
		return internalError(s.log(ctx), "lookup user by email failed", err)
	case existing.ID != selfID:
		s.log(ctx).Warn("email already in use", "user_id", existing.ID)
		return emailTaken(email)
	}
	return nil
}

func emailTaken(email string) error {
	return domainerrors.Conflictf("email %s is already in use", email)
}
