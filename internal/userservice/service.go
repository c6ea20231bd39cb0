// Package userservice implements the credential store: the only component
// that reads or writes user accounts and password hashes. It is reachable
// solely over the internal command channel.
package userservice

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmarchuk/gatekeep/internal/common"
	"github.com/dmarchuk/gatekeep/internal/logging"
	"github.com/dmarchuk/gatekeep/internal/models"
	"github.com/dmarchuk/gatekeep/internal/password"
	"github.com/dmarchuk/gatekeep/internal/rpc"
	"github.com/dmarchuk/gatekeep/internal/userservice/repository"
	"github.com/google/uuid"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

type Service struct {
	repo   repository.Repository
	hasher *password.Hasher
	logger logging.Logger
}

func NewService(repo repository.Repository, hasher *password.Hasher, logger logging.Logger) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		logger: logger.With("module", "userservice"),
	}
}

// CreateUser registers a new account. The plaintext password is hashed here
// and discarded; uniqueness is decided by the repository, so two concurrent
// registrations of one email resolve into one account and one conflict.
func (s *Service) CreateUser(ctx context.Context, req rpc.CreateUserRequest) (*models.User, error) {
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return nil, common.NewStatusError(http.StatusBadRequest, "Name, email and password are required")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.UserWithHash{
		User:         models.User{ID: uuid.NewString(), Name: req.Name, Email: req.Email},
		PasswordHash: hash,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, common.NewStatusError(http.StatusConflict, "Email already exists")
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info(ctx, "user created", "id", user.ID)
	return &user.User, nil
}

// GetUser returns the public profile of one account.
func (s *Service) GetUser(ctx context.Context, id string) (*models.User, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewStatusError(http.StatusNotFound, fmt.Sprintf("User with ID %s not found", id))
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}

	return user, nil
}

// GetUserByEmailForAuth returns the account including its password hash.
// The token issuer is the only caller; nothing else may see the hash.
func (s *Service) GetUserByEmailForAuth(ctx context.Context, email string) (*models.UserWithHash, error) {
	if email == "" {
		return nil, common.NewStatusError(http.StatusBadRequest, "Email is required")
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewStatusError(http.StatusNotFound, fmt.Sprintf("User with email %s not found", email))
		}
		return nil, fmt.Errorf("getting user by email: %w", err)
	}

	return user, nil
}

// UpdateUser patches an account. A non-empty password is re-hashed before
// it reaches storage.
func (s *Service) UpdateUser(ctx context.Context, req rpc.UpdateUserRequest) (*models.User, error) {
	if err := validateID(req.ID); err != nil {
		return nil, err
	}

	patch := repository.Patch{ID: req.ID, Name: req.Name, Email: req.Email}
	if req.Password != "" {
		hash, err := s.hasher.Hash(req.Password)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		patch.PasswordHash = hash
	}

	user, err := s.repo.Update(ctx, patch)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotFound):
			return nil, common.NewStatusError(http.StatusNotFound, fmt.Sprintf("User with ID %s not found", req.ID))
		case errors.Is(err, common.ErrConflict):
			return nil, common.NewStatusError(http.StatusConflict, "Email already exists")
		}
		return nil, fmt.Errorf("updating user: %w", err)
	}

	s.logger.Info(ctx, "user updated", "id", user.ID)
	return user, nil
}

// DeleteUser removes an account and releases its email for re-registration.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.NewStatusError(http.StatusNotFound, fmt.Sprintf("User with ID %s not found", id))
		}
		return fmt.Errorf("deleting user: %w", err)
	}

	s.logger.Info(ctx, "user deleted", "id", id)
	return nil
}

// ListUsers returns one page of public profiles. Out-of-range paging inputs
// are clamped rather than rejected.
func (s *Service) ListUsers(ctx context.Context, page, limit int) (*models.UserPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	items, total, err := s.repo.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	return &models.UserPage{
		Items: items,
		Meta:  models.PageMeta{Total: total, Count: len(items), Limit: limit, Page: page},
	}, nil
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.NewStatusError(http.StatusBadRequest, fmt.Sprintf("Invalid user ID %s", id))
	}
	return nil
}
