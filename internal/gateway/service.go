// Package gateway is the public HTTP edge. It owns no business rules of its
// own: it orchestrates the credential store and the token issuer over their
// command channels and translates their failures into the fixed set of
// externally visible errors.
package gateway

import (
	"context"

	"github.com/dmarchuk/gatekeep/internal/logging"
	"github.com/dmarchuk/gatekeep/internal/models"
	"github.com/dmarchuk/gatekeep/internal/rpc"
	"github.com/dmarchuk/gatekeep/internal/token"
)

type Service struct {
	users  UserClient
	auth   AuthClient
	tokens *token.Manager
	logger logging.Logger
}

func NewService(users UserClient, auth AuthClient, tokens *token.Manager, logger logging.Logger) *Service {
	return &Service{
		users:  users,
		auth:   auth,
		tokens: tokens,
		logger: logger.With("module", "gateway"),
	}
}

// Signup creates an account and immediately mints a session for it. The
// fresh registration is not asked to re-prove the password it just chose.
// A failed creation short-circuits: no token call is made and the store's
// error (conflict included) goes back unchanged.
func (s *Service) Signup(ctx context.Context, req rpc.CreateUserRequest) (*models.Session, error) {
	user, err := s.users.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.auth.IssueToken(ctx, *user)
}

// Login verifies credentials with the token issuer and returns the session.
func (s *Service) Login(ctx context.Context, creds rpc.Credentials) (*models.Session, error) {
	return s.auth.ValidateUser(ctx, creds)
}

// ResolveSession turns a bearer token into the current account behind it.
//
// The token is checked twice: locally, which rejects garbage without a
// network hop, and then by the issuer, which stays authoritative. A token
// that verifies but points at a deleted account resolves to the store's
// not-found error, not an authorization failure.
func (s *Service) ResolveSession(ctx context.Context, tokenString string) (*models.User, error) {
	if _, err := s.tokens.Verify(tokenString); err != nil {
		return nil, err
	}

	claims, err := s.auth.ValidateToken(ctx, tokenString)
	if err != nil {
		return nil, err
	}

	return s.users.Get(ctx, claims.Sub)
}
