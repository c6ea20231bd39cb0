// Package authservice implements the token issuer: credential verification,
// token minting and token validation. It holds the signing secret and never
// touches account storage directly; account lookups go through the
// credential store's command channel.
package authservice

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmarchuk/gatekeep/internal/common"
	"github.com/dmarchuk/gatekeep/internal/logging"
	"github.com/dmarchuk/gatekeep/internal/models"
	"github.com/dmarchuk/gatekeep/internal/password"
	"github.com/dmarchuk/gatekeep/internal/rpc"
	"github.com/dmarchuk/gatekeep/internal/token"
)

// UserClient is the slice of the credential store the issuer needs: the
// hash-bearing lookup used during credential verification.
type UserClient interface {
	GetByEmailForAuth(ctx context.Context, email string) (*models.UserWithHash, error)
}

// channelUserClient speaks to the credential store over a command channel.
type channelUserClient struct {
	ch *rpc.Channel
}

func NewUserClient(ch *rpc.Channel) UserClient {
	return &channelUserClient{ch: ch}
}

func (c *channelUserClient) GetByEmailForAuth(ctx context.Context, email string) (*models.UserWithHash, error) {
	user := &models.UserWithHash{}
	if err := c.ch.Send(ctx, rpc.CmdGetUserByEmailForAuth, rpc.GetUserRequest{Email: email}, user); err != nil {
		return nil, err
	}
	return user, nil
}

type Service struct {
	users  UserClient
	tokens *token.Manager
	logger logging.Logger
}

func NewService(users UserClient, tokens *token.Manager, logger logging.Logger) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		logger: logger.With("module", "authservice"),
	}
}

// ValidateUser verifies an email/password pair and mints a session. An
// unknown email surfaces as the credential store's own 404; a wrong
// password is a 401. The plaintext never goes further than the bcrypt
// comparison here.
func (s *Service) ValidateUser(ctx context.Context, creds rpc.Credentials) (*models.Session, error) {
	user, err := s.users.GetByEmailForAuth(ctx, creds.Email)
	if err != nil {
		return nil, err
	}

	if !password.Verify(creds.Password, user.PasswordHash) {
		s.logger.Warn(ctx, "password mismatch", "email", creds.Email)
		return nil, common.NewStatusError(http.StatusUnauthorized, "Invalid credentials - password mismatch")
	}

	return s.IssueToken(ctx, user.User)
}

// IssueToken mints a session for an already-verified user. Signup calls
// this right after account creation, so a fresh registration is not asked
// to prove the password it just chose.
func (s *Service) IssueToken(ctx context.Context, user models.User) (*models.Session, error) {
	if user.ID == "" {
		return nil, common.NewStatusError(http.StatusBadRequest, "User ID is required")
	}

	tok, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	s.logger.Info(ctx, "token issued", "sub", user.ID)
	return &models.Session{Token: tok, User: user}, nil
}

// ValidateToken checks a session token and returns its claims. The failure
// sub-cases (expired, invalid, missing subject) stay distinguishable in the
// returned error.
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*rpc.TokenClaims, error) {
	if tokenString == "" {
		return nil, common.ErrInvalidToken
	}

	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		s.logger.Warn(ctx, "token rejected", "reason", err)
		return nil, err
	}

	out := &rpc.TokenClaims{Sub: claims.Subject, Email: claims.Email}
	if claims.ExpiresAt != nil {
		out.Exp = claims.ExpiresAt.Unix()
	}
	if claims.IssuedAt != nil {
		out.Iat = claims.IssuedAt.Unix()
	}
	return out, nil
}
