package gateway

import (
	"context"

	"github.com/dmarchuk/gatekeep/internal/models"
	"github.com/dmarchuk/gatekeep/internal/rpc"
)

// UserClient is the gateway's view of the credential store. It never
// exposes password hashes.
type UserClient interface {
	Create(ctx context.Context, req rpc.CreateUserRequest) (*models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, page, limit int) (*models.UserPage, error)
	Update(ctx context.Context, req rpc.UpdateUserRequest) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

// AuthClient is the gateway's view of the token issuer.
type AuthClient interface {
	ValidateUser(ctx context.Context, creds rpc.Credentials) (*models.Session, error)
	IssueToken(ctx context.Context, user models.User) (*models.Session, error)
	ValidateToken(ctx context.Context, token string) (*rpc.TokenClaims, error)
}

type channelUserClient struct {
	ch *rpc.Channel
}

func NewUserClient(ch *rpc.Channel) UserClient {
	return &channelUserClient{ch: ch}
}

func (c *channelUserClient) Create(ctx context.Context, req rpc.CreateUserRequest) (*models.User, error) {
	user := &models.User{}
	if err := c.ch.Send(ctx, rpc.CmdCreateUser, req, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (c *channelUserClient) Get(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	if err := c.ch.Send(ctx, rpc.CmdGetUser, rpc.GetUserRequest{ID: id}, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (c *channelUserClient) List(ctx context.Context, page, limit int) (*models.UserPage, error) {
	pageOut := &models.UserPage{}
	if err := c.ch.Send(ctx, rpc.CmdListUsers, rpc.ListUsersRequest{Page: page, Limit: limit}, pageOut); err != nil {
		return nil, err
	}
	return pageOut, nil
}

func (c *channelUserClient) Update(ctx context.Context, req rpc.UpdateUserRequest) (*models.User, error) {
	user := &models.User{}
	if err := c.ch.Send(ctx, rpc.CmdUpdateUser, req, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (c *channelUserClient) Delete(ctx context.Context, id string) error {
	return c.ch.Send(ctx, rpc.CmdDeleteUser, rpc.DeleteUserRequest{ID: id}, nil)
}

type channelAuthClient struct {
	ch *rpc.Channel
}

func NewAuthClient(ch *rpc.Channel) AuthClient {
	return &channelAuthClient{ch: ch}
}

func (c *channelAuthClient) ValidateUser(ctx context.Context, creds rpc.Credentials) (*models.Session, error) {
	session := &models.Session{}
	if err := c.ch.Send(ctx, rpc.CmdValidateUser, creds, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (c *channelAuthClient) IssueToken(ctx context.Context, user models.User) (*models.Session, error) {
	session := &models.Session{}
	if err := c.ch.Send(ctx, rpc.CmdIssueToken, rpc.IssueTokenRequest{User: user}, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (c *channelAuthClient) ValidateToken(ctx context.Context, token string) (*rpc.TokenClaims, error) {
	claims := &rpc.TokenClaims{}
	if err := c.ch.Send(ctx, rpc.CmdValidateToken, rpc.ValidateTokenRequest{Token: token}, claims); err != nil {
		return nil, err
	}
	return claims, nil
}
