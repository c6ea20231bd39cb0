package userservice

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dmarchuk/gatekeep/internal/common"
	"github.com/dmarchuk/gatekeep/internal/rpc"
)

// Register wires the user command set onto the rpc server.
func Register(srv *rpc.Server, svc *Service) {
	srv.Handle(rpc.CmdCreateUser, func(ctx context.Context, data json.RawMessage) (any, error) {
		var req rpc.CreateUserRequest
		if err := decode(data, &req); err != nil {
			return nil, err
		}
		return svc.CreateUser(ctx, req)
	})

	srv.Handle(rpc.CmdGetUser, func(ctx context.Context, data json.RawMessage) (any, error) {
		var req rpc.GetUserRequest
		if err := decode(data, &req); err != nil {
			return nil, err
		}
		return svc.GetUser(ctx, req.ID)
	})

	srv.Handle(rpc.CmdGetUserByEmailForAuth, func(ctx context.Context, data json.RawMessage) (any, error) {
		var req rpc.GetUserRequest
		if err := decode(data, &req); err != nil {
			return nil, err
		}
		return svc.GetUserByEmailForAuth(ctx, req.Email)
	})

	srv.Handle(rpc.CmdUpdateUser, func(ctx context.Context, data json.RawMessage) (any, error) {
		var req rpc.UpdateUserRequest
		if err := decode(data, &req); err != nil {
			return nil, err
		}
		return svc.UpdateUser(ctx, req)
	})

	srv.Handle(rpc.CmdDeleteUser, func(ctx context.Context, data json.RawMessage) (any, error) {
		var req rpc.DeleteUserRequest
		if err := decode(data, &req); err != nil {
			return nil, err
		}
		return nil, svc.DeleteUser(ctx, req.ID)
	})

	srv.Handle(rpc.CmdListUsers, func(ctx context.Context, data json.RawMessage) (any, error) {
		var req rpc.ListUsersRequest
		if err := decode(data, &req); err != nil {
			return nil, err
		}
		return svc.ListUsers(ctx, req.Page, req.Limit)
	})
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return common.NewStatusError(http.StatusBadRequest, "Malformed request payload")
	}
	return nil
}
