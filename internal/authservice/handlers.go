package authservice

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dmarchuk/gatekeep/internal/common"
	"github.com/dmarchuk/gatekeep/internal/rpc"
)

// Register wires the auth command set onto the rpc server.
func Register(srv *rpc.Server, svc *Service) {
	srv.Handle(rpc.CmdValidateUser, func(ctx context.Context, data json.RawMessage) (any, error) {
		var creds rpc.Credentials
		if err := decode(data, &creds); err != nil {
			return nil, err
		}
		return svc.ValidateUser(ctx, creds)
	})

	srv.Handle(rpc.CmdValidateToken, func(ctx context.Context, data json.RawMessage) (any, error) {
		var req rpc.ValidateTokenRequest
		if err := decode(data, &req); err != nil {
			return nil, err
		}
		return svc.ValidateToken(ctx, req.Token)
	})

	srv.Handle(rpc.CmdIssueToken, func(ctx context.Context, data json.RawMessage) (any, error) {
		var req rpc.IssueTokenRequest
		if err := decode(data, &req); err != nil {
			return nil, err
		}
		return svc.IssueToken(ctx, req.User)
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
