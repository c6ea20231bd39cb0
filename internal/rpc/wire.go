// Package rpc implements the command/response transport connecting the
// gateway to the internal services: length-prefixed JSON frames over TCP,
// one named command per call, with per-call timeouts on the client side.
package rpc

import (
	"encoding/json"
	"fmt"
)

// Command tags. Each tag names exactly one operation; the payload and result
// types for every tag are defined in messages.go.
const (
	CmdCreateUser            = "create-user"
	CmdListUsers             = "list-user"
	CmdGetUser               = "get-user"
	CmdGetUserByEmailForAuth = "get-user-by-email-for-auth"
	CmdUpdateUser            = "update-user"
	CmdDeleteUser            = "delete-user"

	CmdValidateUser  = "validate-user"
	CmdValidateToken = "validate-token"
	CmdIssueToken    = "issue-token"
)

// Request is one command frame sent by a channel.
type Request struct {
	ID   string          `json:"id"`
	Cmd  string          `json:"cmd"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Response is the reply frame for a request, carrying either the result
// value or an error envelope, never both.
type Response struct {
	ID    string          `json:"id"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *Envelope       `json:"error,omitempty"`
}

// Envelope is the canonical cross-boundary error shape. Every failure,
// regardless of origin, is normalized into an Envelope before it crosses a
// process boundary.
type Envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Envelope doubles as a Go error so it can travel through ordinary error
// returns on the client side.
func (e *Envelope) Error() string {
	return fmt.Sprintf("rpc error: status=%d message=%q", e.Status, e.Message)
}
