package rpc

import "github.com/dmarchuk/gatekeep/internal/models"

// Typed payloads for the closed command set. Keeping them here, next to the
// tags, makes the protocol exhaustive: a command without a payload type in
// this file does not exist.

// CreateUserRequest is the payload of create-user. Result: models.User.
type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GetUserRequest is the payload of get-user and
// get-user-by-email-for-auth (with Email set instead of ID).
// Results: models.User and models.UserWithHash respectively.
type GetUserRequest struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email,omitempty"`
}

// UpdateUserRequest is the payload of update-user. Empty fields are left
// unchanged; a non-empty password is re-hashed. Result: models.User.
type UpdateUserRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

// DeleteUserRequest is the payload of delete-user. Result: none.
type DeleteUserRequest struct {
	ID string `json:"id"`
}

// ListUsersRequest is the payload of list-user. Result: models.UserPage.
type ListUsersRequest struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Credentials is the payload of validate-user. Result: models.Session.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ValidateTokenRequest is the payload of validate-token. Result: TokenClaims.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// IssueTokenRequest is the payload of issue-token, minting a session token
// for an already-persisted user. Result: models.Session.
type IssueTokenRequest struct {
	User models.User `json:"user"`
}

// TokenClaims is the wire form of a verified token's claims.
type TokenClaims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Exp   int64  `json:"exp"`
	Iat   int64  `json:"iat"`
}
