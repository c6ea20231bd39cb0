// Package models holds the data types shared between the gateway and the
// internal services.
package models

// User is the public profile of an account. The password hash never
// travels with it.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserWithHash is the credential store's internal view of an account,
// including the password hash. It crosses a process boundary exactly once:
// from the credential store to the token issuer during verification.
type UserWithHash struct {
	User
	PasswordHash string `json:"passwordHash"`
}

// Session is the resolved response of a successful signup or login.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// PageMeta describes one page of a listing.
type PageMeta struct {
	Total int `json:"total"`
	Count int `json:"count"`
	Limit int `json:"limit"`
	Page  int `json:"page"`
}

// UserPage is one page of user profiles.
type UserPage struct {
	Items []User   `json:"items"`
	Meta  PageMeta `json:"meta"`
}
