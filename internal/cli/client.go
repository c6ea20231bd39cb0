// Package cli implements a small interactive terminal client for the
// gateway's HTTP API.
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmarchuk/gatekeep/internal/models"
	"github.com/dmarchuk/gatekeep/internal/translate"
)

// APIError is a failure reported by the gateway.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Client is a thin HTTP wrapper over the gateway API.
type Client struct {
	base string
	hc   *http.Client
}

func NewClient(base string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Message: resp.Status}
		var httpErr translate.HTTPError
		if json.NewDecoder(resp.Body).Decode(&httpErr) == nil && httpErr.Message != "" {
			apiErr.Message = httpErr.Message
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Signup(ctx context.Context, name, email, password string) (*models.Session, error) {
	session := &models.Session{}
	err := c.do(ctx, http.MethodPost, "/auth/signup", "", signupRequest{Name: name, Email: email, Password: password}, session)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.Session, error) {
	session := &models.Session{}
	err := c.do(ctx, http.MethodPost, "/auth/login", "", loginRequest{Email: email, Password: password}, session)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (c *Client) Me(ctx context.Context, token string) (*models.User, error) {
	user := &models.User{}
	if err := c.do(ctx, http.MethodGet, "/me", token, nil, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (c *Client) Users(ctx context.Context, token string, page, limit int) (*models.UserPage, error) {
	result := &models.UserPage{}
	path := fmt.Sprintf("/users?page=%d&limit=%d", page, limit)
	if err := c.do(ctx, http.MethodGet, path, token, nil, result); err != nil {
		return nil, err
	}
	return result, nil
}
