package client

import (
	"context"
	"encoding/json"
	"net/http"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (json.RawMessage, error) {
	b, err := c.doJSON(ctx, http.MethodPost, "/user/login", loginRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	return Unwrap(b), nil
}

func (c *HTTPClient) Register(ctx context.Context, username, email, password string) (json.RawMessage, error) {
	b, err := c.doJSON(ctx, http.MethodPost, "/user/register", registerRequest{Username: username, Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return Unwrap(b), nil
}

// Profile asks the backend who the attached credential belongs to.
func (c *HTTPClient) Profile(ctx context.Context) (json.RawMessage, error) {
	b, err := c.doJSON(ctx, http.MethodGet, "/user/profile", nil)
	if err != nil {
		return nil, err
	}
	return Unwrap(b), nil
}
