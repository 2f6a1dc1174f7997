package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/heronhoga/bars-fe/model"
)

type messageResponse struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, form model.LoginForm) (string, error) {
	req, err := c.jsonRequest(ctx, http.MethodPost, "/login", form, "")
	if err != nil {
		return "", err
	}

	var resp messageResponse
	if err := c.do("login", req, "Failed to login", &resp); err != nil {
		return "", err
	}
	if resp.Message == "" || resp.Token == "" {
		return "", fmt.Errorf("login: %w: message not found", ErrInvalidResponse)
	}
	return resp.Token, nil
}

// Register creates an account. ConfirmPassword never leaves the server.
func (c *Client) Register(ctx context.Context, form model.RegisterForm) (string, error) {
	req, err := c.jsonRequest(ctx, http.MethodPost, "/register", form, "")
	if err != nil {
		return "", err
	}
	return c.doMessage("register", req, "Failed to register")
}

// doMessage runs a mutation whose success body must carry message.
func (c *Client) doMessage(op string, req *http.Request, fallback string) (string, error) {
	var resp messageResponse
	if err := c.do(op, req, fallback, &resp); err != nil {
		return "", err
	}
	if resp.Message == "" {
		return "", fmt.Errorf("%s: %w: message not found", op, ErrInvalidResponse)
	}
	return resp.Message, nil
}

func requireToken(op, token string) error {
	if token == "" {
		return fmt.Errorf("%s: %w", op, ErrNoToken)
	}
	return nil
}
