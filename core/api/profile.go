package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/heronhoga/bars-fe/model"
)

// Profile fetches the current user's profile. The body may be the profile
// itself or wrapped in {"data": ...}.
func (c *Client) Profile(ctx context.Context, token string) (*model.Profile, error) {
	if err := requireToken("profile", token); err != nil {
		return nil, err
	}
	req, err := c.createRequest(ctx, http.MethodGet, "/profile", nil, token)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := c.do("profile", req, "Failed to fetch profile", &raw); err != nil {
		return nil, err
	}

	var envelope struct {
		Data *model.Profile `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Data != nil {
		return envelope.Data, nil
	}

	var p model.Profile
	if err := json.Unmarshal(raw, &p); err != nil || p.Username == "" {
		return nil, fmt.Errorf("profile: %w", ErrInvalidResponse)
	}
	return &p, nil
}

// UpdateProfile saves region and discord.
func (c *Client) UpdateProfile(ctx context.Context, token string, form model.ProfileForm) (string, error) {
	if err := requireToken("update profile", token); err != nil {
		return "", err
	}
	req, err := c.jsonRequest(ctx, http.MethodPut, "/profile/edit", form, token)
	if err != nil {
		return "", err
	}
	return c.doMessage("update profile", req, "Failed to update profile")
}
