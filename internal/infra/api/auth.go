package api

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	"golang.org/x/oauth2"

	"github.com/osa030/19player/internal/domain/user"
)

type loginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type meResponse struct {
	IsArtist     bool   `mapstructure:"isArtist"`
	Username     string `mapstructure:"username"`
	ProfileImage string `mapstructure:"profileImage"`
}

// Login exchanges member credentials for tokens.
func (c *Client) Login(ctx context.Context, memberID, password string) (*oauth2.Token, error) {
	if memberID == "" || password == "" {
		return nil, errors.New("member ID and password are required")
	}

	body := map[string]string{
		"memberId": memberID,
		"password": password,
	}
	var resp loginResponse
	if err := c.doPublic(ctx, http.MethodPost, "/login", body, &resp); err != nil {
		return nil, errors.Wrap(err, "login failed")
	}
	if resp.AccessToken == "" {
		return nil, errors.New("login response has no access token")
	}

	return &oauth2.Token{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    "Bearer",
	}, nil
}

// Me retrieves the profile of the logged-in member.
func (c *Client) Me(ctx context.Context) (*user.Profile, error) {
	var raw map[string]any
	if err := c.doAuth(ctx, http.MethodGet, "/users/me/type", nil, &raw); err != nil {
		return nil, err
	}

	var resp meResponse
	if err := decodeWeak(raw, &resp); err != nil {
		return nil, err
	}
	return user.NewProfile(resp.Username, resp.ProfileImage, resp.IsArtist), nil
}
