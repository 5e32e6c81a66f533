package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"botmessenger-backend/internal/models"
)

// PermissionsSendMessages is the bot-install permission bitmask: read
// messages / send messages / view channel.
const PermissionsSendMessages = 68608

// AuthURL builds an OAuth2 authorization URL. permissions is only attached
// when positive (the identify-only flow doesn't carry one).
func AuthURL(clientID string, redirectURI string, scope string, permissions int64, state string) string {
	params := url.Values{}
	params.Set("client_id", clientID)
	params.Set("redirect_uri", redirectURI)
	params.Set("response_type", "code")
	params.Set("scope", scope)
	if permissions > 0 {
		params.Set("permissions", strconv.FormatInt(permissions, 10))
	}
	if state != "" {
		params.Set("state", state)
	}

	return AuthorizeURL + "?" + params.Encode()
}

// InviteURL builds the plain bot-install link used in the channel flow.
func InviteURL(clientID string) string {
	params := url.Values{}
	params.Set("client_id", clientID)
	params.Set("scope", "bot")
	params.Set("permissions", strconv.FormatInt(PermissionsSendMessages, 10))

	return AuthorizeURL + "?" + params.Encode()
}

// ExchangeCode trades an authorization code for an access token. This is
// the one call that authenticates with the client secret instead of a
// token header.
func (c *Client) ExchangeCode(ctx context.Context, code string, clientID string, clientSecret string, redirectURI string) (models.TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return models.TokenResponse{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return models.TokenResponse{}, fmt.Errorf("oauth2 token request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.TokenResponse{}, fmt.Errorf("reading oauth2 token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.TokenResponse{}, &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var token models.TokenResponse
	err = json.Unmarshal(respBody, &token)
	if err != nil {
		return models.TokenResponse{}, fmt.Errorf("decoding oauth2 token response: %w", err)
	}

	return token, nil
}

// GetOAuthUser resolves the authorizing user's identity with their
// short-lived bearer token.
func (c *Client) GetOAuthUser(ctx context.Context, accessToken string) (models.Author, error) {
	status, respBody, err := c.request(ctx, http.MethodGet, "/users/@me", "Bearer "+accessToken, nil)
	if err != nil {
		return models.Author{}, err
	}

	if status < 200 || status > 299 {
		return models.Author{}, &APIError{Status: status, Body: string(respBody)}
	}

	var user models.Author
	err = json.Unmarshal(respBody, &user)
	if err != nil {
		return models.Author{}, fmt.Errorf("decoding oauth2 user response: %w", err)
	}

	return user, nil
}
