package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"botmessenger-backend/internal/models"
)

const (
	DefaultBaseURL  = "https://discord.com/api/v10"
	DefaultTokenURL = "https://discord.com/api/oauth2/token"
	AuthorizeURL    = "https://discord.com/oauth2/authorize"

	requestTimeout = 10 * time.Second

	// DefaultMessageLimit is how many messages a feed fetch asks for.
	DefaultMessageLimit = 25
)

// APIError is a completed request the API rejected: any non-2xx response,
// carrying the numeric status and the raw body. Transport failures are
// returned as ordinary wrapped errors instead.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discord API error (%d): %s", e.Status, e.Body)
}

// SendResult is the raw outcome of a send call. Non-2xx statuses are not
// errors here: the caller branches on the status for per-code feedback.
type SendResult struct {
	StatusCode int
	Body       []byte
}

type Client struct {
	botToken string

	// overridable for tests
	BaseURL  string
	TokenURL string

	http *http.Client
}

func New(botToken string) *Client {
	return &Client{
		botToken: botToken,
		BaseURL:  DefaultBaseURL,
		TokenURL: DefaultTokenURL,
		http:     &http.Client{Timeout: requestTimeout},
	}
}

func (c *Client) request(ctx context.Context, method string, endpoint string, auth string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(jsonBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+endpoint, reader)
	if err != nil {
		return 0, nil, err
	}

	req.Header.Set("Authorization", auth)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("discord request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading discord response: %w", err)
	}

	return resp.StatusCode, respBody, nil
}

// botRequest raises *APIError on any non-2xx status and decodes the
// response into out when given.
func (c *Client) botRequest(ctx context.Context, method string, endpoint string, body any, out any) error {
	status, respBody, err := c.request(ctx, method, endpoint, "Bot "+c.botToken, body)
	if err != nil {
		return err
	}

	if status < 200 || status > 299 {
		return &APIError{Status: status, Body: string(respBody)}
	}

	if out != nil {
		err = json.Unmarshal(respBody, out)
		if err != nil {
			return fmt.Errorf("decoding discord response: %w", err)
		}
	}
	return nil
}

// GetCurrentUser fetches the bot's own identity. Used at startup to verify
// the bot token.
func (c *Client) GetCurrentUser(ctx context.Context) (models.Author, error) {
	var user models.Author
	err := c.botRequest(ctx, http.MethodGet, "/users/@me", nil, &user)
	return user, err
}

// GetGuildChannels returns the guild's text channels sorted ascending by
// position. Ties keep their original relative order.
func (c *Client) GetGuildChannels(ctx context.Context, guildID string) ([]models.Channel, error) {
	var channels []models.Channel
	err := c.botRequest(ctx, http.MethodGet, fmt.Sprintf("/guilds/%s/channels", guildID), nil, &channels)
	if err != nil {
		return nil, err
	}

	textChannels := []models.Channel{}
	for _, ch := range channels {
		if ch.Type == models.ChannelTypeText {
			textChannels = append(textChannels, ch)
		}
	}

	sort.SliceStable(textChannels, func(i, j int) bool {
		return textChannels[i].Position < textChannels[j].Position
	})

	return textChannels, nil
}

// SendMessage posts content to a channel. Unlike the other calls a non-2xx
// status is returned in the result, not as an error, so the caller can give
// per-status feedback (rate limit, forbidden, not found).
func (c *Client) SendMessage(ctx context.Context, channelID string, content string) (SendResult, error) {
	body := map[string]string{"content": content}

	status, respBody, err := c.request(ctx, http.MethodPost, fmt.Sprintf("/channels/%s/messages", channelID), "Bot "+c.botToken, body)
	if err != nil {
		return SendResult{}, err
	}

	return SendResult{StatusCode: status, Body: respBody}, nil
}

// OpenDMChannel creates or fetches the DM channel with a user. The API is
// idempotent here, repeating the call returns the same channel id.
func (c *Client) OpenDMChannel(ctx context.Context, userID string) (models.Channel, error) {
	body := map[string]string{"recipient_id": userID}

	var channel models.Channel
	err := c.botRequest(ctx, http.MethodPost, "/users/@me/channels", body, &channel)
	return channel, err
}

// GetMessages fetches recent messages, newest first. Works for both text
// channels and DM channels.
func (c *Client) GetMessages(ctx context.Context, channelID string, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = DefaultMessageLimit
	}

	var messages []models.Message
	err := c.botRequest(ctx, http.MethodGet, fmt.Sprintf("/channels/%s/messages?limit=%d", channelID, limit), nil, &messages)
	return messages, err
}
