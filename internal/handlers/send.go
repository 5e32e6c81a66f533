package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"botmessenger-backend/internal/discord"
)

// Report is the outcome of a user-facing action, already phrased for
// display. No action is ever retried automatically.
type Report struct {
	Success bool   `json:"success"`
	Notice  string `json:"notice"`
}

// SendAndReport sends a message and maps the result onto a per-status
// notice. Blank content is rejected before any network call happens.
func SendAndReport(ctx context.Context, client *discord.Client, channelID string, content string) Report {
	if strings.TrimSpace(content) == "" {
		return Report{Notice: "Message cannot be empty."}
	}

	result, err := client.SendMessage(ctx, channelID, content)
	if err != nil {
		return Report{Notice: fmt.Sprintf("Network error: %v", err)}
	}

	switch {
	case result.StatusCode >= 200 && result.StatusCode <= 299:
		return Report{Success: true, Notice: "Message sent!"}

	case result.StatusCode == http.StatusTooManyRequests:
		// echo the server's retry delay when it gives one
		retryAfter := "a few"
		var body struct {
			RetryAfter json.Number `json:"retry_after"`
		}
		if json.Unmarshal(result.Body, &body) == nil && body.RetryAfter != "" {
			retryAfter = body.RetryAfter.String()
		}
		return Report{Notice: fmt.Sprintf("Rate limited. Retry after %s seconds.", retryAfter)}

	case result.StatusCode == http.StatusForbidden:
		return Report{Notice: "Bot lacks permission to send messages here. Check bot roles in Discord."}

	case result.StatusCode == http.StatusNotFound:
		return Report{Notice: "Channel not found. It may have been deleted, try reloading."}

	default:
		return Report{Notice: fmt.Sprintf("Discord API error (%d): %s", result.StatusCode, result.Body)}
	}
}

func SendMessage(w http.ResponseWriter, r *http.Request) {
	type SendMessageRequest struct {
		ChannelID string `json:"channelID" validate:"required,snowflake"`
		Content   string `json:"content" validate:"max=2000"`
	}

	var sendRequest SendMessageRequest
	err := json.NewDecoder(r.Body).Decode(&sendRequest)
	if err != nil {
		sugar.Debug(err)
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	err = validate.Struct(sendRequest)
	if err != nil {
		sugar.Debug(err)
		http.Error(w, "Invalid destination or message too long", http.StatusBadRequest)
		return
	}

	report := SendAndReport(r.Context(), botClient, sendRequest.ChannelID, sendRequest.Content)

	err = json.NewEncoder(w).Encode(report)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
}
