package transcript

import (
	"time"

	"botmessenger-backend/internal/models"
)

// Placeholder is shown instead of an empty transcript.
const Placeholder = "No messages yet."

const timeLayout = "2006-01-02 15:04"

type Line struct {
	Role    string `json:"role"`
	Author  string `json:"author"`
	Time    string `json:"time"`
	Content string `json:"content"`
}

// Render turns an API message list (newest first) into chronological
// transcript lines. Lines authored by the bot itself are tagged
// "assistant", everything else "user".
func Render(messages []models.Message, botID string) []Line {
	lines := make([]Line, 0, len(messages))

	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]

		role := "user"
		if msg.Author.ID == botID {
			role = "assistant"
		}

		lines = append(lines, Line{
			Role:    role,
			Author:  msg.Author.DisplayName(),
			Time:    FormatTimestamp(msg.Timestamp),
			Content: msg.Content,
		})
	}

	return lines
}

// FormatTimestamp renders an API timestamp in local time, or "" when it
// doesn't parse.
func FormatTimestamp(timestamp string) string {
	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return ""
	}
	return t.Local().Format(timeLayout)
}
