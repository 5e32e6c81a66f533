package feed

import (
	"context"
	"errors"
	"net/http"
	"time"

	"botmessenger-backend/internal/discord"
	"botmessenger-backend/internal/models"
	"botmessenger-backend/internal/snowflake"
	"botmessenger-backend/internal/transcript"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Each visible message feed is one websocket connection with its own poll
// loop. The loop's context is cancelled the moment the client goes away,
// so a feed never outlives the view that opened it. Two feeds in two tabs
// are two independent connections.

const pollInterval = 2 * time.Second

// Update is one feed frame: either transcript lines, the empty-feed
// placeholder, or an error notice.
type Update struct {
	Lines       []transcript.Line `json:"lines,omitempty"`
	Placeholder string            `json:"placeholder,omitempty"`
	Notice      string            `json:"notice,omitempty"`
}

var sugar *zap.SugaredLogger
var client *discord.Client
var botID string

func Setup(_sugar *zap.SugaredLogger, _client *discord.Client, _botID string) {
	sugar = _sugar
	client = _client
	botID = _botID
}

func HandleClient(w http.ResponseWriter, r *http.Request) {
	channelID := r.URL.Query().Get("channelID")
	if !snowflake.IsValid(channelID) {
		http.Error(w, "Invalid channel ID", http.StatusBadRequest)
		return
	}

	var upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		sugar.Error(err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// the read side only exists to notice the client closing
	go func() {
		defer cancel()
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
		}
	}()

	sugar.Debugf("Feed opened for channel ID [%s]", channelID)
	defer sugar.Debugf("Feed closed for channel ID [%s]", channelID)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		messages, err := client.GetMessages(ctx, channelID, discord.DefaultMessageLimit)

		writeErr := conn.WriteJSON(BuildUpdate(messages, botID, err))
		if writeErr != nil {
			sugar.Debug(writeErr)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// BuildUpdate maps a fetch result onto one feed frame. Fetch errors become
// notices inside the feed, they never tear the page down.
func BuildUpdate(messages []models.Message, botID string, err error) Update {
	if err != nil {
		var apiErr *discord.APIError
		if errors.As(err, &apiErr) {
			if apiErr.Status == http.StatusForbidden {
				return Update{Notice: "Bot lacks permission to read message history."}
			}
			return Update{Notice: apiErr.Error()}
		}
		return Update{Notice: "Network error: " + err.Error()}
	}

	lines := transcript.Render(messages, botID)
	if len(lines) == 0 {
		return Update{Placeholder: transcript.Placeholder}
	}

	return Update{Lines: lines}
}
