package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"botmessenger-backend/internal/discord"
	"botmessenger-backend/internal/models"
	"botmessenger-backend/internal/transcript"
)

// GetConnectedUsers lists everyone who completed onboarding, with their
// connection timestamps formatted for display.
func GetConnectedUsers(w http.ResponseWriter, r *http.Request) {
	type ConnectedUser struct {
		models.UserRecord
		DisplayName    string `json:"display_name"`
		ConnectedSince string `json:"connected_since"`
	}

	type ConnectedUsersResponse struct {
		Users       []ConnectedUser `json:"users"`
		RedirectURI string          `json:"redirectURI,omitempty"`
	}

	botConfig, err := botStore.Load()
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	response := ConnectedUsersResponse{Users: []ConnectedUser{}}

	for _, user := range botConfig.AuthorizedUsers {
		connectedSince := transcript.FormatTimestamp(user.AuthorizedAt)
		if connectedSince == "" {
			connectedSince = "unknown"
		}

		response.Users = append(response.Users, ConnectedUser{
			UserRecord:     user,
			DisplayName:    user.DisplayName(),
			ConnectedSince: connectedSince,
		})
	}

	// with nobody connected yet the dashboard shows the onboarding link
	if len(response.Users) == 0 {
		response.RedirectURI = cfg.RedirectURI
		if response.RedirectURI == "" {
			response.RedirectURI = "http://localhost:8501"
		}
	}

	err = json.NewEncoder(w).Encode(response)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
}

// OpenDM is the recovery action for a user record without a DM channel id
// (migrated from legacy data, or the handshake never captured one). The
// platform call is idempotent so re-running it for a healthy record is
// harmless.
func OpenDM(w http.ResponseWriter, r *http.Request) {
	type OpenDMRequest struct {
		UserID string `json:"userID" validate:"required,snowflake"`
	}

	var openRequest OpenDMRequest
	err := json.NewDecoder(r.Body).Decode(&openRequest)
	if err != nil {
		sugar.Debug(err)
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	err = validate.Struct(openRequest)
	if err != nil {
		sugar.Debug(err)
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	botConfig, err := botStore.Load()
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	user, exists := botConfig.User(openRequest.UserID)
	if !exists {
		http.Error(w, "User is not connected", http.StatusNotFound)
		return
	}

	dmChannel, err := botClient.OpenDMChannel(r.Context(), user.ID)
	if err != nil {
		report := Report{Notice: openDMNotice(err)}
		err = json.NewEncoder(w).Encode(report)
		if err != nil {
			sugar.Error(err)
			http.Error(w, "", http.StatusInternalServerError)
		}
		return
	}

	user.DMChannelID = dmChannel.ID
	botConfig.UpsertUser(user)

	err = botStore.Save(botConfig)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	type OpenDMResponse struct {
		Report
		DMChannelID string `json:"dmChannelID"`
	}

	err = json.NewEncoder(w).Encode(OpenDMResponse{
		Report:      Report{Success: true, Notice: "DM channel opened."},
		DMChannelID: dmChannel.ID,
	})
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
}

func openDMNotice(err error) string {
	sugar.Error(err)

	var apiErr *discord.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusForbidden:
			return "Cannot open DM, the user may have DMs disabled."
		case http.StatusNotFound:
			return "User not found."
		default:
			return apiErr.Error()
		}
	}
	return fmt.Sprintf("Network error: %v", err)
}
