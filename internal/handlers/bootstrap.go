package handlers

import (
	"encoding/json"
	"net/http"

	"botmessenger-backend/internal/models"
)

// GetBootstrap is the first call the frontend makes: everything it needs
// to decide between the onboarding wizard, the status summary and the
// admin dashboard.
func GetBootstrap(w http.ResponseWriter, r *http.Request) {
	type BootstrapResponse struct {
		Bot             models.Author `json:"bot"`
		OAuth2Available bool          `json:"oauth2Available"`
		SetupComplete   bool          `json:"setupComplete"`
		GuildID         string        `json:"guildID"`
		ChannelID       string        `json:"channelID"`
		ChannelName     string        `json:"channelName"`
		ConnectedUsers  int           `json:"connectedUsers"`
	}

	botConfig, err := botStore.Load()
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	err = json.NewEncoder(w).Encode(BootstrapResponse{
		Bot:             botUser,
		OAuth2Available: cfg.OAuth2Available(),
		SetupComplete:   botConfig.SetupComplete(),
		GuildID:         botConfig.GuildID,
		ChannelID:       botConfig.ChannelID,
		ChannelName:     botConfig.ChannelName,
		ConnectedUsers:  len(botConfig.AuthorizedUsers),
	})
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
}
