package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"botmessenger-backend/internal/discord"
	"botmessenger-backend/internal/keyValue"
	"botmessenger-backend/internal/models"
	"botmessenger-backend/internal/snowflake"

	"github.com/google/uuid"
)

const oauthStateTTL = 10 * time.Minute

// DMSetupInstructions is shown to the operator when the DM flow is picked
// but OAuth2 isn't configured yet.
const DMSetupInstructions = `OAuth2 is not configured, DM connections require it.

1. Go to the Discord Developer Portal (https://discord.com/developers/applications)
2. Select your application -> OAuth2 -> General
3. Click "Reset Secret" and copy the new secret
4. Under "Redirects", add your app URL (e.g. http://localhost:8501)
5. Add both values to the .env file:
   DISCORD_CLIENT_SECRET=your_secret_here
   DISCORD_REDIRECT_URI=http://localhost:8501
6. Restart the app

The redirect URI must match exactly, including trailing slashes and http vs https.`

func GetOnboardingState(w http.ResponseWriter, r *http.Request) {
	type OnboardingState struct {
		View            string   `json:"view"` // "status" or "wizard"
		Step            string   `json:"step"`
		OAuth2Available bool     `json:"oauth2Available"`
		ConnectedUsers  []string `json:"connectedUsers"`
		ChannelName     string   `json:"channelName"`
		GuildLinked     bool     `json:"guildLinked"`
	}

	botConfig, err := botStore.Load()
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	step, err := getWizardStep(sessionID(r))
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	state := OnboardingState{
		View:            "wizard",
		Step:            step,
		OAuth2Available: cfg.OAuth2Available(),
		ConnectedUsers:  []string{},
		ChannelName:     botConfig.ChannelName,
		GuildLinked:     botConfig.GuildID != "",
	}

	// a finished setup bypasses the wizard in favor of the status summary
	if botConfig.SetupComplete() {
		state.View = "status"
	}

	for _, user := range botConfig.AuthorizedUsers {
		state.ConnectedUsers = append(state.ConnectedUsers, user.DisplayName())
	}

	err = json.NewEncoder(w).Encode(state)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
}

func SetOnboardingStep(w http.ResponseWriter, r *http.Request) {
	type StepRequest struct {
		Step string `json:"step" validate:"required,oneof=choose dm channel"`
	}

	var stepRequest StepRequest
	err := json.NewDecoder(r.Body).Decode(&stepRequest)
	if err != nil {
		sugar.Debug(err)
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	err = validate.Struct(stepRequest)
	if err != nil {
		sugar.Debug(err)
		http.Error(w, "Unknown wizard step", http.StatusBadRequest)
		return
	}

	err = setWizardStep(sessionID(r), stepRequest.Step)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// GetAuthURL hands the frontend the OAuth2 authorization link. When no
// guild is linked yet the link also installs the bot (bot scope plus the
// send-messages permission bitmask); once a guild exists identify alone
// is enough.
func GetAuthURL(w http.ResponseWriter, r *http.Request) {
	type AuthURLResponse struct {
		Available    bool   `json:"available"`
		Instructions string `json:"instructions,omitempty"`
		AuthURL      string `json:"authURL,omitempty"`
		InviteURL    string `json:"inviteURL,omitempty"`
		BotInstall   bool   `json:"botInstall"`
	}

	if !cfg.OAuth2Available() {
		err := json.NewEncoder(w).Encode(AuthURLResponse{Instructions: DMSetupInstructions})
		if err != nil {
			sugar.Error(err)
			http.Error(w, "", http.StatusInternalServerError)
		}
		return
	}

	botConfig, err := botStore.Load()
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	state := uuid.NewString()
	err = keyValue.Set("oauth_state:"+state, "1", oauthStateTTL)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	response := AuthURLResponse{
		Available:  true,
		InviteURL:  discord.InviteURL(cfg.ClientID),
		BotInstall: botConfig.GuildID == "",
	}

	if response.BotInstall {
		response.AuthURL = discord.AuthURL(cfg.ClientID, cfg.RedirectURI, "bot identify", discord.PermissionsSendMessages, state)
	} else {
		response.AuthURL = discord.AuthURL(cfg.ClientID, cfg.RedirectURI, "identify", 0, state)
	}

	err = json.NewEncoder(w).Encode(response)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
}

// LoadChannels fetches the guild's text channels and caches them in the
// session. The admin channel tab sends no guild id and falls back to the
// configured one.
func LoadChannels(w http.ResponseWriter, r *http.Request) {
	type LoadChannelsRequest struct {
		GuildID string `json:"guildID"`
	}

	var loadRequest LoadChannelsRequest
	err := json.NewDecoder(r.Body).Decode(&loadRequest)
	if err != nil {
		sugar.Debug(err)
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	botConfig, err := botStore.Load()
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	guildID := loadRequest.GuildID
	if guildID == "" {
		guildID = botConfig.GuildID
	}
	if guildID == "" {
		http.Error(w, "No server connected", http.StatusBadRequest)
		return
	}
	if !snowflake.IsValid(guildID) {
		http.Error(w, "Server ID should be a numeric snowflake (17-20 digits)", http.StatusBadRequest)
		return
	}

	channels, err := botClient.GetGuildChannels(r.Context(), guildID)
	if err != nil {
		writeChannelLoadError(w, r, err)
		return
	}

	err = cacheChannels(sessionID(r), channels)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	writeChannelList(w, channels, botConfig.ChannelID)
}

func writeChannelLoadError(w http.ResponseWriter, r *http.Request, err error) {
	// a failed load clears the session cache so stale channels can't be saved
	cacheErr := cacheChannels(sessionID(r), nil)
	if cacheErr != nil {
		sugar.Error(cacheErr)
	}

	var apiErr *discord.APIError
	if errors.As(err, &apiErr) {
		sugar.Debugf("Channel load failed with status [%d]", apiErr.Status)
		switch apiErr.Status {
		case http.StatusForbidden:
			http.Error(w, "Bot doesn't have access to this server. Add it using the invite link.", http.StatusBadGateway)
		case http.StatusNotFound:
			http.Error(w, "Server not found. Check the Server ID.", http.StatusBadGateway)
		default:
			http.Error(w, apiErr.Error(), http.StatusBadGateway)
		}
		return
	}

	sugar.Error(err)
	http.Error(w, fmt.Sprintf("Network error: %v", err), http.StatusBadGateway)
}

func writeChannelList(w http.ResponseWriter, channels []models.Channel, selectedID string) {
	type ChannelListResponse struct {
		Channels   []models.Channel `json:"channels"`
		SelectedID string           `json:"selectedID,omitempty"`
		Warning    string           `json:"warning,omitempty"`
	}

	response := ChannelListResponse{Channels: channels, SelectedID: selectedID}
	if response.Channels == nil {
		response.Channels = []models.Channel{}
	}
	if len(response.Channels) == 0 {
		response.Warning = "No text channels found. Is the bot in this server?"
	}

	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
}

func GetCachedChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := cachedChannels(sessionID(r))
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	botConfig, err := botStore.Load()
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	writeChannelList(w, channels, botConfig.ChannelID)
}

// SaveChannel writes the selected broadcast destination into the config
// store. The channel has to come from the session's loaded list so the
// persisted name always matches the id.
func SaveChannel(w http.ResponseWriter, r *http.Request) {
	type SaveChannelRequest struct {
		GuildID   string `json:"guildID" validate:"required,snowflake"`
		ChannelID string `json:"channelID" validate:"required,snowflake"`
	}

	var saveRequest SaveChannelRequest
	err := json.NewDecoder(r.Body).Decode(&saveRequest)
	if err != nil {
		sugar.Debug(err)
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	err = validate.Struct(saveRequest)
	if err != nil {
		sugar.Debug(err)
		http.Error(w, "Invalid server or channel ID", http.StatusBadRequest)
		return
	}

	channels, err := cachedChannels(sessionID(r))
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	channelName := ""
	for _, ch := range channels {
		if ch.ID == saveRequest.ChannelID {
			channelName = ch.Name
			break
		}
	}
	if channelName == "" {
		http.Error(w, "Load channels from your server first", http.StatusBadRequest)
		return
	}

	botConfig, err := botStore.Load()
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	botConfig.GuildID = saveRequest.GuildID
	botConfig.ChannelID = saveRequest.ChannelID
	botConfig.ChannelName = channelName

	err = botStore.Save(botConfig)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	err = json.NewEncoder(w).Encode(map[string]string{"channelName": channelName})
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
}
