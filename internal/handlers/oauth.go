package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"botmessenger-backend/internal/discord"
	"botmessenger-backend/internal/keyValue"
	"botmessenger-backend/internal/models"
)

// Root owns "/". The OAuth2 redirect lands here with a code in the query
// string, which takes precedence over serving the UI. Redirecting after
// the callback clears the query parameters so a refresh can't re-trigger
// the exchange.
func Root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("code") != "" && cfg.OAuth2Available() {
		handleOAuthCallback(w, r)
		return
	}

	http.ServeFile(w, r, "./public/index.html")
}

func handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	callbackGuildID := r.URL.Query().Get("guild_id")

	// the state token is single-use, GetDel consumes it
	stored, err := keyValue.GetDel("oauth_state:" + state)
	if err != nil {
		sugar.Error(err)
		redirectWithError(w, r, "Authorization failed, try again.")
		return
	}
	if state == "" || stored == "" {
		sugar.Warnf("OAuth2 callback with missing or expired state token")
		redirectWithError(w, r, "Authorization link expired, start over.")
		return
	}

	token, err := botClient.ExchangeCode(r.Context(), code, cfg.ClientID, cfg.ClientSecret, cfg.RedirectURI)
	if err != nil {
		redirectWithError(w, r, oauthErrorNotice(err))
		return
	}

	oauthUser, err := botClient.GetOAuthUser(r.Context(), token.AccessToken)
	if err != nil {
		redirectWithError(w, r, oauthErrorNotice(err))
		return
	}

	// open the DM channel now so the bot can message the user right away
	dmChannel, err := botClient.OpenDMChannel(r.Context(), oauthUser.ID)
	if err != nil {
		redirectWithError(w, r, oauthErrorNotice(err))
		return
	}

	botConfig, err := botStore.Load()
	if err != nil {
		sugar.Error(err)
		redirectWithError(w, r, "Could not read the bot configuration.")
		return
	}

	userRecord := models.UserRecord{
		ID:           oauthUser.ID,
		Username:     oauthUser.Username,
		GlobalName:   oauthUser.GlobalName,
		DMChannelID:  dmChannel.ID,
		AuthorizedAt: time.Now().UTC().Format(time.RFC3339),
	}
	botConfig.UpsertUser(userRecord)

	// the bot-install flow reports which guild the bot was added to
	if callbackGuildID != "" {
		botConfig.GuildID = callbackGuildID
	}

	// nothing was persisted before this point, a failed flow leaves the
	// config untouched
	err = botStore.Save(botConfig)
	if err != nil {
		sugar.Error(err)
		redirectWithError(w, r, "Could not save the bot configuration.")
		return
	}

	sugar.Infof("User [%s] completed OAuth2 onboarding", userRecord.ID)

	query := url.Values{}
	query.Set("connected", userRecord.DisplayName())
	http.Redirect(w, r, "/?"+query.Encode(), http.StatusSeeOther)
}

func oauthErrorNotice(err error) string {
	sugar.Error(err)

	var apiErr *discord.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("OAuth2 error: %d, %s", apiErr.Status, apiErr.Body)
	}
	return fmt.Sprintf("Network error during OAuth2: %v", err)
}

func redirectWithError(w http.ResponseWriter, r *http.Request, notice string) {
	query := url.Values{}
	query.Set("oauth_error", notice)
	http.Redirect(w, r, "/?"+query.Encode(), http.StatusSeeOther)
}
