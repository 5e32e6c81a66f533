package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"botmessenger-backend/internal/models"
)

func postJSON(sessionID string, target string, body string, handler http.HandlerFunc) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	request = request.WithContext(context.WithValue(request.Context(), SessionIDKeyType{}, sessionID))
	recorder := httptest.NewRecorder()
	handler(recorder, request)
	return recorder
}

func TestLoadChannelsCachesPerSession(t *testing.T) {
	setupHandlerTest(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.Channel{
			{ID: "234567890123456789", Name: "general", Type: models.ChannelTypeText, Position: 0},
			{ID: "345678901234567890", Name: "random", Type: models.ChannelTypeText, Position: 1},
		})
	}))
	defer server.Close()
	botClient.BaseURL = server.URL

	recorder := postJSON("session-load", "/api/onboarding/channels/load", `{"guildID":"123456789012345678"}`, LoadChannels)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status %d: %s", recorder.Code, recorder.Body.String())
	}

	var response struct {
		Channels []models.Channel `json:"channels"`
	}
	err := json.NewDecoder(recorder.Body).Decode(&response)
	if err != nil {
		t.Fatal(err)
	}
	if len(response.Channels) != 2 {
		t.Fatalf("got %d channels", len(response.Channels))
	}

	channels, err := cachedChannels("session-load")
	if err != nil {
		t.Fatal(err)
	}
	if len(channels) != 2 {
		t.Errorf("session cache holds %d channels", len(channels))
	}

	channels, err = cachedChannels("session-other")
	if err != nil {
		t.Fatal(err)
	}
	if len(channels) != 0 {
		t.Errorf("other session should have no cached channels, got %d", len(channels))
	}
}

func TestLoadChannelsRejectsBadGuildID(t *testing.T) {
	setupHandlerTest(t)

	recorder := postJSON("session-bad-guild", "/api/onboarding/channels/load", `{"guildID":"not-a-snowflake"}`, LoadChannels)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", recorder.Code)
	}
}

func TestSaveChannelRequiresLoadedList(t *testing.T) {
	setupHandlerTest(t)

	body := `{"guildID":"123456789012345678","channelID":"234567890123456789"}`
	recorder := postJSON("session-no-load", "/api/onboarding/channels/save", body, SaveChannel)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "Load channels") {
		t.Errorf("body %q", recorder.Body.String())
	}
}

func TestSaveChannelPersistsSelection(t *testing.T) {
	setupHandlerTest(t)

	err := cacheChannels("session-save", []models.Channel{
		{ID: "234567890123456789", Name: "general", Type: models.ChannelTypeText},
	})
	if err != nil {
		t.Fatal(err)
	}

	body := `{"guildID":"123456789012345678","channelID":"234567890123456789"}`
	recorder := postJSON("session-save", "/api/onboarding/channels/save", body, SaveChannel)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status %d: %s", recorder.Code, recorder.Body.String())
	}

	botConfig, err := botStore.Load()
	if err != nil {
		t.Fatal(err)
	}
	if botConfig.ChannelID != "234567890123456789" {
		t.Errorf("channel id = %q", botConfig.ChannelID)
	}
	if botConfig.ChannelName != "general" {
		t.Errorf("channel name = %q", botConfig.ChannelName)
	}
	if !botConfig.SetupComplete() {
		t.Error("saving a channel should complete setup")
	}
}

func TestLoadChannelsErrorClearsCache(t *testing.T) {
	setupHandlerTest(t)

	err := cacheChannels("session-stale", []models.Channel{{ID: "234567890123456789", Name: "old"}})
	if err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "Missing Access"}`, http.StatusForbidden)
	}))
	defer server.Close()
	botClient.BaseURL = server.URL

	recorder := postJSON("session-stale", "/api/onboarding/channels/load", `{"guildID":"123456789012345678"}`, LoadChannels)
	if recorder.Code != http.StatusBadGateway {
		t.Fatalf("status %d, want 502", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "invite link") {
		t.Errorf("body %q", recorder.Body.String())
	}

	channels, err := cachedChannels("session-stale")
	if err != nil {
		t.Fatal(err)
	}
	if len(channels) != 0 {
		t.Errorf("stale cache survived, %d channels", len(channels))
	}
}
