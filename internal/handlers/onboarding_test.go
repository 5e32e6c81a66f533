package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"botmessenger-backend/internal/config"
	"botmessenger-backend/internal/discord"
	"botmessenger-backend/internal/keyValue"
	"botmessenger-backend/internal/models"
	"botmessenger-backend/internal/store"

	"go.uber.org/zap"
)

func setupHandlerTest(t *testing.T) {
	t.Helper()

	sugar = zap.NewNop().Sugar()
	keyValue.Setup(zap.NewNop().Sugar(), nil, true)
	cfg = &config.Config{
		BotToken:     "token",
		ClientID:     "123456789012345678",
		ClientSecret: "secret",
		RedirectURI:  "http://localhost:8501",
	}
	botStore = store.New(filepath.Join(t.TempDir(), "config.json"))
	botClient = discord.New("token")
}

func sessionRequest(method string, target string, sessionID string) *http.Request {
	r := httptest.NewRequest(method, target, nil)
	return r.WithContext(context.WithValue(r.Context(), SessionIDKeyType{}, sessionID))
}

type onboardingState struct {
	View            string   `json:"view"`
	Step            string   `json:"step"`
	OAuth2Available bool     `json:"oauth2Available"`
	ConnectedUsers  []string `json:"connectedUsers"`
	ChannelName     string   `json:"channelName"`
	GuildLinked     bool     `json:"guildLinked"`
}

func getState(t *testing.T, sessionID string) onboardingState {
	t.Helper()

	recorder := httptest.NewRecorder()
	GetOnboardingState(recorder, sessionRequest(http.MethodGet, "/api/onboarding/state", sessionID))
	if recorder.Code != http.StatusOK {
		t.Fatalf("status %d", recorder.Code)
	}

	var state onboardingState
	err := json.NewDecoder(recorder.Body).Decode(&state)
	if err != nil {
		t.Fatal(err)
	}
	return state
}

func TestOnboardingStateFreshInstall(t *testing.T) {
	setupHandlerTest(t)

	state := getState(t, "session-fresh")
	if state.View != "wizard" {
		t.Errorf("view = %q, want wizard", state.View)
	}
	if state.Step != "choose" {
		t.Errorf("step = %q, want choose", state.Step)
	}
	if !state.OAuth2Available {
		t.Error("oauth2 should be available with client secret and redirect set")
	}
	if len(state.ConnectedUsers) != 0 {
		t.Errorf("expected no connected users, got %v", state.ConnectedUsers)
	}
}

func TestOnboardingStateWithConnectedUser(t *testing.T) {
	setupHandlerTest(t)

	botConfig := &store.BotConfig{}
	botConfig.UpsertUser(models.UserRecord{
		ID:          "123456789012345678",
		Username:    "sam",
		GlobalName:  "Sam",
		DMChannelID: "234567890123456789",
	})
	err := botStore.Save(botConfig)
	if err != nil {
		t.Fatal(err)
	}

	state := getState(t, "session-user")
	if state.View != "status" {
		t.Errorf("view = %q, want status", state.View)
	}
	if len(state.ConnectedUsers) != 1 || state.ConnectedUsers[0] != "Sam" {
		t.Errorf("connected users = %v", state.ConnectedUsers)
	}
}

func TestOnboardingStateWithChannel(t *testing.T) {
	setupHandlerTest(t)

	err := botStore.Save(&store.BotConfig{
		GuildID:     "123456789012345678",
		ChannelID:   "234567890123456789",
		ChannelName: "general",
	})
	if err != nil {
		t.Fatal(err)
	}

	state := getState(t, "session-channel")
	if state.View != "status" {
		t.Errorf("view = %q, want status", state.View)
	}
	if state.ChannelName != "general" {
		t.Errorf("channel name = %q", state.ChannelName)
	}
	if !state.GuildLinked {
		t.Error("guild should be linked")
	}
}

func postStep(t *testing.T, sessionID string, body string) *httptest.ResponseRecorder {
	t.Helper()

	request := httptest.NewRequest(http.MethodPost, "/api/onboarding/step", strings.NewReader(body))
	request = request.WithContext(context.WithValue(request.Context(), SessionIDKeyType{}, sessionID))
	recorder := httptest.NewRecorder()
	SetOnboardingStep(recorder, request)
	return recorder
}

func TestOnboardingStepRoundTrip(t *testing.T) {
	setupHandlerTest(t)

	recorder := postStep(t, "session-step", `{"step":"dm"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status %d", recorder.Code)
	}

	state := getState(t, "session-step")
	if state.Step != "dm" {
		t.Errorf("step = %q, want dm", state.Step)
	}

	// other sessions stay on the default
	state = getState(t, "session-other")
	if state.Step != "choose" {
		t.Errorf("step = %q, want choose", state.Step)
	}
}

func TestOnboardingStepRejectsUnknown(t *testing.T) {
	setupHandlerTest(t)

	recorder := postStep(t, "session-bad", `{"step":"teleport"}`)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", recorder.Code)
	}
}
