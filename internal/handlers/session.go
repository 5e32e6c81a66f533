package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"botmessenger-backend/internal/keyValue"
	"botmessenger-backend/internal/models"
)

// Per-session UI state lives in the key-value store under short TTLs. With
// the self-contained backend that also means everything resets on process
// restart, which is the contract the wizard expects.

const sessionStateTTL = 12 * time.Hour

const (
	stepChoose  = "choose"
	stepDM      = "dm"
	stepChannel = "channel"
)

func sessionKey(sessionID string, field string) string {
	return fmt.Sprintf("session:%s:%s", sessionID, field)
}

func getWizardStep(sessionID string) (string, error) {
	step, err := keyValue.Get(sessionKey(sessionID, "step"))
	if err != nil {
		return "", err
	}
	if step == "" {
		step = stepChoose
	}
	return step, nil
}

func setWizardStep(sessionID string, step string) error {
	return keyValue.Set(sessionKey(sessionID, "step"), step, sessionStateTTL)
}

func cacheChannels(sessionID string, channels []models.Channel) error {
	bytes, err := json.Marshal(channels)
	if err != nil {
		return err
	}
	return keyValue.Set(sessionKey(sessionID, "channels"), string(bytes), sessionStateTTL)
}

func cachedChannels(sessionID string) ([]models.Channel, error) {
	data, err := keyValue.Get(sessionKey(sessionID, "channels"))
	if err != nil {
		return nil, err
	}

	channels := []models.Channel{}
	if data == "" {
		return channels, nil
	}

	err = json.Unmarshal([]byte(data), &channels)
	if err != nil {
		return nil, err
	}
	return channels, nil
}
