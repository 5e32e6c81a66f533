package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"botmessenger-backend/internal/models"
)

// BotConfig is the persisted bot configuration document. The authorized
// users are indexed by id internally so the one-record-per-id invariant is
// structural; the ordered list only exists at the JSON boundary.
type BotConfig struct {
	GuildID         string              `json:"guild_id,omitempty"`
	ChannelID       string              `json:"channel_id,omitempty"`
	ChannelName     string              `json:"channel_name,omitempty"`
	AuthorizedUsers []models.UserRecord `json:"authorized_users,omitempty"`

	// legacy single-user DM fields, removed by Migrate
	LegacyDMUserID    string `json:"dm_user_id,omitempty"`
	LegacyDMChannelID string `json:"dm_channel_id,omitempty"`
	LegacyDMUsername  string `json:"dm_username,omitempty"`

	userIndex map[string]int
}

func (c *BotConfig) rebuildIndex() {
	c.userIndex = make(map[string]int, len(c.AuthorizedUsers))
	for i, u := range c.AuthorizedUsers {
		c.userIndex[u.ID] = i
	}
}

// UpsertUser replaces the record with the same id in place, or appends a
// new one. Order of the other entries never changes.
func (c *BotConfig) UpsertUser(user models.UserRecord) {
	if c.userIndex == nil {
		c.rebuildIndex()
	}

	if i, exists := c.userIndex[user.ID]; exists {
		c.AuthorizedUsers[i] = user
		return
	}

	c.userIndex[user.ID] = len(c.AuthorizedUsers)
	c.AuthorizedUsers = append(c.AuthorizedUsers, user)
}

func (c *BotConfig) User(id string) (models.UserRecord, bool) {
	if c.userIndex == nil {
		c.rebuildIndex()
	}

	i, exists := c.userIndex[id]
	if !exists {
		return models.UserRecord{}, false
	}
	return c.AuthorizedUsers[i], true
}

// SetupComplete reports whether onboarding has anything left to do: at
// least one connected user or a configured broadcast channel counts.
func (c *BotConfig) SetupComplete() bool {
	return len(c.AuthorizedUsers) > 0 || c.ChannelID != ""
}

// Store reads and writes the single JSON config document. There is no file
// locking, the mutex only serializes writers inside this process
// (single-operator assumption, last write wins).
type Store struct {
	path  string
	mutex sync.Mutex
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Load() (*BotConfig, error) {
	bytes, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &BotConfig{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("reading bot config: %w", err)
	}

	var cfg BotConfig
	err = json.Unmarshal(bytes, &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing bot config: %w", err)
	}

	cfg.rebuildIndex()
	return &cfg, nil
}

func (s *Store) Save(cfg *BotConfig) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	bytes, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding bot config: %w", err)
	}

	err = os.WriteFile(s.path, bytes, 0600)
	if err != nil {
		return fmt.Errorf("writing bot config: %w", err)
	}
	return nil
}

// Migrate upgrades a config carrying the legacy single-user DM fields to
// the authorized_users list and persists the result. Running it again is a
// no-op since the legacy fields are gone after the first pass.
func (s *Store) Migrate(cfg *BotConfig) (bool, error) {
	if cfg.LegacyDMUserID == "" || cfg.AuthorizedUsers != nil {
		return false, nil
	}

	cfg.UpsertUser(models.UserRecord{
		ID:           cfg.LegacyDMUserID,
		Username:     cfg.LegacyDMUsername,
		GlobalName:   cfg.LegacyDMUsername,
		DMChannelID:  cfg.LegacyDMChannelID,
		AuthorizedAt: time.Now().UTC().Format(time.RFC3339),
	})

	cfg.LegacyDMUserID = ""
	cfg.LegacyDMChannelID = ""
	cfg.LegacyDMUsername = ""

	err := s.Save(cfg)
	if err != nil {
		return false, err
	}
	return true, nil
}
