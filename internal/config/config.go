package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	BotToken      string
	ClientID      string
	ClientSecret  string
	RedirectURI   string
	Address       string
	Port          string
	TlsCert       string
	TlsKey        string
	SessionSecret string
	RedisAddress  string
	BotConfigPath string
	LogHttp       bool
	LogLevel      string
}

// SetupInstructions is printed when the required credentials are missing,
// so a first-time operator knows where to get them.
const SetupInstructions = `Missing DISCORD_BOT_TOKEN or DISCORD_CLIENT_ID.

1. Go to https://discord.com/developers/applications
2. Click "New Application" and name it
3. Bot tab -> "Reset Token" -> copy the token
4. OAuth2 tab -> copy the Application ID (Client ID)
5. Create a .env file next to the binary:
   DISCORD_BOT_TOKEN=your_token_here
   DISCORD_CLIENT_ID=your_client_id_here
6. Restart the app`

func Load() (*Config, error) {
	// a missing .env file is fine, the environment may be set directly
	_ = godotenv.Load()

	cfg := &Config{
		BotToken:      os.Getenv("DISCORD_BOT_TOKEN"),
		ClientID:      os.Getenv("DISCORD_CLIENT_ID"),
		ClientSecret:  os.Getenv("DISCORD_CLIENT_SECRET"),
		RedirectURI:   os.Getenv("DISCORD_REDIRECT_URI"),
		Address:       getEnv("ADDRESS", ""),
		Port:          getEnv("PORT", "8501"),
		TlsCert:       os.Getenv("TLS_CERT"),
		TlsKey:        os.Getenv("TLS_KEY"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		BotConfigPath: getEnv("BOT_CONFIG_PATH", "config.json"),
		LogHttp:       os.Getenv("LOG_HTTP_REQUESTS") == "true",
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}

	if cfg.BotToken == "" || cfg.ClientID == "" {
		return nil, fmt.Errorf("missing DISCORD_BOT_TOKEN or DISCORD_CLIENT_ID")
	}

	return cfg, nil
}

// OAuth2Available reports whether the DM onboarding flow can run. The bot
// token alone is enough for channel delivery, so secret and redirect are
// optional and only gate the OAuth2 features.
func (c *Config) OAuth2Available() bool {
	return c.ClientSecret != "" && c.RedirectURI != ""
}

func (c *Config) IsHttps() bool {
	return c.TlsCert != "" && c.TlsKey != ""
}

func getEnv(key string, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
