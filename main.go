package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"botmessenger-backend/internal/config"
	"botmessenger-backend/internal/discord"
	"botmessenger-backend/internal/feed"
	"botmessenger-backend/internal/handlers"
	"botmessenger-backend/internal/jwt"
	"botmessenger-backend/internal/keyValue"
	"botmessenger-backend/internal/store"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func setupLogger(levelString string) (*zap.SugaredLogger, error) {
	level, err := zap.ParseAtomicLevel(levelString)
	if err != nil {
		return nil, err
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.OutputPaths = []string{"app.log", "stdout"}
	loggerConfig.Level = level

	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, err
	}

	sugar := logger.Sugar()
	defer logger.Sync()

	return sugar, nil
}

func sessionSecret(cfg *config.Config) (string, error) {
	if cfg.SessionSecret != "" {
		return cfg.SessionSecret, nil
	}

	// ephemeral secret: sessions won't survive a restart, which matches
	// the reset-on-restart contract of the wizard state anyway
	secretBytes := make([]byte, 32)
	_, err := rand.Read(secretBytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(secretBytes), nil
}

func main() {
	fmt.Println("Reading configuration...")
	cfg, err := config.Load()
	if err != nil {
		fmt.Println(config.SetupInstructions)
		os.Exit(1)
	}

	fmt.Println("Setting up logger...")
	sugar, err := setupLogger(cfg.LogLevel)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	selfContained := cfg.RedisAddress == ""

	var redisClient *redis.Client
	if !selfContained {
		fmt.Println("Connecting to redis...")
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})

		err = redisClient.Ping(context.Background()).Err()
		if err != nil {
			sugar.Fatal(err)
		}
	}

	keyValue.Setup(sugar, redisClient, selfContained)

	secret, err := sessionSecret(cfg)
	if err != nil {
		sugar.Fatal(err)
	}
	jwt.Setup(secret, cfg.IsHttps())

	botClient := discord.New(cfg.BotToken)

	// the token check runs before anything is served: a dashboard with a
	// dead bot credential is useless
	fmt.Println("Verifying bot token...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	botUser, err := botClient.GetCurrentUser(ctx)
	cancel()
	if err != nil {
		var apiErr *discord.APIError
		switch {
		case errors.As(err, &apiErr) && apiErr.Status == 401:
			sugar.Fatal("Invalid bot token. Check DISCORD_BOT_TOKEN in your .env file.")
		case errors.As(err, &apiErr):
			sugar.Fatalf("Discord API error (%d): %s", apiErr.Status, apiErr.Body)
		default:
			sugar.Fatalf("Could not connect to Discord API: %v", err)
		}
	}
	sugar.Infof("Bot token verified, logged in as [%s]", botUser.DisplayName())

	fmt.Println("Loading bot configuration...")
	botStore := store.New(cfg.BotConfigPath)

	botConfig, err := botStore.Load()
	if err != nil {
		sugar.Fatal(err)
	}

	migrated, err := botStore.Migrate(botConfig)
	if err != nil {
		sugar.Fatal(err)
	}
	if migrated {
		sugar.Info("Migrated legacy single-user DM configuration to authorized_users")
	}

	feed.Setup(sugar, botClient, botUser.ID)

	var httpProtocol string
	if cfg.IsHttps() {
		httpProtocol = "https"
	} else {
		httpProtocol = "http"
	}

	fmt.Printf("Server is running on %s://%s:%s\n", httpProtocol, cfg.Address, cfg.Port)

	err = handlers.Setup(cfg, sugar, botClient, botStore, botUser)
	if err != nil {
		sugar.Fatal(err)
	}
}
