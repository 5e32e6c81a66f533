package handlers

import (
	"fmt"
	"net/http"
	"time"

	"botmessenger-backend/internal/config"
	"botmessenger-backend/internal/discord"
	"botmessenger-backend/internal/models"
	"botmessenger-backend/internal/snowflake"
	"botmessenger-backend/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var sugar *zap.SugaredLogger
var cfg *config.Config
var botStore *store.Store
var botClient *discord.Client
var botUser models.Author

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// request ids are discord snowflakes, not arbitrary numbers
	err := v.RegisterValidation("snowflake", func(fl validator.FieldLevel) bool {
		return snowflake.IsValid(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}

	return v
}

func Setup(_cfg *config.Config, _sugar *zap.SugaredLogger, _botClient *discord.Client, _botStore *store.Store, _botUser models.Author) error {
	cfg = _cfg
	sugar = _sugar
	botClient = _botClient
	botStore = _botStore
	botUser = _botUser

	r := chi.NewRouter()

	if cfg.LogHttp {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(api chi.Router) {
		api.Use(SessionVerifier)

		api.Get("/bootstrap", GetBootstrap)

		api.Route("/onboarding", func(r chi.Router) {
			r.Get("/state", GetOnboardingState)
			r.Post("/step", SetOnboardingStep)
			r.Get("/authURL", GetAuthURL)
			r.Post("/channels/load", LoadChannels)
			r.Get("/channels", GetCachedChannels)
			r.Post("/channels/save", SaveChannel)
		})

		api.Route("/admin", func(r chi.Router) {
			r.Get("/users", GetConnectedUsers)
			r.Post("/dm/open", OpenDM)
			r.Post("/channels/load", LoadChannels)
			r.Get("/channels", GetCachedChannels)
			r.Post("/channels/save", SaveChannel)
			r.Post("/send", SendMessage)
		})
	})

	r.Get("/ws", GetFeed)

	// the root handler owns "/" so the OAuth2 redirect can land there;
	// everything else is the static frontend
	r.Get("/", Root)
	r.Handle("/*", http.FileServer(http.Dir("./public")))

	address := fmt.Sprintf("%s:%s", cfg.Address, cfg.Port)

	if cfg.IsHttps() {
		return http.ListenAndServeTLS(address, cfg.TlsCert, cfg.TlsKey, r)
	}
	return http.ListenAndServe(address, r)
}
