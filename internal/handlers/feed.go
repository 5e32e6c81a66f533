package handlers

import (
	"net/http"

	"botmessenger-backend/internal/feed"
)

func GetFeed(w http.ResponseWriter, r *http.Request) {
	feed.HandleClient(w, r)
}
