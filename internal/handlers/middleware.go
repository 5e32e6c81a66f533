package handlers

import (
	"context"
	"net/http"
	"time"

	"botmessenger-backend/internal/jwt"

	"github.com/google/uuid"
)

type SessionIDKeyType struct{}

// SessionVerifier makes sure every API request carries a signed session
// cookie, minting a fresh one when it's missing, expired or malformed.
// The session id only keys wizard state and cached channel lists, there
// is no user identity behind it.
func SessionVerifier(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sessionID string

		sessionCookie, err := r.Cookie("session")
		if err == nil {
			token, verifyErr := jwt.VerifySessionToken(sessionCookie.Value)
			if verifyErr != nil {
				sugar.Debug(verifyErr)
			} else if time.Now().UTC().Before(token.ExpiresAt.UTC()) {
				sessionID = token.SessionID
			}
		}

		if sessionID == "" {
			sessionID = uuid.NewString()

			newCookie, err := jwt.CreateSessionCookie(sessionID)
			if err != nil {
				sugar.Error(err)
				http.Error(w, "", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &newCookie)
		}

		ctx := context.WithValue(r.Context(), SessionIDKeyType{}, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionID(r *http.Request) string {
	id, _ := r.Context().Value(SessionIDKeyType{}).(string)
	return id
}
