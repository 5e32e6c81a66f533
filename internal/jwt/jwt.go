package jwt

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionToken only pins anonymous per-session UI state (wizard step,
// cached channel list) to a browser. There is no user identity in it, the
// dashboard is single-operator.
type SessionToken struct {
	SessionID string `json:"sessionID"`
	jwt.RegisteredClaims
}

const sessionLifeTime = 24 * time.Hour

var jwtSecret []byte
var isHttps bool

func Setup(_key string, _isHttps bool) {
	jwtSecret = []byte(_key)
	isHttps = _isHttps
}

func CreateSessionCookie(sessionID string) (http.Cookie, error) {
	currentTime := time.Now().UTC()
	expirationDate := currentTime.Add(sessionLifeTime)

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, SessionToken{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(expirationDate),
		},
	})

	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		return http.Cookie{}, err
	}

	cookie := http.Cookie{
		Name:     "session",
		Value:    tokenString,
		Path:     "/",
		Expires:  expirationDate,
		HttpOnly: true,
		Secure:   isHttps,
		SameSite: http.SameSiteLaxMode,
	}

	return cookie, nil
}

func VerifySessionToken(tokenString string) (SessionToken, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionToken{}, func(token *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	})
	if err != nil {
		return SessionToken{}, err
	} else if claims, ok := token.Claims.(*SessionToken); ok {
		return *claims, nil
	} else {
		return SessionToken{}, errors.New("invalid session token")
	}
}
