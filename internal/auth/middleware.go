package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	ContextSessionIDKey = "pin_session_id"
	ContextNoteKeyKey   = "pin_note_key"
)

// SessionMiddleware проверяет токен разблокировки и кладет ключ заметок в контекст.
func SessionMiddleware(manager *TokenManager, keyring *Keyring) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, ok := bearerToken(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing pin session")
			}

			sessionID, err := manager.ParseSession(tokenString)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid pin session")
			}

			key, ok := keyring.Get(sessionID)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "pin session is locked")
			}

			c.Set(ContextSessionIDKey, sessionID)
			c.Set(ContextNoteKeyKey, key)
			return next(c)
		}
	}
}

// SessionFromContext извлекает идентификатор сессии и ключ заметок из контекста.
func SessionFromContext(c echo.Context) (uuid.UUID, []byte, bool) {
	sessionID, ok := c.Get(ContextSessionIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, nil, false
	}
	key, ok := c.Get(ContextNoteKeyKey).([]byte)
	return sessionID, key, ok
}

func bearerToken(c echo.Context) (string, bool) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	tokenString := strings.TrimSpace(parts[1])
	return tokenString, tokenString != ""
}
