package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenType string

const TokenTypePinSession TokenType = "pin_session"

type Claims struct {
	TokenType TokenType `json:"typ"`
	jwt.RegisteredClaims
}

type Session struct {
	ID        uuid.UUID
	Token     string
	ExpiresAt time.Time
}

type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager инициализирует менеджер JWT токенов сессий разблокировки.
func NewTokenManager(secret string, issuer string, ttl time.Duration, now func() time.Time) *TokenManager {
	if now == nil {
		now = time.Now
	}
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    now,
	}
}

// TTL возвращает время жизни сессии.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// NewSession выпускает токен новой сессии с собственным идентификатором.
func (m *TokenManager) NewSession() (Session, error) {
	sessionID := uuid.New()
	now := m.now()
	expiresAt := now.Add(m.ttl)

	claims := Claims{
		TokenType: TokenTypePinSession,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   "pin",
			ID:        sessionID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return Session{}, err
	}

	return Session{ID: sessionID, Token: signed, ExpiresAt: expiresAt}, nil
}

// ParseSession валидирует токен и возвращает идентификатор сессии.
func (m *TokenManager) ParseSession(tokenString string) (uuid.UUID, error) {
	claims := &Claims{}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.now),
	)
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	if !token.Valid {
		return uuid.Nil, errors.New("token is invalid")
	}

	if claims.TokenType != TokenTypePinSession {
		return uuid.Nil, errors.New("token type mismatch")
	}

	sessionID, err := uuid.Parse(claims.ID)
	if err != nil {
		return uuid.Nil, errors.New("invalid session id")
	}

	return sessionID, nil
}
