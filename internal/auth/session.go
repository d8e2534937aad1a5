// Package auth verifies the session tokens issued by the ChessHive account service.
package auth

import (
	"errors"
	"time"

	"chesshive/backend/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrDisabled     = errors.New("session verification is not configured")
)

// Claims is the payload of a session token.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role"`
	Email    string `json:"email"`
}

// Manager signs and verifies HS256 session tokens with a shared secret.
type Manager struct {
	secret []byte
	issuer string
}

// NewManager returns a Manager for secret. An empty secret disables verification.
func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret), issuer: config.SessionIssuer}
}

// Enabled reports whether a secret is configured.
func (m *Manager) Enabled() bool { return len(m.secret) > 0 }

// Issue signs a session token valid for ttl.
func (m *Manager) Issue(username, role, email string, ttl time.Duration) (string, error) {
	if !m.Enabled() {
		return "", ErrDisabled
	}

	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username: username,
		Role:     role,
		Email:    email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Validate parses tokenString and returns its claims.
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	if !m.Enabled() {
		return nil, ErrDisabled
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Username == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
