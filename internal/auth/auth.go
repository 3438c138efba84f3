// Package auth verifies the configured admin credential and issues the
// signed, time-limited tokens that gate mutating operations.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Kzkhanhacg547/FRC/internal/models"
)

const TokenTTL = 24 * time.Hour

// Identity is the authenticated principal stamped onto authored records.
type Identity struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Gate holds the single admin identity and the token signing key.
type Gate struct {
	Username     string
	PasswordHash []byte
	secret       []byte
	ttl          time.Duration
}

func New(username string, passwordHash []byte, secret []byte) *Gate {
	return &Gate{
		Username:     username,
		PasswordHash: passwordHash,
		secret:       secret,
		ttl:          TokenTTL,
	}
}

// Login compares the presented credentials against the configured admin and
// issues a signed bearer token valid for 24 hours.
func (g *Gate) Login(username, password string) (string, *Identity, error) {
	if username == "" || password == "" {
		return "", nil, models.Validationf("Username and password are required")
	}
	if username != g.Username ||
		bcrypt.CompareHashAndPassword(g.PasswordHash, []byte(password)) != nil {
		return "", nil, models.ErrInvalidCredentials
	}
	id := &Identity{Username: username, Role: "admin"}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: id.Username,
		Role:     id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
		},
	})
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, id, nil
}

// Authenticate validates a presented token's signature and expiry and returns
// the identity it carries.
func (g *Gate) Authenticate(tokenString string) (*Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return g.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, models.ErrUnauthorized
	}
	return &Identity{Username: c.Username, Role: c.Role}, nil
}
