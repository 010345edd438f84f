// Package auth mints and verifies the HS256 bearer tokens exchanged
// between the user service, the file service and the CLI.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/models"
)

var (
	ErrInvalidToken = errors.New("credential validation failed")
	ErrTokenExpired = errors.New("token expired")
)

// Claims are the JWT claims used across the platform. sub carries the
// user id; role, username and email ride along so the file service never
// needs to call back into the user service.
type Claims struct {
	Role     models.Role `json:"role"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	jwt.RegisteredClaims
}

// Token is the response shape of the token endpoint.
type Token struct {
	TokenType   string `json:"token_type"`
	AccessToken string `json:"access_token"`
}

type TokenManager struct {
	secret []byte
	expiry time.Duration
}

func NewTokenManager(secret string, expiry time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), expiry: expiry}
}

// Generate issues a bearer token for the given user.
func (m *TokenManager) Generate(user models.User) (Token, error) {
	claims := Claims{
		Role:     user.Role,
		Username: user.Username,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return Token{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return Token{TokenType: "bearer", AccessToken: signed}, nil
}

// Verify parses and validates a bearer token and returns its claims.
func (m *TokenManager) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, ok := models.ParseRole(string(claims.Role)); !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
