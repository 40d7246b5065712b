// Package auth signs session tokens and hashes credentials
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTypeSession = "session"

// TokenGenerator handles session token signing and validation.
// A token only carries identifiers: the session it names must still be live for the token to be honored.
type TokenGenerator struct {
	secret string
}

// NewTokenGenerator creates a new token generator
func NewTokenGenerator(secret string) *TokenGenerator {
	return &TokenGenerator{
		secret: secret,
	}
}

// Generate creates a signed token for sessionID that expires at expiresAt
func (tg *TokenGenerator) Generate(sessionID, userID string, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sid":  sessionID,
		"sub":  userID,
		"exp":  expiresAt.Unix(),
		"iat":  time.Now().Unix(),
		"type": tokenTypeSession,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(tg.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, nil
}

// Validate checks the signature and expiry of tokenString and returns the session and user ids
func (tg *TokenGenerator) Validate(tokenString string) (string, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tg.secret), nil
	})

	if err != nil {
		return "", "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", "", fmt.Errorf("token is invalid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", fmt.Errorf("invalid token claims")
	}

	tokenType, ok := claims["type"].(string)
	if !ok || tokenType != tokenTypeSession {
		return "", "", fmt.Errorf("token is not a session token")
	}

	sessionID, ok := claims["sid"].(string)
	if !ok || sessionID == "" {
		return "", "", fmt.Errorf("sid not found in token")
	}

	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return "", "", fmt.Errorf("sub not found in token")
	}

	return sessionID, userID, nil
}
