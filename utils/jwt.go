package utils

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var JWTSecret []byte

func init() {
	secret := os.Getenv("CHANNEL_TOKEN_SECRET")
	if secret == "" {
		// Development fallback, overridden in any real deployment.
		secret = "canteen-channel-dev-secret"
	}
	JWTSecret = []byte(secret)
}

// ChannelClaims identifies a channel member. Role is "buyer" or "vendor";
// full user authentication lives outside this service.
type ChannelClaims struct {
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

func GenerateChannelToken(sessionID, role string) (string, error) {
	claims := &ChannelClaims{
		SessionID: sessionID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 24)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "canteen-app",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JWTSecret)
}

func ParseChannelToken(tokenString string) (*ChannelClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ChannelClaims{}, func(token *jwt.Token) (interface{}, error) {
		return JWTSecret, nil
	})

	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(*ChannelClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
