package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/waforge/waforge/pkg/env"
)

// JWTSecretKey for signing session tokens
// REQUIRED: Application will panic if not set
var JWTSecretKey string

// TokenTTL bounds the lifetime of issued session tokens.
var TokenTTL time.Duration

func init() {
	// JWT_SECRET_KEY is REQUIRED (min 32 chars) - app will panic if not configured
	JWTSecretKey = env.MustGetEnvString("JWT_SECRET_KEY")
	TokenTTL = env.GetEnvDurationOrDefault("JWT_TOKEN_TTL", 24*time.Hour)
}

// SessionTokenClaims represents the claims in an operator session JWT
type SessionTokenClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateSessionToken creates a JWT for the operator after a successful login
func GenerateSessionToken(username string) (string, error) {
	if JWTSecretKey == "" {
		return "", errors.New("JWT_SECRET_KEY not configured")
	}

	now := time.Now()
	claims := SessionTokenClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(JWTSecretKey))
}

// ValidateSessionToken validates a session JWT and returns the claims
func ValidateSessionToken(tokenString string) (*SessionTokenClaims, error) {
	if JWTSecretKey == "" {
		return nil, errors.New("JWT_SECRET_KEY not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(JWTSecretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*SessionTokenClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token claims")
}
