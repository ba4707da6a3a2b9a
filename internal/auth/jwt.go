package auth

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	// Load env file into environments.
	_ "github.com/joho/godotenv/autoload"
)

// JwtIssuer is the issuer of every token this service signs
const JwtIssuer = "FakedIn"

// DefaultTokenTTL is how long an access token lives unless configured
const DefaultTokenTTL = time.Hour

var (
	secretMu sync.RWMutex
	secret   = []byte(os.Getenv("SECRET_KEY"))
)

// SetSecret replaces the signing key read from SECRET_KEY
func SetSecret(key string) {
	secretMu.Lock()
	defer secretMu.Unlock()
	secret = []byte(key)
}

func signingKey() []byte {
	secretMu.RLock()
	defer secretMu.RUnlock()
	return secret
}

// GenerateStandardToken signs an access token for user id that expires after DefaultTokenTTL
func GenerateStandardToken(id uuid.UUID) (string, *jwt.RegisteredClaims, error) {
	return GenerateTokenWithDuration(id, DefaultTokenTTL)
}

// GenerateTokenWithDuration signs an access token for user id that expires after ttl
func GenerateTokenWithDuration(id uuid.UUID, ttl time.Duration) (string, *jwt.RegisteredClaims, error) {
	key := signingKey()
	if len(key) == 0 {
		return "", nil, errors.New("signing key is not configured")
	}
	now := time.Now()
	claims := &jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    JwtIssuer,
		Subject:   id.String(),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, claims, nil
}

// ValidatedToken parses encodeToken, checks its signature, expiry and issuer
func ValidatedToken(encodeToken string) (*jwt.Token, error) {
	token, err := jwt.ParseWithClaims(encodeToken, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, isvalid := token.Method.(*jwt.SigningMethodHMAC); !isvalid {
			return nil, fmt.Errorf("invalid signing method %v", token.Header["alg"])
		}
		return signingKey(), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !claims.VerifyIssuer(JwtIssuer, true) {
		return nil, errors.New("invalid token issuer")
	}
	return token, nil
}
