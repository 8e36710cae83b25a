// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any session token that cannot be trusted.
var ErrInvalidToken = errors.New("invalid session token")

// privateKey and publicKey are used for signing and verifying session tokens.
var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// tokenTTL is how long a session token stays valid (0 => never expires).
	tokenTTL time.Duration
)

// Init sets up the signing key and token lifetime. seedHex is a hex encoded
// ed25519 seed; processes sharing a store must share the seed so a token issued by
// one can be resumed on another. An empty seed generates a throwaway key pair.
func Init(seedHex string, ttl time.Duration) error {
	tokenTTL = ttl
	if seedHex == "" {
		var err error
		publicKey, privateKey, err = ed25519.GenerateKey(nil)
		if err != nil {
			return fmt.Errorf("failed to generate ed25519 key pair: %w", err)
		}
		return nil
	}

	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return fmt.Errorf("decode session key seed: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return fmt.Errorf("session key seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	privateKey = ed25519.NewKeyFromSeed(seed)
	publicKey = privateKey.Public().(ed25519.PublicKey)
	return nil
}

// sessionClaims binds a token to one seat in one room.
type sessionClaims struct {
	Room string `json:"room"`
	jwt.RegisteredClaims
}

// CreateSessionToken signs a token with "sub" = playerID and "room" = roomID.
func CreateSessionToken(roomID, playerID string) (string, error) {
	if privateKey == nil {
		return "", errors.New("auth not initialized")
	}
	claims := sessionClaims{
		Room: roomID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  playerID,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	if tokenTTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(tokenTTL))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// AuthenticateSessionToken verifies a session token and returns the room and player it was issued for.
func AuthenticateSessionToken(tokenString string) (roomID, playerID string, err error) {
	var claims sessionClaims
	t, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !t.Valid || claims.Subject == "" || claims.Room == "" {
		return "", "", ErrInvalidToken
	}
	return claims.Room, claims.Subject, nil
}
