// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jason-s-yu/skygrid/internal/game"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port     string
	StoreURL string
	Rules    game.Rules

	LogLevel  string
	LogFormat string

	// TokenTTL is the session token lifetime; zero means tokens never expire.
	TokenTTL       time.Duration
	SessionKeySeed string
}

// Addr returns the listen address for Port.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Load reads the configuration from environment variables. A .env file, if any,
// has already been loaded by godotenv by the time this runs.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "3000"),
		StoreURL:       getEnv("STORE_URL", os.Getenv("REDIS_URL")),
		Rules:          game.DefaultRules(),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
		SessionKeySeed: os.Getenv("SESSION_KEY_SEED"),
	}

	var err error
	if cfg.Rules.MinPlayers, err = getEnvInt("MIN_PLAYERS", cfg.Rules.MinPlayers); err != nil {
		return nil, err
	}
	if cfg.Rules.DefaultTargetScore, err = getEnvInt("DEFAULT_TARGET_SCORE", cfg.Rules.DefaultTargetScore); err != nil {
		return nil, err
	}
	if deck := os.Getenv("DECK"); deck != "" {
		if cfg.Rules.Deck, err = game.ParseDeck(deck); err != nil {
			return nil, fmt.Errorf("DECK: %w", err)
		}
	}
	if err := cfg.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid game rules: %w", err)
	}

	if cfg.TokenTTL, err = parseTokenExpireTime(os.Getenv("TOKEN_EXPIRE_TIME")); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseTokenExpireTime accepts a Go duration, or "never", "0" and "" for no expiry.
func parseTokenExpireTime(s string) (time.Duration, error) {
	switch strings.TrimSpace(s) {
	case "", "0", "never":
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("failed to parse TOKEN_EXPIRE_TIME: %w", err)
	}
	return d, nil
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt parses an environment variable as an integer, returning def when it is unset.
func getEnvInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
