// Package config parses the environment variables spec.md §6 enumerates
// into a typed Config, grounded on apps/server/main.go's
// os.Getenv-with-trimmed-fallback idiom (and auth's authModeFromEnv
// pattern for a parsed-with-default string knob).
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every server knob spec.md §6 names.
type Config struct {
	Host string
	Port string

	PlayerTokenSecret string
	PlayerTokenTTL    time.Duration

	DatabaseURL string

	MCTSEnabled         bool
	MCTSEndpoint        string
	MCTSStrategyType    string
	MCTSStrategyParams  string

	LogLevel string

	TurnTimeout time.Duration
	BotDelay    time.Duration
}

const (
	defaultHost           = "0.0.0.0"
	defaultPort           = "8080"
	defaultTokenTTL        = time.Hour
	defaultTurnTimeoutMS   = 30_000
	defaultBotDelayMS      = 500
	defaultLogLevel       = "info"
)

// FromEnv reads every variable spec.md §6 lists, applying the same
// defaults a developer running this locally without a .env file would
// expect.
func FromEnv() Config {
	return Config{
		Host: getenvDefault("HOST", defaultHost),
		Port: getenvDefault("PORT", defaultPort),

		PlayerTokenSecret: os.Getenv("PLAYER_TOKEN_SECRET"),
		PlayerTokenTTL:    getenvDuration("PLAYER_TOKEN_TTL", defaultTokenTTL),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		MCTSEnabled:        getenvBool("MCTS_ENABLED", false),
		MCTSEndpoint:       os.Getenv("MCTS_ENDPOINT"),
		MCTSStrategyType:   os.Getenv("MCTS_STRATEGY_TYPE"),
		MCTSStrategyParams: os.Getenv("MCTS_STRATEGY_PARAMS"),

		LogLevel: getenvDefault("LOG_LEVEL", defaultLogLevel),

		TurnTimeout: getenvMillis("TURN_TIMEOUT_MS", defaultTurnTimeoutMS),
		BotDelay:    getenvMillis("BOT_DELAY_MS", defaultBotDelayMS),
	}
}

func getenvDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func getenvBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

func getenvMillis(key string, fallbackMillis int) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return time.Duration(fallbackMillis) * time.Millisecond
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		return time.Duration(fallbackMillis) * time.Millisecond
	}
	return time.Duration(ms) * time.Millisecond
}
