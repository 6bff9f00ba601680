package config

import (
	"testing"
	"time"
)

func TestFromEnv_DefaultsWhenUnset(t *testing.T) {
	for _, key := range []string{"HOST", "PORT", "TURN_TIMEOUT_MS", "BOT_DELAY_MS", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	cfg := FromEnv()
	if cfg.Host != defaultHost || cfg.Port != defaultPort {
		t.Fatalf("expected default host/port, got %+v", cfg)
	}
	if cfg.TurnTimeout != defaultTurnTimeoutMS*time.Millisecond {
		t.Fatalf("expected default turn timeout, got %v", cfg.TurnTimeout)
	}
	if cfg.LogLevel != defaultLogLevel {
		t.Fatalf("expected default log level, got %q", cfg.LogLevel)
	}
}

func TestFromEnv_ReadsOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TURN_TIMEOUT_MS", "15000")
	t.Setenv("MCTS_ENABLED", "true")
	t.Setenv("MCTS_ENDPOINT", "http://bots.internal")

	cfg := FromEnv()
	if cfg.Port != "9090" {
		t.Fatalf("expected PORT override, got %q", cfg.Port)
	}
	if cfg.TurnTimeout != 15*time.Second {
		t.Fatalf("expected 15s turn timeout, got %v", cfg.TurnTimeout)
	}
	if !cfg.MCTSEnabled || cfg.MCTSEndpoint != "http://bots.internal" {
		t.Fatalf("expected MCTS override, got %+v", cfg)
	}
}
