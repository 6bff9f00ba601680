package persistence

import (
	"context"

	"eldorado/engine"
)

// noopService is the default backend when no DATABASE_URL is configured,
// mirroring the teacher's noopService (apps/server/internal/ledger/
// service.go) — every room still runs fully in-memory; only durability is
// skipped.
type noopService struct{}

// NewNoop returns a Service that accepts every call and persists nothing.
func NewNoop() Service { return noopService{} }

func (noopService) Close() error { return nil }

func (noopService) AppendEvents(string, []engine.Event) {}

func (noopService) LoadEvents(context.Context, string) ([]engine.Event, error) { return nil, nil }

func (noopService) FinalizeGame(context.Context, string, *engine.GameState, map[string]int) error {
	return nil
}

func (noopService) UpdatePlayerLifetime(context.Context, string, bool, int) error { return nil }

func (noopService) PlayerStats(_ context.Context, playerID string) (PlayerLifetimeStats, error) {
	return PlayerLifetimeStats{PlayerID: playerID}, nil
}
