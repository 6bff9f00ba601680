package bot

import (
	"sync"

	"eldorado/engine"
)

// Manager selects which Strategy answers for a given bot seat and
// satisfies room.BotStrategy. Grounded on holdem/npc/manager.go's
// Manager{registry, instances map[playerID]...}, trimmed to this
// engine's single decision surface (bid/play) instead of NPC
// seating/lifecycle, which the room's own AddPlayer(isBot=true) already
// covers via the matchmaking fill-in path (SPEC_FULL.md §9).
type Manager struct {
	mu       sync.RWMutex
	fallback Strategy
	perSeat  map[string]Strategy
}

// NewManager creates a Manager whose default strategy is the
// deterministic Baseline; per-seat overrides (e.g. a Remote strategy for
// a specific persona) are added with SetStrategy.
func NewManager() *Manager {
	return &Manager{
		fallback: NewBaseline(),
		perSeat:  map[string]Strategy{},
	}
}

// SetStrategy assigns a non-default strategy to a specific bot seat.
func (m *Manager) SetStrategy(playerID string, s Strategy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.perSeat[playerID] = s
}

func (m *Manager) strategyFor(playerID string) Strategy {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.perSeat[playerID]; ok {
		return s
	}
	return m.fallback
}

func (m *Manager) ChooseBid(state *engine.GameState, playerID string) int {
	return m.strategyFor(playerID).ChooseBid(state, playerID)
}

func (m *Manager) ChoosePlay(state *engine.GameState, playerID string) string {
	return m.strategyFor(playerID).ChoosePlay(state, playerID)
}
