package engine

// seatNode is one link in the per-round seating ring, used to walk active
// (seated, non-spectator) players in turn order starting from any seat.
// Grounded on the teacher's PlayerNode linked-ring (holdem/player.go),
// generalized from poker's bet/fold per-seat fields to this engine's
// seat-identity-only walk.
type seatNode struct {
	Player Player
	Next   *seatNode
}

// buildSeatRing links active players into a ring in seat order and
// returns the node for the given starting playerId. It returns nil only
// when active is empty; an unknown startPlayerID yields the first seat.
func buildSeatRing(active []Player, startPlayerID string) *seatNode {
	if len(active) == 0 {
		return nil
	}
	nodes := make([]*seatNode, len(active))
	for i, p := range active {
		nodes[i] = &seatNode{Player: p}
	}
	for i := range nodes {
		nodes[i].Next = nodes[(i+1)%len(nodes)]
	}
	for _, n := range nodes {
		if n.Player.PlayerID == startPlayerID {
			return n
		}
	}
	return nodes[0]
}

// WalkOnce walks the ring once starting at n, stopping (and returning that
// node) the first time fn returns true.
func (n *seatNode) WalkOnce(fn func(*seatNode) bool) *seatNode {
	if n == nil {
		return nil
	}
	cur := n
	for {
		if fn(cur) {
			return cur
		}
		cur = cur.Next
		if cur == nil || cur == n {
			break
		}
	}
	return nil
}

// nextActivePlayerID returns the playerId seated immediately after
// afterPlayerID in seat order among active (non-spectator) players.
func nextActivePlayerID(active []Player, afterPlayerID string) string {
	if len(active) == 0 {
		return ""
	}
	ring := buildSeatRing(active, afterPlayerID)
	if ring == nil || ring.Next == nil {
		return ""
	}
	return ring.Next.Player.PlayerID
}

// seatAtOffset returns the playerId at offset seats after leaderID,
// walking the active-player ring; used to compute whose turn it is within
// a trick (expected player = leader + plays.length, mod seat order).
func seatAtOffset(active []Player, leaderID string, offset int) string {
	ring := buildSeatRing(active, leaderID)
	if ring == nil {
		return ""
	}
	cur := ring
	for i := 0; i < offset; i++ {
		cur = cur.Next
	}
	return cur.Player.PlayerID
}

// NextToAct returns the playerId PlayCard currently expects, and false if
// the game isn't in a state where exactly one player is on the clock (e.g.
// bidding, where any player with an unset bid may act in any order). The
// room uses this to know who to target with a turn timer.
func NextToAct(state *GameState) (string, bool) {
	if state.Phase != PhasePlaying || state.RoundState == nil || state.RoundState.TrickInProgress == nil {
		return "", false
	}
	trick := state.RoundState.TrickInProgress
	active := state.ActivePlayers()
	if len(active) == 0 {
		return "", false
	}
	return seatAtOffset(active, trick.LeaderPlayerID, len(trick.Plays)), true
}

// LegalCardIDs returns the subset of playerID's hand that PlayCard would
// currently accept, in hand order. Used by the room's turn-timeout fallback
// to choose an automatic play without needing a dry-run of PlayCard itself.
func LegalCardIDs(state *GameState, playerID string) []string {
	if state.Phase != PhasePlaying || state.RoundState == nil || state.RoundState.TrickInProgress == nil {
		return nil
	}
	ps, ok := state.PlayerStates[playerID]
	if !ok {
		return nil
	}
	rs := state.RoundState
	trick := rs.TrickInProgress
	isNewTrick := len(trick.Plays) == 0

	holdsLed := false
	if !isNewTrick && trick.LedSuit != nil {
		for _, c := range ps.Hand {
			if c.Suit == *trick.LedSuit {
				holdsLed = true
				break
			}
		}
	}
	onlyTrump := rs.TrumpSuit != nil
	if rs.TrumpSuit != nil {
		for _, c := range ps.Hand {
			if c.Suit != *rs.TrumpSuit {
				onlyTrump = false
				break
			}
		}
	}

	var legal []string
	for _, c := range ps.Hand {
		if !isNewTrick && trick.LedSuit != nil && holdsLed && c.Suit != *trick.LedSuit {
			continue
		}
		if isNewTrick && rs.TrumpSuit != nil && !rs.TrumpBroken && c.Suit == *rs.TrumpSuit && !onlyTrump {
			continue
		}
		legal = append(legal, c.ID)
	}
	return legal
}
