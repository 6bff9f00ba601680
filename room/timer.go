package room

import (
	"log"
	"time"

	"eldorado/engine"
)

// scheduleNext recomputes which player(s) are on the clock and when their
// deadline falls, per spec.md §4.5's "update turn timer" step. Bidding is
// not turn-ordered (any player with an unset bid may act), so every
// still-unbid player gets a deadline; playing is turn-ordered, so only the
// single next-to-act player does.
func (r *Room) scheduleNext(now time.Time) {
	r.deadlines = map[string]time.Time{}

	switch r.state.Phase {
	case engine.PhaseBidding:
		if r.state.RoundState == nil {
			return
		}
		for _, p := range r.state.ActivePlayers() {
			if r.state.RoundState.Bids[p.PlayerID] != nil {
				continue
			}
			r.deadlines[p.PlayerID] = now.Add(r.deadlineFor(p.IsBot))
		}
	case engine.PhasePlaying:
		pid, ok := engine.NextToAct(r.state)
		if !ok {
			return
		}
		p, found := r.playerByID(pid)
		if !found {
			return
		}
		r.deadlines[pid] = now.Add(r.deadlineFor(p.IsBot))
	}
}

func (r *Room) deadlineFor(isBot bool) time.Duration {
	if isBot {
		return r.botThinkDelay
	}
	return r.turnTimeout
}

func (r *Room) playerByID(id string) (engine.Player, bool) {
	for _, p := range r.state.Players {
		if p.PlayerID == id {
			return p, true
		}
	}
	return engine.Player{}, false
}

// sweepTimeouts runs on the actor goroutine (invoked from run()'s ticker
// case), so it can call engine operations directly without going through
// SubmitCommand/the events channel.
func (r *Room) sweepTimeouts() {
	now := r.now()
	var due []string
	for pid, deadline := range r.deadlines {
		if !now.Before(deadline) {
			due = append(due, pid)
		}
	}
	for _, pid := range due {
		r.fireTimeout(pid, now)
		now = r.now()
	}
}

// fireTimeout produces the automatic action for a player whose turn timer
// expired: a bot always acts via BotStrategy; a human gets an automatic
// fallback too (see chooseBid/choosePlay) so the game never stalls,
// grounded on the teacher's
// pickTimeoutAction (apps/server/internal/table/table.go) generalized
// from poker's check/fold/call ladder to bid/play fallbacks.
func (r *Room) fireTimeout(playerID string, now time.Time) {
	p, found := r.playerByID(playerID)
	if !found {
		return
	}

	switch r.state.Phase {
	case engine.PhaseBidding:
		bid := r.chooseBid(p, playerID)
		next, evs, err := engine.ApplyBid(r.state, playerID, bid, now)
		if err != nil {
			log.Printf("[room %s] timeout auto-bid for %s rejected: %v", r.ID, playerID, err)
			delete(r.deadlines, playerID)
			return
		}
		r.setState(next)
		r.commit(evs, now)
		r.maybeAutoStartNextRound(now)
		r.scheduleNext(now)
		r.finalizeIfComplete(now)

	case engine.PhasePlaying:
		cardID := r.choosePlay(p, playerID)
		if cardID == "" {
			delete(r.deadlines, playerID)
			return
		}
		next, evs, err := engine.PlayCard(r.state, playerID, cardID, now)
		if err != nil {
			log.Printf("[room %s] timeout auto-play for %s rejected: %v", r.ID, playerID, err)
			delete(r.deadlines, playerID)
			return
		}
		r.setState(next)
		r.commit(evs, now)
		r.maybeAutoStartNextRound(now)
		r.scheduleNext(now)
		r.finalizeIfComplete(now)
	}
}

// chooseBid defers to the bot strategy for bot seats; for a human whose
// timer lapsed it tries the smallest bid the hook rule will accept.
func (r *Room) chooseBid(p engine.Player, playerID string) int {
	if p.IsBot && r.bots != nil {
		return r.bots.ChooseBid(r.state, playerID)
	}
	max := 0
	if r.state.RoundState != nil {
		max = r.state.RoundState.CardsPerPlayer
	}
	for bid := 0; bid <= max; bid++ {
		if _, _, err := engine.ApplyBid(r.state, playerID, bid, r.now()); err == nil {
			return bid
		}
	}
	return 0
}

// choosePlay defers to the bot strategy for bot seats; for a human whose
// timer lapsed it plays the first legal card in hand.
func (r *Room) choosePlay(p engine.Player, playerID string) string {
	if p.IsBot && r.bots != nil {
		return r.bots.ChoosePlay(r.state, playerID)
	}
	legal := engine.LegalCardIDs(r.state, playerID)
	if len(legal) == 0 {
		return ""
	}
	return legal[0]
}
