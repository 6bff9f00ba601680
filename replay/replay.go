// Package replay folds a recorded event log back into engine.GameState and
// validates its integrity, per spec.md §4.3. It never re-invokes the RNG or
// the engine's transition functions — it reconstructs state purely from
// event payloads, which is what makes replay independent of engine
// implementation changes as long as the event shapes stay stable.
package replay

import (
	"fmt"

	"eldorado/card"
	"eldorado/engine"
)

// ReplayGame folds events[0..] left to right into a fresh GameState. At
// every step it verifies EventIndex is prev+1 and GameID matches, failing
// with a CORRUPT_LOG ReplayError otherwise. After the full fold, every
// invariant from spec.md §3 is re-checked; a violation is reported as
// INVARIANT_VIOLATION.
func ReplayGame(events []engine.Event) (*engine.GameState, error) {
	if len(events) == 0 {
		return nil, &ReplayError{Reason: ReasonCorruptLog, Message: "empty event log"}
	}

	state := &engine.GameState{
		PlayerStates:     map[string]*engine.PlayerState{},
		CumulativeScores: map[string]int{},
	}

	gameID := events[0].GameID
	wantIndex := 0
	for _, ev := range events {
		if ev.GameID != gameID {
			return nil, &ReplayError{EventIndex: ev.EventIndex, Reason: ReasonCorruptLog,
				Message: fmt.Sprintf("gameId mismatch: expected %s got %s", gameID, ev.GameID)}
		}
		if ev.EventIndex != wantIndex {
			return nil, &ReplayError{EventIndex: ev.EventIndex, Reason: ReasonCorruptLog,
				Message: fmt.Sprintf("non-contiguous eventIndex: expected %d got %d", wantIndex, ev.EventIndex)}
		}
		if err := applyEvent(state, ev); err != nil {
			return nil, err
		}
		wantIndex++
	}
	state.GameID = gameID

	if err := validateInvariants(state); err != nil {
		return nil, err
	}
	return state, nil
}

func applyEvent(state *engine.GameState, ev engine.Event) error {
	switch ev.Type {
	case engine.EventGameCreated:
		p, ok := ev.Payload.(engine.GameCreatedPayload)
		if !ok {
			return corrupt(ev, "GAME_CREATED payload has unexpected shape")
		}
		state.Config = p.Config
		state.Phase = engine.PhaseLobby

	case engine.EventPlayerJoined:
		p, ok := ev.Payload.(engine.PlayerJoinedPayload)
		if !ok {
			return corrupt(ev, "PLAYER_JOINED payload has unexpected shape")
		}
		state.Players = append(state.Players, engine.Player{
			PlayerID: p.PlayerID, SeatIndex: p.SeatIndex, Profile: p.Profile,
			IsBot: p.IsBot, Spectator: p.Spectator, Status: engine.StatusActive,
		})
		if !p.Spectator {
			state.PlayerStates[p.PlayerID] = &engine.PlayerState{}
			state.CumulativeScores[p.PlayerID] = 0
		}

	case engine.EventRoundStarted:
		p, ok := ev.Payload.(engine.RoundStartedPayload)
		if !ok {
			return corrupt(ev, "ROUND_STARTED payload has unexpected shape")
		}
		state.RoundState = &engine.RoundState{
			RoundIndex: p.RoundIndex, CardsPerPlayer: p.CardsPerPlayer,
			DealerPlayerID: p.DealerPlayerID, StartingPlayerID: p.StartingPlayerID,
			Bids: map[string]*int{},
		}
		for pid := range state.PlayerStates {
			state.RoundState.Bids[pid] = nil
		}
		state.Phase = engine.PhaseBidding

	case engine.EventCardsDealt:
		p, ok := ev.Payload.(engine.CardsDealtPayload)
		if !ok {
			return corrupt(ev, "CARDS_DEALT payload has unexpected shape")
		}
		for pid, hand := range p.Hands {
			ps, found := state.PlayerStates[pid]
			if !found {
				return corrupt(ev, "CARDS_DEALT references unknown player "+pid)
			}
			ps.Hand = hand
			ps.TricksWon = 0
			ps.Bid = nil
			ps.RoundScoreDelta = 0
		}

	case engine.EventTrumpRevealed:
		p, ok := ev.Payload.(engine.TrumpRevealedPayload)
		if !ok {
			return corrupt(ev, "TRUMP_REVEALED payload has unexpected shape")
		}
		if state.RoundState == nil {
			return corrupt(ev, "TRUMP_REVEALED before ROUND_STARTED")
		}
		tc := p.TrumpCard
		state.RoundState.TrumpCard = &tc
		state.RoundState.TrumpSuit = p.TrumpSuit

	case engine.EventPlayerBid:
		p, ok := ev.Payload.(engine.PlayerBidPayload)
		if !ok {
			return corrupt(ev, "PLAYER_BID payload has unexpected shape")
		}
		if state.RoundState == nil {
			return corrupt(ev, "PLAYER_BID outside an active round")
		}
		bid := p.Bid
		state.RoundState.Bids[p.PlayerID] = &bid
		if ps, ok := state.PlayerStates[p.PlayerID]; ok {
			ps.Bid = &bid
		}

	case engine.EventBiddingComplete:
		if state.RoundState == nil {
			return corrupt(ev, "BIDDING_COMPLETE outside an active round")
		}
		state.RoundState.BiddingComplete = true
		state.Phase = engine.PhasePlaying
		state.RoundState.TrickInProgress = &engine.TrickState{
			TrickIndex: 0, LeaderPlayerID: state.RoundState.StartingPlayerID,
		}

	case engine.EventTrickStarted:
		p, ok := ev.Payload.(engine.TrickStartedPayload)
		if !ok {
			return corrupt(ev, "TRICK_STARTED payload has unexpected shape")
		}
		if state.RoundState == nil {
			return corrupt(ev, "TRICK_STARTED outside an active round")
		}
		state.RoundState.TrickInProgress = &engine.TrickState{
			TrickIndex: p.TrickIndex, LeaderPlayerID: p.LeaderPlayerID,
		}

	case engine.EventCardPlayed:
		p, ok := ev.Payload.(engine.CardPlayedPayload)
		if !ok {
			return corrupt(ev, "CARD_PLAYED payload has unexpected shape")
		}
		if state.RoundState == nil || state.RoundState.TrickInProgress == nil {
			return corrupt(ev, "CARD_PLAYED with no trick in progress")
		}
		ps, found := state.PlayerStates[p.PlayerID]
		if !found {
			return corrupt(ev, "CARD_PLAYED references unknown player "+p.PlayerID)
		}
		if idx := indexOfCard(ps.Hand, p.Card.ID); idx >= 0 {
			ps.Hand = append(ps.Hand[:idx:idx], ps.Hand[idx+1:]...)
		} else {
			return corrupt(ev, "CARD_PLAYED card not found in player's hand")
		}
		trick := state.RoundState.TrickInProgress
		trick.Plays = append(trick.Plays, engine.Play{PlayerID: p.PlayerID, Card: p.Card, Order: p.Order})
		if p.Order == 0 {
			suit := p.Card.Suit
			trick.LedSuit = &suit
		}

	case engine.EventTrumpBroken:
		if state.RoundState == nil {
			return corrupt(ev, "TRUMP_BROKEN outside an active round")
		}
		state.RoundState.TrumpBroken = true

	case engine.EventTrickCompleted:
		p, ok := ev.Payload.(engine.TrickCompletedPayload)
		if !ok {
			return corrupt(ev, "TRICK_COMPLETED payload has unexpected shape")
		}
		if state.RoundState == nil || state.RoundState.TrickInProgress == nil {
			return corrupt(ev, "TRICK_COMPLETED with no trick in progress")
		}
		finished := *state.RoundState.TrickInProgress
		finished.Completed = true
		finished.WinningPlayerID = p.WinningPlayerID
		finished.WinningCardID = p.WinningCardID
		state.RoundState.CompletedTricks = append(state.RoundState.CompletedTricks, finished)
		state.RoundState.TrickInProgress = nil
		if ps, ok := state.PlayerStates[p.WinningPlayerID]; ok {
			ps.TricksWon++
		}

	case engine.EventRoundScored:
		p, ok := ev.Payload.(engine.RoundScoredPayload)
		if !ok {
			return corrupt(ev, "ROUND_SCORED payload has unexpected shape")
		}
		for pid, delta := range p.Summary.Deltas {
			state.CumulativeScores[pid] += delta
			if ps, ok := state.PlayerStates[pid]; ok {
				ps.RoundScoreDelta = delta
				ps.Hand = nil
				ps.Bid = nil
				ps.TricksWon = 0
			}
		}
		state.RoundSummaries = append(state.RoundSummaries, p.Summary)
		state.Phase = engine.PhaseScoring

	case engine.EventGameCompleted:
		state.Phase = engine.PhaseCompleted

	case engine.EventInvalidAction:
		// No state mutation; recorded purely for stats (spec.md §7).

	default:
		return corrupt(ev, "unknown event type "+string(ev.Type))
	}
	return nil
}

func indexOfCard(hand []card.Card, id string) int {
	for i, c := range hand {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func corrupt(ev engine.Event, message string) error {
	return &ReplayError{EventIndex: ev.EventIndex, Reason: ReasonCorruptLog, Message: message}
}

// validateInvariants re-checks the invariants from spec.md §3 against the
// final folded state.
func validateInvariants(state *engine.GameState) error {
	sumDeltas := map[string]int{}
	for _, summary := range state.RoundSummaries {
		for pid, d := range summary.Deltas {
			sumDeltas[pid] += d
		}
	}
	for pid, score := range state.CumulativeScores {
		if sumDeltas[pid] != score {
			return &ReplayError{Reason: ReasonInvariantViolation,
				Message: fmt.Sprintf("cumulativeScores[%s]=%d does not equal sum of round deltas (%d)", pid, score, sumDeltas[pid])}
		}
	}

	if state.RoundState != nil && state.Phase == engine.PhasePlaying {
		n := len(state.PlayerStates)
		total := 0
		for _, ps := range state.PlayerStates {
			total += len(ps.Hand)
		}
		total += len(state.RoundState.CompletedTricks) * n
		if state.RoundState.TrickInProgress != nil {
			total += len(state.RoundState.TrickInProgress.Plays)
		}
		if want := state.RoundState.CardsPerPlayer * n; total != want {
			return &ReplayError{Reason: ReasonInvariantViolation,
				Message: fmt.Sprintf("card conservation violated: total=%d want=%d", total, want)}
		}

		seen := map[string]struct{}{}
		record := func(id string) error {
			if _, dup := seen[id]; dup {
				return &ReplayError{Reason: ReasonInvariantViolation, Message: "card id appears twice: " + id}
			}
			seen[id] = struct{}{}
			return nil
		}
		for _, ps := range state.PlayerStates {
			for _, c := range ps.Hand {
				if err := record(c.ID); err != nil {
					return err
				}
			}
		}
		for _, t := range state.RoundState.CompletedTricks {
			for _, pl := range t.Plays {
				if err := record(pl.Card.ID); err != nil {
					return err
				}
			}
		}
		if state.RoundState.TrickInProgress != nil {
			for _, pl := range state.RoundState.TrickInProgress.Plays {
				if err := record(pl.Card.ID); err != nil {
					return err
				}
			}
		}
	}

	return nil
}
