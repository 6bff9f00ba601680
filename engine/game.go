package engine

import (
	"fmt"
	"time"

	"eldorado/card"
	"eldorado/rng"
)

// NewGame constructs the initial LOBBY-phase state for a game and the
// GAME_CREATED event recording its config. Mirrors the teacher's
// holdem.NewGame(Config) constructor shape.
func NewGame(gameID string, cfg Config, now time.Time) (*GameState, []Event, error) {
	if cfg.RoundCount == 0 {
		cfg.RoundCount = 10
	}
	if err := cfg.validate(); err != nil {
		return nil, nil, err
	}
	g := &GameState{
		GameID:           gameID,
		Config:           cfg,
		Phase:            PhaseLobby,
		Players:          nil,
		PlayerStates:     map[string]*PlayerState{},
		CumulativeScores: map[string]int{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	events := []Event{{Type: EventGameCreated, Payload: GameCreatedPayload{Config: cfg}}}
	return g, events, nil
}

// AddPlayer seats a player (or spectator) into the lobby. Active seats may
// only be added before the first round starts; spectators may join at any
// phase, matching the "spectators" supplemented feature in SPEC_FULL.md.
func AddPlayer(state *GameState, playerID string, profile Profile, isBot, spectator bool, now time.Time) (*GameState, []Event, error) {
	if !spectator && state.Phase != PhaseLobby {
		return state, nil, newEngineError(CodeRoundNotReady, "active seats can only join before the first round starts")
	}
	if _, ok := state.playerByID(playerID); ok {
		return state, nil, newEngineError(CodeInvalidPlay, "player already seated")
	}
	next := state.clone()
	seatIndex := len(next.Players)
	p := Player{
		PlayerID:  playerID,
		SeatIndex: seatIndex,
		Profile:   profile,
		IsBot:     isBot,
		Spectator: spectator,
		Status:    StatusActive,
	}
	next.Players = append(next.Players, p)
	if !spectator {
		next.PlayerStates[playerID] = &PlayerState{}
		next.CumulativeScores[playerID] = 0
	}
	next.UpdatedAt = now
	events := []Event{{Type: EventPlayerJoined, Payload: PlayerJoinedPayload{
		PlayerID: playerID, SeatIndex: seatIndex, Profile: profile, IsBot: isBot, Spectator: spectator,
	}}}
	return next, events, nil
}

// StartRound deals a new round. Preconditions: phase ∈ {LOBBY, SCORING},
// len(activePlayers) ≥ minPlayers.
func StartRound(state *GameState, now time.Time) (*GameState, []Event, error) {
	if state.Phase != PhaseLobby && state.Phase != PhaseScoring {
		return state, nil, newEngineError(CodeRoundNotReady, fmt.Sprintf("cannot start round from phase %s", state.Phase))
	}
	active := state.ActivePlayers()
	if len(active) < state.Config.MinPlayers {
		return state, nil, newEngineError(CodeRoundNotReady, "not enough active players to start a round")
	}

	next := state.clone()

	roundIndex := 0
	dealerID := active[0].PlayerID
	if state.RoundState != nil {
		roundIndex = state.RoundState.RoundIndex + 1
		dealerID = nextActivePlayerID(active, state.RoundState.DealerPlayerID)
	}
	startingID := nextActivePlayerID(active, dealerID)

	cardsPerPlayer := CardsPerPlayerForRound(state.Config.RoundCount, roundIndex)
	numDecks := NumDecksForRound(cardsPerPlayer, len(active))

	deck := card.NewDeck(numDecks)
	roundSeed := rng.RoundSeed(state.Config.SessionSeed, roundIndex)
	r := rng.New(roundSeed)
	rng.ShuffleDeck(r, deck)

	hands := make(map[string][]card.Card, len(active))
	dealOrderRing := buildSeatRing(active, startingID)
	cur := dealOrderRing
	for i := 0; i < len(active); i++ {
		dealt, ok := deck.PopCards(cardsPerPlayer)
		if !ok {
			return state, nil, newEngineError(CodeRoundNotReady, "deck exhausted while dealing")
		}
		hands[cur.Player.PlayerID] = dealt
		cur = cur.Next
	}

	var trumpCard *card.Card
	var trumpSuit *card.Suit
	if tc, ok := deck.PopCard(); ok {
		trumpCard = &tc
		s := tc.Suit
		trumpSuit = &s
	}

	bids := make(map[string]*int, len(active))
	for _, p := range active {
		bids[p.PlayerID] = nil
		ps := next.PlayerStates[p.PlayerID]
		ps.Hand = hands[p.PlayerID]
		ps.TricksWon = 0
		ps.Bid = nil
		ps.RoundScoreDelta = 0
	}

	next.RoundState = &RoundState{
		RoundIndex:       roundIndex,
		CardsPerPlayer:   cardsPerPlayer,
		RoundSeed:        roundSeed,
		TrumpCard:        trumpCard,
		TrumpSuit:        trumpSuit,
		TrumpBroken:      false,
		Bids:             bids,
		BiddingComplete:  false,
		TrickInProgress:  nil,
		CompletedTricks:  nil,
		DealerPlayerID:   dealerID,
		StartingPlayerID: startingID,
	}
	next.Phase = PhaseBidding
	next.UpdatedAt = now

	events := []Event{
		{Type: EventRoundStarted, Payload: RoundStartedPayload{
			RoundIndex: roundIndex, CardsPerPlayer: cardsPerPlayer,
			DealerPlayerID: dealerID, StartingPlayerID: startingID,
		}},
		{Type: EventCardsDealt, Payload: CardsDealtPayload{Hands: hands}},
		{Type: EventTrumpRevealed, Payload: TrumpRevealedPayload{TrumpCard: derefCard(trumpCard), TrumpSuit: trumpSuit}},
	}
	return next, events, nil
}

func derefCard(c *card.Card) card.Card {
	if c == nil {
		return card.Card{}
	}
	return *c
}

// ApplyBid records a player's bid. Bidding is not turn-ordered: any player
// with an unset bid may bid at any time while phase=BIDDING.
func ApplyBid(state *GameState, playerID string, bid int, now time.Time) (*GameState, []Event, error) {
	if state.Phase != PhaseBidding || state.RoundState == nil {
		return state, nil, newEngineError(CodeRoundNotReady, "not currently bidding")
	}
	rs := state.RoundState
	existing, known := rs.Bids[playerID]
	if !known {
		return state, nil, newEngineError(CodeInvalidBid, "player is not part of this round's bidding")
	}
	if existing != nil {
		return state, nil, newEngineError(CodeInvalidBid, "player has already bid")
	}
	if bid < 0 || bid > rs.CardsPerPlayer {
		return state, nil, newEngineError(CodeInvalidBid, "bid out of range")
	}

	if state.Config.EnforceHookRule && playerID == rs.DealerPlayerID {
		allOthersSet := true
		sumOthers := 0
		for pid, b := range rs.Bids {
			if pid == playerID {
				continue
			}
			if b == nil {
				allOthersSet = false
				break
			}
			sumOthers += *b
		}
		if allOthersSet && sumOthers+bid == rs.CardsPerPlayer {
			return state, nil, newEngineError(CodeHookViolation, "dealer's bid cannot make total bids equal tricks available")
		}
	}

	next := state.clone()
	b := bid
	next.RoundState.Bids[playerID] = &b
	next.PlayerStates[playerID].Bid = &b
	next.UpdatedAt = now

	events := []Event{{Type: EventPlayerBid, Payload: PlayerBidPayload{PlayerID: playerID, Bid: bid}}}

	allSet := true
	finalBids := make(map[string]int, len(next.RoundState.Bids))
	for pid, v := range next.RoundState.Bids {
		if v == nil {
			allSet = false
			break
		}
		finalBids[pid] = *v
	}
	if allSet {
		next.RoundState.BiddingComplete = true
		next.Phase = PhasePlaying
		next.RoundState.TrickInProgress = &TrickState{
			TrickIndex:     0,
			LeaderPlayerID: next.RoundState.StartingPlayerID,
			Plays:          nil,
		}
		events = append(events, Event{Type: EventBiddingComplete, Payload: BiddingCompletePayload{Bids: finalBids}})
	}
	return next, events, nil
}

// PlayCard plays a card for playerID. If this completes the trick, the
// engine cascades into completeTrick (and, if that finishes the round,
// scoreRound) as a continuation of this same call, per spec.md §4.2.
func PlayCard(state *GameState, playerID string, cardID string, now time.Time) (*GameState, []Event, error) {
	if state.Phase != PhasePlaying || state.RoundState == nil || !state.RoundState.BiddingComplete {
		return state, nil, newEngineError(CodeRoundNotReady, "not currently playing")
	}
	rs := state.RoundState
	trick := rs.TrickInProgress
	if trick == nil {
		return state, nil, newEngineError(CodeTrickIncomplete, "no trick in progress")
	}

	active := state.ActivePlayers()
	expected := seatAtOffset(active, trick.LeaderPlayerID, len(trick.Plays))
	if expected != playerID {
		return state, nil, newEngineError(CodeNotPlayersTurn, "it is not this player's turn")
	}

	ps := state.PlayerStates[playerID]
	idx := -1
	for i, c := range ps.Hand {
		if c.ID == cardID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return state, nil, newEngineError(CodeCardNotInHand, "card not in hand")
	}
	played := ps.Hand[idx]

	isNewTrick := len(trick.Plays) == 0

	if !isNewTrick && trick.LedSuit != nil {
		holdsLed := false
		for _, c := range ps.Hand {
			if c.Suit == *trick.LedSuit {
				holdsLed = true
				break
			}
		}
		if holdsLed && played.Suit != *trick.LedSuit {
			return state, nil, newEngineError(CodeMustFollowSuit, "must follow the led suit")
		}
	}

	if isNewTrick && rs.TrumpSuit != nil && !rs.TrumpBroken && played.Suit == *rs.TrumpSuit {
		onlyTrump := true
		for _, c := range ps.Hand {
			if c.Suit != *rs.TrumpSuit {
				onlyTrump = false
				break
			}
		}
		if !onlyTrump {
			return state, nil, newEngineError(CodeCannotLeadTrump, "cannot lead trump before it is broken")
		}
	}

	wasVoidOfLed := false
	if !isNewTrick && trick.LedSuit != nil {
		wasVoidOfLed = true
		for _, c := range ps.Hand {
			if c.Suit == *trick.LedSuit {
				wasVoidOfLed = false
				break
			}
		}
	}

	next := state.clone()
	nps := next.PlayerStates[playerID]
	nps.Hand = append(nps.Hand[:idx:idx], nps.Hand[idx+1:]...)

	ntrick := next.RoundState.TrickInProgress
	order := len(ntrick.Plays)
	ntrick.Plays = append(ntrick.Plays, Play{PlayerID: playerID, Card: played, Order: order})

	var events []Event
	if isNewTrick {
		ledSuit := played.Suit
		ntrick.LedSuit = &ledSuit
		events = append(events, Event{Type: EventTrickStarted, Payload: TrickStartedPayload{
			TrickIndex: ntrick.TrickIndex, LeaderPlayerID: ntrick.LeaderPlayerID,
		}})
	}
	events = append(events, Event{Type: EventCardPlayed, Payload: CardPlayedPayload{
		PlayerID: playerID, Card: played, Order: order,
	}})

	if !isNewTrick && rs.TrumpSuit != nil && *rs.TrumpSuit != *trick.LedSuit && played.Suit == *rs.TrumpSuit && wasVoidOfLed {
		next.RoundState.TrumpBroken = true
		events = append(events, Event{Type: EventTrumpBroken, Payload: TrumpBrokenPayload{PlayerID: playerID}})
	}

	next.UpdatedAt = now

	if len(ntrick.Plays) == len(active) {
		completedState, completeEvents, err := completeTrick(next, now)
		if err != nil {
			return state, nil, err
		}
		events = append(events, completeEvents...)
		return completedState, events, nil
	}

	return next, events, nil
}

// completeTrick resolves the winner of the just-finished trick and, if the
// round's last trick just completed, cascades into scoreRound.
func completeTrick(state *GameState, now time.Time) (*GameState, []Event, error) {
	rs := state.RoundState
	trick := rs.TrickInProgress

	winner := trickWinner(trick, rs.TrumpSuit)

	next := state.clone()
	nrs := next.RoundState
	nps := next.PlayerStates[winner.PlayerID]
	nps.TricksWon++

	finished := *nrs.TrickInProgress
	finished.Completed = true
	finished.WinningPlayerID = winner.PlayerID
	finished.WinningCardID = winner.Card.ID
	nrs.CompletedTricks = append(nrs.CompletedTricks, finished)
	nrs.TrickInProgress = nil

	events := []Event{{Type: EventTrickCompleted, Payload: TrickCompletedPayload{
		TrickIndex: finished.TrickIndex, WinningPlayerID: winner.PlayerID, WinningCardID: winner.Card.ID,
	}}}

	if len(nrs.CompletedTricks) == nrs.CardsPerPlayer {
		scoredState, scoreEvents, err := scoreRound(next, now)
		if err != nil {
			return state, nil, err
		}
		events = append(events, scoreEvents...)
		return scoredState, events, nil
	}

	nrs.TrickInProgress = &TrickState{
		TrickIndex:     finished.TrickIndex + 1,
		LeaderPlayerID: winner.PlayerID,
		Plays:          nil,
	}
	return next, events, nil
}

// trickWinner implements the winner-selection law from spec.md §4.2/§8:
// trump beats non-trump; within a suit family higher rank wins; exact
// ties (same suit+rank from different decks) are won by later play order.
func trickWinner(trick *TrickState, trumpSuit *card.Suit) Play {
	category := func(p Play) int {
		if trumpSuit != nil && p.Card.Suit == *trumpSuit {
			return 2
		}
		if trick.LedSuit != nil && p.Card.Suit == *trick.LedSuit {
			return 1
		}
		return 0
	}

	best := trick.Plays[0]
	bestCat := category(best)
	for _, p := range trick.Plays[1:] {
		cat := category(p)
		switch {
		case cat > bestCat:
			best, bestCat = p, cat
		case cat == bestCat && p.Card.Rank >= best.Card.Rank:
			// equal or later play order with the same rank wins the tie
			// (Scenario E: later play order wins exact ties).
			best, bestCat = p, cat
		}
	}
	return best
}

// scoreRound applies the scoring law to every active player, appends the
// round summary, and advances phase to SCORING or, on the final round, to
// COMPLETED.
func scoreRound(state *GameState, now time.Time) (*GameState, []Event, error) {
	rs := state.RoundState
	next := state.clone()

	bids := make(map[string]int, len(rs.Bids))
	tricksWon := make(map[string]int, len(rs.Bids))
	deltas := make(map[string]int, len(rs.Bids))

	for pid := range rs.Bids {
		ps := next.PlayerStates[pid]
		bid := 0
		if ps.Bid != nil {
			bid = *ps.Bid
		}
		tricks := ps.TricksWon
		delta := -(5 + bid)
		if tricks == bid {
			delta = 5 + bid
		}
		next.CumulativeScores[pid] += delta
		ps.RoundScoreDelta = delta
		ps.Hand = nil
		ps.Bid = nil
		ps.TricksWon = 0

		bids[pid] = bid
		tricksWon[pid] = tricks
		deltas[pid] = delta
	}

	summary := RoundSummary{
		RoundIndex:     rs.RoundIndex,
		CardsPerPlayer: rs.CardsPerPlayer,
		TrumpSuit:      rs.TrumpSuit,
		Bids:           bids,
		TricksWon:      tricksWon,
		Deltas:         deltas,
	}
	next.RoundSummaries = append(next.RoundSummaries, summary)
	next.Phase = PhaseScoring
	next.UpdatedAt = now

	events := []Event{{Type: EventRoundScored, Payload: RoundScoredPayload{Summary: summary}}}

	if rs.RoundIndex+1 == state.Config.RoundCount {
		next.Phase = PhaseCompleted
		finalScores := make(map[string]int, len(next.CumulativeScores))
		maxScore := 0
		first := true
		for pid, s := range next.CumulativeScores {
			finalScores[pid] = s
			if first || s > maxScore {
				maxScore = s
				first = false
			}
		}
		var winners []string
		for pid, s := range finalScores {
			if s == maxScore {
				winners = append(winners, pid)
			}
		}
		events = append(events, Event{Type: EventGameCompleted, Payload: GameCompletedPayload{
			FinalScores: finalScores, Winners: winners,
		}})
	}

	return next, events, nil
}

// InvalidActionEvent builds the INVALID_ACTION record the room appends to
// the log when an engine operation is rejected (spec.md §4.5/§7).
func InvalidActionEvent(playerID string, err *EngineError) Event {
	return Event{Type: EventInvalidAction, Payload: InvalidActionPayload{
		PlayerID: playerID, Code: err.Code, Message: err.Message,
	}}
}
