// Package bot implements the Bot Manager's decision strategies (C7):
// deterministic baseline play, and an optional remote HTTP brain that
// falls back to the baseline on any failure. Grounded on
// holdem/npc/brain.go's BrainDecider{Decide,Name} capability interface
// and holdem/npc/rule_brain.go's persona-driven heuristic, adapted from
// poker hand-strength-by-rank-sum to this game's "count strong cards"
// bidding rule and follow/trump-aware card choice (spec.md §4.7).
package bot

import (
	"sort"

	"eldorado/card"
	"eldorado/engine"
	"eldorado/rng"
)

// Strategy satisfies room.BotStrategy (duck-typed; bot does not import
// room to avoid a cycle).
type Strategy interface {
	ChooseBid(state *engine.GameState, playerID string) int
	ChoosePlay(state *engine.GameState, playerID string) string
}

// Baseline is deterministic given the round's own seeded RNG, so replay
// reproduces identical bot decisions from the same sessionSeed.
type Baseline struct{}

func NewBaseline() *Baseline { return &Baseline{} }

// ChooseBid counts "strong" cards (trumps, aces, kings backed by length)
// then applies ±1 jitter drawn from the round seed, capped below a sweep
// bid per spec.md §4.7.
func (Baseline) ChooseBid(state *engine.GameState, playerID string) int {
	ps, ok := state.PlayerStates[playerID]
	if !ok || state.RoundState == nil {
		return 0
	}
	rs := state.RoundState
	strong := 0
	kingsWithLength := 0
	for _, c := range ps.Hand {
		switch {
		case rs.TrumpSuit != nil && c.Suit == *rs.TrumpSuit:
			strong++
		case c.Rank == card.Ace:
			strong++
		case c.Rank == card.King:
			kingsWithLength++
		}
	}
	if len(ps.Hand) >= 4 {
		strong += kingsWithLength
	}

	r := rng.New(rs.RoundSeed + ":" + playerID + ":bid")
	jitter := r.Intn(3) - 1 // -1, 0, or +1
	bid := strong + jitter
	if bid < 0 {
		bid = 0
	}
	maxBid := rs.CardsPerPlayer - 1
	if maxBid < 0 {
		maxBid = 0
	}
	if bid > maxBid {
		bid = maxBid
	}
	return bid
}

// ChoosePlay: follow the led suit with the lowest winning card if possible;
// otherwise play the lowest non-trump; otherwise the lowest trump. When
// leading, prefer a non-trump, non-ace card, else the lowest card overall.
func (Baseline) ChoosePlay(state *engine.GameState, playerID string) string {
	legal := engine.LegalCardIDs(state, playerID)
	if len(legal) == 0 {
		return ""
	}
	ps := state.PlayerStates[playerID]
	byID := make(map[string]card.Card, len(ps.Hand))
	for _, c := range ps.Hand {
		byID[c.ID] = c
	}
	legalCards := make([]card.Card, 0, len(legal))
	for _, id := range legal {
		legalCards = append(legalCards, byID[id])
	}

	rs := state.RoundState
	trick := rs.TrickInProgress
	isLeading := trick == nil || len(trick.Plays) == 0

	if !isLeading && trick.LedSuit != nil {
		var ofLed []card.Card
		for _, c := range legalCards {
			if c.Suit == *trick.LedSuit {
				ofLed = append(ofLed, c)
			}
		}
		if len(ofLed) > 0 {
			best := highestInTrick(trick, rs.TrumpSuit)
			winning := filterAbove(ofLed, best)
			if len(winning) > 0 {
				return lowest(winning).ID
			}
			return lowest(ofLed).ID
		}
	}

	if rs.TrumpSuit != nil {
		var nonTrump []card.Card
		for _, c := range legalCards {
			if c.Suit != *rs.TrumpSuit {
				nonTrump = append(nonTrump, c)
			}
		}
		if len(nonTrump) > 0 {
			if isLeading {
				var nonAce []card.Card
				for _, c := range nonTrump {
					if c.Rank != card.Ace {
						nonAce = append(nonAce, c)
					}
				}
				if len(nonAce) > 0 {
					return lowest(nonAce).ID
				}
			}
			return lowest(nonTrump).ID
		}
	}
	return lowest(legalCards).ID
}

func lowest(cards []card.Card) card.Card {
	best := cards[0]
	for _, c := range cards[1:] {
		if c.Rank < best.Rank {
			best = c
		}
	}
	return best
}

// highestInTrick returns the best play so far this trick (trump beats
// led suit beats anything else — same category rule the engine uses to
// resolve the trick winner).
func highestInTrick(trick *engine.TrickState, trumpSuit *card.Suit) engine.Play {
	category := func(p engine.Play) int {
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
		if cat > bestCat || (cat == bestCat && p.Card.Rank > best.Card.Rank) {
			best, bestCat = p, cat
		}
	}
	return best
}

func filterAbove(cards []card.Card, best engine.Play) []card.Card {
	var out []card.Card
	for _, c := range cards {
		if c.Suit == best.Card.Suit && c.Rank > best.Card.Rank {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}
