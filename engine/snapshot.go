package engine

import "eldorado/card"

// ClientGameView is the per-connection projection of GameState: every
// other player's hand is omitted, only the viewing player's own hand (if
// any) is populated, per spec.md §4.6 ("ClientGameView omits other
// players' hands; only hand for you is populated"). Grounded on the
// teacher's Snapshot/PlayerSnapshot pattern (holdem/snapshot.go).
type ClientGameView struct {
	GameID string `json:"gameId"`
	Phase  Phase  `json:"phase"`

	Players []PlayerView `json:"players"`

	CumulativeScores map[string]int `json:"cumulativeScores"`
	RoundSummaries   []RoundSummary `json:"roundSummaries"`

	Round *RoundView `json:"round,omitempty"`

	You *YouView `json:"you,omitempty"`
}

type PlayerView struct {
	PlayerID  string  `json:"playerId"`
	SeatIndex int     `json:"seatIndex"`
	Profile   Profile `json:"profile"`
	IsBot     bool    `json:"isBot"`
	Spectator bool    `json:"spectator"`
	Status    PlayerStatus `json:"status"`
	HasBid    bool    `json:"hasBid"`
	TricksWon int     `json:"tricksWon"`
}

type RoundView struct {
	RoundIndex      int         `json:"roundIndex"`
	CardsPerPlayer  int         `json:"cardsPerPlayer"`
	TrumpSuit       *card.Suit  `json:"trumpSuit"`
	TrumpBroken     bool        `json:"trumpBroken"`
	BiddingComplete bool        `json:"biddingComplete"`
	TrickInProgress *TrickState `json:"trickInProgress"`
	DealerPlayerID  string      `json:"dealerPlayerId"`
}

type YouView struct {
	PlayerID    string      `json:"playerId"`
	SeatIndex   int         `json:"seatIndex"`
	IsSpectator bool        `json:"isSpectator"`
	Hand        []card.Card `json:"hand"`
	Bid         *int        `json:"bid"`
}

// Snapshot builds the ClientGameView for viewerPlayerID (empty for a
// spectator with no seat).
func (g *GameState) Snapshot(viewerPlayerID string) ClientGameView {
	view := ClientGameView{
		GameID:           g.GameID,
		Phase:            g.Phase,
		CumulativeScores: copyIntMap(g.CumulativeScores),
		RoundSummaries:   append([]RoundSummary(nil), g.RoundSummaries...),
	}
	for _, p := range g.Players {
		pv := PlayerView{
			PlayerID: p.PlayerID, SeatIndex: p.SeatIndex, Profile: p.Profile,
			IsBot: p.IsBot, Spectator: p.Spectator, Status: p.Status,
		}
		if ps, ok := g.PlayerStates[p.PlayerID]; ok {
			pv.TricksWon = ps.TricksWon
			pv.HasBid = ps.Bid != nil
		}
		view.Players = append(view.Players, pv)
	}
	if g.RoundState != nil {
		rs := g.RoundState
		view.Round = &RoundView{
			RoundIndex: rs.RoundIndex, CardsPerPlayer: rs.CardsPerPlayer,
			TrumpSuit: rs.TrumpSuit, TrumpBroken: rs.TrumpBroken,
			BiddingComplete: rs.BiddingComplete, TrickInProgress: rs.TrickInProgress,
			DealerPlayerID: rs.DealerPlayerID,
		}
	}
	if ps, ok := g.PlayerStates[viewerPlayerID]; ok {
		if p, found := g.playerByID(viewerPlayerID); found {
			view.You = &YouView{
				PlayerID: viewerPlayerID, SeatIndex: p.SeatIndex,
				IsSpectator: p.Spectator, Hand: append([]card.Card(nil), ps.Hand...), Bid: ps.Bid,
			}
		}
	}
	return view
}

func copyIntMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
