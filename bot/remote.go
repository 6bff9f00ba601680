package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"eldorado/engine"
)

const defaultRemoteTimeout = 2 * time.Second

// MetricsSink records remote-strategy fallbacks; metrics.Sink
// implements this. Declared locally (rather than importing metrics) for
// the same reason room declares BotStrategy/PersistenceSink itself.
type MetricsSink interface {
	IncRemoteBotFallback(reason string)
}

// Remote posts bid/play decisions to an external HTTP brain and falls
// back to a Baseline on any failure — timeout, non-2xx, malformed body,
// or an unknown card id — per spec.md §4.7. Modeled the way the teacher's
// RuleBrain wraps a persona: a struct wrapping a fallback instance rather
// than a from-scratch reimplementation.
type Remote struct {
	Endpoint string
	Client   *http.Client
	Fallback *Baseline
	Metrics  MetricsSink
}

func NewRemote(endpoint string, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}
	return &Remote{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: timeout},
		Fallback: NewBaseline(),
	}
}

type remoteRequest struct {
	Phase   engine.Phase   `json:"phase"`
	Hand    []string       `json:"hand"`
	Context remoteContext  `json:"context"`
	Config  engine.Config  `json:"config"`
}

type remoteContext struct {
	RoundIndex      int             `json:"roundIndex"`
	CardsPerPlayer  int             `json:"cardsPerPlayer"`
	TrumpSuit       string          `json:"trumpSuit,omitempty"`
	TrickInProgress *engine.TrickState `json:"trickInProgress,omitempty"`
	Bids            map[string]*int `json:"bids"`
	Scores          map[string]int  `json:"scores"`
	PlayerID        string          `json:"playerId"`
}

type bidResponse struct {
	Bid int `json:"bid"`
}

type playResponse struct {
	CardID string `json:"card"`
}

func (r *Remote) ChooseBid(state *engine.GameState, playerID string) int {
	var resp bidResponse
	if err := r.call(state, playerID, "/bid", &resp); err != nil {
		r.fallback("bid:" + err.Error())
		return r.Fallback.ChooseBid(state, playerID)
	}
	rs := state.RoundState
	if resp.Bid < 0 || (rs != nil && resp.Bid > rs.CardsPerPlayer) {
		r.fallback("bid:out-of-range")
		return r.Fallback.ChooseBid(state, playerID)
	}
	return resp.Bid
}

func (r *Remote) ChoosePlay(state *engine.GameState, playerID string) string {
	var resp playResponse
	if err := r.call(state, playerID, "/play", &resp); err != nil {
		r.fallback("play:" + err.Error())
		return r.Fallback.ChoosePlay(state, playerID)
	}
	for _, id := range engine.LegalCardIDs(state, playerID) {
		if id == resp.CardID {
			return resp.CardID
		}
	}
	r.fallback("play:unknown-card")
	return r.Fallback.ChoosePlay(state, playerID)
}

func (r *Remote) call(state *engine.GameState, playerID, path string, out any) error {
	ps, ok := state.PlayerStates[playerID]
	if !ok {
		return fmt.Errorf("unknown player %s", playerID)
	}
	hand := make([]string, len(ps.Hand))
	for i, c := range ps.Hand {
		hand[i] = c.ID
	}

	reqCtx := remoteContext{PlayerID: playerID, Bids: map[string]*int{}, Scores: state.CumulativeScores}
	if rs := state.RoundState; rs != nil {
		reqCtx.RoundIndex = rs.RoundIndex
		reqCtx.CardsPerPlayer = rs.CardsPerPlayer
		if rs.TrumpSuit != nil {
			reqCtx.TrumpSuit = rs.TrumpSuit.String()
		}
		reqCtx.TrickInProgress = rs.TrickInProgress
		reqCtx.Bids = rs.Bids
	}

	body, err := json.Marshal(remoteRequest{Phase: state.Phase, Hand: hand, Context: reqCtx, Config: state.Config})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.Client.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Endpoint+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Game-Id", state.GameID)

	resp, err := r.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("remote brain returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (r *Remote) fallback(reason string) {
	log.Printf("[bot] remote strategy falling back: %s", reason)
	if r.Metrics != nil {
		r.Metrics.IncRemoteBotFallback(reason)
	}
}
