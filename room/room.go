// Package room implements the session actor (C5) that owns one game's
// authoritative state, event log, connection set, and turn timer, and
// serializes every command that touches them. Grounded on the teacher's
// Table actor (apps/server/internal/table/table.go): one goroutine per
// room, a buffered inbound command channel, a ticker-driven timeout
// sweep, and a "never hold the lock across I/O" broadcast discipline —
// generalized from poker actions/seats to bids/plays/turn order.
package room

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"eldorado/card"
	"eldorado/engine"
	"eldorado/eventlog"
)

const (
	defaultTurnTimeout   = 30 * time.Second
	defaultBotThinkDelay = 500 * time.Millisecond
	defaultTickInterval  = 250 * time.Millisecond
)

// BotStrategy decides bids and plays for bot-controlled seats. The bot
// package implements this; room only depends on the interface so the two
// packages don't need to import each other.
type BotStrategy interface {
	ChooseBid(state *engine.GameState, playerID string) int
	ChoosePlay(state *engine.GameState, playerID string) string
}

// PersistenceSink durably mirrors the in-memory log and rolls a finished
// game into the summary/lifetime tables. AppendEvents is called
// fire-and-forget from a goroutine per spec.md §4.4 — "persistence failure
// is logged and retried but does not block acknowledgement to clients" —
// so an implementation owns its own retry/backoff policy. persistence.Service
// satisfies this interface structurally, so a Service can be handed
// straight to room.Options.Persistence.
type PersistenceSink interface {
	AppendEvents(gameID string, events []engine.Event)

	// FinalizeGame and UpdatePlayerLifetime are invoked once, when the
	// room reaches PhaseCompleted (spec.md §4.8).
	FinalizeGame(ctx context.Context, gameID string, state *engine.GameState, misplayCounts map[string]int) error
	UpdatePlayerLifetime(ctx context.Context, playerID string, won bool, finalScore int) error
}

// Options configures a Room. Every field has a usable zero value except
// Now, which New fills in with time.Now if nil.
type Options struct {
	Now           func() time.Time
	TurnTimeout   time.Duration
	BotThinkDelay time.Duration
	TickInterval  time.Duration
	Bots          BotStrategy
	Persistence   PersistenceSink
}

// Room is the actor owning one game. Only the run() goroutine ever decides
// what the next state is, but every write to state/lastActivity still takes
// mu.Lock so the concurrent readers (Snapshot, IsIdleFor — called from HTTP
// handlers and the idle reaper) never observe a half-written value.
type Room struct {
	ID string

	mu    sync.RWMutex
	state *engine.GameState

	log *eventlog.Log

	connMu      sync.Mutex
	connections map[string]*Connection

	deadlines map[string]time.Time

	bots          BotStrategy
	persistence   PersistenceSink
	turnTimeout   time.Duration
	botThinkDelay time.Duration
	tickInterval  time.Duration
	now           func() time.Time

	lastActivity time.Time

	misplayCounts map[string]int
	finalized     bool

	closed   bool
	events   chan Command
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a Room in LOBBY phase and starts its actor goroutine.
func New(gameID string, cfg engine.Config, opts Options) (*Room, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	state, created, err := engine.NewGame(gameID, cfg, now())
	if err != nil {
		return nil, err
	}

	r := &Room{
		ID:            gameID,
		state:         state,
		log:           eventlog.New(gameID),
		connections:   make(map[string]*Connection),
		deadlines:     make(map[string]time.Time),
		bots:          opts.Bots,
		persistence:   opts.Persistence,
		turnTimeout:   orDefault(opts.TurnTimeout, defaultTurnTimeout),
		botThinkDelay: orDefault(opts.BotThinkDelay, defaultBotThinkDelay),
		tickInterval:  orDefault(opts.TickInterval, defaultTickInterval),
		now:           now,
		lastActivity:  now(),
		misplayCounts: make(map[string]int),
		events:        make(chan Command, 64),
		done:          make(chan struct{}),
	}
	r.log.Append(created, now())
	go r.run()
	return r, nil
}

// setState installs next as the room's authoritative state under mu, the
// same lock Snapshot/IsIdleFor take to read it.
func (r *Room) setState(next *engine.GameState) {
	r.mu.Lock()
	r.state = next
	r.mu.Unlock()
}

func (r *Room) setLastActivity(now time.Time) {
	r.mu.Lock()
	r.lastActivity = now
	r.mu.Unlock()
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// SubmitCommand enqueues cmd on the room's inbound channel and blocks for
// its result, mirroring the teacher's Table.SubmitEvent.
func (r *Room) SubmitCommand(cmd Command) error {
	if cmd.Response == nil {
		cmd.Response = make(chan error, 1)
	}
	select {
	case r.events <- cmd:
	case <-r.done:
		return ErrRoomClosed
	}
	select {
	case err := <-cmd.Response:
		return err
	case <-r.done:
		return ErrRoomClosed
	}
}

func (r *Room) run() {
	// An unexpected panic halts the room: every connection gets an
	// INTERNAL_ERROR frame and Stop makes further commands fail with
	// ErrRoomClosed.
	defer func() {
		if p := recover(); p != nil {
			log.Printf("[room %s] halted after panic: %v", r.ID, p)
			r.connMu.Lock()
			for _, c := range r.connections {
				r.sendTo(c, errorMessage("INTERNAL_ERROR", "room halted after an internal error"))
			}
			r.connMu.Unlock()
			r.Stop()
		}
	}()
	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case cmd := <-r.events:
			err := r.handleCommand(cmd)
			if cmd.Response != nil {
				cmd.Response <- err
			}
			if cmd.Type == CmdClose {
				r.Stop()
				return
			}
		case <-ticker.C:
			r.sweepTimeouts()
		case <-r.done:
			return
		}
	}
}

// handleCommand is the entire "validate → engine → persist → broadcast →
// schedule next" critical section for one command (spec.md §4.5).
func (r *Room) handleCommand(cmd Command) error {
	now := r.now()
	r.setLastActivity(now)

	switch cmd.Type {
	case CmdJoin:
		next, evs, err := engine.AddPlayer(r.state, cmd.PlayerID, cmd.Profile, cmd.IsBot, cmd.Spectator, now)
		if err != nil {
			return err
		}
		r.setState(next)
		r.commit(evs, now)
		r.maybeAutoStart(now)
		return nil

	case CmdLeave:
		r.connMu.Lock()
		delete(r.connections, cmd.PlayerID)
		r.connMu.Unlock()
		return nil

	case CmdBid:
		next, evs, err := engine.ApplyBid(r.state, cmd.PlayerID, cmd.Bid, now)
		if err != nil {
			r.recordInvalidAction(cmd.PlayerID, err, now)
			return err
		}
		r.setState(next)
		r.commit(evs, now)
		r.maybeAutoStartNextRound(now)
		r.scheduleNext(now)
		r.finalizeIfComplete(now)
		return nil

	case CmdPlay:
		next, evs, err := engine.PlayCard(r.state, cmd.PlayerID, cmd.CardID, now)
		if err != nil {
			r.recordInvalidAction(cmd.PlayerID, err, now)
			return err
		}
		r.setState(next)
		r.commit(evs, now)
		r.maybeAutoStartNextRound(now)
		r.scheduleNext(now)
		r.finalizeIfComplete(now)
		return nil

	case CmdTick:
		r.sweepTimeouts()
		return nil

	case CmdClose:
		r.closed = true
		return nil

	default:
		return ErrUnknownCommand
	}
}

// maybeAutoStart fires the first startRound once enough players have
// joined from LOBBY. The command set in spec.md §4.5 has no explicit
// START command, so the room auto-starts the same way the teacher's Table
// auto-starts a hand once two seats are filled (tryStartHand, called from
// handleSitDown).
func (r *Room) maybeAutoStart(now time.Time) {
	if r.state.Phase != engine.PhaseLobby {
		return
	}
	if len(r.state.ActivePlayers()) < r.state.Config.MinPlayers {
		return
	}
	next, evs, err := engine.StartRound(r.state, now)
	if err != nil {
		return
	}
	r.setState(next)
	r.commit(evs, now)
	r.scheduleNext(now)
}

// maybeAutoStartNextRound implements commit-pipeline step 5: once a round
// finishes scoring and more rounds remain, the room itself starts the
// next one, continuing the same logical transaction.
func (r *Room) maybeAutoStartNextRound(now time.Time) {
	if r.state.Phase != engine.PhaseScoring {
		return
	}
	next, evs, err := engine.StartRound(r.state, now)
	if err != nil {
		return
	}
	r.setState(next)
	r.commit(evs, now)
}

// commit stamps and logs the events, hands a copy to persistence on its
// own goroutine, and broadcasts them. Scheduling is invoked by the caller
// since not every commit (e.g. mid-cascade) needs a fresh scheduling pass.
func (r *Room) commit(evs []engine.Event, now time.Time) {
	if len(evs) == 0 {
		return
	}
	r.mu.Lock()
	stamped := r.log.Append(evs, now)
	r.mu.Unlock()

	if r.persistence != nil {
		snapshot := append([]engine.Event(nil), stamped...)
		go r.persistence.AppendEvents(r.ID, snapshot)
	}

	r.broadcastEvents(stamped)
}

// recordInvalidAction logs the rejected command as an INVALID_ACTION event
// (spec.md §4.5 failure semantics: "recorded to the log ... AND an
// immediate error reply"); the error reply is the return value the caller
// already has from the engine call.
func (r *Room) recordInvalidAction(playerID string, err error, now time.Time) {
	engErr, ok := err.(*engine.EngineError)
	if !ok {
		return
	}
	r.misplayCounts[playerID]++
	r.commit([]engine.Event{engine.InvalidActionEvent(playerID, engErr)}, now)
}

// finalizeIfComplete rolls a just-finished game into the persistence
// backend's summary and per-player lifetime tables (spec.md §4.8). It runs
// at most once per room: the terminal phase never reverts, so a finalized
// flag is enough to guard against the commit pipeline reaching this point
// more than once.
func (r *Room) finalizeIfComplete(now time.Time) {
	if r.state.Phase != engine.PhaseCompleted || r.finalized {
		return
	}
	r.finalized = true
	if r.persistence == nil {
		return
	}
	state := r.state
	misplays := make(map[string]int, len(r.misplayCounts))
	for pid, n := range r.misplayCounts {
		misplays[pid] = n
	}
	go r.rollUpFinishedGame(state, misplays)
}

// rollUpFinishedGame calls FinalizeGame then, for every player, rolls the
// outcome into their lifetime stats. It runs off the actor goroutine (like
// commit's AppendEvents call) so a slow backend never stalls the room.
func (r *Room) rollUpFinishedGame(state *engine.GameState, misplayCounts map[string]int) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.persistence.FinalizeGame(ctx, r.ID, state, misplayCounts); err != nil {
		log.Printf("[room %s] FinalizeGame failed: %v", r.ID, err)
		return
	}

	winners := map[string]bool{}
	maxScore := 0
	first := true
	for _, s := range state.CumulativeScores {
		if first || s > maxScore {
			maxScore = s
			first = false
		}
	}
	for pid, s := range state.CumulativeScores {
		if s == maxScore {
			winners[pid] = true
		}
	}

	for pid, score := range state.CumulativeScores {
		if err := r.persistence.UpdatePlayerLifetime(ctx, pid, winners[pid], score); err != nil {
			log.Printf("[room %s] UpdatePlayerLifetime(%s) failed: %v", r.ID, pid, err)
		}
	}
}

// broadcastEvents enqueues each event to every connected participant's
// outbound queue, redacting CARDS_DEALT so a recipient only ever sees
// their own hand — the one event type that carries every player's hand in
// its payload. No lock is held across the per-connection sends.
func (r *Room) broadcastEvents(events []engine.Event) {
	r.connMu.Lock()
	conns := make([]*Connection, 0, len(r.connections))
	for _, c := range r.connections {
		conns = append(conns, c)
	}
	r.connMu.Unlock()

	for _, ev := range events {
		for _, c := range conns {
			r.sendTo(c, gameEventMessage(redactForPlayer(ev, c.PlayerID)))
		}
	}
}

func redactForPlayer(ev engine.Event, playerID string) engine.Event {
	payload, ok := ev.Payload.(engine.CardsDealtPayload)
	if !ok {
		return ev
	}
	redacted := ev
	hands := map[string][]card.Card{}
	if hand, found := payload.Hands[playerID]; found {
		hands[playerID] = hand
	}
	redacted.Payload = engine.CardsDealtPayload{Hands: hands}
	return redacted
}

func (r *Room) sendTo(c *Connection, msg ServerMessage) {
	if !c.isOnline() {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[room %s] marshal server message: %v", r.ID, err)
		return
	}
	select {
	case c.Send <- data:
	default:
		log.Printf("[room %s] dropping frame for %s: outbound queue full", r.ID, c.PlayerID)
	}
}

// AddConnection registers (or replaces) a connection for playerID — join
// or reconnect — and immediately pushes a STATE_FULL snapshot.
func (r *Room) AddConnection(c *Connection) {
	r.connMu.Lock()
	r.connections[c.PlayerID] = c
	r.connMu.Unlock()
	r.sendTo(c, stateFullMessage(r.Snapshot(c.PlayerID)))
}

// RemoveConnection drops the outbound link but keeps the seat, per
// spec.md §4.5's LEAVE semantics.
func (r *Room) RemoveConnection(playerID string) {
	r.connMu.Lock()
	defer r.connMu.Unlock()
	delete(r.connections, playerID)
}

// Snapshot returns the ClientGameView for viewerPlayerID.
func (r *Room) Snapshot(viewerPlayerID string) engine.ClientGameView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.Snapshot(viewerPlayerID)
}

// IsIdleFor reports whether no command has been processed for at least
// ttl, for the idle-room reaper (SPEC_FULL.md §9).
func (r *Room) IsIdleFor(ttl time.Duration) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.now().Sub(r.lastActivity) >= ttl
}

// Stop halts the actor goroutine.
func (r *Room) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
	})
}
