// Package registry tracks the set of live rooms a server process is
// hosting: join-code allocation, public-room matchmaking, and idle-room
// reaping. Grounded on apps/server/internal/lobby/lobby.go's Lobby type,
// generalized from poker tables to rooms and from a fixed NPC seat count
// to the bot-fill policy SPEC_FULL.md's matchmaking section describes.
package registry

import (
	"crypto/rand"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"eldorado/bot"
	"eldorado/engine"
	"eldorado/persistence"
	"eldorado/room"
)

const (
	joinCodeAlphabet  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	joinCodeLength    = 6
	maxJoinCodeRetry  = 5
	defaultIdleTTL    = 5 * time.Minute
	defaultReapPeriod = 30 * time.Second
)

var (
	ErrJoinCodeNotFound  = errors.New("registry: join code not found")
	ErrJoinCodeExhausted = errors.New("registry: could not allocate a unique join code")
)

// Dependencies every room created by the registry is wired with.
type Dependencies struct {
	Bots        *bot.Manager
	Persistence persistence.Service
	TurnTimeout time.Duration
	BotDelay    time.Duration
}

// Registry is the process-wide room directory. It implements
// gateway.RoomLookup via Get.
type Registry struct {
	mu        sync.RWMutex
	rooms     map[string]*room.Room
	joinCodes map[string]string // joinCode -> gameId

	deps     Dependencies
	idleTTL  time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

func New(deps Dependencies) *Registry {
	reg := &Registry{
		rooms:     make(map[string]*room.Room),
		joinCodes: make(map[string]string),
		deps:      deps,
		idleTTL:   defaultIdleTTL,
		done:      make(chan struct{}),
	}
	go reg.reapLoop()
	return reg
}

// Get resolves a gameId to its live Room, satisfying gateway.RoomLookup.
func (reg *Registry) Get(gameID string) (*room.Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[gameID]
	return r, ok
}

// CreateRoom allocates a fresh gameId and join code and starts its Room
// actor, per spec.md §6's POST /api/create-room.
func (reg *Registry) CreateRoom(cfg engine.Config) (gameID, joinCode string, r *room.Room, err error) {
	gameID = uuid.NewString()
	joinCode, err = reg.allocateJoinCode()
	if err != nil {
		return "", "", nil, err
	}

	r, err = room.New(gameID, cfg, room.Options{
		TurnTimeout:   reg.deps.TurnTimeout,
		BotThinkDelay: reg.deps.BotDelay,
		Bots:          reg.deps.Bots,
		Persistence:   reg.deps.Persistence,
	})
	if err != nil {
		return "", "", nil, err
	}

	reg.mu.Lock()
	reg.rooms[gameID] = r
	reg.joinCodes[joinCode] = gameID
	reg.mu.Unlock()
	return gameID, joinCode, r, nil
}

// ResolveJoinCode looks up the gameId a join code was allocated to and
// returns the live Room, per spec.md §6's POST /api/join-by-code.
func (reg *Registry) ResolveJoinCode(joinCode string) (string, *room.Room, error) {
	reg.mu.RLock()
	gameID, ok := reg.joinCodes[joinCode]
	if !ok {
		reg.mu.RUnlock()
		return "", nil, ErrJoinCodeNotFound
	}
	r, ok := reg.rooms[gameID]
	reg.mu.RUnlock()
	if !ok {
		return "", nil, ErrJoinCodeNotFound
	}
	return gameID, r, nil
}

func (reg *Registry) allocateJoinCode() (string, error) {
	for attempt := 0; attempt < maxJoinCodeRetry; attempt++ {
		code, err := randomJoinCode()
		if err != nil {
			return "", err
		}
		reg.mu.RLock()
		_, taken := reg.joinCodes[code]
		reg.mu.RUnlock()
		if !taken {
			return code, nil
		}
	}
	return "", ErrJoinCodeExhausted
}

func randomJoinCode() (string, error) {
	buf := make([]byte, joinCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, joinCodeLength)
	for i, b := range buf {
		out[i] = joinCodeAlphabet[int(b)%len(joinCodeAlphabet)]
	}
	return string(out), nil
}

func (reg *Registry) reapLoop() {
	ticker := time.NewTicker(defaultReapPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			reg.ReapIdleRooms()
		case <-reg.done:
			return
		}
	}
}

// ReapIdleRooms stops and removes every room that has had no activity for
// longer than idleTTL, mirroring Lobby.CleanupIdleTables.
func (reg *Registry) ReapIdleRooms() int {
	reg.mu.Lock()
	idle := make([]*room.Room, 0)
	for gameID, r := range reg.rooms {
		if r.IsIdleFor(reg.idleTTL) {
			delete(reg.rooms, gameID)
			idle = append(idle, r)
		}
	}
	for code, gameID := range reg.joinCodes {
		if _, stillLive := reg.rooms[gameID]; !stillLive {
			delete(reg.joinCodes, code)
		}
	}
	reg.mu.Unlock()

	for _, r := range idle {
		r.Stop()
		log.Printf("[registry] reaped idle room %s", r.ID)
	}
	return len(idle)
}

// Stop shuts down the reaper and every live room.
func (reg *Registry) Stop() {
	reg.stopOnce.Do(func() {
		close(reg.done)
		reg.mu.Lock()
		rooms := make([]*room.Room, 0, len(reg.rooms))
		for _, r := range reg.rooms {
			rooms = append(rooms, r)
		}
		reg.rooms = make(map[string]*room.Room)
		reg.joinCodes = make(map[string]string)
		reg.mu.Unlock()
		for _, r := range rooms {
			r.Stop()
		}
	})
}
