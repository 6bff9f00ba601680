// Package httpapi implements the HTTP collaborator surface of §6: room
// creation, join-by-code, matchmaking, and player stats lookup, fronting
// the registry/room/persistence packages. Routing follows the gin
// route-group style the pack's only HTTP-framework exemplar uses
// (other_examples' poker-engine server: gin.Default(), route groups,
// c.JSON(status, gin.H{...})).
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"eldorado/engine"
	"eldorado/persistence"
	"eldorado/registry"
	"eldorado/tokens"
)

// RoomDefaults bounds the config POST /api/create-room may request,
// filling in any field the caller omitted.
type RoomDefaults struct {
	MinPlayers int
	MaxPlayers int
	RoundCount int
}

// Server wires the registry, token signer, and persistence lookups
// behind gin handlers.
type Server struct {
	registry    *registry.Registry
	signer      *tokens.Signer
	persistence persistence.Service
	defaults    RoomDefaults
	sessionSeed func() string
}

func NewServer(reg *registry.Registry, signer *tokens.Signer, store persistence.Service, defaults RoomDefaults, sessionSeed func() string) *Server {
	return &Server{registry: reg, signer: signer, persistence: store, defaults: defaults, sessionSeed: sessionSeed}
}

// Routes registers every endpoint on a fresh gin.Engine and returns it.
func (s *Server) Routes() *gin.Engine {
	r := gin.Default()
	r.GET("/api/health", s.handleHealth)
	r.POST("/api/create-room", s.handleCreateRoom)
	r.POST("/api/join-by-code", s.handleJoinByCode)
	r.POST("/api/matchmake", s.handleMatchmake)
	r.GET("/api/player-stats", s.handlePlayerStats)
	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type createRoomRequest struct {
	DisplayName string `json:"displayName" binding:"required"`
	AvatarSeed  string `json:"avatarSeed"`
	Color       string `json:"color"`
	UserID      string `json:"userId"`
	MinPlayers  int    `json:"minPlayers"`
	MaxPlayers  int    `json:"maxPlayers"`
	RoundCount  int    `json:"roundCount"`
	IsPublic    bool   `json:"isPublic"`
}

func (s *Server) handleCreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	cfg := s.resolveConfig(req.MinPlayers, req.MaxPlayers, req.RoundCount)
	gameID, joinCode, r, err := s.registry.CreateRoom(cfg)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "ROOM_CREATE_FAILED", err.Error())
		return
	}

	playerID := newPlayerID(req.UserID)
	seatIndex, err := registry.JoinHuman(r, playerID, profileFrom(req.DisplayName, req.AvatarSeed, req.Color))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "JOIN_FAILED", err.Error())
		return
	}

	token, err := s.signer.Issue(playerID, gameID, &seatIndex, false, time.Now())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "TOKEN_ISSUE_FAILED", err.Error())
		return
	}

	c.JSON(http.StatusCreated, gin.H{"gameId": gameID, "joinCode": joinCode, "playerToken": token})
}

type joinByCodeRequest struct {
	JoinCode    string `json:"joinCode" binding:"required"`
	DisplayName string `json:"displayName" binding:"required"`
	AvatarSeed  string `json:"avatarSeed"`
	Color       string `json:"color"`
	UserID      string `json:"userId"`
}

func (s *Server) handleJoinByCode(c *gin.Context) {
	var req joinByCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	gameID, r, err := s.registry.ResolveJoinCode(req.JoinCode)
	if err != nil {
		writeError(c, http.StatusNotFound, "JOIN_CODE_NOT_FOUND", err.Error())
		return
	}

	playerID := newPlayerID(req.UserID)
	seatIndex, err := registry.JoinHuman(r, playerID, profileFrom(req.DisplayName, req.AvatarSeed, req.Color))
	if err != nil {
		writeError(c, http.StatusConflict, "JOIN_FAILED", err.Error())
		return
	}

	token, err := s.signer.Issue(playerID, gameID, &seatIndex, false, time.Now())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "TOKEN_ISSUE_FAILED", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"gameId": gameID, "playerToken": token})
}

type matchmakeRequest struct {
	DisplayName string `json:"displayName" binding:"required"`
	AvatarSeed  string `json:"avatarSeed"`
	Color       string `json:"color"`
	UserID      string `json:"userId"`
}

func (s *Server) handleMatchmake(c *gin.Context) {
	var req matchmakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	cfg := s.resolveConfig(0, 0, 0)
	playerID := newPlayerID(req.UserID)
	gameID, seatIndex, err := s.registry.Matchmake(cfg, playerID, profileFrom(req.DisplayName, req.AvatarSeed, req.Color))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "MATCHMAKE_FAILED", err.Error())
		return
	}

	token, err := s.signer.Issue(playerID, gameID, &seatIndex, false, time.Now())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "TOKEN_ISSUE_FAILED", err.Error())
		return
	}

	c.JSON(http.StatusCreated, gin.H{"gameId": gameID, "playerToken": token})
}

func (s *Server) handlePlayerStats(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		writeError(c, http.StatusBadRequest, "BAD_REQUEST", "userId is required")
		return
	}

	ctx, cancel := contextWithTimeout()
	defer cancel()
	lifetime, err := s.persistence.PlayerStats(ctx, userID)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "STATS_LOOKUP_FAILED", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": gin.H{"userId": userID}, "lifetime": lifetime})
}

func (s *Server) resolveConfig(minPlayers, maxPlayers, roundCount int) engine.Config {
	if minPlayers <= 0 {
		minPlayers = s.defaults.MinPlayers
	}
	if maxPlayers <= 0 {
		maxPlayers = s.defaults.MaxPlayers
	}
	if roundCount <= 0 {
		roundCount = s.defaults.RoundCount
	}
	return engine.Config{
		SessionSeed: s.sessionSeed(),
		RoundCount:  roundCount,
		MinPlayers:  minPlayers,
		MaxPlayers:  maxPlayers,
	}
}

func profileFrom(displayName, avatarSeed, color string) engine.Profile {
	return engine.Profile{DisplayName: displayName, AvatarSeed: avatarSeed, Color: color}
}

func newPlayerID(userID string) string {
	if userID != "" {
		return userID
	}
	return uuid.NewString()
}

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": code, "message": message})
}

func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 3*time.Second)
}
