// Package tokens signs and verifies the player tokens handed out by
// create-room/join-by-code/matchmake and checked by the gateway on
// connect, per spec.md §6. No JWT library appears anywhere in the
// example pack's go.mod files, so this is built directly on
// crypto/hmac + crypto/sha256 rather than pulling in an unrelated
// dependency just for the name — see DESIGN.md.
package tokens

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	issuer            = "eldorado"
	audience          = "eldorado-gateway"
	algorithm         = "HS256"
	defaultTokenTTL   = time.Hour
)

var (
	ErrMalformedToken = errors.New("tokens: malformed token")
	ErrBadSignature   = errors.New("tokens: signature mismatch")
	ErrUnsupportedAlg = errors.New("tokens: unsupported algorithm")
	ErrWrongAudience  = errors.New("tokens: wrong audience")
	ErrExpired        = errors.New("tokens: expired")
)

// Claims is the payload a player token carries, per spec.md §6.
type Claims struct {
	PlayerID    string `json:"playerId"`
	GameID      string `json:"gameId"`
	SeatIndex   *int   `json:"seatIndex"`
	IsSpectator bool   `json:"isSpectator"`
	Issuer      string `json:"iss"`
	Audience    string `json:"aud"`
	Algorithm   string `json:"alg"`
	IssuedAt    int64  `json:"iat"`
	ExpiresAt   int64  `json:"exp"`
}

// Signer issues and verifies tokens with a single symmetric secret.
// Implements gateway.TokenVerifier.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &Signer{secret: []byte(secret), ttl: ttl}
}

// Issue signs a fresh token for playerID/gameID, now supplied by the
// caller so the result is deterministic under test.
func (s *Signer) Issue(playerID, gameID string, seatIndex *int, isSpectator bool, now time.Time) (string, error) {
	claims := Claims{
		PlayerID:    playerID,
		GameID:      gameID,
		SeatIndex:   seatIndex,
		IsSpectator: isSpectator,
		Issuer:      issuer,
		Audience:    audience,
		Algorithm:   algorithm,
		IssuedAt:    now.Unix(),
		ExpiresAt:   now.Add(s.ttl).Unix(),
	}
	return s.sign(claims)
}

func (s *Signer) sign(claims Claims) (string, error) {
	body, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	encodedBody := base64.RawURLEncoding.EncodeToString(body)
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(encodedBody))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return encodedBody + "." + sig, nil
}

// Verify checks the signature, algorithm, issuer, audience, and expiry,
// returning the playerId and gameId on success. Satisfies
// gateway.TokenVerifier's Verify(token) (playerID, gameID string, err error).
func (s *Signer) Verify(token string) (string, string, error) {
	claims, err := s.parse(token)
	if err != nil {
		return "", "", err
	}
	return claims.PlayerID, claims.GameID, nil
}

// ParseClaims returns the full claim set, for callers that need
// SeatIndex/IsSpectator beyond what gateway.TokenVerifier exposes.
func (s *Signer) ParseClaims(token string) (Claims, error) {
	return s.parse(token)
}

func (s *Signer) parse(token string) (Claims, error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return Claims{}, ErrMalformedToken
	}
	encodedBody, sig := parts[0], parts[1]

	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(encodedBody))
	want := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	if subtle.ConstantTimeCompare([]byte(sig), []byte(want)) != 1 {
		return Claims{}, ErrBadSignature
	}

	body, err := base64.RawURLEncoding.DecodeString(encodedBody)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	var claims Claims
	if err := json.Unmarshal(body, &claims); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	if claims.Algorithm != algorithm {
		return Claims{}, ErrUnsupportedAlg
	}
	if claims.Issuer != issuer || claims.Audience != audience {
		return Claims{}, ErrWrongAudience
	}
	if time.Now().Unix() > claims.ExpiresAt {
		return Claims{}, ErrExpired
	}
	return claims, nil
}
