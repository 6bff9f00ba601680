package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"

	"eldorado/engine"
)

// PostgresService is the second backend selected by DATABASE_URL, same
// shape as SQLiteService but with $-numbered placeholders and upserts
// expressed the lib/pq way, grounded on the teacher's postgres ledger
// variant (apps/server/internal/ledger/service.go imports lib/pq
// alongside the sqlite backend).
type PostgresService struct {
	db *sql.DB
}

func NewPostgresService(dsn string) (*PostgresService, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensurePostgresSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresService{db: db}, nil
}

func ensurePostgresSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS game_events (
	game_id     TEXT NOT NULL,
	event_index INTEGER NOT NULL,
	event_type  TEXT NOT NULL,
	payload     JSONB NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (game_id, event_index)
);

CREATE TABLE IF NOT EXISTS game_summaries (
	game_id       TEXT PRIMARY KEY,
	final_scores  JSONB NOT NULL,
	winners       JSONB NOT NULL,
	misplay_count JSONB NOT NULL DEFAULT '{}',
	finalized_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS player_lifetime_stats (
	player_id                TEXT PRIMARY KEY,
	games_played             INTEGER NOT NULL DEFAULT 0,
	games_won                INTEGER NOT NULL DEFAULT 0,
	max_score                INTEGER NOT NULL DEFAULT 0,
	min_score                INTEGER NOT NULL DEFAULT 0,
	current_streak           INTEGER NOT NULL DEFAULT 0,
	most_consecutive_wins    INTEGER NOT NULL DEFAULT 0,
	most_consecutive_losses  INTEGER NOT NULL DEFAULT 0,
	updated_at               TIMESTAMPTZ NOT NULL
);
`)
	return err
}

func (p *PostgresService) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

func (p *PostgresService) AppendEvents(gameID string, events []engine.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		log.Printf("[persistence] postgres AppendEvents(%s) begin: %v", gameID, err)
		return
	}
	defer tx.Rollback()

	for _, ev := range events {
		payload, err := json.Marshal(ev.Payload)
		if err != nil {
			log.Printf("[persistence] postgres AppendEvents(%s) marshal: %v", gameID, err)
			return
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO game_events (game_id, event_index, event_type, payload, recorded_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (game_id, event_index) DO NOTHING`,
			gameID, ev.EventIndex, string(ev.Type), string(payload), ev.Timestamp); err != nil {
			log.Printf("[persistence] postgres AppendEvents(%s) insert: %v", gameID, err)
			return
		}
	}
	if err := tx.Commit(); err != nil {
		log.Printf("[persistence] postgres AppendEvents(%s) commit: %v", gameID, err)
	}
}

// LoadEvents reads gameID's log back in eventIndex order, decoding each
// row's JSONB payload column through engine.DecodeEventPayload so the
// result can be handed straight to replay.ReplayGame.
func (p *PostgresService) LoadEvents(ctx context.Context, gameID string) ([]engine.Event, error) {
	rows, err := p.db.QueryContext(ctx, `
SELECT event_index, event_type, payload, recorded_at FROM game_events
WHERE game_id = $1 ORDER BY event_index ASC`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []engine.Event
	for rows.Next() {
		var (
			eventType string
			payload   []byte
			ev        engine.Event
		)
		if err := rows.Scan(&ev.EventIndex, &eventType, &payload, &ev.Timestamp); err != nil {
			return nil, err
		}
		ev.GameID = gameID
		ev.Type = engine.EventType(eventType)
		decoded, err := engine.DecodeEventPayload(ev.Type, payload)
		if err != nil {
			return nil, fmt.Errorf("persistence: decode payload for %s event %d: %w", gameID, ev.EventIndex, err)
		}
		ev.Payload = decoded
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (p *PostgresService) FinalizeGame(ctx context.Context, gameID string, state *engine.GameState, misplayCounts map[string]int) error {
	summary := Summarize(gameID, state, misplayCounts)
	scores, err := json.Marshal(summary.FinalScores)
	if err != nil {
		return err
	}
	winners, err := json.Marshal(summary.Winners)
	if err != nil {
		return err
	}
	misplays, err := json.Marshal(summary.MisplayCount)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
INSERT INTO game_summaries (game_id, final_scores, winners, misplay_count, finalized_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (game_id) DO UPDATE SET final_scores = excluded.final_scores, winners = excluded.winners, misplay_count = excluded.misplay_count, finalized_at = excluded.finalized_at`,
		gameID, scores, winners, misplays, time.Now())
	return err
}

func (p *PostgresService) UpdatePlayerLifetime(ctx context.Context, playerID string, won bool, finalScore int) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var stats PlayerLifetimeStats
	row := tx.QueryRowContext(ctx, `
SELECT games_played, games_won, max_score, min_score, current_streak, most_consecutive_wins, most_consecutive_losses
FROM player_lifetime_stats WHERE player_id = $1`, playerID)
	err = row.Scan(&stats.GamesPlayed, &stats.GamesWon, &stats.MaxScore, &stats.MinScore,
		&stats.CurrentStreak, &stats.MostConsecutiveWins, &stats.MostConsecutiveLosses)
	firstGame := err == sql.ErrNoRows
	if err != nil && !firstGame {
		return err
	}

	stats.PlayerID = playerID
	stats.GamesPlayed++
	if firstGame || finalScore > stats.MaxScore {
		stats.MaxScore = finalScore
	}
	if firstGame || finalScore < stats.MinScore {
		stats.MinScore = finalScore
	}
	if won {
		stats.GamesWon++
		if stats.CurrentStreak < 0 {
			stats.CurrentStreak = 0
		}
		stats.CurrentStreak++
		if stats.CurrentStreak > stats.MostConsecutiveWins {
			stats.MostConsecutiveWins = stats.CurrentStreak
		}
	} else {
		if stats.CurrentStreak > 0 {
			stats.CurrentStreak = 0
		}
		stats.CurrentStreak--
		if -stats.CurrentStreak > stats.MostConsecutiveLosses {
			stats.MostConsecutiveLosses = -stats.CurrentStreak
		}
	}
	stats.UpdatedAt = time.Now()

	_, err = tx.ExecContext(ctx, `
INSERT INTO player_lifetime_stats (player_id, games_played, games_won, max_score, min_score, current_streak, most_consecutive_wins, most_consecutive_losses, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (player_id) DO UPDATE SET
	games_played = excluded.games_played, games_won = excluded.games_won,
	max_score = excluded.max_score, min_score = excluded.min_score,
	current_streak = excluded.current_streak,
	most_consecutive_wins = excluded.most_consecutive_wins,
	most_consecutive_losses = excluded.most_consecutive_losses,
	updated_at = excluded.updated_at`,
		stats.PlayerID, stats.GamesPlayed, stats.GamesWon, stats.MaxScore, stats.MinScore,
		stats.CurrentStreak, stats.MostConsecutiveWins, stats.MostConsecutiveLosses, stats.UpdatedAt)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (p *PostgresService) PlayerStats(ctx context.Context, playerID string) (PlayerLifetimeStats, error) {
	var stats PlayerLifetimeStats
	stats.PlayerID = playerID
	row := p.db.QueryRowContext(ctx, `
SELECT games_played, games_won, max_score, min_score, current_streak, most_consecutive_wins, most_consecutive_losses, updated_at
FROM player_lifetime_stats WHERE player_id = $1`, playerID)
	err := row.Scan(&stats.GamesPlayed, &stats.GamesWon, &stats.MaxScore, &stats.MinScore,
		&stats.CurrentStreak, &stats.MostConsecutiveWins, &stats.MostConsecutiveLosses, &stats.UpdatedAt)
	if err == sql.ErrNoRows {
		return PlayerLifetimeStats{PlayerID: playerID}, nil
	}
	return stats, err
}
