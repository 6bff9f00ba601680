package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"eldorado/engine"
)

// SQLiteService is the pure-Go (no cgo) sqlite backend, grounded directly
// on apps/server/internal/ledger/sqlite.go's NewSQLiteService: same
// single-connection pool (sqlite serializes writers anyway), same
// PRAGMA/ensure-schema-on-open sequence.
type SQLiteService struct {
	db *sql.DB
}

func NewSQLiteService(dbPath string) (*SQLiteService, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		if parent := filepath.Dir(dbPath); parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSQLiteSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteService{db: db}, nil
}

func ensureSQLiteSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS game_events (
	game_id     TEXT NOT NULL,
	event_index INTEGER NOT NULL,
	event_type  TEXT NOT NULL,
	payload     TEXT NOT NULL,
	recorded_at TIMESTAMP NOT NULL,
	PRIMARY KEY (game_id, event_index)
);

CREATE TABLE IF NOT EXISTS game_summaries (
	game_id       TEXT PRIMARY KEY,
	final_scores  TEXT NOT NULL,
	winners       TEXT NOT NULL,
	misplay_count TEXT NOT NULL DEFAULT '{}',
	finalized_at  TIMESTAMP NOT NULL
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
	updated_at               TIMESTAMP NOT NULL
);
`)
	return err
}

func (s *SQLiteService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// AppendEvents retries once on failure before giving up and logging, per
// spec.md §4.4's "persistence failure is logged and retried but does not
// block acknowledgement to clients" — the room has already moved on by
// the time this runs (it's invoked from a goroutine).
func (s *SQLiteService) AppendEvents(gameID string, events []engine.Event) {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		if err = s.appendEventsOnce(gameID, events); err == nil {
			return
		}
		time.Sleep(time.Duration(attempt+1) * 50 * time.Millisecond)
	}
	log.Printf("[persistence] AppendEvents(%s) failed after retry: %v", gameID, err)
}

func (s *SQLiteService) appendEventsOnce(gameID string, events []engine.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT OR IGNORE INTO game_events (game_id, event_index, event_type, payload, recorded_at)
VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ev := range events {
		payload, err := json.Marshal(ev.Payload)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, gameID, ev.EventIndex, string(ev.Type), string(payload), ev.Timestamp); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadEvents reads gameID's log back in eventIndex order, decoding each
// row's payload column through engine.DecodeEventPayload so the result can
// be handed straight to replay.ReplayGame.
func (s *SQLiteService) LoadEvents(ctx context.Context, gameID string) ([]engine.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT event_index, event_type, payload, recorded_at FROM game_events
WHERE game_id = ? ORDER BY event_index ASC`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []engine.Event
	for rows.Next() {
		var (
			eventType string
			payload   string
			ev        engine.Event
		)
		if err := rows.Scan(&ev.EventIndex, &eventType, &payload, &ev.Timestamp); err != nil {
			return nil, err
		}
		ev.GameID = gameID
		ev.Type = engine.EventType(eventType)
		decoded, err := engine.DecodeEventPayload(ev.Type, []byte(payload))
		if err != nil {
			return nil, fmt.Errorf("persistence: decode payload for %s event %d: %w", gameID, ev.EventIndex, err)
		}
		ev.Payload = decoded
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *SQLiteService) FinalizeGame(ctx context.Context, gameID string, state *engine.GameState, misplayCounts map[string]int) error {
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
	_, err = s.db.ExecContext(ctx, `
INSERT INTO game_summaries (game_id, final_scores, winners, misplay_count, finalized_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(game_id) DO UPDATE SET final_scores = excluded.final_scores, winners = excluded.winners, misplay_count = excluded.misplay_count, finalized_at = excluded.finalized_at`,
		gameID, string(scores), string(winners), string(misplays), time.Now())
	return err
}

func (s *SQLiteService) UpdatePlayerLifetime(ctx context.Context, playerID string, won bool, finalScore int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var stats PlayerLifetimeStats
	row := tx.QueryRowContext(ctx, `
SELECT games_played, games_won, max_score, min_score, current_streak, most_consecutive_wins, most_consecutive_losses
FROM player_lifetime_stats WHERE player_id = ?`, playerID)
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
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(player_id) DO UPDATE SET
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

func (s *SQLiteService) PlayerStats(ctx context.Context, playerID string) (PlayerLifetimeStats, error) {
	var stats PlayerLifetimeStats
	stats.PlayerID = playerID
	row := s.db.QueryRowContext(ctx, `
SELECT games_played, games_won, max_score, min_score, current_streak, most_consecutive_wins, most_consecutive_losses, updated_at
FROM player_lifetime_stats WHERE player_id = ?`, playerID)
	err := row.Scan(&stats.GamesPlayed, &stats.GamesWon, &stats.MaxScore, &stats.MinScore,
		&stats.CurrentStreak, &stats.MostConsecutiveWins, &stats.MostConsecutiveLosses, &stats.UpdatedAt)
	if err == sql.ErrNoRows {
		return PlayerLifetimeStats{PlayerID: playerID}, nil
	}
	return stats, err
}
