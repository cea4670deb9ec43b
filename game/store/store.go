package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/wricardo/mcp-training/triviarace/game/engine"
)

var ErrEmptyPath = errors.New("empty database path")

// Result is one finished race
type Result struct {
	SessionID  string    `json:"session_id"`
	ConfigName string    `json:"config_name"`
	WinnerID   int       `json:"winner_id"`
	WinnerName string    `json:"winner_name"`
	Turns      int       `json:"turns"`
	FinishedAt time.Time `json:"finished_at"`
}

// Store records outcome events and finished races in SQLite
type Store struct {
	conn *sql.DB
}

// Open creates a new database connection and initializes tables
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{conn: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			team_id INTEGER NOT NULL,
			turn INTEGER NOT NULL,
			message TEXT NOT NULL,
			payload TEXT,
			timestamp INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id, timestamp);`,
		`CREATE TABLE IF NOT EXISTS results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			config_name TEXT NOT NULL,
			winner_id INTEGER NOT NULL,
			winner_name TEXT NOT NULL,
			turns INTEGER NOT NULL,
			finished_at INTEGER NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// RecordEvent stores one outcome event of a session. Replayed events with
// a known ID are ignored.
func (s *Store) RecordEvent(sessionID string, ev engine.Event) error {
	var payload []byte
	if len(ev.Payload) > 0 {
		var err error
		if payload, err = json.Marshal(ev.Payload); err != nil {
			return fmt.Errorf("failed to encode payload: %w", err)
		}
	}
	_, err := s.conn.Exec(
		"INSERT OR IGNORE INTO events (id, session_id, kind, team_id, turn, message, payload, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		ev.ID, sessionID, string(ev.Kind), ev.TeamID, ev.Turn, ev.Message, string(payload), ev.Timestamp.UnixNano(),
	)
	return err
}

// Events returns the recorded events of a session, oldest first
func (s *Store) Events(sessionID string) ([]engine.Event, error) {
	rows, err := s.conn.Query(
		"SELECT id, kind, team_id, turn, message, payload, timestamp FROM events WHERE session_id = ? ORDER BY timestamp ASC, rowid ASC",
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []engine.Event
	for rows.Next() {
		var (
			ev      engine.Event
			kind    string
			payload sql.NullString
			ts      int64
		)
		if err := rows.Scan(&ev.ID, &kind, &ev.TeamID, &ev.Turn, &ev.Message, &payload, &ts); err != nil {
			return nil, err
		}
		ev.Kind = engine.EventKind(kind)
		ev.Timestamp = time.Unix(0, ts)
		if payload.Valid && payload.String != "" {
			if err := json.Unmarshal([]byte(payload.String), &ev.Payload); err != nil {
				return nil, fmt.Errorf("event %s: bad payload: %w", ev.ID, err)
			}
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// RecordResult stores a finished race
func (s *Store) RecordResult(r Result) error {
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now()
	}
	_, err := s.conn.Exec(
		"INSERT INTO results (session_id, config_name, winner_id, winner_name, turns, finished_at) VALUES (?, ?, ?, ?, ?, ?)",
		r.SessionID, r.ConfigName, r.WinnerID, r.WinnerName, r.Turns, r.FinishedAt.UnixNano(),
	)
	return err
}

// RecentResults returns the latest finished races, newest first
func (s *Store) RecentResults(limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.conn.Query(`
		SELECT session_id, config_name, winner_id, winner_name, turns, finished_at
		FROM results
		ORDER BY finished_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []Result{}
	for rows.Next() {
		var r Result
		var finished int64
		if err := rows.Scan(&r.SessionID, &r.ConfigName, &r.WinnerID, &r.WinnerName, &r.Turns, &finished); err != nil {
			return nil, err
		}
		r.FinishedAt = time.Unix(0, finished)
		results = append(results, r)
	}
	return results, rows.Err()
}

// Sink returns an event sink that records every event of one session and
// the race result on victory. Write failures are logged, never returned to
// the engine.
func (s *Store) Sink(sessionID, configName string, logger zerolog.Logger) engine.EventSink {
	return engine.SinkFunc(func(ev engine.Event) {
		if err := s.RecordEvent(sessionID, ev); err != nil {
			logger.Warn().Err(err).Str("session", sessionID).Str("kind", string(ev.Kind)).Msg("failed to record event")
		}
		if ev.Kind != engine.EventVictory {
			return
		}

		r := Result{
			SessionID:  sessionID,
			ConfigName: configName,
			WinnerID:   ev.TeamID,
			Turns:      ev.Turn,
			FinishedAt: ev.Timestamp,
		}
		if name, ok := ev.Payload["team_name"].(string); ok {
			r.WinnerName = name
		}
		if err := s.RecordResult(r); err != nil {
			logger.Warn().Err(err).Str("session", sessionID).Msg("failed to record result")
			return
		}
		logger.Info().Str("session", sessionID).Str("winner", r.WinnerName).Int("turns", r.Turns).Msg("race result recorded")
	})
}
