// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/dualnback/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

const settingsKey = "user_settings"

// warnf reports records that were skipped while reading.
var warnf = logErrf

// Store wraps SQLite access for settings and session history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			n_level INTEGER NOT NULL,
			speed_ms INTEGER NOT NULL,
			session_length INTEGER NOT NULL,
			audio_set TEXT NOT NULL,
			visual_tp INTEGER NOT NULL,
			visual_tn INTEGER NOT NULL,
			visual_fp INTEGER NOT NULL,
			visual_fn INTEGER NOT NULL,
			audio_tp INTEGER NOT NULL,
			audio_tn INTEGER NOT NULL,
			audio_fp INTEGER NOT NULL,
			audio_fn INTEGER NOT NULL,
			events TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_n_level ON sessions(n_level);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// LoadSettings returns the stored settings. The bool is false when nothing
// usable is stored; a corrupt value is logged and treated as absent.
func (s *Store) LoadSettings(ctx context.Context) (model.Settings, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, settingsKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Settings{}, false, nil
	}
	if err != nil {
		return model.Settings{}, false, err
	}
	var settings model.Settings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		warnf("ignoring stored settings: %v\n", err)
		return model.Settings{}, false, nil
	}
	return settings, true, nil
}

// SaveSettings stores settings, replacing any previous value.
func (s *Store) SaveSettings(ctx context.Context, settings model.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		settingsKey, string(raw))
	return err
}

// InsertSession stores a finished session with its event history.
func (s *Store) InsertSession(ctx context.Context, rec model.SessionRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("session id is empty")
	}
	events, err := json.Marshal(rec.Events)
	if err != nil {
		return fmt.Errorf("failed to encode events: %w", err)
	}
	v, a := rec.VisualStats, rec.AudioStats
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, started_at, ended_at, n_level, speed_ms, session_length, audio_set,
			visual_tp, visual_tn, visual_fp, visual_fn, audio_tp, audio_tn, audio_fp, audio_fn, events)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.EndedAt.UTC().Format(time.RFC3339Nano),
		rec.Settings.NLevel,
		rec.Settings.SpeedMs,
		rec.Settings.SessionLength,
		rec.Settings.AudioSet,
		v.TruePositives, v.TrueNegatives, v.FalsePositives, v.FalseNegatives,
		a.TruePositives, a.TrueNegatives, a.FalsePositives, a.FalseNegatives,
		string(events),
	)
	return err
}

const summaryColumns = `id, ended_at, n_level, speed_ms, session_length, audio_set,
	visual_tp, visual_tn, visual_fp, visual_fn, audio_tp, audio_tn, audio_fp, audio_fn`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner, extra ...any) (model.SessionSummary, string, error) {
	var sum model.SessionSummary
	var endedAt string
	v, a := &sum.VisualStats, &sum.AudioStats
	dest := []any{
		&sum.ID, &endedAt, &sum.Settings.NLevel, &sum.Settings.SpeedMs, &sum.Settings.SessionLength, &sum.Settings.AudioSet,
		&v.TruePositives, &v.TrueNegatives, &v.FalsePositives, &v.FalseNegatives,
		&a.TruePositives, &a.TrueNegatives, &a.FalsePositives, &a.FalseNegatives,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return model.SessionSummary{}, "", err
	}
	return sum, endedAt, nil
}

// ListSessions returns session summaries oldest first. Rows with an
// unreadable timestamp are skipped with a warning.
func (s *Store) ListSessions(ctx context.Context, filter model.HistoryFilter) ([]model.SessionSummary, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.NLevel > 0 {
		clauses = append(clauses, "n_level = ?")
		args = append(args, filter.NLevel)
	}
	if filter.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, filter.Since.UTC().Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT %s
		FROM sessions
		WHERE %s
		ORDER BY ended_at ASC`, summaryColumns, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionSummary
	for rows.Next() {
		sum, endedAt, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			warnf("skipping session %s: bad timestamp: %v\n", sum.ID, err)
			continue
		}
		sum.EndedAt = parsed
		sessions = append(sessions, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetSession loads a full session record. The bool is false when the
// session does not exist or its stored data cannot be decoded.
func (s *Store) GetSession(ctx context.Context, id string) (model.SessionRecord, bool, error) {
	var startedAt, events string
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s, started_at, events FROM sessions WHERE id = ?`, summaryColumns), id)
	sum, endedAt, err := scanSummary(row, &startedAt, &events)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SessionRecord{}, false, nil
	}
	if err != nil {
		return model.SessionRecord{}, false, err
	}

	rec := model.SessionRecord{
		ID:          sum.ID,
		Settings:    sum.Settings,
		VisualStats: sum.VisualStats,
		AudioStats:  sum.AudioStats,
	}
	if rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		warnf("failed to decode session %s: %v\n", id, err)
		return model.SessionRecord{}, false, nil
	}
	if rec.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
		warnf("failed to decode session %s: %v\n", id, err)
		return model.SessionRecord{}, false, nil
	}
	if err := json.Unmarshal([]byte(events), &rec.Events); err != nil {
		warnf("failed to decode session %s: %v\n", id, err)
		return model.SessionRecord{}, false, nil
	}
	return rec, true, nil
}

// ClearAll removes every session and the stored settings.
func (s *Store) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM settings`); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
