// Package store handles SQLite persistence.
//
// The keystroke log is the source of truth: replaying it through the engine
// reproduces every derived statistic. The symbol_stats and branch_progress
// tables are write-through snapshots so reporting commands can read current
// state without a replay.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/keydrill/internal/engine"
	"github.com/verte-zerg/keydrill/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for session and engine state.
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
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			branch TEXT NOT NULL,
			focus TEXT NOT NULL,
			correct_keys INTEGER NOT NULL,
			incorrect_keys INTEGER NOT NULL,
			backspace_count INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS keystrokes (
			session_id INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			symbol INTEGER NOT NULL,
			time_ms REAL NOT NULL,
			correct INTEGER NOT NULL,
			PRIMARY KEY (session_id, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS symbol_stats (
			symbol INTEGER PRIMARY KEY,
			filtered_time_ms REAL NOT NULL,
			best_time_ms REAL NOT NULL,
			confidence REAL NOT NULL,
			sample_count INTEGER NOT NULL,
			error_count INTEGER NOT NULL,
			total_count INTEGER NOT NULL,
			error_rate_ema REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS branch_progress (
			branch TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			current_level INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_keystrokes_session ON keystrokes(session_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession stores a completed session and its full keystroke log.
func (s *Store) InsertSession(ctx context.Context, stats model.SessionStats, keys []engine.Keystroke) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (started_at, ended_at, branch, focus, correct_keys, incorrect_keys, backspace_count, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		stats.StartedAt.Format(time.RFC3339Nano),
		stats.EndedAt.Format(time.RFC3339Nano),
		stats.Branch,
		stats.Focus,
		stats.CorrectKeys,
		stats.IncorrectKeys,
		stats.BackspaceCount,
		stats.DurationMs,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(keys) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO keystrokes (session_id, seq, symbol, time_ms, correct)
			 VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, k := range keys {
			if _, err := stmt.ExecContext(ctx, id, i, int32(k.Symbol), k.TimeMs, boolToInt(k.Correct)); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

// LoadKeystrokeHistory returns every stored session's keystrokes in session
// order, ready for engine replay.
func (s *Store) LoadKeystrokeHistory(ctx context.Context) ([][]engine.Keystroke, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, symbol, time_ms, correct
		 FROM keystrokes
		 ORDER BY session_id ASC, seq ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var history [][]engine.Keystroke
	var current []engine.Keystroke
	lastSession := int64(-1)
	for rows.Next() {
		var sessionID int64
		var symbol int32
		var timeMs float64
		var correct int
		if err := rows.Scan(&sessionID, &symbol, &timeMs, &correct); err != nil {
			return nil, err
		}
		if sessionID != lastSession {
			if current != nil {
				history = append(history, current)
			}
			current = nil
			lastSession = sessionID
		}
		current = append(current, engine.Keystroke{
			Symbol:  engine.Symbol(symbol),
			TimeMs:  timeMs,
			Correct: correct != 0,
		})
	}
	if current != nil {
		history = append(history, current)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return history, nil
}

// SessionCount returns the number of stored sessions.
func (s *Store) SessionCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count)
	return count, err
}

// SaveSymbolStats replaces the symbol snapshot table with current state.
func (s *Store) SaveSymbolStats(ctx context.Context, stats *engine.SymbolStats) error {
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

	if _, err = tx.ExecContext(ctx, `DELETE FROM symbol_stats`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO symbol_stats (symbol, filtered_time_ms, best_time_ms, confidence, sample_count, error_count, total_count, error_rate_ema)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, sym := range stats.Symbols() {
		stat, _ := stats.Stat(sym)
		if _, err = stmt.ExecContext(ctx, int32(sym),
			stat.FilteredTimeMs, stat.BestTimeMs, stat.Confidence,
			stat.SampleCount, stat.ErrorCount, stat.TotalCount, stat.ErrorRateEMA); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadSymbolStats reads the symbol snapshot into a fresh store.
func (s *Store) LoadSymbolStats(ctx context.Context, params engine.Params) (*engine.SymbolStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT symbol, filtered_time_ms, best_time_ms, confidence, sample_count, error_count, total_count, error_rate_ema
		 FROM symbol_stats`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	stats := engine.NewSymbolStats(params)
	for rows.Next() {
		var symbol int32
		var stat engine.SymbolStat
		if err := rows.Scan(&symbol, &stat.FilteredTimeMs, &stat.BestTimeMs, &stat.Confidence,
			&stat.SampleCount, &stat.ErrorCount, &stat.TotalCount, &stat.ErrorRateEMA); err != nil {
			return nil, err
		}
		stats.Restore(engine.Symbol(symbol), stat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

// SaveProgress replaces the branch progress snapshot with current state.
func (s *Store) SaveProgress(ctx context.Context, progress engine.Progress) error {
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

	if _, err = tx.ExecContext(ctx, `DELETE FROM branch_progress`); err != nil {
		return err
	}
	for id, bp := range progress {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO branch_progress (branch, status, current_level) VALUES (?, ?, ?)`,
			string(id), bp.Status.String(), bp.CurrentLevel); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadProgress reads the branch progress snapshot. An empty database yields
// nil, which the engine treats as a fresh start.
func (s *Store) LoadProgress(ctx context.Context) (engine.Progress, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT branch, status, current_level FROM branch_progress`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var progress engine.Progress
	for rows.Next() {
		var branch, status string
		var level int
		if err := rows.Scan(&branch, &status, &level); err != nil {
			return nil, err
		}
		if progress == nil {
			progress = engine.Progress{}
		}
		progress[engine.BranchID(branch)] = engine.BranchProgress{
			Status:       engine.ParseBranchStatus(status),
			CurrentLevel: level,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return progress, nil
}

// ListSessions returns session aggregates filtered by stats config, oldest
// first.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Branch != "" {
		clauses = append(clauses, "branch = ?")
		args = append(args, cfg.Branch)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, ended_at, branch, correct_keys, incorrect_keys, duration_ms
		FROM sessions
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
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

	var sessions []model.SessionAggregate
	for rows.Next() {
		var agg model.SessionAggregate
		var endedAt string
		if err := rows.Scan(&agg.SessionID, &endedAt, &agg.Branch, &agg.Correct, &agg.Incorrect, &agg.DurationMs); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		sessions = append(sessions, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}
	return sessions, nil
}
