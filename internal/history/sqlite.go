package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists runs in a single SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies migrations.
func Open(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT,
			aborted BOOLEAN,
			timed_out BOOLEAN,
			elapsed_ms INTEGER,
			transcript TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS run_commands (
			run_id TEXT,
			position INTEGER,
			command TEXT,
			exit_code INTEGER,
			output TEXT,
			PRIMARY KEY (run_id, position)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrating history db: %w", err)
		}
	}
	return nil
}

// Save writes a run and its commands in one transaction.
func (s *SQLiteStore) Save(rec *Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("saving run %s: %w", rec.ID, err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT OR REPLACE INTO runs (id, started_at, aborted, timed_out, elapsed_ms, transcript)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.Aborted, rec.TimedOut, rec.Elapsed.Milliseconds(), rec.Transcript,
	)
	if err != nil {
		return fmt.Errorf("saving run %s: %w", rec.ID, err)
	}

	if _, err := tx.Exec(`DELETE FROM run_commands WHERE run_id = ?`, rec.ID); err != nil {
		return fmt.Errorf("saving run %s: %w", rec.ID, err)
	}
	for _, c := range rec.Commands {
		_, err := tx.Exec(
			`INSERT INTO run_commands (run_id, position, command, exit_code, output)
			 VALUES (?, ?, ?, ?, ?)`,
			rec.ID, c.Position, c.Command, c.ExitCode, c.Output,
		)
		if err != nil {
			return fmt.Errorf("saving run %s command %d: %w", rec.ID, c.Position, err)
		}
	}

	return tx.Commit()
}

// Load reads one run and its commands by ID.
func (s *SQLiteStore) Load(id string) (*Record, error) {
	rec := &Record{ID: id}
	var startedAt string
	var elapsedMS int64

	err := s.db.QueryRow(
		`SELECT started_at, aborted, timed_out, elapsed_ms, transcript FROM runs WHERE id = ?`, id,
	).Scan(&startedAt, &rec.Aborted, &rec.TimedOut, &elapsedMS, &rec.Transcript)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading run %s: %w", id, err)
	}

	rec.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
	rec.Elapsed = time.Duration(elapsedMS) * time.Millisecond

	rows, err := s.db.Query(
		`SELECT position, command, exit_code, output FROM run_commands
		 WHERE run_id = ? ORDER BY position`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("loading run %s commands: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var c CommandRecord
		if err := rows.Scan(&c.Position, &c.Command, &c.ExitCode, &c.Output); err != nil {
			return nil, fmt.Errorf("loading run %s commands: %w", id, err)
		}
		rec.Commands = append(rec.Commands, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading run %s commands: %w", id, err)
	}

	return rec, nil
}

// List returns the most recent runs, newest first.
func (s *SQLiteStore) List(limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT r.id, r.started_at, r.aborted, r.elapsed_ms,
		        (SELECT COUNT(*) FROM run_commands c WHERE c.run_id = r.id)
		 FROM runs r ORDER BY r.started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		var startedAt string
		var elapsedMS int64
		if err := rows.Scan(&s.ID, &startedAt, &s.Aborted, &elapsedMS, &s.Commands); err != nil {
			return nil, fmt.Errorf("listing runs: %w", err)
		}
		s.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		s.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		out = append(out, s)
	}
	return out, rows.Err()
}
