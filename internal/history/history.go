// Package history provides a SQLite-backed ledger of consolidation runs.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/HiroshiOkada/update-notes/internal/aggregate"
	"github.com/HiroshiOkada/update-notes/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at      DATETIME NOT NULL,
	finished_at     DATETIME NOT NULL,
	found           INTEGER NOT NULL DEFAULT 0,
	skipped_today   INTEGER NOT NULL DEFAULT 0,
	skipped_invalid INTEGER NOT NULL DEFAULT 0,
	processed       INTEGER NOT NULL DEFAULT 0,
	relocated       INTEGER NOT NULL DEFAULT 0,
	left_in_place   INTEGER NOT NULL DEFAULT 0,
	images_copied   INTEGER NOT NULL DEFAULT 0,
	files_written   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS run_notes (
	run_id    INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	name      TEXT NOT NULL,
	date      TEXT NOT NULL,
	relocated INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_run_notes_run ON run_notes(run_id);
`

// DB wraps a sql.DB with run-ledger operations.
type DB struct {
	conn *sql.DB
}

// Run is one recorded consolidation run.
type Run struct {
	ID             int64     `json:"id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	Found          int       `json:"found"`
	SkippedToday   int       `json:"skipped_today"`
	SkippedInvalid int       `json:"skipped_invalid"`
	Processed      int       `json:"processed"`
	Relocated      int       `json:"relocated"`
	LeftInPlace    int       `json:"left_in_place"`
	ImagesCopied   int       `json:"images_copied"`
	FilesWritten   int       `json:"files_written"`
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// RecordRun stores a run report and its per-note outcomes in one transaction.
func (db *DB) RecordRun(report *aggregate.Report) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("history: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	res, err := tx.Exec(`
		INSERT INTO runs (started_at, finished_at, found, skipped_today, skipped_invalid,
			processed, relocated, left_in_place, images_copied, files_written)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, report.StartedAt, report.FinishedAt, report.Found, report.SkippedToday,
		report.SkippedInvalid, report.Processed, report.Relocated,
		report.LeftInPlace, report.ImagesCopied, report.FilesWritten)
	if err != nil {
		return 0, fmt.Errorf("history: insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("history: run id: %w", err)
	}

	if len(report.Notes) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO run_notes (run_id, name, date, relocated) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return 0, fmt.Errorf("history: prepare note insert: %w", err)
		}
		defer stmt.Close()
		for _, n := range report.Notes {
			if _, err := stmt.Exec(runID, n.Name, n.Date, n.Relocated); err != nil {
				return 0, fmt.Errorf("history: insert note: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("history: commit: %w", err)
	}
	return runID, nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, started_at, finished_at, found, skipped_today, skipped_invalid,
		       processed, relocated, left_in_place, images_copied, files_written
		FROM runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Found,
			&r.SkippedToday, &r.SkippedInvalid, &r.Processed, &r.Relocated,
			&r.LeftInPlace, &r.ImagesCopied, &r.FilesWritten); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunNotes returns the per-note outcomes of one run, in processing order.
func (db *DB) RunNotes(runID int64) ([]models.NoteOutcome, error) {
	rows, err := db.conn.Query(`
		SELECT name, date, relocated FROM run_notes WHERE run_id = ? ORDER BY rowid
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("history: run notes: %w", err)
	}
	defer rows.Close()

	var out []models.NoteOutcome
	for rows.Next() {
		var n models.NoteOutcome
		if err := rows.Scan(&n.Name, &n.Date, &n.Relocated); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
