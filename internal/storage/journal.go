package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/google/uuid"
)

// MemoryDSN keeps the journal for the life of the process only.
const MemoryDSN = ":memory:"

// Entry is one write trigger and what became of it.
type Entry struct {
	ID      string `json:"id"`
	Seq     int64  `json:"seq"`
	Kind    string `json:"kind"`
	Outcome string `json:"outcome"`
	Target  string `json:"target,omitempty"`
	Payload string `json:"payload,omitempty"` // rollup input text, when the write carries one
	TxHash  string `json:"tx_hash,omitempty"`
	Error   string `json:"error,omitempty"`
	TsMilli int64  `json:"ts"`
}

// Journal records dispatched writes in SQLite.
type Journal struct {
	db *sql.DB
}

// OpenJournal opens (or creates) the journal at dsn.
func OpenJournal(dsn string) (*Journal, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// Every connection to :memory: is a distinct database.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=-2000;", // 2MB cache
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS dispatches (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			kind TEXT NOT NULL,
			outcome TEXT NOT NULL,
			target TEXT NOT NULL DEFAULT '',
			payload TEXT NOT NULL DEFAULT '',
			tx_hash TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT '',
			ts INTEGER NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create dispatches table: %w", err)
	}

	return &Journal{db: db}, nil
}

// Record stores e, filling ID, Seq and timestamp when unset.
func (j *Journal) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.TsMilli == 0 {
		e.TsMilli = time.Now().UnixMilli()
	}

	res, err := j.db.ExecContext(ctx,
		"INSERT INTO dispatches (id, kind, outcome, target, payload, tx_hash, error, ts) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.Kind, e.Outcome, e.Target, e.Payload, e.TxHash, e.Error, e.TsMilli,
	)
	if err != nil {
		return e, fmt.Errorf("failed to insert dispatch: %w", err)
	}
	if e.Seq, err = res.LastInsertId(); err != nil {
		return e, fmt.Errorf("failed to read dispatch seq: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, oldest first. limit <= 0 returns all.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT seq, id, kind, outcome, target, payload, tx_hash, error, ts FROM (
			SELECT * FROM dispatches ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query dispatches: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Seq, &e.ID, &e.Kind, &e.Outcome, &e.Target, &e.Payload, &e.TxHash, &e.Error, &e.TsMilli); err != nil {
			return nil, fmt.Errorf("failed to scan dispatch: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return out, nil
}

// Counts returns the number of entries per outcome.
func (j *Journal) Counts(ctx context.Context) (map[string]int, error) {
	rows, err := j.db.QueryContext(ctx, "SELECT outcome, COUNT(*) FROM dispatches GROUP BY outcome")
	if err != nil {
		return nil, fmt.Errorf("failed to count dispatches: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		out[outcome] = n
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}
