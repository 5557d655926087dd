// Package audit keeps a local SQLite log of gateway operations: which tool
// ran, against what target, as whom, and how it ended. The log stores
// gateway events only — never mirrored CRM data.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Entry is one logged gateway operation.
type Entry struct {
	ID        string
	Operation string
	Target    string
	Actor     string
	Outcome   string
	Detail    string
	CreatedAt time.Time
}

// OutcomeOK marks a successful operation; failures record the error code.
const OutcomeOK = "ok"

// Recorder accepts audit entries. Writes are best-effort: a failing
// recorder must never fail the operation being recorded.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Store is a SQLite-backed Recorder.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS op_log (
    id TEXT PRIMARY KEY,
    operation TEXT NOT NULL,
    target TEXT,
    actor TEXT NOT NULL,
    outcome TEXT NOT NULL,
    detail TEXT,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_op_log_operation ON op_log(operation);
CREATE INDEX IF NOT EXISTS idx_op_log_created_at ON op_log(created_at);
`

// Open creates or opens the audit database at path (":memory:" for tests).
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing audit schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one entry. A zero ID gets a generated UUID; a zero
// CreatedAt gets the current time.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO op_log (id, operation, target, actor, outcome, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Operation, e.Target, e.Actor, e.Outcome, e.Detail, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("recording audit entry: %w", err)
	}
	return nil
}

// ListOptions filters List.
type ListOptions struct {
	Operation string
	Limit     int
}

// List returns entries newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	query := `SELECT id, operation, target, actor, outcome, detail, created_at FROM op_log`
	var args []any
	if opts.Operation != "" {
		query += " WHERE operation = ?"
		args = append(args, opts.Operation)
	}
	query += " ORDER BY created_at DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Operation, &e.Target, &e.Actor, &e.Outcome, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit entries: %w", err)
	}
	return entries, nil
}
