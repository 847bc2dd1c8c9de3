package failure

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteSink archives failures into a "failures" table.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (or creates) the database at dbPath.
func NewSQLiteSink(dbPath string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS failures (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		doc_id TEXT NOT NULL,
		message TEXT NOT NULL,
		payload TEXT,
		recorded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_failures_doc ON failures(doc_id);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Record(ctx context.Context, id, raw, message string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO failures (doc_id, message, payload, recorded_at) VALUES (?, ?, ?, ?)`,
		id, message, raw, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("archive failure for %s: %w", id, err)
	}
	return nil
}

// Count returns how many failures were archived.
func (s *SQLiteSink) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM failures`).Scan(&n)
	return n, err
}

func (s *SQLiteSink) Close() error { return s.db.Close() }
