package source

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/agentic-research/docmap/internal/doc"
	_ "modernc.org/sqlite"
)

// SQLite streams rows of a "results(id, record)" table. Each row becomes a
// document with the record text under Field. Only one row is held at a time.
type SQLite struct {
	Path  string
	Field string
}

func (s *SQLite) Each(ctx context.Context, fn func(*doc.Document) error) error {
	db, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", s.Path, err)
	}
	defer func() { _ = db.Close() }() // safe to ignore

	rows, err := db.QueryContext(ctx, "SELECT id, record FROM results")
	if err != nil {
		return fmt.Errorf("query results: %w", err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		d := doc.New(id)
		d.Add(s.Field, raw)
		if err := fn(d); err != nil {
			return err
		}
	}
	return rows.Err()
}
