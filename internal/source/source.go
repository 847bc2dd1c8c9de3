// Package source yields input documents for a run.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/agentic-research/docmap/internal/doc"
)

// DefaultField receives the payload for sources that carry raw text.
const DefaultField = "body"

// Source yields input documents one at a time. Each stops at the first
// error returned by fn.
type Source interface {
	Each(ctx context.Context, fn func(*doc.Document) error) error
}

// Open picks a source by the shape of path: a directory, a ".db" SQLite
// file with a results table, or JSON lines for anything else.
// field names the document field that receives raw payloads.
func Open(path, field string, watch bool, logger *slog.Logger) (Source, error) {
	if field == "" {
		field = DefaultField
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("input %s: %w", path, err)
	}
	switch {
	case info.IsDir():
		return &Dir{Path: path, Field: field, Watch: watch, Logger: logger}, nil
	case watch:
		return nil, fmt.Errorf("input %s: watch needs a directory", path)
	case filepath.Ext(path) == ".db":
		return &SQLite{Path: path, Field: field}, nil
	}
	return &JSONLinesFile{Path: path}, nil
}
