package collector

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/agentic-research/docmap/internal/doc"
	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"
)

// DefaultBatchSize is the number of documents per transaction.
const DefaultBatchSize = 1000

// SQLite stores documents in a "documents" table, committing in batches.
// Later writes of the same id replace earlier ones.
type SQLite struct {
	db        *sql.DB
	tx        *sql.Tx
	stmt      *sql.Stmt
	batchSize int
	count     int
	mu        sync.Mutex
}

// NewSQLite creates the database at dbPath and opens the first batch.
func NewSQLite(dbPath string, batchSize int) (*SQLite, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// Performance tuning for bulk insert
	if _, err := db.Exec("PRAGMA synchronous = OFF"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode = MEMORY"); err != nil {
		_ = db.Close()
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		parent_id TEXT,
		record JSON NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &SQLite{db: db, batchSize: batchSize}
	if err := s.beginTx(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) beginTx() error {
	var err error
	s.tx, err = s.db.Begin()
	if err != nil {
		return err
	}
	s.stmt, err = s.tx.Prepare(`INSERT OR REPLACE INTO documents (id, parent_id, record) VALUES (?, ?, ?)`)
	return err
}

func (s *SQLite) commitTx() error {
	if s.stmt != nil {
		_ = s.stmt.Close()
	}
	return s.tx.Commit()
}

func (s *SQLite) Write(ctx context.Context, d *doc.Document) error {
	record, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode %s: %w", d.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Linked children carry their parent in the id: P#n
	var parentID *string
	if p, ok := parentOf(d.ID); ok {
		parentID = &p
	}
	if _, err := s.stmt.ExecContext(ctx, d.ID, parentID, string(record)); err != nil {
		return fmt.Errorf("insert %s: %w", d.ID, err)
	}

	s.count++
	if s.count >= s.batchSize {
		if err := s.commitTx(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		if err := s.beginTx(); err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		s.count = 0
	}
	return nil
}

// Count returns the number of stored documents, including the open batch.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	err := s.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}

// Close commits the open batch and closes the database.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commitTx(); err != nil {
		_ = s.db.Close()
		return err
	}
	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_documents_parent ON documents(parent_id)`); err != nil {
		_ = s.db.Close()
		return fmt.Errorf("create index: %w", err)
	}
	return s.db.Close()
}

// parentOf splits a child id of the form parent#n. Ids whose last
// separator is not followed by digits, such as URLs with fragments, have no
// parent.
func parentOf(id string) (string, bool) {
	i := strings.LastIndex(id, doc.Separator)
	if i <= 0 || i == len(id)-1 {
		return "", false
	}
	for _, r := range id[i+1:] {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return id[:i], true
}
