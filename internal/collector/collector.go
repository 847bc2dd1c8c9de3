// Package collector receives finished output documents.
package collector

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/agentic-research/docmap/internal/doc"
	"github.com/goccy/go-json"
)

// Collector hands documents downstream. Write may be called from several
// workers at once; ownership of d passes to the collector.
type Collector interface {
	Write(ctx context.Context, d *doc.Document) error
}

// Func adapts a function to Collector.
type Func func(ctx context.Context, d *doc.Document) error

func (f Func) Write(ctx context.Context, d *doc.Document) error { return f(ctx, d) }

// Memory keeps every document in arrival order.
type Memory struct {
	mu   sync.Mutex
	docs []*doc.Document
}

func (m *Memory) Write(_ context.Context, d *doc.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, d)
	return nil
}

// Docs returns the collected documents.
func (m *Memory) Docs() []*doc.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*doc.Document, len(m.docs))
	copy(out, m.docs)
	return out
}

// ByID returns the first collected document with the given id.
func (m *Memory) ByID(id string) (*doc.Document, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.ID == id {
			return d, true
		}
	}
	return nil, false
}

// JSONLines writes one JSON object per line.
type JSONLines struct {
	mu sync.Mutex
	w  *bufio.Writer
}

// NewJSONLines returns a collector writing to w. Call Flush when done.
func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{w: bufio.NewWriter(w)}
}

func (j *JSONLines) Write(_ context.Context, d *doc.Document) error {
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode %s: %w", d.ID, err)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.w.Write(b); err != nil {
		return err
	}
	return j.w.WriteByte('\n')
}

// Flush writes any buffered lines.
func (j *JSONLines) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.w.Flush()
}
