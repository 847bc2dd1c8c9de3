package collector

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/agentic-research/docmap/internal/doc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(id string) *doc.Document {
	d := doc.New(id)
	d.Add("title_s", "t-"+id)
	return d
}

func TestMemory(t *testing.T) {
	var m Memory
	ctx := context.Background()
	require.NoError(t, m.Write(ctx, sample("a")))
	require.NoError(t, m.Write(ctx, sample("b")))

	docs := m.Docs()
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)

	d, ok := m.ByID("b")
	require.True(t, ok)
	assert.Equal(t, []any{"t-b"}, d.Values("title_s"))

	_, ok = m.ByID("zz")
	assert.False(t, ok)
}

func TestFunc(t *testing.T) {
	var got []string
	c := Func(func(_ context.Context, d *doc.Document) error {
		got = append(got, d.ID)
		return nil
	})
	require.NoError(t, c.Write(context.Background(), sample("x")))
	assert.Equal(t, []string{"x"}, got)
}

func TestJSONLines(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONLines(&buf)
	ctx := context.Background()
	require.NoError(t, j.Write(ctx, sample("a")))
	require.NoError(t, j.Write(ctx, sample("b")))
	require.NoError(t, j.Flush())

	assert.Equal(t, "{\"id\":\"a\",\"title_s\":\"t-a\"}\n{\"id\":\"b\",\"title_s\":\"t-b\"}\n", buf.String())
}

func TestSQLiteBatches(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "out.db")
	s, err := NewSQLite(dbPath, 2)
	require.NoError(t, err)

	ctx := context.Background()
	for _, id := range []string{"p", "p#0", "p#1", "p#1"} {
		require.NoError(t, s.Write(ctx, sample(id)))
	}
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n, "same id replaces")
	require.NoError(t, s.Close())

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var parent sql.NullString
	var record string
	require.NoError(t, db.QueryRow(`SELECT parent_id, record FROM documents WHERE id = 'p#1'`).Scan(&parent, &record))
	assert.Equal(t, "p", parent.String)
	assert.JSONEq(t, `{"id":"p#1","title_s":"t-p#1"}`, record)

	require.NoError(t, db.QueryRow(`SELECT parent_id FROM documents WHERE id = 'p'`).Scan(&parent))
	assert.False(t, parent.Valid)
}

func TestParentOf(t *testing.T) {
	tests := []struct {
		id     string
		parent string
		ok     bool
	}{
		{"p#0", "p", true},
		{"p#1#12", "p#1", true},
		{"https://example.com/a#section", "", false},
		{"p#", "", false},
		{"#3", "", false},
		{"plain", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			parent, ok := parentOf(tt.id)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.parent, parent)
		})
	}
}
