package source

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/agentic-research/docmap/internal/doc"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const maxLine = 64 << 20

// JSONLines reads one JSON object per line. Documents without an id get a
// random UUID.
type JSONLines struct {
	R io.Reader
}

func (j *JSONLines) Each(ctx context.Context, fn func(*doc.Document) error) error {
	sc := bufio.NewScanner(j.R)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	line := 0
	for sc.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		d := doc.New("")
		if err := json.Unmarshal(b, d); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		if err := fn(d); err != nil {
			return err
		}
	}
	return sc.Err()
}

// JSONLinesFile is JSONLines over a file.
type JSONLinesFile struct {
	Path string
}

func (f *JSONLinesFile) Each(ctx context.Context, fn func(*doc.Document) error) error {
	file, err := os.Open(f.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Path, err)
	}
	defer func() { _ = file.Close() }()
	return (&JSONLines{R: file}).Each(ctx, fn)
}
