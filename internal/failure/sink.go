// Package failure archives the raw payloads of documents that failed.
package failure

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// ErrorsFile is the log of failures kept by DirSink.
const ErrorsFile = "errors.txt"

// Sink persists failed payloads. Recording is best effort: callers log a
// returned error and carry on.
type Sink interface {
	Record(ctx context.Context, id, raw, message string) error
}

// Nop discards every record.
type Nop struct{}

func (Nop) Record(context.Context, string, string, string) error { return nil }

// DirSink appends one line per failure to errors.txt and writes the raw
// payload to a file named after the last path segment of the document id.
type DirSink struct {
	fs billy.Filesystem

	mu sync.Mutex
	n  int
}

// NewDirSink returns a sink writing into fs.
func NewDirSink(fs billy.Filesystem) *DirSink {
	return &DirSink{fs: fs}
}

func (s *DirSink) Record(_ context.Context, id, raw, message string) error {
	if id == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.n++
	f, err := s.fs.OpenFile(ErrorsFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", ErrorsFile, err)
	}
	_, err = fmt.Fprintf(f, "%d) %s: %s\n", s.n, id, message)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("append %s: %w", ErrorsFile, err)
	}

	name := PayloadName(id)
	if err := util.WriteFile(s.fs, name, []byte(raw), 0o644); err != nil {
		return fmt.Errorf("write payload %s: %w", name, err)
	}
	return nil
}

// PayloadName is the file name DirSink uses for the payload of id.
func PayloadName(id string) string {
	name := path.Base(strings.ReplaceAll(id, "\\", "/"))
	if name == "." || name == "/" || name == ErrorsFile {
		name = "_" + strings.Trim(name, "./")
	}
	return name
}

// Open returns the sink for a configured location: "" is Nop, a path ending
// in ".db" is a SQLiteSink, anything else a DirSink over that directory.
// The returned close func is never nil.
func Open(location string) (Sink, func() error, error) {
	noop := func() error { return nil }
	switch {
	case location == "":
		return Nop{}, noop, nil
	case strings.HasSuffix(location, ".db"):
		s, err := NewSQLiteSink(location)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	}
	if err := os.MkdirAll(location, 0o755); err != nil {
		return nil, noop, fmt.Errorf("create failure dir: %w", err)
	}
	return NewDirSink(osfs.New(location)), noop, nil
}
