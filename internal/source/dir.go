package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentic-research/docmap/internal/doc"
	"github.com/fsnotify/fsnotify"
)

// Dir turns every regular file in a directory into a document: the file
// name is the id and the content goes under Field. Hidden files are skipped.
// With Watch set, Each keeps running after the initial pass and emits files
// as they are created or written, until ctx is done.
type Dir struct {
	Path   string
	Field  string
	Watch  bool
	Logger *slog.Logger
}

func (d *Dir) Each(ctx context.Context, fn func(*doc.Document) error) error {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var watcher *fsnotify.Watcher
	if d.Watch {
		// subscribe before the initial pass
		var err error
		if watcher, err = fsnotify.NewWatcher(); err != nil {
			return fmt.Errorf("create fsnotify watcher: %w", err)
		}
		defer func() { _ = watcher.Close() }()
		if err := watcher.Add(d.Path); err != nil {
			return fmt.Errorf("watch %s: %w", d.Path, err)
		}
	}

	entries, err := os.ReadDir(d.Path)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", d.Path, err)
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.IsDir() || hidden(e.Name()) {
			continue
		}
		if err := d.emit(filepath.Join(d.Path, e.Name()), fn); err != nil {
			return err
		}
	}
	if watcher == nil {
		return nil
	}

	logger.Info("watching input directory", "path", d.Path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if hidden(filepath.Base(ev.Name)) {
				continue
			}
			logger.Debug("input file event", "path", ev.Name, "op", ev.Op.String())
			if err := d.emit(ev.Name, fn); err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			logger.Error("input watcher error", "error", err)
		}
	}
}

func (d *Dir) emit(path string, fn func(*doc.Document) error) error {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Size() == 0 {
		// vanished or still empty
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	out := doc.New(filepath.Base(path))
	out.Add(d.Field, string(b))
	return fn(out)
}

func hidden(name string) bool { return strings.HasPrefix(name, ".") }
