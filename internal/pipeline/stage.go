// Package pipeline drives input documents through a mapping stage.
//
// A stage turns one input document into zero or more output documents and
// hands them to a collector. Failures are soft wherever possible: a payload
// that does not parse is archived and (by policy) passed through unchanged,
// and a failing transform only marks the document degraded. Only a panic
// inside a stage surfaces as an error, a *FatalError, after its payload has
// been archived.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/agentic-research/docmap/api"
	"github.com/agentic-research/docmap/internal/collector"
	"github.com/agentic-research/docmap/internal/doc"
	"github.com/agentic-research/docmap/internal/failure"
	"github.com/agentic-research/docmap/internal/mapper"
	"github.com/agentic-research/docmap/internal/transform"
)

// Outcome classifies how a document went through a stage.
type Outcome int

const (
	Processed Outcome = iota
	// Degraded documents were mapped after one or more transforms failed.
	Degraded
	// Failed documents had a payload that could not be parsed.
	Failed
	// Missing documents had no payload in the input field.
	Missing
	// Fatal documents hit a panic.
	Fatal
)

func (o Outcome) String() string {
	switch o {
	case Processed:
		return "processed"
	case Degraded:
		return "degraded"
	case Failed:
		return "failed"
	case Missing:
		return "missing"
	case Fatal:
		return "fatal"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Result describes what a stage did with one input document.
type Result struct {
	Outcome Outcome
	// Emitted counts documents written to the collector.
	Emitted int
	// Skipped lists mapping rules that did not fit the payload.
	Skipped []*mapper.MappingError
	// Err is the parse or transform error behind a Failed or Degraded outcome.
	Err error
}

// Stage processes one input document. Implementations are safe for
// concurrent use.
type Stage interface {
	Process(ctx context.Context, in *doc.Document, out collector.Collector) (Result, error)
}

// FatalError is a recovered panic.
type FatalError struct {
	ID    string
	Value any
	Stack []byte
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("document %s: panic: %v", e.ID, e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *FatalError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Deps are the collaborators shared by every stage.
type Deps struct {
	// Sink archives failed payloads; nil discards them.
	Sink failure.Sink
	// Chains resolves transform chain ids; required when a chain is configured.
	Chains *transform.Cache
	Logger *slog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Sink == nil {
		d.Sink = failure.Nop{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return d
}

// archive records a failure, logging (not returning) sink errors.
func (d Deps) archive(ctx context.Context, id, raw, message string) {
	if err := d.Sink.Record(ctx, id, raw, message); err != nil {
		d.Logger.Warn("failed to archive payload", "id", id, "error", err)
	}
}

// rescue turns a panic into a *FatalError after archiving raw with the stack.
// It must be deferred directly.
func (d Deps) rescue(ctx context.Context, id string, raw *string, res *Result, err *error) {
	r := recover()
	if r == nil {
		return
	}
	fe := &FatalError{ID: id, Value: r, Stack: debug.Stack()}
	d.Logger.Error("document processing panicked", "id", id, "panic", r)
	d.archive(ctx, id, *raw, fmt.Sprintf("%s\n%s", fe.Error(), fe.Stack))
	res.Outcome = Fatal
	*err = fe
}

// NewStage builds the stage selected by cfg.Kind.
func NewStage(cfg *api.Config, deps Deps) (Stage, error) {
	switch cfg.Kind {
	case api.KindRichObject:
		if cfg.RichObject == nil {
			return nil, fmt.Errorf("kind %s needs a richObject block", cfg.Kind)
		}
		return NewRichObjectStage(*cfg.RichObject, deps)
	case api.KindXMLTransform:
		if cfg.XMLTransform == nil {
			return nil, fmt.Errorf("kind %s needs an xmlTransform block", cfg.Kind)
		}
		return NewXPathStage(*cfg.XMLTransform, deps)
	}
	return nil, fmt.Errorf("unknown kind %q", cfg.Kind)
}

func writeAll(ctx context.Context, out collector.Collector, docs ...*doc.Document) (int, error) {
	n := 0
	for _, d := range docs {
		if err := out.Write(ctx, d); err != nil {
			return n, fmt.Errorf("write %s: %w", d.ID, err)
		}
		n++
	}
	return n, nil
}
