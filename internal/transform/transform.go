// Package transform runs chains of tree transforms before mapping.
package transform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agentic-research/docmap/internal/tree"
)

// Transform rewrites a property tree. Implementations must not keep state
// between calls; one instance is shared by every worker.
type Transform interface {
	Name() string
	Apply(root *tree.Object) (*tree.Object, error)
}

// Provider resolves a chain identifier to its ordered transforms.
type Provider interface {
	Transforms(id string) ([]Transform, error)
}

// Error reports a transform that rejected the tree.
type Error struct {
	Transform string
	Cause     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transform %s: %v", e.Transform, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// ChainError collects every failure of one chain run.
type ChainError struct {
	Errors []*Error
}

func (e *ChainError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

func (e *ChainError) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		out[i] = err
	}
	return out
}

// Run applies ts in order. A failing transform does not stop the chain: the
// tree it was given passes on to the next one, and the failures come back as
// a *ChainError alongside the final tree.
func Run(root *tree.Object, ts []Transform) (*tree.Object, error) {
	var failed []*Error
	for _, t := range ts {
		next, err := t.Apply(root)
		if err != nil {
			var te *Error
			if !errors.As(err, &te) {
				te = &Error{Transform: t.Name(), Cause: err}
			}
			failed = append(failed, te)
			continue
		}
		if next != nil {
			root = next
		}
	}
	if len(failed) > 0 {
		return root, &ChainError{Errors: failed}
	}
	return root, nil
}
