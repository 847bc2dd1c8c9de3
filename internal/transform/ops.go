package transform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agentic-research/docmap/internal/tree"
)

var (
	errMissing   = errors.New("path not found")
	errNotString = errors.New("value is not a string")
)

// Rename moves the node at From to To. A missing From is not an error.
type Rename struct{ From, To tree.Path }

func (r Rename) Name() string { return fmt.Sprintf("rename(%s->%s)", r.From, r.To) }

func (r Rename) Apply(root *tree.Object) (*tree.Object, error) {
	n, ok := r.From.Resolve(root)
	if !ok {
		return root, nil
	}
	out, err := tree.Edit(root, r.From, drop)
	if err != nil {
		return nil, &Error{Transform: r.Name(), Cause: err}
	}
	out, err = tree.Edit(out, r.To, func(tree.Node, bool) (tree.Node, bool) { return n, true })
	if err != nil {
		return nil, &Error{Transform: r.Name(), Cause: err}
	}
	return out, nil
}

// Remove deletes the node at Path.
type Remove struct{ Path tree.Path }

func (r Remove) Name() string { return fmt.Sprintf("remove(%s)", r.Path) }

func (r Remove) Apply(root *tree.Object) (*tree.Object, error) {
	out, err := tree.Edit(root, r.Path, drop)
	if err != nil {
		return nil, &Error{Transform: r.Name(), Cause: err}
	}
	return out, nil
}

// Set stores a string constant at Path, replacing what was there.
type Set struct {
	Path  tree.Path
	Value string
}

func (s Set) Name() string { return fmt.Sprintf("set(%s)", s.Path) }

func (s Set) Apply(root *tree.Object) (*tree.Object, error) {
	out, err := tree.Edit(root, s.Path, func(tree.Node, bool) (tree.Node, bool) {
		return tree.NewString(s.Value), true
	})
	if err != nil {
		return nil, &Error{Transform: s.Name(), Cause: err}
	}
	return out, nil
}

// Lowercase lowers the string (or list of strings) at Path.
type Lowercase struct{ Path tree.Path }

func (l Lowercase) Name() string { return fmt.Sprintf("lowercase(%s)", l.Path) }

func (l Lowercase) Apply(root *tree.Object) (*tree.Object, error) {
	var failed error
	out, err := tree.Edit(root, l.Path, func(cur tree.Node, ok bool) (tree.Node, bool) {
		if !ok {
			return nil, false
		}
		next, err := lower(cur)
		if err != nil {
			failed = err
			return cur, true
		}
		return next, true
	})
	if err == nil {
		err = failed
	}
	if err != nil {
		return nil, &Error{Transform: l.Name(), Cause: err}
	}
	return out, nil
}

func lower(n tree.Node) (tree.Node, error) {
	switch v := n.(type) {
	case *tree.Scalar:
		s, ok := v.Value.(string)
		if !ok {
			return nil, errNotString
		}
		return &tree.Scalar{Value: strings.ToLower(s), Type: v.Type}, nil
	case *tree.List:
		items := make([]tree.Node, len(v.Items))
		for i, item := range v.Items {
			next, err := lower(item)
			if err != nil {
				return nil, err
			}
			items[i] = next
		}
		return &tree.List{Items: items}, nil
	}
	return nil, errNotString
}

// Require fails when Path does not resolve.
type Require struct{ Path tree.Path }

func (r Require) Name() string { return fmt.Sprintf("require(%s)", r.Path) }

func (r Require) Apply(root *tree.Object) (*tree.Object, error) {
	if _, ok := r.Path.Resolve(root); !ok {
		return nil, &Error{Transform: r.Name(), Cause: errMissing}
	}
	return root, nil
}

func drop(tree.Node, bool) (tree.Node, bool) { return nil, false }
