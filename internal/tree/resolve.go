package tree

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/jp"
)

// Path is a compiled property path. Two forms are accepted:
//
//	name.child[2].leaf   (dotted, optional leading "$.")
//	/name/child/2/leaf   (slash separated, numeric segments index lists)
//
// Only child and index steps are supported.
type Path struct {
	expr jp.Expr
	key  string
}

// CompilePath parses path into a Path.
func CompilePath(path string) (Path, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return Path{}, errors.New("empty path")
	}

	var x jp.Expr
	if strings.Contains(p, "/") {
		for _, seg := range strings.Split(p, "/") {
			if seg == "" {
				continue
			}
			if i, err := strconv.Atoi(seg); err == nil {
				x = append(x, jp.Nth(i))
			} else {
				x = append(x, jp.Child(seg))
			}
		}
	} else {
		var err error
		if x, err = jp.ParseString(p); err != nil {
			return Path{}, fmt.Errorf("invalid path '%s': %w", path, err)
		}
	}

	var steps jp.Expr
	for _, f := range x {
		switch f.(type) {
		case jp.Root, jp.At:
			// anchors add nothing to a relative walk
		case jp.Child, jp.Nth:
			steps = append(steps, f)
		default:
			return Path{}, fmt.Errorf("path '%s': only child and index steps are supported", path)
		}
	}
	return Path{expr: steps, key: exprKey(steps)}, nil
}

func exprKey(x jp.Expr) string {
	var key strings.Builder
	for _, f := range x {
		switch f := f.(type) {
		case jp.Child:
			if key.Len() > 0 {
				key.WriteByte('.')
			}
			key.WriteString(string(f))
		case jp.Nth:
			fmt.Fprintf(&key, "[%d]", int(f))
		}
	}
	return key.String()
}

// MustCompilePath is CompilePath that panics on error. For tests and constants.
func MustCompilePath(path string) Path {
	p, err := CompilePath(path)
	if err != nil {
		panic(err)
	}
	return p
}

// Key is the canonical dotted form of the path. A single-step path's key
// is the member name it selects.
func (p Path) Key() string { return p.key }

func (p Path) String() string { return p.key }

// Resolve walks the path from root. It reports false when any step is
// missing or lands on the wrong kind of node. The tree is not modified.
func (p Path) Resolve(root *Object) (Node, bool) {
	if root == nil {
		return nil, false
	}
	var cur Node = root
	for _, f := range p.expr {
		switch f := f.(type) {
		case jp.Child:
			o, ok := cur.(*Object)
			if !ok {
				return nil, false
			}
			if cur, ok = o.Get(string(f)); !ok {
				return nil, false
			}
		case jp.Nth:
			l, ok := cur.(*List)
			if !ok {
				return nil, false
			}
			i := int(f)
			if i < 0 {
				i += len(l.Items)
			}
			if i < 0 || i >= len(l.Items) {
				return nil, false
			}
			cur = l.Items[i]
		}
	}
	return cur, cur != nil
}

// Resolve compiles path and resolves it against root. An invalid path
// resolves to nothing.
func Resolve(root *Object, path string) (Node, bool) {
	p, err := CompilePath(path)
	if err != nil {
		return nil, false
	}
	return p.Resolve(root)
}

// NormalizePath returns the canonical key for path, or path itself when it
// does not compile.
func NormalizePath(path string) string {
	p, err := CompilePath(path)
	if err != nil {
		return path
	}
	return p.Key()
}
