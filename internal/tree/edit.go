package tree

import (
	"errors"
	"fmt"

	"github.com/ohler55/ojg/jp"
)

// EditFunc receives the node currently at a path (ok is false when absent)
// and returns its replacement. keep=false removes the member.
type EditFunc func(cur Node, ok bool) (next Node, keep bool)

// Edit returns a tree in which the node at p has been replaced by fn's
// result. Objects along the path are copied; every other subtree is shared
// with root, which is left untouched. Missing objects along the path are
// created when fn keeps a value. Only child steps may be edited.
func Edit(root *Object, p Path, fn EditFunc) (*Object, error) {
	names, err := p.childNames()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, errors.New("cannot edit the root object")
	}

	cur, ok := p.Resolve(root)
	next, keep := fn(cur, ok)
	if !ok && !keep {
		return root, nil
	}
	return rebuild(root, names, next, keep), nil
}

func rebuild(o *Object, names []string, next Node, keep bool) *Object {
	c := o.Clone()
	name := names[0]
	if len(names) == 1 {
		c.put(name, next, keep)
		return c
	}
	child, ok := mustGet(c, name).(*Object)
	if !ok {
		child = &Object{Name: name}
	}
	c.put(name, rebuild(child, names[1:], next, keep), true)
	return c
}

func mustGet(o *Object, name string) Node {
	n, _ := o.Get(name)
	return n
}

func (o *Object) put(name string, n Node, keep bool) {
	for i, m := range o.Members {
		if m.Name != name {
			continue
		}
		if keep {
			o.Members[i].Node = n
		} else {
			o.Members = append(o.Members[:i], o.Members[i+1:]...)
		}
		return
	}
	if keep {
		o.Members = append(o.Members, Member{Name: name, Node: n})
	}
}

func (p Path) childNames() ([]string, error) {
	names := make([]string, 0, len(p.expr))
	for _, f := range p.expr {
		c, ok := f.(jp.Child)
		if !ok {
			return nil, fmt.Errorf("path '%s': edits support child steps only", p.key)
		}
		names = append(names, string(c))
	}
	return names, nil
}

// Sibling returns the path naming member name next to the last step of p.
func (p Path) Sibling(name string) Path {
	expr := make(jp.Expr, len(p.expr))
	copy(expr, p.expr)
	if len(expr) == 0 {
		expr = append(expr, jp.Child(name))
	} else {
		expr[len(expr)-1] = jp.Child(name)
	}
	return Path{expr: expr, key: exprKey(expr)}
}
