// Package tree is the uniform in-memory form of a parsed JSON or XML payload.
//
// A tree is built fresh for every input document, read by the mapper, and
// released afterwards. Nothing in this package mutates a tree once built;
// transforms produce new objects that share unchanged subtrees.
package tree

import (
	"fmt"
	"time"
)

// ScalarType is the declared type of a scalar leaf.
type ScalarType int

const (
	String ScalarType = iota
	// Text is long-form text (e.g. XML CDATA).
	Text
	Integer
	Decimal
	Date
	Boolean
	// ObjectType never appears on a Scalar; it is the type reported for
	// objects so list homogeneity checks treat them uniformly.
	ObjectType
)

func (t ScalarType) String() string {
	switch t {
	case String:
		return "string"
	case Text:
		return "text"
	case Integer:
		return "integer"
	case Decimal:
		return "decimal"
	case Date:
		return "date"
	case Boolean:
		return "boolean"
	case ObjectType:
		return "object"
	}
	return fmt.Sprintf("ScalarType(%d)", int(t))
}

// Node is one of *Scalar, *List or *Object.
type Node interface {
	node()
}

// Scalar is a leaf value. Value holds a string, int64, float64, bool or time.Time.
type Scalar struct {
	Value any
	Type  ScalarType
}

// List is an ordered sequence of nodes.
type List struct {
	Items []Node
}

// Member is a named entry of an Object.
type Member struct {
	Name string
	Node Node
	// Intrinsic members are markers (e.g. namespace declarations), not data.
	Intrinsic bool
}

// Object is an ordered mapping of unique names to nodes.
type Object struct {
	Name    string
	Members []Member
}

func (*Scalar) node() {}
func (*List) node()   {}
func (*Object) node() {}

// NewString returns a String scalar.
func NewString(s string) *Scalar { return &Scalar{Value: s, Type: String} }

// NewInt returns an Integer scalar.
func NewInt(i int64) *Scalar { return &Scalar{Value: i, Type: Integer} }

// NewDecimal returns a Decimal scalar.
func NewDecimal(f float64) *Scalar { return &Scalar{Value: f, Type: Decimal} }

// NewBool returns a Boolean scalar.
func NewBool(b bool) *Scalar { return &Scalar{Value: b, Type: Boolean} }

// NewDate returns a Date scalar.
func NewDate(t time.Time) *Scalar { return &Scalar{Value: t, Type: Date} }

// NewText returns a Text scalar.
func NewText(s string) *Scalar { return &Scalar{Value: s, Type: Text} }

// TypeOf reports the declared type of n. Lists report the type of their
// first item; use classify for the effective list type.
func TypeOf(n Node) ScalarType {
	switch v := n.(type) {
	case *Scalar:
		return v.Type
	case *Object:
		return ObjectType
	case *List:
		if len(v.Items) > 0 {
			return TypeOf(v.Items[0])
		}
	}
	return String
}

// Get returns the member named name.
func (o *Object) Get(name string) (Node, bool) {
	for _, m := range o.Members {
		if m.Name == name {
			return m.Node, true
		}
	}
	return nil, false
}

// Add appends a member. An existing member of the same name is folded
// into a List so member names stay unique.
func (o *Object) Add(name string, n Node) {
	for i, m := range o.Members {
		if m.Name != name {
			continue
		}
		if l, ok := m.Node.(*List); ok {
			l.Items = append(l.Items, n)
		} else {
			o.Members[i].Node = &List{Items: []Node{m.Node, n}}
		}
		return
	}
	o.Members = append(o.Members, Member{Name: name, Node: n})
}

// Clone returns a shallow copy: the member slice is new, member nodes are shared.
func (o *Object) Clone() *Object {
	c := &Object{Name: o.Name, Members: make([]Member, len(o.Members))}
	copy(c.Members, o.Members)
	return c
}

// Release drops every member so the payload can be collected.
func (o *Object) Release() {
	if o == nil {
		return
	}
	clear(o.Members)
	o.Members = nil
}
