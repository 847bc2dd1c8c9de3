package tree

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agentic-research/docmap/api"
	"github.com/antchfx/xmlquery"
	"github.com/ohler55/ojg/oj"
)

// ParseError reports a payload that is not valid JSON or XML.
type ParseError struct {
	Format api.Format
	Cause  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s payload: %v", e.Format, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

var errNotObject = errors.New("payload root must be an object")

// Parse builds a tree from text in the given format.
func Parse(text string, format api.Format) (*Object, error) {
	switch format {
	case api.FormatJSON, "":
		return ParseJSON(text)
	case api.FormatXML:
		return ParseXML(text)
	}
	return nil, fmt.Errorf("no parser for format %q", format)
}

// ParseJSON builds a tree from JSON text, preserving member order.
// Strings in RFC 3339 form become Date scalars; nulls are dropped.
func ParseJSON(text string) (*Object, error) {
	b := &jsonBuilder{}
	if err := oj.Tokenize([]byte(text), b); err != nil {
		return nil, &ParseError{Format: api.FormatJSON, Cause: err}
	}
	if b.root == nil {
		return nil, &ParseError{Format: api.FormatJSON, Cause: errNotObject}
	}
	return b.root, nil
}

type jsonFrame struct {
	obj  *Object
	list *List
	// key is the pending member name for objects, and the name of the
	// list itself for lists (used to name objects inside it).
	key string
}

// jsonBuilder receives ojg tokens and assembles Objects in document order.
type jsonBuilder struct {
	oj.ZeroHandler

	root  *Object
	stack []*jsonFrame
	// scalarRoot is set when the document is a bare value or array.
	scalarRoot bool
}

func (b *jsonBuilder) top() *jsonFrame {
	if len(b.stack) == 0 {
		return nil
	}
	return b.stack[len(b.stack)-1]
}

func (b *jsonBuilder) add(n Node) {
	f := b.top()
	switch {
	case f == nil:
		b.scalarRoot = true
	case f.obj != nil:
		f.obj.Add(f.key, n)
		f.key = ""
	default:
		f.list.Items = append(f.list.Items, n)
	}
}

func (b *jsonBuilder) Null() {
	if f := b.top(); f != nil && f.obj != nil {
		f.key = ""
	}
}

func (b *jsonBuilder) Bool(v bool) { b.add(NewBool(v)) }
func (b *jsonBuilder) Int(v int64) { b.add(NewInt(v)) }
func (b *jsonBuilder) Float(v float64) { b.add(NewDecimal(v)) }

// Number receives numbers too large for int64 or float64. The digits are
// kept verbatim as a string.
func (b *jsonBuilder) Number(s string) { b.add(NewString(s)) }
func (b *jsonBuilder) Key(k string) { b.top().key = k }
func (b *jsonBuilder) String(s string) { b.add(stringScalar(s)) }

func (b *jsonBuilder) ObjectStart() {
	o := &Object{}
	if f := b.top(); f != nil {
		o.Name = f.key
		b.add(o)
	} else if b.root == nil && !b.scalarRoot {
		b.root = o
	}
	b.stack = append(b.stack, &jsonFrame{obj: o})
}

func (b *jsonBuilder) ObjectEnd() { b.stack = b.stack[:len(b.stack)-1] }

func (b *jsonBuilder) ArrayStart() {
	l := &List{}
	name := ""
	if f := b.top(); f != nil {
		name = f.key
	}
	b.add(l)
	b.stack = append(b.stack, &jsonFrame{list: l, key: name})
}

func (b *jsonBuilder) ArrayEnd() { b.stack = b.stack[:len(b.stack)-1] }

func stringScalar(s string) *Scalar {
	if len(s) >= len("2006-01-02T15:04:05Z") && s[4] == '-' {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return NewDate(t)
		}
	}
	return NewString(s)
}

// ParseXML builds a tree from XML text. The document element becomes the
// root object; attributes and child elements become members, repeated
// elements fold into lists, and mixed text is kept under "value".
func ParseXML(text string) (*Object, error) {
	doc, err := xmlquery.Parse(strings.NewReader(text))
	if err != nil {
		return nil, &ParseError{Format: api.FormatXML, Cause: err}
	}
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return xmlObject(c), nil
		}
	}
	return nil, &ParseError{Format: api.FormatXML, Cause: errors.New("no document element")}
}

func xmlObject(n *xmlquery.Node) *Object {
	o := &Object{Name: qualifiedName(n)}
	for _, a := range n.Attr {
		name := a.Name.Local
		if a.Name.Space != "" {
			name = a.Name.Space + ":" + a.Name.Local
		}
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			o.Members = append(o.Members, Member{Name: name, Node: NewString(a.Value), Intrinsic: true})
			continue
		}
		o.Add(name, NewString(a.Value))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			o.Add(qualifiedName(c), xmlNode(c))
		}
	}
	if s := xmlText(n); s != nil && s.Value != "" {
		o.Add("value", s)
	}
	return o
}

func xmlNode(n *xmlquery.Node) Node {
	if len(n.Attr) > 0 {
		return xmlObject(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return xmlObject(n)
		}
	}
	return xmlText(n)
}

// xmlText returns the direct text of n; CDATA content makes it Text.
func xmlText(n *xmlquery.Node) *Scalar {
	var sb strings.Builder
	cdata := false
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.TextNode:
			sb.WriteString(c.Data)
		case xmlquery.CharDataNode:
			sb.WriteString(c.Data)
			cdata = true
		}
	}
	s := strings.TrimSpace(sb.String())
	if cdata {
		return NewText(s)
	}
	return NewString(s)
}

func qualifiedName(n *xmlquery.Node) string {
	if n.Prefix != "" {
		return n.Prefix + ":" + n.Data
	}
	return n.Data
}
