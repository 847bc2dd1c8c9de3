// Package doc holds the output document: an id plus an ordered multimap of
// field names to values. Values are strings or embedded *Document children.
package doc

import (
	"fmt"
	"slices"
)

// Separator joins a parent id and a child sequence number.
const Separator = "#"

// Field is one named, possibly multi-valued, field.
type Field struct {
	Name   string
	Values []any
}

// Document is a flat, search-engine-ready document. Field order is the order
// in which names were first added. A Document is not safe for concurrent use.
type Document struct {
	ID     string
	fields []Field
	index  map[string]int
}

// New returns an empty document.
func New(id string) *Document {
	return &Document{ID: id, index: make(map[string]int)}
}

// ChildID returns the id of the n-th child of parentID.
func ChildID(parentID string, n int) string {
	return fmt.Sprintf("%s%s%d", parentID, Separator, n)
}

// Add appends values to the named field, creating it if needed.
func (d *Document) Add(name string, values ...any) {
	if d.index == nil {
		d.index = make(map[string]int)
	}
	if i, ok := d.index[name]; ok {
		d.fields[i].Values = append(d.fields[i].Values, values...)
		return
	}
	d.index[name] = len(d.fields)
	d.fields = append(d.fields, Field{Name: name, Values: append([]any(nil), values...)})
}

// Set replaces the values of the named field, keeping its position.
func (d *Document) Set(name string, values ...any) {
	if i, ok := d.index[name]; ok {
		d.fields[i].Values = append([]any(nil), values...)
		return
	}
	d.Add(name, values...)
}

// Values returns the values of the named field, or nil.
func (d *Document) Values(name string) []any {
	if i, ok := d.index[name]; ok {
		return d.fields[i].Values
	}
	return nil
}

// First returns the first value of the named field.
func (d *Document) First(name string) (any, bool) {
	vs := d.Values(name)
	if len(vs) == 0 {
		return nil, false
	}
	return vs[0], true
}

// FirstString returns the first text value of the named field. Embedded
// documents are skipped.
func (d *Document) FirstString(name string) (string, bool) {
	for _, v := range d.Values(name) {
		switch v.(type) {
		case nil, *Document:
			continue
		}
		return Stringify(v), true
	}
	return "", false
}

// Strings returns every value of the named field as a string.
func (d *Document) Strings(name string) []string {
	vs := d.Values(name)
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, Stringify(v))
	}
	return out
}

// Children returns the embedded documents stored under name.
func (d *Document) Children(name string) []*Document {
	var out []*Document
	for _, v := range d.Values(name) {
		if c, ok := v.(*Document); ok {
			out = append(out, c)
		}
	}
	return out
}

// Has reports whether the named field exists.
func (d *Document) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Remove deletes the named field.
func (d *Document) Remove(name string) {
	i, ok := d.index[name]
	if !ok {
		return
	}
	d.fields = slices.Delete(d.fields, i, i+1)
	delete(d.index, name)
	for j := i; j < len(d.fields); j++ {
		d.index[d.fields[j].Name] = j
	}
}

// Names returns field names in order.
func (d *Document) Names() []string {
	out := make([]string, len(d.fields))
	for i, f := range d.fields {
		out[i] = f.Name
	}
	return out
}

// Fields returns a copy of the fields in order.
func (d *Document) Fields() []Field {
	out := make([]Field, len(d.fields))
	for i, f := range d.fields {
		out[i] = Field{Name: f.Name, Values: slices.Clone(f.Values)}
	}
	return out
}

// Len is the number of distinct fields.
func (d *Document) Len() int { return len(d.fields) }

// Clone copies the id and every field. Embedded children are cloned too.
func (d *Document) Clone() *Document {
	c := New(d.ID)
	for _, f := range d.fields {
		vs := make([]any, len(f.Values))
		for i, v := range f.Values {
			if child, ok := v.(*Document); ok {
				v = child.Clone()
			}
			vs[i] = v
		}
		c.Add(f.Name, vs...)
	}
	return c
}

// Stringify renders a field value as text.
func Stringify(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(v)
}
