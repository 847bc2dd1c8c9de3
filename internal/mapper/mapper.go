// Package mapper materializes a property tree into output documents.
//
// Explicit rules run first and record the paths they consume; the dynamic
// fallback pass then adds every remaining top-level property under a name
// carrying a type suffix (see package classify). Running the passes in the
// other order would give explicitly mapped properties a second, suffixed
// field.
package mapper

import (
	"fmt"
	"log/slog"

	"github.com/agentic-research/docmap/internal/classify"
	"github.com/agentic-research/docmap/internal/doc"
	"github.com/agentic-research/docmap/internal/tree"
)

// DefaultParentIDFieldName is the child field that receives the parent id.
const DefaultParentIDFieldName = "parent_id_s"

// MappingError reports a rule whose resolved node does not fit its mode.
// The rule is skipped; the document is still produced.
type MappingError struct {
	Path string
	Mode string
	Got  string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("%s rule for '%s' resolved to %s, skipped", e.Mode, e.Path, e.Got)
}

// Options tunes a Mapper.
type Options struct {
	// ParentIDFieldName receives the parent's id value in each child.
	ParentIDFieldName string
	FloatMode         classify.FloatMode
	Logger            *slog.Logger
}

// Mapper applies a fixed rule list. It holds no per-document state and is
// safe for concurrent use.
type Mapper struct {
	rules []Rule
	opts  Options
}

// New returns a Mapper for rules.
func New(rules []Rule, opts Options) *Mapper {
	if opts.ParentIDFieldName == "" {
		opts.ParentIDFieldName = DefaultParentIDFieldName
	}
	if opts.FloatMode == "" {
		opts.FloatMode = classify.Float
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Mapper{rules: rules, opts: opts}
}

// Result is what one Map call produced besides the fields written to the
// target document.
type Result struct {
	// Children are linked documents to emit as siblings, in source order.
	Children []*doc.Document
	// Skipped lists rules that did not fit the resolved node.
	Skipped []*MappingError
}

// Map applies the rules to root, writing fields into target.
func (m *Mapper) Map(root *tree.Object, target *doc.Document) Result {
	var res Result
	mapped := make(map[string]bool)
	seq := 0

	for _, r := range m.rules {
		node, ok := r.source().Resolve(root)
		if !ok {
			continue
		}

		switch r := r.(type) {
		case FieldRule:
			target.Add(r.Target, anyValues(node)...)
			mapped[r.Path.Key()] = true

		case JSONStringRule:
			target.Add(r.Target, tree.JSON(node))
			mapped[r.Path.Key()] = true

		case LinkedObjectRule:
			objs, ok := objects(node)
			if !ok {
				res.Skipped = append(res.Skipped, m.skip(r.Path, "linked_object", node))
				continue
			}
			for _, o := range objs {
				child := m.materialize(target, o, r.Relation)
				child.ID = doc.ChildID(target.ID, seq)
				seq++
				if r.Target != "" {
					child.Add(r.Target, o.Name)
				}
				res.Children = append(res.Children, child)
			}

		case NestedObjectRule:
			objs, ok := objects(node)
			if !ok {
				res.Skipped = append(res.Skipped, m.skip(r.Path, "nested_object", node))
				continue
			}
			for _, o := range objs {
				target.Add(r.Target, m.materialize(target, o, r.Relation))
			}
			mapped[r.Path.Key()] = true
		}
	}

	m.Fallback(root, target, mapped)
	return res
}

// Fallback adds every non-intrinsic member of obj whose name is not in
// mapped as a dynamic field. Values are appended to a field that already
// exists under the same name; values the field already holds are not added
// again, so running it twice over the same document changes nothing.
func (m *Mapper) Fallback(obj *tree.Object, target *doc.Document, mapped map[string]bool) {
	for _, mem := range obj.Members {
		if mem.Intrinsic || mapped[mem.Name] {
			continue
		}
		name := mem.Name + classify.SuffixFor(mem.Node, m.opts.FloatMode)
		if add := missing(target.Values(name), anyValues(mem.Node)); len(add) > 0 {
			target.Add(name, add...)
		}
	}
}

// missing returns the values not already covered by have, counting
// repeats: have [a] and values [a a] leaves [a].
func missing(have, values []any) []any {
	if len(have) == 0 {
		return values
	}
	seen := make(map[any]int, len(have))
	for _, v := range have {
		seen[v]++
	}
	var out []any
	for _, v := range values {
		if seen[v] > 0 {
			seen[v]--
			continue
		}
		out = append(out, v)
	}
	return out
}

// materialize builds the child document for one nested object.
func (m *Mapper) materialize(parent *doc.Document, obj *tree.Object, rel Relation) *doc.Document {
	child := doc.New("")

	// 1. Inner mappings, then the child's own dynamic fields
	mapped := make(map[string]bool, len(rel.Inner))
	for _, fr := range rel.Inner {
		if node, ok := fr.Path.Resolve(obj); ok {
			child.Add(fr.Target, anyValues(node)...)
			mapped[fr.Path.Key()] = true
		}
	}
	m.Fallback(obj, child, mapped)

	// 2. Parent id
	if rel.ParentIDField != "" {
		if v, ok := parentValue(parent, rel.ParentIDField); ok {
			child.Add(m.opts.ParentIDFieldName, v)
		} else {
			m.opts.Logger.Warn("parent field missing, child has no parent id",
				"parent", parent.ID, "field", rel.ParentIDField)
		}
	}

	// 3. Copied parent fields
	for _, name := range rel.CopyParentFields {
		if vs := parent.Values(name); len(vs) > 0 {
			child.Add(name, vs...)
		}
	}
	return child
}

func (m *Mapper) skip(p tree.Path, mode string, node tree.Node) *MappingError {
	err := &MappingError{Path: p.Key(), Mode: mode, Got: kindOf(node)}
	m.opts.Logger.Debug("mapping rule skipped", "error", err)
	return err
}

func parentValue(parent *doc.Document, field string) (string, bool) {
	if v, ok := parent.FirstString(field); ok {
		return v, true
	}
	if field == doc.IDField && parent.ID != "" {
		return parent.ID, true
	}
	return "", false
}

// objects returns the objects a relation rule applies to: the node itself,
// or the object items of a list. Scalars do not fit.
func objects(n tree.Node) ([]*tree.Object, bool) {
	switch v := n.(type) {
	case *tree.Object:
		return []*tree.Object{v}, true
	case *tree.List:
		var out []*tree.Object
		for _, item := range v.Items {
			if o, ok := item.(*tree.Object); ok {
				out = append(out, o)
			}
		}
		return out, true
	}
	return nil, false
}

func anyValues(n tree.Node) []any {
	vs := classify.Values(n)
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

func kindOf(n tree.Node) string {
	switch n.(type) {
	case *tree.Object:
		return "object"
	case *tree.List:
		return "list"
	}
	return "scalar"
}
