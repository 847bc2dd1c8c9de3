package mapper

import (
	"fmt"

	"github.com/agentic-research/docmap/api"
	"github.com/agentic-research/docmap/internal/tree"
)

// Rule is one compiled field mapping. The set of implementations is closed:
// FieldRule, LinkedObjectRule, NestedObjectRule and JSONStringRule.
type Rule interface {
	source() tree.Path
	rule()
}

// FieldRule copies the resolved value(s) to Target.
type FieldRule struct {
	Path   tree.Path
	Target string
}

// Relation describes how a nested object becomes a child document.
type Relation struct {
	Path   tree.Path
	Target string
	// ParentIDField names the parent field copied into each child.
	ParentIDField    string
	Inner            []FieldRule
	CopyParentFields []string
}

// LinkedObjectRule emits each nested object as a sibling document.
type LinkedObjectRule struct{ Relation }

// NestedObjectRule embeds each nested object under Target.
type NestedObjectRule struct{ Relation }

// JSONStringRule stores the JSON text of the resolved node under Target.
type JSONStringRule struct {
	Path   tree.Path
	Target string
}

func (r FieldRule) source() tree.Path { return r.Path }
func (r Relation) source() tree.Path { return r.Path }
func (r JSONStringRule) source() tree.Path { return r.Path }
func (FieldRule) rule() {}
func (LinkedObjectRule) rule() {}
func (NestedObjectRule) rule() {}
func (JSONStringRule) rule() {}

// Compile turns configured field mappings into rules, in order.
func Compile(mappings []api.FieldMapping) ([]Rule, error) {
	rules := make([]Rule, 0, len(mappings))
	for i, fm := range mappings {
		r, err := compileOne(fm)
		if err != nil {
			return nil, fmt.Errorf("field mapping %d (%s): %w", i, fm.InputPath, err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func compileOne(fm api.FieldMapping) (Rule, error) {
	p, err := tree.CompilePath(fm.InputPath)
	if err != nil {
		return nil, err
	}
	switch fm.Mode {
	case api.ModeField:
		return FieldRule{Path: p, Target: fm.TargetField}, nil
	case api.ModeJSONString:
		return JSONStringRule{Path: p, Target: fm.TargetField}, nil
	case api.ModeLinkedObject, api.ModeNestedObject:
		rel := Relation{
			Path:             p,
			Target:           fm.TargetField,
			ParentIDField:    fm.ParentIDField,
			CopyParentFields: fm.CopyParentFields,
		}
		for _, im := range fm.InnerMappings {
			ip, err := tree.CompilePath(im.InputPath)
			if err != nil {
				return nil, fmt.Errorf("inner mapping %s: %w", im.InputPath, err)
			}
			rel.Inner = append(rel.Inner, FieldRule{Path: ip, Target: im.TargetField})
		}
		if fm.Mode == api.ModeLinkedObject {
			return LinkedObjectRule{rel}, nil
		}
		return NestedObjectRule{rel}, nil
	}
	return nil, fmt.Errorf("unknown mode %q", fm.Mode)
}
