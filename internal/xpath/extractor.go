// Package xpath extracts fields from XML bodies with XPath rules.
//
// Each node matched by the root selector is re-serialized and parsed again
// as a standalone document, so rule expressions never see the ancestors of
// the node they run against.
package xpath

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/agentic-research/docmap/api"
	"github.com/agentic-research/docmap/internal/doc"
	"github.com/agentic-research/docmap/internal/tree"
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// DefaultBodyField holds the XML text when no body field is configured.
const DefaultBodyField = "body"

var fieldNamer = strings.NewReplacer(" ", "_", ":", ".", "/", ".")

type rule struct {
	api.XPathMappingRule
	value *xpath.Expr
	// names is set for paired rules, whose Field is itself an expression.
	names *xpath.Expr
}

// Extractor holds compiled expressions for one configuration. It keeps no
// per-document state and is safe for concurrent use.
type Extractor struct {
	cfg    api.XMLTransformConfig
	root   *xpath.Expr
	rules  []rule
	logger *slog.Logger
}

// New compiles the root selector and every rule expression.
func New(cfg api.XMLTransformConfig, logger *slog.Logger) (*Extractor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BodyField == "" {
		cfg.BodyField = DefaultBodyField
	}
	root, err := xpath.Compile(cfg.RootXPath)
	if err != nil {
		return nil, fmt.Errorf("root xpath %q: %w", cfg.RootXPath, err)
	}
	e := &Extractor{cfg: cfg, root: root, logger: logger}
	for i, m := range cfg.Mappings {
		r := rule{XPathMappingRule: m}
		if r.value, err = xpath.Compile(m.XPath); err != nil {
			return nil, fmt.Errorf("mapping %d xpath %q: %w", i, m.XPath, err)
		}
		if strings.HasPrefix(m.Field, "/") {
			if r.names, err = xpath.Compile(m.Field); err != nil {
				return nil, fmt.Errorf("mapping %d field xpath %q: %w", i, m.Field, err)
			}
		}
		e.rules = append(e.rules, r)
	}
	return e, nil
}

// KeepParent reports whether the parent document is emitted.
func (e *Extractor) KeepParent() bool {
	return e.cfg.KeepParent || e.cfg.SubDocumentField != ""
}

// LooksLikeXML reports whether s is treated as an XML body.
func LooksLikeXML(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "<?xml") || (strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">"))
}

// Extract runs the rules over every XML value of the parent's body field and
// returns the documents to emit, in order. When the parent is kept it is
// modified in place and returned last. A body value that is not well-formed
// XML fails the whole call with a *tree.ParseError.
func (e *Extractor) Extract(parent *doc.Document) ([]*doc.Document, error) {
	keep := e.KeepParent()
	separate := !keep || e.cfg.SubDocumentField != ""

	// Copies start from the parent as it was before extraction, so a
	// nested copy never contains earlier nested copies.
	var base *doc.Document
	if separate {
		base = parent.Clone()
	}

	var out []*doc.Document
	n := 0
	for _, body := range parent.Strings(e.cfg.BodyField) {
		if !LooksLikeXML(body) {
			e.logger.Debug("body value is not xml, skipped", "id", parent.ID)
			continue
		}
		top, err := xmlquery.Parse(strings.NewReader(strings.TrimSpace(body)))
		if err != nil {
			return nil, &tree.ParseError{Format: api.FormatXML, Cause: err}
		}
		nodes := xmlquery.QuerySelectorAll(top, e.root)
		e.logger.Debug("root xpath matched", "id", parent.ID, "xpath", e.cfg.RootXPath, "nodes", len(nodes))

		for _, node := range nodes {
			sub, err := xmlquery.Parse(strings.NewReader(node.OutputXML(true)))
			if err != nil {
				return nil, &tree.ParseError{Format: api.FormatXML, Cause: err}
			}

			target := parent
			if separate {
				target = base.Clone()
			}
			e.apply(sub, target)
			for _, md := range e.cfg.Metadata {
				target.Add(md.Field, md.Value)
			}

			if separate {
				target.ID = doc.ChildID(parent.ID, n)
				n++
				if e.cfg.ParentIDField != "" {
					target.Add(e.cfg.ParentIDField, parent.ID)
				}
			}
			switch {
			case !keep:
				out = append(out, target)
			case e.cfg.SubDocumentField != "":
				parent.Add(e.cfg.SubDocumentField, target)
			}
		}
	}

	if keep {
		if e.cfg.ShouldCleanup() {
			parent.Remove(e.cfg.BodyField)
		}
		out = append(out, parent)
	}
	return out, nil
}

func (e *Extractor) apply(sub *xmlquery.Node, target *doc.Document) {
	for _, r := range e.rules {
		values := xmlquery.QuerySelectorAll(sub, r.value)

		if r.names != nil {
			names := xmlquery.QuerySelectorAll(sub, r.names)
			for i := 0; i < len(names) && i < len(values); i++ {
				target.Add(FieldName(names[i].InnerText(), r.FieldSuffix), values[i].InnerText())
			}
			continue
		}

		for _, v := range values {
			if r.SaveAsXML {
				target.Add(r.Field, v.OutputXML(true))
			} else {
				target.Add(r.Field, v.InnerText())
			}
		}
	}
}

// FieldName derives an output field name from the text of a paired name node.
func FieldName(text, suffix string) string {
	return fieldNamer.Replace(text) + suffix
}
