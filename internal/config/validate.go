package config

import (
	"fmt"
	"strings"

	"github.com/agentic-research/docmap/api"
	"github.com/agentic-research/docmap/internal/tree"
	"github.com/antchfx/xpath"
)

// FieldError is a problem with one configuration field.
type FieldError struct {
	// Field is the dotted path of the field, e.g. "richObject.fieldMappings[2].mode".
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError lists every problem found in a configuration.
type ValidationError struct {
	Errors []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate checks cfg and returns a ValidationError, or nil.
// Paths and XPath expressions are compiled so typos surface before a run.
func Validate(cfg *api.Config) error {
	var errs []FieldError
	add := func(field, format string, args ...any) {
		errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	switch cfg.Kind {
	case api.KindRichObject:
		if cfg.RichObject == nil {
			add("richObject", "required for kind %q", cfg.Kind)
		} else {
			validateRichObject(cfg.RichObject, add)
		}
	case api.KindXMLTransform:
		if cfg.XMLTransform == nil {
			add("xmlTransform", "required for kind %q", cfg.Kind)
		} else {
			validateXMLTransform(cfg.XMLTransform, add)
		}
	case "":
		add("kind", "is required")
	default:
		add("kind", "unknown kind %q (want %q or %q)", cfg.Kind, api.KindRichObject, api.KindXMLTransform)
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

type addFunc func(field, format string, args ...any)

func validateRichObject(r *api.RichObjectConfig, add addFunc) {
	switch r.Format {
	case api.FormatJSON, api.FormatXML:
	default:
		add("richObject.format", "unknown format %q", r.Format)
	}
	if r.InputField == "" {
		add("richObject.inputField", "is required")
	}
	switch r.FloatMode {
	case "float", "double":
	default:
		add("richObject.floatMode", "must be float or double, got %q", r.FloatMode)
	}

	for i, fm := range r.FieldMappings {
		prefix := fmt.Sprintf("richObject.fieldMappings[%d]", i)
		if fm.InputPath == "" {
			add(prefix+".inputPath", "is required")
		} else if _, err := tree.CompilePath(fm.InputPath); err != nil {
			add(prefix+".inputPath", "%v", err)
		}
		if !fm.Mode.Valid() {
			add(prefix+".mode", "unknown mode %q", fm.Mode)
		}
		if fm.TargetField == "" && fm.Mode != api.ModeLinkedObject {
			add(prefix+".targetField", "is required for mode %q", fm.Mode)
		}
		for j, im := range fm.InnerMappings {
			if _, err := tree.CompilePath(im.InputPath); err != nil {
				add(fmt.Sprintf("%s.innerMappings[%d].inputPath", prefix, j), "%v", err)
			}
			if im.TargetField == "" {
				add(fmt.Sprintf("%s.innerMappings[%d].targetField", prefix, j), "is required")
			}
		}
	}
}

func validateXMLTransform(x *api.XMLTransformConfig, add addFunc) {
	if x.RootXPath == "" {
		add("xmlTransform.rootXPath", "is required")
	} else if _, err := xpath.Compile(x.RootXPath); err != nil {
		add("xmlTransform.rootXPath", "%v", err)
	}
	if x.BodyField == "" {
		add("xmlTransform.bodyField", "is required")
	}

	for i, m := range x.Mappings {
		prefix := fmt.Sprintf("xmlTransform.mappings[%d]", i)
		if m.XPath == "" {
			add(prefix+".xpath", "is required")
		} else if _, err := xpath.Compile(m.XPath); err != nil {
			add(prefix+".xpath", "%v", err)
		}
		switch {
		case m.Field == "":
			add(prefix+".field", "is required")
		case strings.HasPrefix(m.Field, "/"):
			if _, err := xpath.Compile(m.Field); err != nil {
				add(prefix+".field", "%v", err)
			}
		}
	}
	for i, md := range x.Metadata {
		if md.Field == "" {
			add(fmt.Sprintf("xmlTransform.additionalMetadata[%d].field", i), "is required")
		}
	}
}
