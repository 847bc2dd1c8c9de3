package config

import (
	"github.com/agentic-research/docmap/api"
)

// Default values for configuration fields.
const (
	DefaultInputField        = "body"
	DefaultFormat            = api.FormatJSON
	DefaultParentIDFieldName = "parent_id_s"
	DefaultFloatMode         = "float"
	DefaultBodyField         = "body"
)

// ApplyDefaults fills unset fields. Boolean switches with a true default
// (SendUnprocessedDocs, CleanupSourceField) stay nil and are read through
// their Should* accessors.
func ApplyDefaults(cfg *api.Config) {
	if r := cfg.RichObject; r != nil {
		if r.InputField == "" {
			r.InputField = DefaultInputField
		}
		if r.Format == "" {
			r.Format = DefaultFormat
		}
		if r.ParentIDFieldName == "" {
			r.ParentIDFieldName = DefaultParentIDFieldName
		}
		if r.FloatMode == "" {
			r.FloatMode = DefaultFloatMode
		}
	}
	if x := cfg.XMLTransform; x != nil {
		if x.BodyField == "" {
			x.BodyField = DefaultBodyField
		}
		if x.SubDocumentField != "" {
			x.KeepParent = true
		}
	}
}
