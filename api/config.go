package api

// Kind selects which engine a configuration drives.
type Kind string

const (
	// KindRichObject maps a JSON or XML payload through field mappings.
	KindRichObject Kind = "rich-object-parser"
	// KindXMLTransform extracts fields from XML with XPath rules.
	KindXMLTransform Kind = "xml-transform"
)

// Format is the text format of the payload carried in the input field.
type Format string

const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
)

// Mode is how a field mapping materializes the node it resolves.
type Mode string

const (
	// ModeField copies the resolved value(s) to the target field.
	ModeField Mode = "field"
	// ModeLinkedObject emits each nested object as a sibling document.
	ModeLinkedObject Mode = "linked_object"
	// ModeNestedObject embeds each nested object as a child document value.
	ModeNestedObject Mode = "nested_object"
	// ModeJSONString stores the JSON text of the resolved node.
	ModeJSONString Mode = "json_string"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeField, ModeLinkedObject, ModeNestedObject, ModeJSONString:
		return true
	}
	return false
}

// Config is the root of a docmap configuration file.
// Exactly one of RichObject or XMLTransform is used, chosen by Kind.
type Config struct {
	// Kind of stage this configuration drives.
	Kind Kind `json:"kind" yaml:"kind" hcl:"kind"`
	// ChainDir is where named transform chains are looked up.
	// Defaults to the directory holding the configuration file.
	ChainDir string `json:"chainDir,omitempty" yaml:"chainDir,omitempty" hcl:"chain_dir,optional"`
	// FailedRecordsPath archives payloads of failed documents when set.
	// A path ending in ".db" archives into SQLite, anything else is a directory.
	FailedRecordsPath string `json:"failedRecordsPath,omitempty" yaml:"failedRecordsPath,omitempty" hcl:"failed_records_path,optional"`

	RichObject   *RichObjectConfig   `json:"richObject,omitempty" yaml:"richObject,omitempty" hcl:"rich_object,block"`
	XMLTransform *XMLTransformConfig `json:"xmlTransform,omitempty" yaml:"xmlTransform,omitempty" hcl:"xml_transform,block"`
}

// RichObjectConfig configures the field-mapping engine.
type RichObjectConfig struct {
	Format     Format `json:"format,omitempty" yaml:"format,omitempty" hcl:"format,optional"`
	InputField string `json:"inputField,omitempty" yaml:"inputField,omitempty" hcl:"input_field,optional"`
	// ParentIDFieldName is the child-side field that receives the parent id.
	ParentIDFieldName string `json:"parentIdFieldName,omitempty" yaml:"parentIdFieldName,omitempty" hcl:"parent_id_field_name,optional"`
	// TransformChainID names the transform chain run before mapping.
	TransformChainID string `json:"transformChainId,omitempty" yaml:"transformChainId,omitempty" hcl:"transform_chain_id,optional"`
	// FloatMode picks the decimal suffix family: "float" (_f) or "double" (_d).
	FloatMode string `json:"floatMode,omitempty" yaml:"floatMode,omitempty" hcl:"float_mode,optional"`
	// SendUnprocessedDocs emits the original document when its payload
	// is missing or cannot be parsed.
	SendUnprocessedDocs *bool `json:"sendUnprocessedDocs,omitempty" yaml:"sendUnprocessedDocs,omitempty" hcl:"send_unprocessed_docs,optional"`

	FieldMappings []FieldMapping `json:"fieldMappings,omitempty" yaml:"fieldMappings,omitempty" hcl:"field_mapping,block"`
}

// ShouldSendUnprocessed reports the effective SendUnprocessedDocs value.
func (c *RichObjectConfig) ShouldSendUnprocessed() bool {
	return c.SendUnprocessedDocs == nil || *c.SendUnprocessedDocs
}

// FieldMapping maps one source path to an output field or child documents.
type FieldMapping struct {
	InputPath   string `json:"inputPath" yaml:"inputPath" hcl:"input_path"`
	TargetField string `json:"targetField,omitempty" yaml:"targetField,omitempty" hcl:"target_field,optional"`
	Mode        Mode   `json:"mode" yaml:"mode" hcl:"mode"`
	// ParentIDField is the parent field whose value is copied into each child.
	ParentIDField    string         `json:"parentIdField,omitempty" yaml:"parentIdField,omitempty" hcl:"parent_id_field,optional"`
	InnerMappings    []InnerMapping `json:"innerMappings,omitempty" yaml:"innerMappings,omitempty" hcl:"inner_mapping,block"`
	CopyParentFields []string       `json:"copyParentFields,omitempty" yaml:"copyParentFields,omitempty" hcl:"copy_parent_fields,optional"`
}

// InnerMapping maps a path inside a materialized child object.
type InnerMapping struct {
	InputPath   string `json:"inputPath" yaml:"inputPath" hcl:"input_path"`
	TargetField string `json:"targetField" yaml:"targetField" hcl:"target_field"`
}

// XMLTransformConfig configures the XPath engine.
type XMLTransformConfig struct {
	RootXPath     string `json:"rootXPath" yaml:"rootXPath" hcl:"root_xpath"`
	ParentIDField string `json:"parentIdField,omitempty" yaml:"parentIdField,omitempty" hcl:"parent_id_field,optional"`
	BodyField     string `json:"bodyField,omitempty" yaml:"bodyField,omitempty" hcl:"body_field,optional"`
	KeepParent    bool   `json:"keepParent,omitempty" yaml:"keepParent,omitempty" hcl:"keep_parent,optional"`
	// SubDocumentField nests extracted documents under this parent field.
	// Setting it implies KeepParent.
	SubDocumentField    string `json:"subDocumentField,omitempty" yaml:"subDocumentField,omitempty" hcl:"sub_document_field,optional"`
	CleanupSourceField  *bool  `json:"cleanupSourceField,omitempty" yaml:"cleanupSourceField,omitempty" hcl:"cleanup_source_field,optional"`
	SendUnprocessedDocs *bool  `json:"sendUnprocessedDocs,omitempty" yaml:"sendUnprocessedDocs,omitempty" hcl:"send_unprocessed_docs,optional"`

	Mappings []XPathMappingRule   `json:"mappings,omitempty" yaml:"mappings,omitempty" hcl:"mapping,block"`
	Metadata []AdditionalMetadata `json:"additionalMetadata,omitempty" yaml:"additionalMetadata,omitempty" hcl:"metadata,block"`
}

// ShouldCleanup reports the effective CleanupSourceField value.
func (c *XMLTransformConfig) ShouldCleanup() bool {
	return c.CleanupSourceField == nil || *c.CleanupSourceField
}

// ShouldSendUnprocessed reports the effective SendUnprocessedDocs value.
func (c *XMLTransformConfig) ShouldSendUnprocessed() bool {
	return c.SendUnprocessedDocs == nil || *c.SendUnprocessedDocs
}

// XPathMappingRule extracts values with an XPath expression.
// When Field starts with "/" it is itself an XPath that supplies field
// names, paired with the values by position.
type XPathMappingRule struct {
	XPath       string `json:"xpath" yaml:"xpath" hcl:"xpath"`
	Field       string `json:"field" yaml:"field" hcl:"field"`
	FieldSuffix string `json:"fieldSuffix,omitempty" yaml:"fieldSuffix,omitempty" hcl:"field_suffix,optional"`
	MultiValue  bool   `json:"multiValue,omitempty" yaml:"multiValue,omitempty" hcl:"multi_value,optional"`
	SaveAsXML   bool   `json:"saveAsXML,omitempty" yaml:"saveAsXML,omitempty" hcl:"save_as_xml,optional"`
}

// AdditionalMetadata is a static field/value pair added to every document.
type AdditionalMetadata struct {
	Field string `json:"field" yaml:"field" hcl:"field"`
	Value string `json:"value" yaml:"value" hcl:"value"`
}
