// Package schema builds Universal Editor authoring schemas from block
// analyses, plus the fixed schemas for built-in content types.
package schema

// Field component types.
const (
	ComponentText        = "text"
	ComponentRichText    = "richtext"
	ComponentReference   = "reference"
	ComponentMultiselect = "multiselect"
	ComponentSelect      = "select"
	ComponentBoolean     = "boolean"
	ComponentNumber      = "number"
	ComponentDate        = "date"
)

// ValueTypeString is the value type of every generated block field.
const ValueTypeString = "string"

// Schema is the persisted shape of one block's authoring configuration.
// The three keys are always present, even when empty.
type Schema struct {
	Definitions []Definition `json:"definitions"`
	Models      []Model      `json:"models"`
	Filters     []Filter     `json:"filters"`
}

// Definition registers a component with the editor.
type Definition struct {
	Title   string  `json:"title"`
	ID      string  `json:"id"`
	Plugins Plugins `json:"plugins"`
	Filter  string  `json:"filter,omitempty"`
	Model   string  `json:"model,omitempty"`
}

// Plugins holds the rendering hints of a definition.
type Plugins struct {
	DA DAPlugin `json:"da"`
}

// DAPlugin tells the document authoring layer how to render a component,
// either as a rows/columns table, as a typed default component or as raw
// HTML.
type DAPlugin struct {
	Name       string `json:"name,omitempty"`
	Rows       *int   `json:"rows,omitempty"`
	Columns    *int   `json:"columns,omitempty"`
	Type       string `json:"type,omitempty"`
	UnsafeHTML string `json:"unsafeHTML,omitempty"`
}

// Model is the field set edited for one component id.
type Model struct {
	ID     string  `json:"id"`
	Fields []Field `json:"fields"`
}

// Field is one editable property. Name is a CSS selector for block fields
// and a property name for page metadata.
type Field struct {
	Component   string   `json:"component"`
	Name        string   `json:"name"`
	Value       *string  `json:"value,omitempty"`
	Label       string   `json:"label,omitempty"`
	ValueType   string   `json:"valueType,omitempty"`
	Required    bool     `json:"required,omitempty"`
	Hidden      bool     `json:"hidden,omitempty"`
	Multi       *bool    `json:"multi,omitempty"`
	Description string   `json:"description,omitempty"`
	Options     []Option `json:"options,omitempty"`
}

// Option is one choice of a select or multiselect field.
type Option struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Filter lists the components allowed inside a container component.
type Filter struct {
	ID         string   `json:"id"`
	Components []string `json:"components"`
}

// FieldOverride replaces the generated label or component type of the
// field at the same position. Empty members keep the generated value.
type FieldOverride struct {
	Label string `json:"label,omitempty"`
	Type  string `json:"type,omitempty"`
}

// PageConfig is the page-level schema, which only carries models.
type PageConfig struct {
	Models []Model `json:"models"`
}

// ContentConfig is the schema of a built-in default content type.
type ContentConfig struct {
	Definitions []Definition `json:"definitions"`
	Models      []Model      `json:"models"`
}

// Include splices part of another file into an aggregate template.
type Include struct {
	Ref string `json:"..."`
}

// Group is a palette group of the component-definition template.
type Group struct {
	Title      string    `json:"title"`
	ID         string    `json:"id"`
	Components []Include `json:"components"`
}

// DefinitionTemplate is the component-definition aggregate.
type DefinitionTemplate struct {
	Groups []Group `json:"groups"`
}

// FilterEntry is either an inline filter or an include.
type FilterEntry struct {
	ID         string   `json:"id,omitempty"`
	Components []string `json:"components,omitempty"`
	Ref        string   `json:"...,omitempty"`
}

func intPtr(n int) *int { return &n }

func boolPtr(b bool) *bool { return &b }

func stringPtr(s string) *string { return &s }
