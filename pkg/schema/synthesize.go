package schema

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gnana997/blockschema/pkg/analyzer"
)

// ItemID is the id of the repeated item component of a container block.
func ItemID(name string) string {
	return name + "-item"
}

// Title turns a kebab-case block name into a display title: "hero-banner"
// becomes "Hero Banner".
func Title(name string) string {
	parts := strings.Split(name, "-")
	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Synthesize maps an analysis onto the authoring schema of the named block.
// overrides are applied by position; shorter or nil slices are fine.
//
// The output depends only on its inputs and always passes validation.
func Synthesize(name string, a *analyzer.Analysis, overrides []FieldOverride) Schema {
	return Schema{
		Definitions: definitions(name, a),
		Models:      models(name, a, overrides),
		Filters:     filters(name, a),
	}
}

func definitions(name string, a *analyzer.Analysis) []Definition {
	structure := a.ExpectedStructure

	// Only plain tables carry their row count; everything else starts with a
	// single row. Columns always come from the analysis.
	rows := 1
	if structure.Type == analyzer.StructureTable && !a.IsContainer {
		if n, ok := structure.Rows.Count(); ok {
			rows = n
		}
	}

	defs := []Definition{{
		Title: Title(name),
		ID:    name,
		Plugins: Plugins{DA: DAPlugin{
			Name:    name,
			Rows:    intPtr(rows),
			Columns: intPtr(structure.Columns),
		}},
	}}

	if a.IsContainer {
		itemRows := 1
		if structure.Rows.IsMultiple() {
			itemRows = 2
		}
		defs = append(defs, Definition{
			Title: Title(name) + " Item",
			ID:    ItemID(name),
			Plugins: Plugins{DA: DAPlugin{
				Name:    ItemID(name),
				Rows:    intPtr(itemRows),
				Columns: intPtr(0),
			}},
		})
	}
	return defs
}

func models(name string, a *analyzer.Analysis, overrides []FieldOverride) []Model {
	id := name
	if a.IsContainer {
		id = ItemID(name)
	}

	fields := []Field{}
	for i := 0; i < a.ExpectedStructure.Columns; i++ {
		var override FieldOverride
		if i < len(overrides) {
			override = overrides[i]
		}

		selector := ChildSelector(i, "")
		field := Field{
			Component: ComponentRichText,
			Name:      selector,
			Value:     stringPtr(""),
			Label:     LabelForSelector(selector),
			ValueType: ValueTypeString,
			Required:  i == 0,
		}
		if override.Label != "" {
			field.Label = override.Label
		}
		if override.Type != "" {
			field.Component = override.Type
		}
		fields = append(fields, field)
	}
	return []Model{{ID: id, Fields: fields}}
}

func filters(name string, a *analyzer.Analysis) []Filter {
	if !a.IsContainer {
		return []Filter{}
	}
	return []Filter{{ID: name, Components: []string{ItemID(name)}}}
}
