package analyzer

import "github.com/gnana997/blockschema/pkg/catalog"

const unsafeHTMLReason = "Complex DOM structure detected, recommend using unsafeHTML"

// Suggestion is an authoring recommendation derived from an Analysis.
type Suggestion struct {
	UseUnsafeHTML bool   `json:"useUnsafeHTML"`
	Rows          int    `json:"rows"`
	Columns       int    `json:"columns"`
	Reason        string `json:"reason,omitempty"`
}

// SuggestStructure recommends the unsafeHTML escape hatch for blocks that
// rewrite the DOM heavily, and a plain rows/columns grid otherwise.
func SuggestStructure(a *Analysis) Suggestion {
	suggestion := Suggestion{Rows: 1, Columns: 1}

	if len(a.DOMTransformations) > 1 || a.Complexity() == catalog.ComplexityComplex {
		suggestion.UseUnsafeHTML = true
		suggestion.Reason = unsafeHTMLReason
		return suggestion
	}

	if n, ok := a.ExpectedStructure.Rows.Count(); ok {
		suggestion.Rows = n
	}
	suggestion.Columns = a.ExpectedStructure.Columns
	return suggestion
}
