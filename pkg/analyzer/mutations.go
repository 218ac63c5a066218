package analyzer

import (
	"strings"

	"github.com/gnana997/blockschema/pkg/catalog"
)

// Mutation kinds reported besides the catalog's DOM transforms.
const (
	MutationElementReplacement = "element-replacement"
	MutationInnerHTML          = "innerHTML-replacement"
)

const innerHTMLWarning = "innerHTML replacements may lose UE attributes"

// MutationWarning describes one DOM mutation that can disturb in-context
// editing.
type MutationWarning struct {
	Transform     string `json:"transform"`
	Pattern       string `json:"pattern,omitempty"`
	NeedsObserver bool   `json:"needsObserver"`
	Warning       string `json:"warning,omitempty"`
}

// DetectMutations lists the DOM mutations present in source. It does not
// parse the code.
func DetectMutations(source string) []MutationWarning {
	warnings := []MutationWarning{}

	for _, rule := range catalog.DOMTransformations() {
		if rule.Matches(source) {
			warnings = append(warnings, MutationWarning{
				Transform:     rule.Transform,
				Pattern:       rule.Source(),
				NeedsObserver: true,
			})
		}
	}

	if strings.Contains(source, ".replaceWith(") {
		warnings = append(warnings, MutationWarning{
			Transform:     MutationElementReplacement,
			NeedsObserver: true,
		})
	}

	if strings.Contains(source, ".innerHTML") {
		warnings = append(warnings, MutationWarning{
			Transform: MutationInnerHTML,
			Warning:   innerHTMLWarning,
		})
	}

	return warnings
}
