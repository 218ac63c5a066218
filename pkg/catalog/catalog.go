package catalog

import (
	"regexp"
	"strconv"
)

var domTransformations = []Rule{
	domRule(`createElement\(['"]details['"]\)`, "div->details", true),
	domRule(`createElement\(['"]ul['"]\)`, "div->ul", true),
	domRule(`createElement\(['"]li['"]\)`, "div->li", true),
	domRule(`createElement\(['"]blockquote['"]\)`, "div->blockquote", false),
	domRule(`createElement\(['"]summary['"]\)`, "div->summary", true),
	domRule(`createElement\(['"]picture['"]\)`, "img->picture", true),
}

var containerPatterns = []Rule{
	containerRule(`\.forEach\(\(.*\)\s*=>`, true, ConfidenceHigh),
	containerRule(`data-aue-model`, true, ConfidenceMedium),
	containerRule(`\.children\[\d+\]`, false, ConfidenceLow),
}

// childrenAccessPatterns are published through the catalog endpoints. Only
// the index rule feeds analysis. The spread rule matches a spread over any
// element's children while analysis looks for the block's own rows alone,
// and the length rule is informational: a length check says nothing about
// how many rows or columns the block expects.
var childrenAccessPatterns = []Rule{
	{Category: CategoryChildrenAccess, Pattern: regexp.MustCompile(`\.children\[(\d+)\]`), Access: AccessIndex},
	{Category: CategoryChildrenAccess, Pattern: regexp.MustCompile(`\[\.\.\.(\w+)\.children\]`), Access: AccessSpread},
	{Category: CategoryChildrenAccess, Pattern: regexp.MustCompile(`\.children\.length`), Access: AccessLength},
}

func domRule(pattern, transform string, observer bool) Rule {
	return Rule{
		Category:         CategoryDOMTransformation,
		Pattern:          regexp.MustCompile(pattern),
		Transform:        transform,
		RequiresObserver: observer,
	}
}

func containerRule(pattern string, isContainer bool, confidence Confidence) Rule {
	return Rule{
		Category:    CategoryContainer,
		Pattern:     regexp.MustCompile(pattern),
		IsContainer: isContainer,
		Confidence:  confidence,
	}
}

// DOMTransformations returns the dom-transformation table in catalog order.
// The returned slice is a copy; callers may not alter the catalog.
func DOMTransformations() []Rule {
	return append([]Rule(nil), domTransformations...)
}

// ContainerPatterns returns the container table in catalog order. Later
// entries win over earlier ones when both match.
func ContainerPatterns() []Rule {
	return append([]Rule(nil), containerPatterns...)
}

// ChildrenAccessPatterns returns the children-access table in catalog order.
func ChildrenAccessPatterns() []Rule {
	return append([]Rule(nil), childrenAccessPatterns...)
}

// Indices returns every literal child index referenced by an index-access
// rule in source, in order of appearance. Duplicates are kept. Rules of any
// other kind yield nil.
func (r Rule) Indices(source string) []int {
	if r.Access != AccessIndex {
		return nil
	}
	var out []int
	for _, m := range r.Pattern.FindAllStringSubmatch(source, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}
