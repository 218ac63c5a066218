// Package catalog holds the fixed vocabulary of structural signals the
// analyzer looks for in block code, plus the complexity scoring rule.
//
// Every table is ordered. The analyzer walks the tables front to back and
// some outcomes (container resolution in particular) depend on that order.
package catalog

import "regexp"

// Version identifies the revision of the rule tables. Bump it whenever a rule
// is added, removed or reordered so persisted schemas can be traced back.
const Version = "1"

// Category tags which table a rule belongs to.
type Category string

const (
	CategoryDOMTransformation Category = "dom-transformation"
	CategoryContainer         Category = "container"
	CategoryChildrenAccess    Category = "children-access"
)

// Confidence is the tier attached to container rules.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// AccessKind distinguishes the children-access rules.
type AccessKind string

const (
	AccessIndex  AccessKind = "index-access"
	AccessSpread AccessKind = "spread"
	AccessLength AccessKind = "length"
)

// Rule is one catalog entry. Only the metadata fields relevant to Category
// are populated; the rest stay at their zero value.
type Rule struct {
	Category Category
	Pattern  *regexp.Regexp

	// dom-transformation
	Transform        string
	RequiresObserver bool

	// container
	IsContainer bool
	Confidence  Confidence

	// children-access
	Access AccessKind
}

// Matches reports whether the rule's pattern occurs anywhere in source.
func (r Rule) Matches(source string) bool {
	return r.Pattern.MatchString(source)
}

// Source returns the textual form of the rule's pattern.
func (r Rule) Source() string {
	return r.Pattern.String()
}
