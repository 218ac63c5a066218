// Package analyzer infers the authored table structure of a block from its
// decorate code.
//
// The code is parsed first purely as a syntax gate. Every structural signal
// is then read from the raw source text with the catalog's rules, so the
// analysis is deterministic and independent of the parse tree shape.
package analyzer

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/gnana997/blockschema/pkg/catalog"
	"github.com/gnana997/blockschema/pkg/parser"
)

const spreadChildrenIdiom = "[...block.children]"

var (
	readBlockConfigCall = regexp.MustCompile(`readBlockConfig\s*\(`)
	classNameAssignment = regexp.MustCompile(`className\s*=`)
)

// Analyzer gates block code through a parser and scans it for structural
// signals. It is safe for concurrent use.
type Analyzer struct {
	pm     *parser.ParserManager
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer backed by pm. The caller keeps ownership
// of pm and closes it when done.
func NewAnalyzer(pm *parser.ParserManager, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{pm: pm, logger: logger}
}

// Analyze analyzes JavaScript block code.
//
// It returns a *ParseError (matching ErrParse) when source is not a valid
// module; no partial analysis is produced in that case.
func (a *Analyzer) Analyze(source string) (*Analysis, error) {
	return a.analyze(source, parser.LanguageJavaScript, false, true)
}

// AnalyzeFile analyzes block code using the grammar implied by filePath's
// extension. Unknown extensions are treated as JavaScript modules. Only
// .js, .mjs and unknown extensions get the module checks Analyze applies;
// .jsx, .cjs and TypeScript files are checked for syntax alone.
func (a *Analyzer) AnalyzeFile(source, filePath string) (*Analysis, error) {
	lang := parser.DetectLanguage(filePath)
	if lang == parser.LanguageUnknown {
		lang = parser.LanguageJavaScript
	}
	return a.analyze(source, lang, parser.IsTSXFile(filePath), parser.IsModuleFile(filePath))
}

func (a *Analyzer) analyze(source string, lang parser.Language, isTSX, module bool) (*Analysis, error) {
	var err error
	if module {
		err = a.pm.CheckModule([]byte(source))
	} else {
		err = a.pm.CheckSyntax([]byte(source), lang, isTSX)
	}
	if err != nil {
		if errors.Is(err, parser.ErrSyntax) {
			return nil, &ParseError{Err: err}
		}
		return nil, fmt.Errorf("analyze: %w", err)
	}

	result := scan(source)
	a.logger.Debug("analyzed block code",
		"language", lang.String(),
		"structure", result.ExpectedStructure.Type,
		"rows", result.ExpectedStructure.Rows.String(),
		"columns", result.ExpectedStructure.Columns,
		"complexity", result.Complexity())
	return result, nil
}

// scan applies the detection steps in order. Later steps may overwrite
// what earlier ones decided.
func scan(source string) *Analysis {
	result := &Analysis{
		ExpectedStructure: Structure{
			Type:    StructureUnknown,
			Rows:    FixedRows(1),
			Columns: 1,
		},
		DOMTransformations:     []string{},
		ChildrenAccessPatterns: []ChildAccess{},
		ConfigKeys:             []string{},
	}

	// Key-value configuration blocks.
	if readBlockConfigCall.MatchString(source) {
		result.UsesReadBlockConfig = true
		result.ExpectedStructure = Structure{
			Type:    StructureConfigTable,
			Rows:    MultipleRows(),
			Columns: 2,
		}
		result.ConfigKeys = ExtractConfigKeys(source)
	}

	// Literal child indices.
	maxIndex := -1
	for _, rule := range catalog.ChildrenAccessPatterns() {
		for _, idx := range rule.Indices(source) {
			idx := idx
			result.ChildrenAccessPatterns = append(result.ChildrenAccessPatterns,
				ChildAccess{Type: catalog.AccessIndex, Index: &idx})
			if idx > maxIndex {
				maxIndex = idx
			}
		}
	}
	if maxIndex >= 0 && !result.UsesReadBlockConfig {
		result.ExpectedStructure.Columns = maxIndex + 1
	}

	// Spread over the block's rows.
	if !result.UsesReadBlockConfig && strings.Contains(source, spreadChildrenIdiom) {
		result.ExpectedStructure.Type = StructureTable
		result.ChildrenAccessPatterns = append(result.ChildrenAccessPatterns,
			ChildAccess{Type: catalog.AccessSpread})
		if strings.Contains(source, ".forEach") {
			result.ExpectedStructure.Rows = MultipleRows()
			result.IsContainer = true
		}
	}

	for _, rule := range catalog.DOMTransformations() {
		if rule.Matches(source) {
			result.DOMTransformations = append(result.DOMTransformations, rule.Transform)
			result.RequiresObserver = result.RequiresObserver || rule.RequiresObserver
		}
	}

	// Last matching container rule wins, including over the spread step.
	for _, rule := range catalog.ContainerPatterns() {
		if rule.Matches(source) {
			result.IsContainer = rule.IsContainer
		}
	}

	result.HasAsync = strings.Contains(source, "async") || strings.Contains(source, "await")
	result.HasVariants = strings.Contains(source, "classList") || classNameAssignment.MatchString(source)

	return result
}
