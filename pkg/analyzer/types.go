package analyzer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/gnana997/blockschema/pkg/catalog"
)

// StructureType is the inferred authoring layout of a block.
type StructureType string

const (
	StructureUnknown     StructureType = "unknown"
	StructureTable       StructureType = "table"
	StructureConfigTable StructureType = "config-table"
)

// ErrInvalidRows is returned when decoding a row count that is neither a
// positive integer nor "multiple".
var ErrInvalidRows = errors.New("rows must be a positive integer or \"multiple\"")

const multipleRows = "multiple"

// Rows is either a fixed positive row count or the symbolic "multiple".
// The zero value is invalid; use FixedRows or MultipleRows.
type Rows struct {
	count    int
	multiple bool
}

// FixedRows returns a fixed row count.
func FixedRows(n int) Rows { return Rows{count: n} }

// MultipleRows returns the symbolic "multiple" row count.
func MultipleRows() Rows { return Rows{multiple: true} }

// IsMultiple reports whether r is the symbolic value.
func (r Rows) IsMultiple() bool { return r.multiple }

// Count returns the fixed row count and true, or 0 and false for "multiple".
func (r Rows) Count() (int, bool) {
	if r.multiple {
		return 0, false
	}
	return r.count, true
}

func (r Rows) String() string {
	if r.multiple {
		return multipleRows
	}
	return strconv.Itoa(r.count)
}

func (r Rows) MarshalJSON() ([]byte, error) {
	if r.multiple {
		return json.Marshal(multipleRows)
	}
	return []byte(strconv.Itoa(r.count)), nil
}

func (r *Rows) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s != multipleRows {
			return fmt.Errorf("%w: got %q", ErrInvalidRows, s)
		}
		*r = MultipleRows()
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRows, err)
	}
	if n < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidRows, n)
	}
	*r = FixedRows(n)
	return nil
}

// MaxColumns bounds the column count of a structure accepted from outside
// the analyzer.
const MaxColumns = 64

// ErrInvalidStructure is matched by every error from Structure.Validate.
var ErrInvalidStructure = errors.New("invalid expected structure")

// Structure is the expected shape of a block's authored table.
type Structure struct {
	Type    StructureType `json:"type"`
	Rows    Rows          `json:"rows"`
	Columns int           `json:"columns"`
}

// structureFields has Structure's fields without its methods.
type structureFields Structure

// UnmarshalJSON decodes a structure. A missing "rows" key means one row.
func (s *Structure) UnmarshalJSON(data []byte) error {
	fields := structureFields{Rows: FixedRows(1)}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*s = Structure(fields)
	return nil
}

// Validate checks a structure that did not come from the analyzer: the type
// must be known, rows positive or "multiple", and columns within
// [0, MaxColumns].
func (s Structure) Validate() error {
	switch s.Type {
	case StructureUnknown, StructureTable, StructureConfigTable:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidStructure, s.Type)
	}
	if n, ok := s.Rows.Count(); ok && n < 1 {
		return fmt.Errorf("%w: %v", ErrInvalidStructure, ErrInvalidRows)
	}
	if s.Columns < 0 || s.Columns > MaxColumns {
		return fmt.Errorf("%w: columns must be between 0 and %d, got %d", ErrInvalidStructure, MaxColumns, s.Columns)
	}
	return nil
}

// ChildAccess records one children-access idiom found in the code. Index is
// set for index-access entries only.
type ChildAccess struct {
	Type  catalog.AccessKind `json:"type"`
	Index *int               `json:"index,omitempty"`
}

// Analysis is the structural record inferred from one block's code.
//
// Complexity is not stored: it is derived from the other fields every time
// it is read, so it can never disagree with them.
type Analysis struct {
	ExpectedStructure      Structure     `json:"expectedStructure"`
	DOMTransformations     []string      `json:"domTransformations"`
	IsContainer            bool          `json:"isContainer"`
	RequiresObserver       bool          `json:"requiresObserver"`
	ChildrenAccessPatterns []ChildAccess `json:"childrenAccessPatterns"`
	HasAsync               bool          `json:"hasAsync"`
	HasVariants            bool          `json:"hasVariants"`
	UsesReadBlockConfig    bool          `json:"usesReadBlockConfig"`
	ConfigKeys             []string      `json:"configKeys"`
}

// Signals extracts the scoring inputs.
func (a Analysis) Signals() catalog.Signals {
	return catalog.Signals{
		DOMTransformations: len(a.DOMTransformations),
		IsContainer:        a.IsContainer,
		RequiresObserver:   a.RequiresObserver,
		HasVariants:        a.HasVariants,
		HasAsync:           a.HasAsync,
	}
}

// Complexity scores the analysis.
func (a Analysis) Complexity() catalog.Complexity {
	return catalog.ScoreComplexity(a.Signals())
}

// analysisFields has Analysis's fields without its methods.
type analysisFields Analysis

func (a Analysis) MarshalJSON() ([]byte, error) {
	out := struct {
		analysisFields
		Complexity catalog.Complexity `json:"complexity"`
	}{analysisFields(a), a.Complexity()}
	if out.DOMTransformations == nil {
		out.DOMTransformations = []string{}
	}
	if out.ChildrenAccessPatterns == nil {
		out.ChildrenAccessPatterns = []ChildAccess{}
	}
	if out.ConfigKeys == nil {
		out.ConfigKeys = []string{}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes an analysis. Any "complexity" key is ignored since
// complexity is always recomputed.
func (a *Analysis) UnmarshalJSON(data []byte) error {
	var fields analysisFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*a = Analysis(fields)
	return nil
}

// ErrParse is matched by every *ParseError.
var ErrParse = errors.New("parse error")

// ParseError reports block code that is not a syntactically valid module.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to analyze block structure: %v", e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }
