// Package validator checks authoring schemas and project setup for
// structural problems. Problems are reported as data, never as errors.
package validator

import (
	"encoding/json"
	"fmt"

	"github.com/gnana997/blockschema/pkg/schema"
)

// Violation is a single validation finding.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationResult is the outcome of validating one schema document.
// Valid is true exactly when Errors is empty; warnings never fail it.
type ValidationResult struct {
	Valid    bool        `json:"valid"`
	Errors   []Violation `json:"errors"`
	Warnings []Violation `json:"warnings"`
}

// ErrorMessages returns the error messages in report order.
func (r ValidationResult) ErrorMessages() []string { return messages(r.Errors) }

// WarningMessages returns the warning messages in report order.
func (r ValidationResult) WarningMessages() []string { return messages(r.Warnings) }

func messages(vs []Violation) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Message
	}
	return out
}

type collector struct {
	errors   []Violation
	warnings []Violation
}

func (c *collector) errorf(path, format string, args ...any) {
	c.errors = append(c.errors, Violation{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (c *collector) warnf(path, format string, args ...any) {
	c.warnings = append(c.warnings, Violation{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (c *collector) result() ValidationResult {
	errs, warns := c.errors, c.warnings
	if errs == nil {
		errs = []Violation{}
	}
	if warns == nil {
		warns = []Violation{}
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs, Warnings: warns}
}

// Validate checks a decoded JSON document (as produced by encoding/json
// into an any) for the keys an authoring schema requires at each level.
//
// Presence follows JSON truthiness: null, false, 0 and "" count as missing
// while empty arrays and objects are present. Per-element checks only run
// when the containing value is an array.
func Validate(doc any) ValidationResult {
	c := &collector{}
	root, _ := doc.(map[string]any)

	for _, key := range []string{"definitions", "models", "filters"} {
		if !truthy(root[key]) {
			c.errorf(key, "Missing %q array", key)
		}
	}

	if defs, ok := root["definitions"].([]any); ok {
		for i, d := range defs {
			def, _ := d.(map[string]any)
			path := fmt.Sprintf("definitions[%d]", i)
			if !truthy(def["title"]) {
				c.errorf(path+".title", "Definition %d: missing %q", i, "title")
			}
			if !truthy(def["id"]) {
				c.errorf(path+".id", "Definition %d: missing %q", i, "id")
			}
			plugins, _ := def["plugins"].(map[string]any)
			if !truthy(plugins["da"]) {
				c.errorf(path+".plugins.da", "Definition %d: missing %q", i, "plugins.da")
			}
		}
	}

	if models, ok := root["models"].([]any); ok {
		for i, m := range models {
			model, _ := m.(map[string]any)
			path := fmt.Sprintf("models[%d]", i)
			if !truthy(model["id"]) {
				c.errorf(path+".id", "Model %d: missing %q", i, "id")
			}
			fields, ok := model["fields"].([]any)
			if !ok {
				c.errorf(path+".fields", "Model %d: missing %q array", i, "fields")
				continue
			}
			for j, f := range fields {
				field, _ := f.(map[string]any)
				fpath := fmt.Sprintf("%s.fields[%d]", path, j)
				if !truthy(field["component"]) {
					c.errorf(fpath+".component", "Model %d, Field %d: missing %q", i, j, "component")
				}
				if !truthy(field["name"]) {
					c.errorf(fpath+".name", "Model %d, Field %d: missing %q (CSS selector)", i, j, "name")
				}
				if !truthy(field["label"]) {
					c.warnf(fpath+".label", "Model %d, Field %d: missing %q - recommended for UE UI", i, j, "label")
				}
			}
		}
	}

	if filters, ok := root["filters"].([]any); ok {
		for i, f := range filters {
			filter, _ := f.(map[string]any)
			path := fmt.Sprintf("filters[%d]", i)
			if !truthy(filter["id"]) {
				c.errorf(path+".id", "Filter %d: missing %q", i, "id")
			}
			if _, ok := filter["components"].([]any); !ok {
				c.errorf(path+".components", "Filter %d: missing %q array", i, "components")
			}
		}
	}

	return c.result()
}

// ValidateJSON decodes data and validates it. Only malformed JSON is an
// error.
func ValidateJSON(data []byte) (ValidationResult, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return ValidationResult{}, fmt.Errorf("decode schema: %w", err)
	}
	return Validate(doc), nil
}

// ValidateSchema validates a typed schema through its JSON form, so the
// check sees exactly what would be persisted.
func ValidateSchema(s schema.Schema) ValidationResult {
	data, err := json.Marshal(s)
	if err != nil {
		// schema.Schema only holds plain data; marshaling cannot fail.
		panic(fmt.Sprintf("marshal schema: %v", err))
	}
	result, err := ValidateJSON(data)
	if err != nil {
		panic(fmt.Sprintf("decode schema: %v", err))
	}
	return result
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	default:
		return true
	}
}
