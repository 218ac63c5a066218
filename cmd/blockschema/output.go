package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// writeOutput renders v as indented JSON or as YAML. YAML output goes
// through the JSON encoding first, so field names and omitted fields match
// the JSON form exactly.
func writeOutput(w io.Writer, format string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	switch format {
	case "", formatJSON:
		_, err = fmt.Fprintln(w, string(data))
		return err
	case formatYAML:
		out, err := jsonToYAML(data)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	default:
		return fmt.Errorf("unknown output format %q (want json or yaml)", format)
	}
}

// jsonToYAML re-encodes a JSON document as block-style YAML, keeping key
// order.
func jsonToYAML(data []byte) ([]byte, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("convert output: %w", err)
	}
	clearStyle(&node)
	out, err := yaml.Marshal(&node)
	if err != nil {
		return nil, fmt.Errorf("convert output: %w", err)
	}
	return out, nil
}

func clearStyle(n *yaml.Node) {
	// JSON strings decode as double-quoted scalars; plain style lets the
	// encoder quote only where YAML needs it.
	n.Style = 0
	for _, c := range n.Content {
		clearStyle(c)
	}
}
