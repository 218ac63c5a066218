// Package mcplog records MCP tool calls as JSONL, one line per call.
package mcplog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// shortStringMax is the longest string argument logged verbatim.
const shortStringMax = 64

// CallEntry is one JSONL line.
type CallEntry struct {
	Ts            string         `json:"ts"`
	Tool          string         `json:"tool"`
	Block         string         `json:"block,omitempty"`
	Params        map[string]any `json:"params"`
	DurationMs    int64          `json:"duration_ms"`
	ResponseBytes int            `json:"response_bytes"`
	TokensEst     int            `json:"tokens_est"`
	// IsError is set for tool results flagged as errors; Error is the
	// transport-level error, if any.
	IsError bool    `json:"is_error"`
	Error   *string `json:"error"`
}

// Logger appends entries to a file. It is safe for concurrent use.
type Logger struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// NewLogger opens path for appending, creating parent directories.
// An empty path returns a nil Logger, which callers treat as disabled.
func NewLogger(path string) (*Logger, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("mcplog: create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("mcplog: open log file: %w", err)
	}
	return &Logger{f: f, enc: json.NewEncoder(f)}, nil
}

// Write appends one entry.
func (l *Logger) Write(entry CallEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(entry)
}

// Close closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// NewEntry builds the entry for a finished call.
func NewEntry(req mcp.CallToolRequest, start time.Time, result *mcp.CallToolResult, err error) CallEntry {
	args := req.GetArguments()
	rb := ResponseBytes(result)
	entry := CallEntry{
		Ts:            start.UTC().Format(time.RFC3339),
		Tool:          req.Params.Name,
		Params:        SanitizeParams(args),
		DurationMs:    Now().Sub(start).Milliseconds(),
		ResponseBytes: rb,
		TokensEst:     rb / 4,
		IsError:       result != nil && result.IsError,
	}
	if name, ok := args["blockName"].(string); ok {
		entry.Block = name
	}
	if err != nil {
		msg := err.Error()
		entry.Error = &msg
	}
	return entry
}

// SanitizeParams returns a copy of args safe for logging. Long strings are
// replaced with a "{key}_len" entry, credential-like keys are redacted, and
// nested objects and arrays are sanitized the same way.
func SanitizeParams(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		if isSecretKey(k) {
			out[k] = "[redacted]"
			continue
		}
		if s, ok := v.(string); ok && len(s) > shortStringMax {
			out[k+"_len"] = len(s)
			continue
		}
		out[k] = sanitizeValue(v)
	}
	return out
}

func sanitizeValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return SanitizeParams(x)
	case []any:
		items := make([]any, len(x))
		for i, item := range x {
			if s, ok := item.(string); ok && len(s) > shortStringMax {
				items[i] = fmt.Sprintf("[%d bytes]", len(s))
				continue
			}
			items[i] = sanitizeValue(item)
		}
		return items
	default:
		return v
	}
}

func isSecretKey(k string) bool {
	k = strings.ToLower(k)
	return strings.Contains(k, "token") || strings.Contains(k, "secret") || strings.Contains(k, "password")
}

// ResponseBytes returns the serialized size of a result's content, or 0 for
// a nil result.
func ResponseBytes(result *mcp.CallToolResult) int {
	if result == nil {
		return 0
	}
	b, err := json.Marshal(result.Content)
	if err != nil {
		return 0
	}
	return len(b)
}

// Now is a replaceable clock for testing.
var Now = func() time.Time { return time.Now() }
