package parser

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	ts "github.com/tree-sitter/go-tree-sitter"
	ts_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	ts_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// poolKey identifies a parser pool (grammar + TSX variant).
type poolKey struct {
	lang  Language
	isTSX bool
}

// ParserManager hands out tree-sitter parsers for the supported grammars.
//
// Pools are created lazily per grammar on first use and are safe for
// concurrent use. The manager owns the pools and must be closed via Close();
// callers own every Tree they receive and must close it.
//
// Example:
//
//	pm := NewParserManager(logger)
//	defer pm.Close()
//
//	tree, err := pm.Parse([]byte("export default function decorate(block) {}"), LanguageJavaScript, false)
//	if err != nil {
//	    return err
//	}
//	defer tree.Close()
type ParserManager struct {
	pools  map[poolKey]*parserPool
	mutex  sync.RWMutex
	logger *slog.Logger

	parses int
}

// NewParserManager creates a ParserManager. A nil logger falls back to
// slog.Default().
func NewParserManager(logger *slog.Logger) *ParserManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParserManager{
		pools:  make(map[poolKey]*parserPool),
		logger: logger,
	}
}

// Parse parses source with the given grammar. isTSX only matters for
// TypeScript.
//
// Tree-sitter recovers from errors, so a malformed input still yields a tree
// whose root reports HasError. Use CheckSyntax when malformed input must be
// rejected.
func (pm *ParserManager) Parse(source []byte, lang Language, isTSX bool) (*ts.Tree, error) {
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("cannot parse unknown language")
	}

	pm.mutex.Lock()
	pm.parses++
	pm.mutex.Unlock()

	pool, err := pm.getOrCreatePool(lang, isTSX)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool for %s: %w", lang, err)
	}

	parser, err := pool.acquire()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire parser: %w", err)
	}
	tree := parser.Parse(source, nil)
	pool.release(parser)

	if tree == nil {
		return nil, fmt.Errorf("parser returned nil tree for %s", lang)
	}
	return tree, nil
}

// ParseFile parses source choosing the grammar from filePath's extension.
func (pm *ParserManager) ParseFile(source []byte, filePath string) (*ts.Tree, error) {
	lang := DetectLanguage(filePath)
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("unsupported file extension: %s", filePath)
	}
	return pm.Parse(source, lang, IsTSXFile(filePath))
}

// CheckSyntax parses source and returns a *SyntaxError describing the first
// error node, or nil when the source is well formed.
func (pm *ParserManager) CheckSyntax(source []byte, lang Language, isTSX bool) error {
	tree, err := pm.Parse(source, lang, isTSX)
	if err != nil {
		return err
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil
	}
	serr := firstSyntaxError(root, source)
	pm.logger.Debug("syntax error",
		"language", lang.String(),
		"line", serr.Line,
		"column", serr.Column,
		"reason", serr.Reason)
	return serr
}

// Close releases every parser pool. The manager cannot be used afterwards.
func (pm *ParserManager) Close() error {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	pm.logger.Debug("closing parser manager", "parses", pm.parses, "pools", len(pm.pools))

	for _, pool := range pm.pools {
		pool.close()
	}
	pm.pools = make(map[poolKey]*parserPool)
	return nil
}

// getOrCreatePool returns the pool for key, creating it under the write lock
// if no other goroutine got there first.
func (pm *ParserManager) getOrCreatePool(lang Language, isTSX bool) (*parserPool, error) {
	key := poolKey{lang: lang, isTSX: isTSX}

	pm.mutex.RLock()
	pool, ok := pm.pools[key]
	pm.mutex.RUnlock()
	if ok {
		return pool, nil
	}

	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	if pool, ok = pm.pools[key]; ok {
		return pool, nil
	}

	langPtr, err := languagePointer(lang, isTSX)
	if err != nil {
		return nil, err
	}

	pool = newParserPool(lang, langPtr, isTSX, getDefaultPoolSize(), pm.logger)
	pm.pools[key] = pool

	pm.logger.Debug("created parser pool", "language", lang.String(), "isTSX", isTSX)
	return pool, nil
}

// languagePointer returns the grammar for lang.
func languagePointer(lang Language, isTSX bool) (unsafe.Pointer, error) {
	switch lang {
	case LanguageTypeScript:
		if isTSX {
			return ts_typescript.LanguageTSX(), nil
		}
		return ts_typescript.LanguageTypescript(), nil
	case LanguageJavaScript:
		return ts_javascript.Language(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang.String())
	}
}

// Stats reports how many parsers exist and how many parses ran.
func (pm *ParserManager) Stats() ParserStats {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	created := 0
	for _, pool := range pm.pools {
		created += pool.getCreatedCount()
	}
	return ParserStats{ParsersCreated: created, ParsesCalled: pm.parses}
}

// ParserStats contains parser usage statistics.
type ParserStats struct {
	ParsersCreated int
	ParsesCalled   int
}
