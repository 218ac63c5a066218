// Package parser wraps tree-sitter grammars for the languages block code is
// written in.
package parser

import (
	"path/filepath"
	"strings"
)

// Language is a grammar the parser manager can load.
type Language int

const (
	// LanguageTypeScript covers .ts and .tsx files.
	LanguageTypeScript Language = iota
	// LanguageJavaScript covers .js, .jsx, .mjs and .cjs files.
	LanguageJavaScript
	// LanguageUnknown is any unsupported language.
	LanguageUnknown
)

func (l Language) String() string {
	switch l {
	case LanguageTypeScript:
		return "typescript"
	case LanguageJavaScript:
		return "javascript"
	default:
		return "unknown"
	}
}

// DetectLanguage maps a file path to a grammar by extension.
func DetectLanguage(filePath string) Language {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".ts", ".mts", ".cts", ".tsx":
		return LanguageTypeScript
	case ".js", ".jsx", ".mjs", ".cjs":
		return LanguageJavaScript
	default:
		return LanguageUnknown
	}
}

// IsTSXFile reports whether filePath needs the TSX variant of the
// TypeScript grammar.
func IsTSXFile(filePath string) bool {
	return strings.ToLower(filepath.Ext(filePath)) == ".tsx"
}

// IsModuleFile reports whether filePath holds plain JavaScript loaded as an
// ES module. JSX and CommonJS sources are not; files without a known
// extension are.
func IsModuleFile(filePath string) bool {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".js", ".mjs":
		return true
	}
	return DetectLanguage(filePath) == LanguageUnknown
}

// ParseLanguageString converts a user-supplied language name.
func ParseLanguageString(lang string) Language {
	switch strings.ToLower(lang) {
	case "typescript", "ts":
		return LanguageTypeScript
	case "javascript", "js":
		return LanguageJavaScript
	default:
		return LanguageUnknown
	}
}

// SupportedLanguages returns every loadable grammar.
func SupportedLanguages() []Language {
	return []Language{LanguageTypeScript, LanguageJavaScript}
}
