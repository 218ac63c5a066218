// Package source lists blocks and fetches their code from a local checkout
// or from a GitHub repository.
package source

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrNotFound is matched by every error reporting a missing block, file or
// directory.
var ErrNotFound = errors.New("not found")

// Origin tells where a block was found.
type Origin string

const (
	OriginLocal  Origin = "local"
	OriginGitHub Origin = "github"
)

// Code and style file extensions, in lookup order.
var (
	codeExtensions  = []string{".js", ".ts"}
	styleExtensions = []string{".css"}
)

// ComponentInfo describes one block directory.
type ComponentInfo struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	HasCode  bool   `json:"hasJs"`
	HasStyle bool   `json:"hasCss"`
	// CodeFile is the block's code file name, {name}.js or {name}.ts.
	CodeFile string `json:"codeFile,omitempty"`
	URL      string `json:"githubUrl,omitempty"`
	Origin   Origin `json:"source"`
}

// Source lists blocks and returns their code.
type Source interface {
	// List returns every block sorted by name. A missing blocks directory
	// is reported with ErrNotFound.
	List(ctx context.Context) ([]ComponentInfo, error)
	// Code returns the code of a listed block. A missing file is reported
	// with ErrNotFound.
	Code(ctx context.Context, block ComponentInfo) (string, error)
	// Describe names the source for messages, e.g. "Local: ./blocks".
	Describe() string
}

// Find returns the named block from src.
func Find(ctx context.Context, src Source, name string) (ComponentInfo, error) {
	blocks, err := src.List(ctx)
	if err != nil {
		return ComponentInfo{}, err
	}
	for _, b := range blocks {
		if b.Name == name {
			return b, nil
		}
	}
	return ComponentInfo{}, fmt.Errorf("block %q %w in %s", name, ErrNotFound, src.Describe())
}

// FetchCode finds the named block and returns it together with its code.
func FetchCode(ctx context.Context, src Source, name string) (ComponentInfo, string, error) {
	block, err := Find(ctx, src, name)
	if err != nil {
		return ComponentInfo{}, "", err
	}
	if !block.HasCode {
		return block, "", fmt.Errorf("block %q does not have a JavaScript file: %w", name, ErrNotFound)
	}
	code, err := src.Code(ctx, block)
	if err != nil {
		return block, "", fmt.Errorf("failed to get block code for %s: %w", name, err)
	}
	return block, code, nil
}

// pickFile returns the first name+ext present in files.
func pickFile(name string, exts []string, files map[string]bool) (string, bool) {
	for _, ext := range exts {
		if files[name+ext] {
			return name + ext, true
		}
	}
	return "", false
}

func sortByName(blocks []ComponentInfo) {
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Name < blocks[j].Name })
}
