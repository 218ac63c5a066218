// Package blocks ties sources, the analyzer, the synthesizer and the
// validator together into the operations exposed by the CLI, the MCP server
// and the HTTP API.
package blocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/gnana997/blockschema/pkg/analyzer"
	"github.com/gnana997/blockschema/pkg/catalog"
	"github.com/gnana997/blockschema/pkg/schema"
	"github.com/gnana997/blockschema/pkg/source"
	"github.com/gnana997/blockschema/pkg/validator"
)

// ErrInvalidName is returned for an empty block name.
var ErrInvalidName = errors.New("block name is required")

const snippetLength = 500

// Service runs block operations against sources resolved per call.
type Service struct {
	analyzer *analyzer.Analyzer
	resolver *source.Resolver
	logger   *slog.Logger
	limit    int
}

// Config configures a Service.
type Config struct {
	Analyzer *analyzer.Analyzer
	Resolver *source.Resolver
	Logger   *slog.Logger
	// Concurrency bounds GenerateAll. Zero means util.GetOptimalPoolSize().
	Concurrency int
}

// NewService creates a Service.
func NewService(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Resolver == nil {
		cfg.Resolver = &source.Resolver{Logger: cfg.Logger}
	}
	return &Service{
		analyzer: cfg.Analyzer,
		resolver: cfg.Resolver,
		logger:   cfg.Logger,
		limit:    cfg.Concurrency,
	}
}

// ListResult is the outcome of ListBlocks.
type ListResult struct {
	Source      string                 `json:"source"`
	BlocksFound int                    `json:"blocksFound"`
	Blocks      []source.ComponentInfo `json:"blocks"`
}

// ListBlocks lists every block loc points at.
func (s *Service) ListBlocks(ctx context.Context, loc source.Locator) (*ListResult, error) {
	src, err := s.resolver.Resolve(loc)
	if err != nil {
		return nil, err
	}
	blocks, err := src.List(ctx)
	if err != nil {
		return nil, err
	}
	return &ListResult{Source: src.Describe(), BlocksFound: len(blocks), Blocks: blocks}, nil
}

// FetchCode resolves loc and returns the named block with its code.
func (s *Service) FetchCode(ctx context.Context, loc source.Locator, name string) (source.ComponentInfo, string, error) {
	if name == "" {
		return source.ComponentInfo{}, "", ErrInvalidName
	}
	src, err := s.resolver.Resolve(loc)
	if err != nil {
		return source.ComponentInfo{}, "", err
	}
	return source.FetchCode(ctx, src, name)
}

// DetectMutations fetches the named block and reports its DOM mutations.
func (s *Service) DetectMutations(ctx context.Context, loc source.Locator, name string) ([]analyzer.MutationWarning, error) {
	_, code, err := s.FetchCode(ctx, loc, name)
	if err != nil {
		return nil, err
	}
	return analyzer.DetectMutations(code), nil
}

// AnalyzeResult is the outcome of AnalyzeBlock.
type AnalyzeResult struct {
	BlockName   string                     `json:"blockName"`
	Analysis    *analyzer.Analysis         `json:"analysis"`
	Suggestion  analyzer.Suggestion        `json:"suggestion"`
	Mutations   []analyzer.MutationWarning `json:"mutations"`
	CodeSnippet string                     `json:"codeSnippet"`
}

// AnalyzeBlock fetches and analyzes the named block.
func (s *Service) AnalyzeBlock(ctx context.Context, loc source.Locator, name string) (*AnalyzeResult, error) {
	block, code, err := s.FetchCode(ctx, loc, name)
	if err != nil {
		return nil, err
	}
	analysis, err := s.analyzer.AnalyzeFile(code, block.CodeFile)
	if err != nil {
		return nil, err
	}
	return &AnalyzeResult{
		BlockName:   name,
		Analysis:    analysis,
		Suggestion:  analyzer.SuggestStructure(analysis),
		Mutations:   analyzer.DetectMutations(code),
		CodeSnippet: Snippet(code),
	}, nil
}

// Snippet returns the first 500 characters of code, with "..." appended
// when it was cut.
func Snippet(code string) string {
	if utf8.RuneCountInString(code) <= snippetLength {
		return code
	}
	runes := []rune(code)
	return string(runes[:snippetLength]) + "..."
}

// GenerateOptions controls schema generation.
type GenerateOptions struct {
	Overrides []schema.FieldOverride
	// Preview returns the schema without writing it.
	Preview bool
	// OutputPath replaces the default ue/models/blocks/{name}.json.
	OutputPath string
}

// AnalysisSummary is the part of an analysis reported with a generated
// schema.
type AnalysisSummary struct {
	Complexity         catalog.Complexity `json:"complexity"`
	IsContainer        bool               `json:"isContainer"`
	RequiresObserver   bool               `json:"requiresObserver"`
	DOMTransformations []string           `json:"domTransformations"`
}

// GenerateResult is the outcome of generating one block's schema.
type GenerateResult struct {
	BlockName  string                     `json:"blockName"`
	Analysis   AnalysisSummary            `json:"analysis"`
	Schema     schema.Schema              `json:"jsonConfig"`
	Validation validator.ValidationResult `json:"validation"`
	FilePath   string                     `json:"filePath,omitempty"`
	Message    string                     `json:"message,omitempty"`
}

// GenerateBlockJSON analyzes the named block and synthesizes its schema,
// writing it under loc.ProjectPath unless opts.Preview is set.
func (s *Service) GenerateBlockJSON(ctx context.Context, loc source.Locator, name string, opts GenerateOptions) (*GenerateResult, error) {
	block, code, err := s.FetchCode(ctx, loc, name)
	if err != nil {
		return nil, err
	}
	return s.GenerateFromCode(loc.ProjectPath, name, block.CodeFile, code, opts)
}

// GenerateFromCode synthesizes and validates a schema from code already in
// hand. codeFile only selects the grammar.
func (s *Service) GenerateFromCode(projectPath, name, codeFile, code string, opts GenerateOptions) (*GenerateResult, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	analysis, err := s.analyzer.AnalyzeFile(code, codeFile)
	if err != nil {
		return nil, err
	}
	if err := analysis.ExpectedStructure.Validate(); err != nil {
		return nil, fmt.Errorf("block %q: %w", name, err)
	}

	synthesized := schema.Synthesize(name, analysis, opts.Overrides)
	result := &GenerateResult{
		BlockName: name,
		Analysis: AnalysisSummary{
			Complexity:         analysis.Complexity(),
			IsContainer:        analysis.IsContainer,
			RequiresObserver:   analysis.RequiresObserver,
			DOMTransformations: analysis.DOMTransformations,
		},
		Schema:     synthesized,
		Validation: validator.ValidateSchema(synthesized),
	}
	if opts.Preview {
		return result, nil
	}

	out := opts.OutputPath
	if out == "" {
		out = SchemaPath(projectPath, name)
	}
	if err := WriteJSON(out, synthesized); err != nil {
		return nil, err
	}
	result.FilePath = out
	result.Message = fmt.Sprintf("Successfully generated %s.json", name)
	s.logger.Info("wrote block schema", "block", name, "path", out, "complexity", result.Analysis.Complexity)
	return result, nil
}

// ModelsDir is the directory holding the generated models of a project.
func ModelsDir(projectPath string) string {
	return filepath.Join(projectPath, "ue", "models")
}

// SchemaPath is the default location of a block's schema.
func SchemaPath(projectPath, name string) string {
	return filepath.Join(ModelsDir(projectPath), "blocks", name+".json")
}

// WriteJSON writes v as two-space indented JSON, creating parent
// directories.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to write JSON file %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file %s: %w", path, err)
	}
	return nil
}

// ValidateFile validates the schema stored at path.
func ValidateFile(path string) (validator.ValidationResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return validator.ValidationResult{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return validator.ValidateJSON(data)
}
