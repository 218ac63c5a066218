package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/blockschema/pkg/blocks"
	"github.com/gnana997/blockschema/pkg/schema"
	"github.com/gnana997/blockschema/pkg/source"
	"github.com/gnana997/blockschema/pkg/validator"
)

// --- argument types ---

type blockArgs struct {
	source.Locator
	BlockName string `json:"blockName"`
}

type generateArgs struct {
	blockArgs
	OutputPath   string                 `json:"outputPath"`
	Preview      bool                   `json:"preview"`
	CustomFields []schema.FieldOverride `json:"customFields"`
}

type baseConfigArgs struct {
	ProjectPath string   `json:"projectPath"`
	BlockNames  []string `json:"blockNames"`
}

type validateBlockArgs struct {
	Config      map[string]any `json:"config"`
	FilePath    string         `json:"filePath"`
	ProjectPath string         `json:"projectPath"`
	BlockName   string         `json:"blockName"`
}

// bindArgs decodes the tool arguments into dst through their JSON form.
func bindArgs(req mcp.CallToolRequest, dst any) error {
	data, err := json.Marshal(req.GetArguments())
	if err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func errorResult(prefix string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", prefix, err))
}

func requireProjectPath(projectPath string) error {
	if projectPath == "" {
		return errors.New("projectPath is required")
	}
	return nil
}

// --- ue_analysis_list_blocks ---

func (s *Server) handleListBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args source.Locator
	if err := bindArgs(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := requireProjectPath(args.ProjectPath); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.svc.ListBlocks(ctx, args)
	if err != nil {
		if errors.Is(err, source.ErrNotFound) && args.GitHub == nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error: %v\n\nPlease provide GitHub parameters to fetch from repository, or ensure the blocks directory exists locally.", err)), nil
		}
		return errorResult("Error listing blocks", err), nil
	}
	return jsonResult(result)
}

// --- ue_analysis_analyze_block_structure ---

func (s *Server) handleAnalyzeBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args blockArgs
	if err := bindArgs(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := requireProjectPath(args.ProjectPath); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.svc.AnalyzeBlock(ctx, args.Locator, args.BlockName)
	if err != nil {
		return errorResult("Error analyzing block structure", err), nil
	}
	return jsonResult(result)
}

// --- ue_analysis_detect_dom_mutations ---

type mutationsResult struct {
	BlockName     string `json:"blockName"`
	NeedsObserver bool   `json:"needsObserver"`
	Mutations     any    `json:"mutations"`
}

func (s *Server) handleDetectMutations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args blockArgs
	if err := bindArgs(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := requireProjectPath(args.ProjectPath); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	mutations, err := s.svc.DetectMutations(ctx, args.Locator, args.BlockName)
	if err != nil {
		return errorResult("Error detecting DOM mutations", err), nil
	}
	out := mutationsResult{BlockName: args.BlockName, Mutations: mutations}
	for _, m := range mutations {
		out.NeedsObserver = out.NeedsObserver || m.NeedsObserver
	}
	return jsonResult(out)
}

// --- ue_generation_generate_block_json ---

func (s *Server) handleGenerateBlockJSON(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args generateArgs
	if err := bindArgs(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := requireProjectPath(args.ProjectPath); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.svc.GenerateBlockJSON(ctx, args.Locator, args.BlockName, blocks.GenerateOptions{
		Overrides:  args.CustomFields,
		Preview:    args.Preview,
		OutputPath: args.OutputPath,
	})
	if err != nil {
		return errorResult("Error generating block JSON", err), nil
	}
	return jsonResult(result)
}

// --- ue_generation_generate_base_configs ---

func (s *Server) handleGenerateBaseConfigs(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args baseConfigArgs
	if err := bindArgs(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := requireProjectPath(args.ProjectPath); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.svc.GenerateBaseConfigs(args.ProjectPath, args.BlockNames)
	if err != nil {
		return errorResult("Error generating base configs", err), nil
	}
	return jsonResult(result)
}

// --- ue_validation_validate_setup ---

type setupSummary struct {
	Valid         bool                  `json:"valid"`
	TotalErrors   int                   `json:"totalErrors"`
	TotalWarnings int                   `json:"totalWarnings"`
	Errors        []string              `json:"errors"`
	Warnings      []string              `json:"warnings"`
	Checks        validator.SetupChecks `json:"checks"`
	Message       string                `json:"message"`
}

func summarizeSetup(r validator.SetupResult) setupSummary {
	out := setupSummary{
		Valid:         r.Valid,
		TotalErrors:   len(r.Errors),
		TotalWarnings: len(r.Warnings),
		Errors:        r.Errors,
		Warnings:      r.Warnings,
		Checks:        r.Checks,
	}
	if r.Valid {
		out.Message = "✅ Universal Editor setup is complete and valid!"
	} else {
		out.Message = fmt.Sprintf("❌ Universal Editor setup has %d error(s) and %d warning(s).", len(r.Errors), len(r.Warnings))
	}
	return out
}

func (s *Server) handleValidateSetup(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args baseConfigArgs
	if err := bindArgs(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := requireProjectPath(args.ProjectPath); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(summarizeSetup(validator.ValidateSetup(args.ProjectPath)))
}

// --- ue_validation_validate_block_json ---

type blockValidation struct {
	Source   string   `json:"source"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (s *Server) handleValidateBlockJSON(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args validateBlockArgs
	if err := bindArgs(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var (
		result validator.ValidationResult
		from   string
		err    error
	)
	switch {
	case args.Config != nil:
		result, from = validator.Validate(args.Config), "inline"
	case args.FilePath != "":
		from = args.FilePath
		result, err = blocks.ValidateFile(from)
	case args.ProjectPath != "" && args.BlockName != "":
		from = blocks.SchemaPath(args.ProjectPath, args.BlockName)
		result, err = blocks.ValidateFile(from)
	default:
		return mcp.NewToolResultError("one of config, filePath, or projectPath with blockName is required"), nil
	}
	if err != nil {
		return errorResult("Error validating block JSON", err), nil
	}

	return jsonResult(blockValidation{
		Source:   from,
		Valid:    result.Valid,
		Errors:   result.ErrorMessages(),
		Warnings: result.WarningMessages(),
	})
}
