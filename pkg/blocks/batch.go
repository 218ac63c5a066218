package blocks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/gnana997/blockschema/pkg/schema"
	"github.com/gnana997/blockschema/pkg/source"
	"github.com/gnana997/blockschema/pkg/util"
)

// BatchItem is the outcome for one block of GenerateAll. Exactly one of
// Result and Error is set.
type BatchItem struct {
	BlockName string          `json:"blockName"`
	Result    *GenerateResult `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// BatchResult is the outcome of GenerateAll.
type BatchResult struct {
	Source    string      `json:"source"`
	Generated int         `json:"generated"`
	Failed    int         `json:"failed"`
	Skipped   []string    `json:"skipped"`
	Items     []BatchItem `json:"items"`
}

// GenerateAll generates the schema of every block with code. Blocks
// without code are skipped; a failing block is reported in its item and
// does not stop the others.
func (s *Service) GenerateAll(ctx context.Context, loc source.Locator, opts GenerateOptions) (*BatchResult, error) {
	src, err := s.resolver.Resolve(loc)
	if err != nil {
		return nil, err
	}
	blocks, err := src.List(ctx)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{Source: src.Describe(), Skipped: []string{}, Items: []BatchItem{}}
	var withCode []source.ComponentInfo
	for _, b := range blocks {
		if b.HasCode {
			withCode = append(withCode, b)
		} else {
			result.Skipped = append(result.Skipped, b.Name)
		}
	}

	// Overrides are positional per block, so they do not apply to a batch
	// and neither does a single output path.
	opts.Overrides = nil
	opts.OutputPath = ""

	items := make([]BatchItem, len(withCode))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(util.GetOptimalPoolSizeWithOverride(s.limit))
	for i, block := range withCode {
		eg.Go(func() error {
			items[i] = s.generateItem(egCtx, src, loc.ProjectPath, block, opts)
			// per-block failures stay in their item
			return egCtx.Err()
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for _, item := range items {
		if item.Error != "" {
			result.Failed++
		} else {
			result.Generated++
		}
	}
	result.Items = append(result.Items, items...)
	s.logger.Info("batch generation finished",
		"source", result.Source,
		"generated", result.Generated,
		"failed", result.Failed,
		"skipped", len(result.Skipped))
	return result, nil
}

func (s *Service) generateItem(ctx context.Context, src source.Source, projectPath string, block source.ComponentInfo, opts GenerateOptions) BatchItem {
	item := BatchItem{BlockName: block.Name}
	code, err := src.Code(ctx, block)
	if err != nil {
		item.Error = err.Error()
		return item
	}
	res, err := s.GenerateFromCode(projectPath, block.Name, block.CodeFile, code, opts)
	if err != nil {
		item.Error = err.Error()
		return item
	}
	item.Result = res
	return item
}

// FileError reports one file that could not be written.
type FileError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// BaseConfigResult is the outcome of GenerateBaseConfigs.
type BaseConfigResult struct {
	Created []string    `json:"created"`
	Errors  []FileError `json:"errors"`
	Success bool        `json:"success"`
	Message string      `json:"message"`
}

// GenerateBaseConfigs writes the built-in content schemas and aggregate
// templates into the project's models directory. A file that fails to
// write is reported and the rest are still attempted.
func (s *Service) GenerateBaseConfigs(projectPath string, blockNames []string) (*BaseConfigResult, error) {
	modelsDir := ModelsDir(projectPath)
	for _, dir := range []string{
		modelsDir,
		filepath.Join(modelsDir, "blocks"),
		filepath.Join(projectPath, "ue", "scripts"),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	result := &BaseConfigResult{Created: []string{}, Errors: []FileError{}}
	for _, file := range schema.BaseConfigs(blockNames) {
		path := filepath.Join(modelsDir, file.Name)
		if err := WriteJSON(path, file.Content); err != nil {
			result.Errors = append(result.Errors, FileError{File: file.Name, Error: err.Error()})
			continue
		}
		result.Created = append(result.Created, path)
	}

	result.Success = len(result.Errors) == 0
	if result.Success {
		result.Message = fmt.Sprintf("Successfully created %d configuration files", len(result.Created))
	} else {
		result.Message = fmt.Sprintf("Created %d files with %d errors", len(result.Created), len(result.Errors))
	}
	s.logger.Info("wrote base configs", "path", modelsDir, "created", len(result.Created), "errors", len(result.Errors))
	return result, nil
}
