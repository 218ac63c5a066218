package blocks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/blockschema/pkg/analyzer"
	"github.com/gnana997/blockschema/pkg/catalog"
	"github.com/gnana997/blockschema/pkg/parser"
	"github.com/gnana997/blockschema/pkg/schema"
	"github.com/gnana997/blockschema/pkg/source"
	"github.com/gnana997/blockschema/pkg/util"
	"github.com/gnana997/blockschema/pkg/validator"
)

const cardsJS = `export default function decorate(block) {
  const ul = document.createElement('ul');
  [...block.children].forEach((row) => {
    const li = document.createElement('li');
    while (row.firstElementChild) li.append(row.firstElementChild);
    ul.append(li);
  });
  block.replaceChildren(ul);
}
`

const heroJS = `export default function decorate(block) {
  const image = block.children[0];
  const text = block.children[1];
  const cta = block.children[2];
  block.append(image, text, cta);
}
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "blocks", "cards", "cards.js"), cardsJS)
	writeFile(t, filepath.Join(root, "blocks", "cards", "cards.css"), ".cards {}")
	writeFile(t, filepath.Join(root, "blocks", "hero", "hero.js"), heroJS)
	writeFile(t, filepath.Join(root, "blocks", "broken", "broken.js"), "export default function decorate(block) { const = ; }")
	writeFile(t, filepath.Join(root, "blocks", "styles-only", "styles-only.css"), ".x {}")
	return root
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pm := parser.NewParserManager(logger)
	t.Cleanup(func() { _ = pm.Close() })

	cache, err := util.NewFileCache(util.FileCacheConfig{Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	return NewService(Config{
		Analyzer: analyzer.NewAnalyzer(pm, logger),
		Resolver: &source.Resolver{Cache: cache, Logger: logger},
		Logger:   logger,
	})
}

func TestListBlocks(t *testing.T) {
	svc := newTestService(t)
	root := newProject(t)

	result, err := svc.ListBlocks(context.Background(), source.Locator{ProjectPath: root})
	require.NoError(t, err)
	assert.Equal(t, 4, result.BlocksFound)
	assert.Equal(t, "Local: "+filepath.Join(root, "blocks"), result.Source)
	assert.Equal(t, "broken", result.Blocks[0].Name)

	_, err = svc.ListBlocks(context.Background(), source.Locator{ProjectPath: t.TempDir()})
	assert.True(t, errors.Is(err, source.ErrNotFound))
}

func TestAnalyzeBlock(t *testing.T) {
	svc := newTestService(t)
	loc := source.Locator{ProjectPath: newProject(t)}

	result, err := svc.AnalyzeBlock(context.Background(), loc, "cards")
	require.NoError(t, err)
	assert.Equal(t, "cards", result.BlockName)
	assert.True(t, result.Analysis.IsContainer)
	assert.Equal(t, []string{"div->ul", "div->li"}, result.Analysis.DOMTransformations)
	assert.True(t, result.Suggestion.UseUnsafeHTML)
	assert.Equal(t, cardsJS, result.CodeSnippet)
	require.Len(t, result.Mutations, 2)

	_, err = svc.AnalyzeBlock(context.Background(), loc, "broken")
	assert.True(t, errors.Is(err, analyzer.ErrParse))

	_, err = svc.AnalyzeBlock(context.Background(), loc, "missing")
	assert.True(t, errors.Is(err, source.ErrNotFound))

	_, err = svc.AnalyzeBlock(context.Background(), loc, "styles-only")
	assert.True(t, errors.Is(err, source.ErrNotFound))

	_, err = svc.AnalyzeBlock(context.Background(), loc, "")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestSnippet(t *testing.T) {
	short := "const a = 1;"
	assert.Equal(t, short, Snippet(short))

	exact := strings.Repeat("x", 500)
	assert.Equal(t, exact, Snippet(exact))

	long := strings.Repeat("é", 501)
	got := Snippet(long)
	assert.Equal(t, strings.Repeat("é", 500)+"...", got)
}

func TestGenerateBlockJSON_Preview(t *testing.T) {
	svc := newTestService(t)
	root := newProject(t)

	result, err := svc.GenerateBlockJSON(context.Background(), source.Locator{ProjectPath: root}, "hero", GenerateOptions{
		Preview:   true,
		Overrides: []schema.FieldOverride{{Label: "Picture", Type: schema.ComponentReference}},
	})
	require.NoError(t, err)

	assert.Empty(t, result.FilePath)
	assert.True(t, result.Validation.Valid)
	assert.Equal(t, catalog.ComplexitySimple, result.Analysis.Complexity)
	fields := result.Schema.Models[0].Fields
	require.Len(t, fields, 3)
	assert.Equal(t, "Picture", fields[0].Label)
	assert.Equal(t, schema.ComponentReference, fields[0].Component)
	assert.Equal(t, "Content", fields[1].Label)

	_, err = os.Stat(SchemaPath(root, "hero"))
	assert.True(t, errors.Is(err, os.ErrNotExist), "preview must not write")
}

func TestGenerateFromCode_RejectsOversizedStructure(t *testing.T) {
	svc := newTestService(t)
	code := "export default function decorate(block) { block.children[2000000000].remove(); }"

	result, err := svc.GenerateFromCode(t.TempDir(), "huge", "huge.js", code, GenerateOptions{Preview: true})
	assert.Nil(t, result)
	assert.ErrorIs(t, err, analyzer.ErrInvalidStructure)
	assert.ErrorContains(t, err, `block "huge"`)
}

func TestGenerateBlockJSON_Persist(t *testing.T) {
	svc := newTestService(t)
	root := newProject(t)

	result, err := svc.GenerateBlockJSON(context.Background(), source.Locator{ProjectPath: root}, "cards", GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "ue", "models", "blocks", "cards.json"), result.FilePath)
	assert.Equal(t, "Successfully generated cards.json", result.Message)

	data, err := os.ReadFile(result.FilePath)
	require.NoError(t, err)
	validation, err := validator.ValidateJSON(data)
	require.NoError(t, err)
	assert.True(t, validation.Valid)

	var persisted schema.Schema
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Equal(t, result.Schema, persisted)
	require.Len(t, persisted.Filters, 1)
	assert.Equal(t, []string{"cards-item"}, persisted.Filters[0].Components)
}

func TestGenerateBlockJSON_CustomOutput(t *testing.T) {
	svc := newTestService(t)
	root := newProject(t)
	out := filepath.Join(t.TempDir(), "nested", "hero.json")

	result, err := svc.GenerateBlockJSON(context.Background(), source.Locator{ProjectPath: root}, "hero", GenerateOptions{OutputPath: out})
	require.NoError(t, err)
	assert.Equal(t, out, result.FilePath)
	assert.FileExists(t, out)
}

func TestGenerateAll(t *testing.T) {
	svc := newTestService(t)
	root := newProject(t)

	result, err := svc.GenerateAll(context.Background(), source.Locator{ProjectPath: root}, GenerateOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Generated)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []string{"styles-only"}, result.Skipped)
	require.Len(t, result.Items, 3)

	assert.Equal(t, "broken", result.Items[0].BlockName)
	assert.Contains(t, result.Items[0].Error, "failed to analyze block structure")
	assert.Nil(t, result.Items[0].Result)

	assert.Equal(t, "cards", result.Items[1].BlockName)
	assert.FileExists(t, SchemaPath(root, "cards"))
	assert.FileExists(t, SchemaPath(root, "hero"))
}

func TestGenerateBaseConfigs(t *testing.T) {
	svc := newTestService(t)
	root := t.TempDir()

	result, err := svc.GenerateBaseConfigs(root, []string{"cards", "hero"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Len(t, result.Created, 7)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "Successfully created 7 configuration files", result.Message)
	assert.DirExists(t, filepath.Join(root, "ue", "models", "blocks"))
	assert.DirExists(t, filepath.Join(root, "ue", "scripts"))

	data, err := os.ReadFile(filepath.Join(root, "ue", "models", "section.json"))
	require.NoError(t, err)
	validation, err := validator.ValidateJSON(data)
	require.NoError(t, err)
	assert.True(t, validation.Valid)
	assert.Contains(t, string(data), `"hero"`)

	setup := validator.ValidateSetup(root)
	for _, name := range validator.BaseConfigFiles {
		assert.True(t, setup.Checks.BaseConfigs[name], name)
	}
	for _, name := range validator.TemplateConfigFiles {
		assert.True(t, setup.Checks.TemplateConfigs[name], name)
	}
}

func TestGenerateBaseConfigs_WriteFailure(t *testing.T) {
	svc := newTestService(t)
	root := t.TempDir()
	// a directory where a file should go makes that one write fail
	require.NoError(t, os.MkdirAll(filepath.Join(root, "ue", "models", "text.json"), 0755))

	result, err := svc.GenerateBaseConfigs(root, nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Len(t, result.Created, 6)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "text.json", result.Errors[0].File)
	assert.Equal(t, "Created 6 files with 1 errors", result.Message)
}

func TestDetectMutations(t *testing.T) {
	svc := newTestService(t)
	loc := source.Locator{ProjectPath: newProject(t)}

	mutations, err := svc.DetectMutations(context.Background(), loc, "cards")
	require.NoError(t, err)
	require.Len(t, mutations, 2)
	assert.Equal(t, "div->ul", mutations[0].Transform)
	assert.True(t, mutations[0].NeedsObserver)

	// mutation detection does not need the code to parse
	mutations, err = svc.DetectMutations(context.Background(), loc, "broken")
	require.NoError(t, err)
	assert.Empty(t, mutations)

	_, err = svc.DetectMutations(context.Background(), loc, "missing")
	assert.ErrorIs(t, err, source.ErrNotFound)
}

func TestValidateFile(t *testing.T) {
	svc := newTestService(t)
	root := newProject(t)

	_, err := svc.GenerateBlockJSON(context.Background(), source.Locator{ProjectPath: root}, "hero", GenerateOptions{})
	require.NoError(t, err)

	result, err := ValidateFile(SchemaPath(root, "hero"))
	require.NoError(t, err)
	assert.True(t, result.Valid)

	_, err = ValidateFile(SchemaPath(root, "cards"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(root, "bad.json")
	writeFile(t, bad, `{"definitions": []}`)
	result, err = ValidateFile(bad)
	require.NoError(t, err)
	assert.False(t, result.Valid)
}
