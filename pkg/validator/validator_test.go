package validator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/blockschema/pkg/analyzer"
	"github.com/gnana997/blockschema/pkg/parser"
	"github.com/gnana997/blockschema/pkg/schema"
)

func decode(t *testing.T, doc string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(doc), &v))
	return v
}

func TestValidate_ValidDocument(t *testing.T) {
	result := Validate(decode(t, `{
		"definitions": [{"title": "Hero", "id": "hero", "plugins": {"da": {"name": "hero"}}}],
		"models": [{"id": "hero", "fields": [{"component": "richtext", "name": "div:nth-child(1)", "label": "Title"}]}],
		"filters": []
	}`))
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidate_MissingTopLevel(t *testing.T) {
	result := Validate(decode(t, `{}`))
	assert.False(t, result.Valid)
	assert.Equal(t, []string{
		`Missing "definitions" array`,
		`Missing "models" array`,
		`Missing "filters" array`,
	}, result.ErrorMessages())
	assert.Equal(t, "definitions", result.Errors[0].Path)
}

func TestValidate_NonObjectDocument(t *testing.T) {
	result := Validate(decode(t, `[1, 2]`))
	assert.False(t, result.Valid)
	assert.Len(t, result.Errors, 3)
}

func TestValidate_EmptyArraysArePresent(t *testing.T) {
	result := Validate(decode(t, `{"definitions": [], "models": [], "filters": []}`))
	assert.True(t, result.Valid)
}

func TestValidate_TruthyNonArraySkipsElementChecks(t *testing.T) {
	result := Validate(decode(t, `{"definitions": "yes", "models": {"id": 1}, "filters": 1}`))
	assert.True(t, result.Valid)

	result = Validate(decode(t, `{"definitions": "", "models": 0, "filters": false}`))
	assert.Len(t, result.Errors, 3)
}

func TestValidate_NestedErrors(t *testing.T) {
	result := Validate(decode(t, `{
		"definitions": [{"title": "", "plugins": {}}, {"title": "A", "id": "a", "plugins": {"da": {}}}],
		"models": [
			{"fields": [{"name": "div:nth-child(1)"}, {"component": "text", "label": "ok"}]},
			{"id": "b"},
			{"id": "c", "fields": "nope"}
		],
		"filters": [{"components": "x"}, {"id": "f", "components": []}]
	}`))

	assert.False(t, result.Valid)
	assert.Equal(t, []string{
		`Definition 0: missing "title"`,
		`Definition 0: missing "id"`,
		`Definition 0: missing "plugins.da"`,
		`Model 0: missing "id"`,
		`Model 0, Field 0: missing "component"`,
		`Model 0, Field 1: missing "name" (CSS selector)`,
		`Model 1: missing "fields" array`,
		`Model 2: missing "fields" array`,
		`Filter 0: missing "id"`,
		`Filter 0: missing "components" array`,
	}, result.ErrorMessages())
	assert.Equal(t, []string{
		`Model 0, Field 0: missing "label" - recommended for UE UI`,
	}, result.WarningMessages())
	assert.Equal(t, "models[0].fields[0].label", result.Warnings[0].Path)
}

func TestValidate_MissingLabelIsOnlyAWarning(t *testing.T) {
	result := Validate(decode(t, `{
		"definitions": [],
		"models": [{"id": "m", "fields": [{"component": "text", "name": "title"}]}],
		"filters": []
	}`))
	assert.True(t, result.Valid)
	assert.Len(t, result.Warnings, 1)
}

func TestValidateJSON(t *testing.T) {
	_, err := ValidateJSON([]byte(`{not json`))
	assert.Error(t, err)

	result, err := ValidateJSON([]byte(`{"definitions": [], "models": [], "filters": []}`))
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestValidateSchema_BuiltIns(t *testing.T) {
	assert.True(t, ValidateSchema(schema.Section([]string{"cards"})).Valid)

	image := schema.Image()
	result := ValidateSchema(schema.Schema{Definitions: image.Definitions, Models: image.Models, Filters: []schema.Filter{}})
	assert.True(t, result.Valid)
	assert.Equal(t, []string{`Model 0, Field 0: missing "label" - recommended for UE UI`}, result.WarningMessages())
}

func TestSynthesizedSchemasAlwaysValidate(t *testing.T) {
	pm := parser.NewParserManager(nil)
	defer pm.Close()
	a := analyzer.NewAnalyzer(pm, nil)

	sources := []string{
		``,
		`export default function decorate(block) {}`,
		`export default function decorate(block) { const a = block.children[0]; const b = block.children[6]; }`,
		`export default function decorate(block) { [...block.children].forEach((row) => { row.className = 'x'; }); }`,
		`export default function decorate(block) { [...block.children].forEach((row) => row.children[2].remove()); }`,
		`export default async function decorate(block) { const config = readBlockConfig(block); await fetch(config.url); }`,
		`export default function decorate(block) { const ul = document.createElement('ul'); block.innerHTML = ''; block.append(ul); }`,
		`export default function decorate(block) { block.setAttribute('data-aue-model', 'x'); }`,
	}
	overrides := [][]schema.FieldOverride{nil, {{Label: "Heading", Type: "text"}}}

	for _, src := range sources {
		analysis, err := a.Analyze(src)
		require.NoError(t, err, src)
		for _, name := range []string{"hero", "hero-banner"} {
			for _, o := range overrides {
				result := ValidateSchema(schema.Synthesize(name, analysis, o))
				assert.True(t, result.Valid, "%s: %v", src, result.ErrorMessages())
				assert.Empty(t, result.Warnings, src)
			}
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func completeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), `{
		"scripts": {
			"build:json": "npm-run-all -p build:json:*",
			"build:json:models": "merge-json-cli -i ue/models/component-models.json -o component-models.json",
			"build:json:definitions": "merge-json-cli -i ue/models/component-definition.json -o component-definition.json",
			"build:json:filters": "merge-json-cli -i ue/models/component-filters.json -o component-filters.json"
		},
		"devDependencies": {"merge-json-cli": "^1.0.4", "npm-run-all": "^4.1.5", "husky": "^9.1.1"}
	}`)
	for _, name := range append(append([]string{}, BaseConfigFiles...), TemplateConfigFiles...) {
		writeFile(t, filepath.Join(root, "ue", "models", name), "{}")
	}
	for _, name := range TemplateConfigFiles {
		writeFile(t, filepath.Join(root, name), "{}")
	}
	require.NoError(t, os.MkdirAll(filepath.Join(root, "ue", "models", "blocks"), 0755))
	writeFile(t, filepath.Join(root, "ue", "scripts", "ue.js"), "")
	writeFile(t, filepath.Join(root, "ue", "scripts", "ue-utils.js"), "")
	writeFile(t, filepath.Join(root, ".husky", "pre-commit"), "npm run build:json")
	return root
}

func TestValidateSetup_Complete(t *testing.T) {
	result := ValidateSetup(completeProject(t))
	assert.True(t, result.Valid, result.Errors)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
	assert.True(t, result.Checks.Dependencies["husky"])
	require.NotNil(t, result.Checks.PreCommitHook)
	assert.True(t, *result.Checks.PreCommitHook)
}

func TestValidateSetup_EmptyDirectory(t *testing.T) {
	result := ValidateSetup(t.TempDir())
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "package.json not found")
	assert.Contains(t, result.Errors, "ue/ directory not found")
	assert.Contains(t, result.Errors, "Base config page.json not found")
	assert.Contains(t, result.Errors, "Template config component-models.json not found in ue/models/")
	assert.Contains(t, result.Errors, "ue/scripts/ue.js not found")
	assert.Contains(t, result.Warnings, "ue/models/blocks/ directory not found - no blocks instrumented yet")
	assert.Contains(t, result.Warnings, "Consolidated config component-filters.json not found in root - run build:json")
	assert.Contains(t, result.Warnings, ".husky/ directory not found - git hooks not set up")
	assert.Nil(t, result.Checks.BuildScripts)
	assert.Nil(t, result.Checks.PreCommitHook)
}

func TestValidateSetup_MissingScriptsAndDeps(t *testing.T) {
	root := completeProject(t)
	writeFile(t, filepath.Join(root, "package.json"), `{"scripts": {"build:json": ""}, "dependencies": {"husky": "9"}}`)
	require.NoError(t, os.Remove(filepath.Join(root, ".husky", "pre-commit")))

	result := ValidateSetup(root)
	assert.False(t, result.Valid)
	assert.True(t, result.Checks.BuildScripts["build:json"], "an empty script still counts")
	assert.Contains(t, result.Warnings, `Build script "build:json:models" not found in package.json`)
	assert.Equal(t, []string{
		`Required dependency "merge-json-cli" not found in package.json`,
		`Required dependency "npm-run-all" not found in package.json`,
	}, result.Errors)
	assert.Contains(t, result.Warnings, "Pre-commit hook not found - automatic build on commit not enabled")
}

func TestValidateSetup_MalformedPackageJSON(t *testing.T) {
	root := completeProject(t)
	writeFile(t, filepath.Join(root, "package.json"), `{`)

	result := ValidateSetup(root)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Validation error: parse package.json")
}
