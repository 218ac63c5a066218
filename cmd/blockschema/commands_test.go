package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/blockschema/pkg/blocks"
	"github.com/gnana997/blockschema/pkg/schema"
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
  block.append(image, text);
}
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func testProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "blocks", "cards", "cards.js"), cardsJS)
	writeFile(t, filepath.Join(root, "blocks", "hero", "hero.js"), heroJS)
	return root
}

// newTestCLI returns a cli that runs args in an isolated environment and
// writes stdout to out.
func newTestCLI(t *testing.T, out *bytes.Buffer, args ...string) *cli {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BLOCKSCHEMA_LOG_LEVEL", "error")

	c := newCLI()
	c.root.SetOut(out)
	c.root.SetErr(io.Discard)
	c.root.SetIn(bytes.NewReader(nil))
	c.root.SetArgs(args)
	return c
}

// execute runs the root command with args and returns what it printed to
// stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newTestCLI(t, &out, args...).execute(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "blockschema "+version+"\n", out)
}

func TestListCommand(t *testing.T) {
	root := testProject(t)
	out, err := execute(t, "list", "-p", root)
	require.NoError(t, err)

	var result blocks.ListResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 2, result.BlocksFound)
	assert.Equal(t, "cards", result.Blocks[0].Name)
	assert.Equal(t, "hero", result.Blocks[1].Name)
}

func TestListCommand_YAML(t *testing.T) {
	root := testProject(t)
	out, err := execute(t, "list", "-p", root, "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "blocksFound: 2\n")
	assert.Contains(t, out, "name: cards\n")
}

func TestListCommand_UnknownFormat(t *testing.T) {
	_, err := execute(t, "list", "-p", testProject(t), "-o", "toml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown output format "toml"`)
}

func TestAnalyzeCommand(t *testing.T) {
	out, err := execute(t, "analyze", "cards", "-p", testProject(t))
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "cards", result["blockName"])
	analysis := result["analysis"].(map[string]any)
	assert.Equal(t, true, analysis["isContainer"])
}

func TestAnalyzeCommand_NotFound(t *testing.T) {
	_, err := execute(t, "analyze", "missing", "-p", testProject(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestExecute_ClosesAppOnError(t *testing.T) {
	var out bytes.Buffer
	c := newTestCLI(t, &out, "analyze", "missing", "-p", testProject(t))
	c.root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		_, err := c.appFor(cmd)
		require.NoError(t, err)
	}

	err := c.execute(context.Background())
	require.Error(t, err)
	assert.Nil(t, c.app, "app is released when the command fails")
}

func TestMutationsCommand(t *testing.T) {
	out, err := execute(t, "mutations", "cards", "-p", testProject(t))
	require.NoError(t, err)

	var mutations []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &mutations))
	assert.Len(t, mutations, 2)
}

func TestGenerateCommand_Preview(t *testing.T) {
	root := testProject(t)
	out, err := execute(t, "generate", "hero", "-p", root, "--preview",
		"--field", "Picture:reference", "--field", "Body")
	require.NoError(t, err)

	var result blocks.GenerateResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Validation.Valid)
	assert.Empty(t, result.FilePath)

	fields := result.Schema.Models[0].Fields
	require.Len(t, fields, 2)
	assert.Equal(t, "Picture", fields[0].Label)
	assert.Equal(t, schema.ComponentReference, fields[0].Component)
	assert.Equal(t, "Body", fields[1].Label)

	assert.NoFileExists(t, blocks.SchemaPath(root, "hero"))
}

func TestGenerateCommand_Args(t *testing.T) {
	root := testProject(t)

	_, err := execute(t, "generate", "-p", root)
	assert.Error(t, err)

	_, err = execute(t, "generate", "hero", "--all", "-p", root)
	assert.Error(t, err)
}

func TestGenerateAllThenValidate(t *testing.T) {
	root := testProject(t)

	out, err := execute(t, "generate", "--all", "-p", root)
	require.NoError(t, err)
	var batch blocks.BatchResult
	require.NoError(t, json.Unmarshal([]byte(out), &batch))
	assert.Equal(t, 2, batch.Generated)
	assert.FileExists(t, blocks.SchemaPath(root, "cards"))
	assert.FileExists(t, blocks.SchemaPath(root, "hero"))

	out, err = execute(t, "validate", "-p", root)
	require.NoError(t, err)
	var reports []fileValidation
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 2)
	for _, r := range reports {
		assert.True(t, r.Valid, r.File)
	}
}

func TestValidateCommand_Invalid(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.json")
	writeFile(t, bad, `{"definitions": [], "models": []}`)

	out, err := execute(t, "validate", bad)
	assert.ErrorIs(t, err, errInvalid)

	var reports []fileValidation
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 1)
	assert.False(t, reports[0].Valid)
	assert.Contains(t, reports[0].Errors, `Missing "filters" array`)
}

func TestValidateCommand_Setup(t *testing.T) {
	root := testProject(t)
	out, err := execute(t, "validate", "--setup", "-p", root)
	assert.ErrorIs(t, err, errInvalid)
	assert.Contains(t, out, `"valid": false`)
}

func TestBaseConfigsCommand(t *testing.T) {
	root := testProject(t)
	out, err := execute(t, "base-configs", "-p", root, "--discover")
	require.NoError(t, err)

	var result blocks.BaseConfigResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Success)

	data, err := os.ReadFile(filepath.Join(blocks.ModelsDir(root), "section.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"cards"`)
	assert.Contains(t, string(data), `"hero"`)
}

func TestParseFieldOverride(t *testing.T) {
	tests := []struct {
		in   string
		want schema.FieldOverride
	}{
		{"Title", schema.FieldOverride{Label: "Title"}},
		{"Image:reference", schema.FieldOverride{Label: "Image", Type: "reference"}},
		{":text", schema.FieldOverride{Type: "text"}},
		{" Body : richtext ", schema.FieldOverride{Label: "Body", Type: "richtext"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseFieldOverride(tt.in))
		})
	}
}
