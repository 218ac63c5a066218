package main

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// binaryPath is set by TestMain when INTEGRATION is set.
var binaryPath string

func TestMain(m *testing.M) {
	if os.Getenv("INTEGRATION") == "" {
		os.Exit(m.Run())
	}

	tmp, err := os.MkdirTemp("", "blockschema-integration-*")
	if err != nil {
		panic(err)
	}
	binaryPath = filepath.Join(tmp, "blockschema")
	build := exec.Command("go", "build", "-o", binaryPath, ".")
	build.Stdout = os.Stdout
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		os.RemoveAll(tmp)
		panic("failed to build binary: " + err.Error())
	}

	code := m.Run()
	os.RemoveAll(tmp)
	os.Exit(code)
}

func skipIfNotIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("INTEGRATION") == "" {
		t.Skip("set INTEGRATION=1 to run integration tests")
	}
}

// startServer runs "blockschema serve" and returns an initialized client.
func startServer(t *testing.T) *client.Client {
	t.Helper()

	c, err := client.NewStdioMCPClient(binaryPath, []string{"BLOCKSCHEMA_LOG_LEVEL=error"}, "serve")
	require.NoError(t, err, "failed to start MCP server")
	t.Cleanup(func() { c.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "blockschema-integration-test", Version: "1.0.0"}

	result, err := c.Initialize(ctx, initReq)
	require.NoError(t, err, "failed to initialize MCP session")
	assert.Equal(t, "blockschema", result.ServerInfo.Name)
	return c
}

func callToolHelper(t *testing.T, c *client.Client, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := c.CallTool(ctx, req)
	require.NoError(t, err, "CallTool(%s) failed", name)
	return result
}

func extractText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return text.Text
}

func TestIntegration_ListTools(t *testing.T) {
	skipIfNotIntegration(t)
	c := startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	tools, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	require.NoError(t, err)

	names := make([]string, len(tools.Tools))
	for i, tool := range tools.Tools {
		names[i] = tool.Name
	}
	for _, want := range []string{
		"ue_analysis_list_blocks",
		"ue_analysis_analyze_block_structure",
		"ue_analysis_detect_dom_mutations",
		"ue_generation_generate_block_json",
		"ue_generation_generate_base_configs",
		"ue_validation_validate_setup",
		"ue_validation_validate_block_json",
	} {
		assert.Contains(t, names, want)
	}
}

func TestIntegration_GenerateAndValidate(t *testing.T) {
	skipIfNotIntegration(t)
	c := startServer(t)
	root := testProject(t)

	result := callToolHelper(t, c, "ue_analysis_list_blocks", map[string]any{"projectPath": root})
	require.False(t, result.IsError, extractText(t, result))
	var list map[string]any
	require.NoError(t, json.Unmarshal([]byte(extractText(t, result)), &list))
	assert.Equal(t, float64(2), list["blocksFound"])

	result = callToolHelper(t, c, "ue_generation_generate_block_json", map[string]any{
		"projectPath": root,
		"blockName":   "cards",
	})
	require.False(t, result.IsError, extractText(t, result))
	assert.FileExists(t, filepath.Join(root, "ue", "models", "blocks", "cards.json"))

	result = callToolHelper(t, c, "ue_validation_validate_block_json", map[string]any{
		"projectPath": root,
		"blockName":   "cards",
	})
	require.False(t, result.IsError, extractText(t, result))
	var validation map[string]any
	require.NoError(t, json.Unmarshal([]byte(extractText(t, result)), &validation))
	assert.Equal(t, true, validation["valid"])
}

func TestIntegration_MissingBlock(t *testing.T) {
	skipIfNotIntegration(t)
	c := startServer(t)

	result := callToolHelper(t, c, "ue_analysis_analyze_block_structure", map[string]any{
		"projectPath": testProject(t),
		"blockName":   "missing",
	})
	assert.True(t, result.IsError)
	assert.Contains(t, extractText(t, result), "Error analyzing block structure")
}
