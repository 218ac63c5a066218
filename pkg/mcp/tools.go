package mcp

import "github.com/mark3labs/mcp-go/mcp"

// Tool names.
const (
	ToolListBlocks          = "ue_analysis_list_blocks"
	ToolAnalyzeBlock        = "ue_analysis_analyze_block_structure"
	ToolDetectMutations     = "ue_analysis_detect_dom_mutations"
	ToolGenerateBlockJSON   = "ue_generation_generate_block_json"
	ToolGenerateBaseConfigs = "ue_generation_generate_base_configs"
	ToolValidateSetup       = "ue_validation_validate_setup"
	ToolValidateBlockJSON   = "ue_validation_validate_block_json"
)

var githubProperties = map[string]any{
	"org":        map[string]any{"type": "string"},
	"repo":       map[string]any{"type": "string"},
	"branch":     map[string]any{"type": "string", "default": "main"},
	"blocksPath": map[string]any{"type": "string", "default": "blocks"},
}

// locatorOptions are the source-selection arguments shared by block tools.
func locatorOptions(githubDesc string) []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("projectPath",
			mcp.Required(),
			mcp.Description("Path to the project root"),
		),
		mcp.WithObject("github",
			mcp.Description(githubDesc),
			mcp.Properties(githubProperties),
		),
		mcp.WithString("localBlocksPath",
			mcp.Description("Custom path to local blocks directory. Omit to use ./blocks"),
		),
		mcp.WithBoolean("useLocal",
			mcp.Description("Explicitly use local file system. Omit to auto-detect."),
		),
	}
}

func blockTool(name, description, blockDesc string, extra ...mcp.ToolOption) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(description),
		mcp.WithString("blockName",
			mcp.Required(),
			mcp.Description(blockDesc),
		),
	}
	opts = append(opts, locatorOptions("GitHub parameters if fetching from repository")...)
	opts = append(opts, extra...)
	return mcp.NewTool(name, opts...)
}

func listBlocksTool() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("List all blocks in the project. Auto-detects local blocks if ./blocks exists, or can fetch from GitHub."),
	}
	opts = append(opts, locatorOptions("ONLY provide if explicitly fetching from a different GitHub repo. Omit to auto-detect local blocks.")...)
	return mcp.NewTool(ToolListBlocks, opts...)
}

func analyzeBlockTool() mcp.Tool {
	return blockTool(ToolAnalyzeBlock,
		"Analyze a block's JavaScript structure to determine its expected content structure, DOM transformations, and UE requirements.",
		"Name of the block to analyze",
	)
}

func detectMutationsTool() mcp.Tool {
	return blockTool(ToolDetectMutations,
		"List the DOM mutations a block's JavaScript performs and whether each needs a mutation observer to keep UE instrumentation.",
		"Name of the block to inspect",
	)
}

func generateBlockJSONTool() mcp.Tool {
	return blockTool(ToolGenerateBlockJSON,
		"Generate Universal Editor JSON configuration for a block based on its code structure analysis.",
		"Name of the block to generate configuration for",
		mcp.WithString("outputPath",
			mcp.Description("Optional custom output path. Defaults to ue/models/blocks/{blockName}.json"),
		),
		mcp.WithBoolean("preview",
			mcp.Description("If true, return JSON without writing to file"),
		),
		mcp.WithArray("customFields",
			mcp.Description("Optional array of custom field configurations to override defaults"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"label": map[string]any{"type": "string"},
					"type":  map[string]any{"type": "string"},
				},
			}),
		),
	)
}

func generateBaseConfigsTool() mcp.Tool {
	return mcp.NewTool(ToolGenerateBaseConfigs,
		mcp.WithDescription("Generate all base Universal Editor configuration files (page, text, image, section, and templates)."),
		mcp.WithString("projectPath",
			mcp.Required(),
			mcp.Description("Path to the project root"),
		),
		mcp.WithArray("blockNames",
			mcp.Description("Optional array of block names to include in section filters"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
}

func validateSetupTool() mcp.Tool {
	return mcp.NewTool(ToolValidateSetup,
		mcp.WithDescription("Validate the entire Universal Editor setup in a project, checking for required files, folders, dependencies, and configurations."),
		mcp.WithString("projectPath",
			mcp.Required(),
			mcp.Description("Path to the project root"),
		),
	)
}

func validateBlockJSONTool() mcp.Tool {
	return mcp.NewTool(ToolValidateBlockJSON,
		mcp.WithDescription("Validate a block's Universal Editor JSON configuration. Pass the configuration inline, a file path, or a project path and block name to check the generated file."),
		mcp.WithObject("config",
			mcp.Description("Inline configuration with definitions, models and filters"),
		),
		mcp.WithString("filePath",
			mcp.Description("Path to a configuration file"),
		),
		mcp.WithString("projectPath",
			mcp.Description("Path to the project root, used with blockName"),
		),
		mcp.WithString("blockName",
			mcp.Description("Block whose ue/models/blocks/{blockName}.json to validate"),
		),
	)
}
