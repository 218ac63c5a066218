package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/blockschema/pkg/blocks"
	"github.com/gnana997/blockschema/pkg/mcplog"
)

const serverVersion = "0.1.0-dev"

// Server implements the MCP server for blockschema, exposing block analysis,
// schema generation and validation tools.
type Server struct {
	mcpServer *server.MCPServer
	svc       *blocks.Service
	logger    *mcplog.Logger // may be nil
	slogger   *slog.Logger
}

// NewServer creates a new MCP server backed by svc. When callLog is non-nil
// every tool call is appended to it.
func NewServer(svc *blocks.Service, callLog *mcplog.Logger, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{svc: svc, logger: callLog, slogger: logger}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if callLog != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}
	s.mcpServer = server.NewMCPServer("blockschema", serverVersion, opts...)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: listBlocksTool(), Handler: s.handleListBlocks},
		server.ServerTool{Tool: analyzeBlockTool(), Handler: s.handleAnalyzeBlock},
		server.ServerTool{Tool: detectMutationsTool(), Handler: s.handleDetectMutations},
		server.ServerTool{Tool: generateBlockJSONTool(), Handler: s.handleGenerateBlockJSON},
		server.ServerTool{Tool: generateBaseConfigsTool(), Handler: s.handleGenerateBaseConfigs},
		server.ServerTool{Tool: validateSetupTool(), Handler: s.handleValidateSetup},
		server.ServerTool{Tool: validateBlockJSONTool(), Handler: s.handleValidateBlockJSON},
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.slogger.Info("serving MCP over stdio", "version", serverVersion)
	return server.ServeStdio(s.mcpServer)
}
