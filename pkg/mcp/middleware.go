package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/blockschema/pkg/mcplog"
)

// loggingMiddleware records every tool call in the call log. NewServer only
// installs it when a call log is configured.
func (s *Server) loggingMiddleware() server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			start := mcplog.Now()
			result, err := next(ctx, req)

			if werr := s.logger.Write(mcplog.NewEntry(req, start, result, err)); werr != nil {
				s.slogger.Warn("failed to write tool call log", "tool", req.Params.Name, "error", werr)
			}
			return result, err
		}
	}
}
