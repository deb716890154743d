// Package mcpserver exposes the calendar tool registry over the Model
// Context Protocol, so external MCP clients can call the same tools the
// conversation roles use.
package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/VladRad03/Adulter/pkg/tools"
)

// Server wraps the mcp-go server around a tool registry.
type Server struct {
	mcpServer *server.MCPServer
}

// externalCaller grants MCP clients every registered tool. Capability
// bounding applies to conversation roles; an MCP client is the
// operator's own surface.
type externalCaller struct{}

func (externalCaller) Name() string            { return "mcp-client" }
func (externalCaller) Allows(tool string) bool { return true }

// New creates an MCP server exposing every tool in the registry,
// dispatched through the same validating bridge the roles use.
func New(name, version string, dispatcher *tools.Dispatcher) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(name, version),
	}
	registry := dispatcher.Registry()
	for _, toolName := range registry.Names() {
		spec, _ := registry.Get(toolName)
		tool := mcp.NewTool(spec.Name, mcp.WithDescription(spec.Description))
		s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})
			record := dispatcher.Invoke(ctx, externalCaller{}, spec.Name, args)
			if record.Error != "" {
				return mcp.NewToolResultError(record.Error), nil
			}
			return mcp.NewToolResultText(record.Result), nil
		})
	}
	return s
}

// ServeStdio serves the MCP protocol on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
