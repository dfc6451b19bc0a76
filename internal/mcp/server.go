package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vadimtrunov/MovieMate/internal/agent"
	"github.com/vadimtrunov/MovieMate/internal/core"
)

// Server exposes the agent's tool registry over the Model Context Protocol.
type Server struct {
	server   *mcpsdk.Server
	registry *agent.Registry
	logger   *slog.Logger
}

// NewServer creates an MCP server with every registry tool registered.
func NewServer(registry *agent.Registry, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "moviemate",
			Version: version,
		},
		&mcpsdk.ServerOptions{Logger: logger},
	)

	srv := &Server{server: s, registry: registry, logger: logger}
	srv.registerTools()
	return srv
}

// ServeStdio runs the MCP server over stdin/stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.server.Run(ctx, &mcpsdk.StdioTransport{})
}

// MCPServer returns the underlying MCP SDK server (for testing).
func (s *Server) MCPServer() *mcpsdk.Server {
	return s.server
}

// registerTools mirrors the registry: same names, descriptions and schemas
// the chat model sees.
func (s *Server) registerTools() {
	for _, def := range s.registry.Definitions() {
		s.server.AddTool(&mcpsdk.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.Parameters,
		}, s.handle)
	}
}

// handle dispatches a tool call through the registry and returns the movies
// as JSON text content.
func (s *Server) handle(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	args := map[string]any{}
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return toolError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
	}

	_, result, err := s.registry.Dispatch(ctx, core.ToolCall{Name: req.Params.Name, Arguments: args})
	if err != nil {
		return toolError(err.Error()), nil
	}

	switch result.Kind {
	case core.ResultMessage:
		return toolError(result.Message), nil
	case core.ResultMovies:
		if len(result.Movies) > 0 {
			return toolJSON(result.Movies)
		}
	}
	return toolText(agent.MsgNotFound), nil
}

// Helper functions.

// toolJSON marshals v to JSON and returns it as text content.
func toolJSON(v any) (*mcpsdk.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return toolText(string(data)), nil
}

func toolText(text string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}},
	}
}

// toolError returns a tool result indicating an error.
func toolError(msg string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: msg}},
		IsError: true,
	}
}
