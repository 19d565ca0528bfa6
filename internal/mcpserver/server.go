// Package mcpserver is the thin MCP adapter (Component G) over
// internal/query: one MCP tool per query.Engine operation, JSON
// arguments decoded straight into that operation's typed Params
// struct. Grounded on the teacher's internal/tools package (Server/
// NewServer/registerTools/addTool shape, jsonResult/errResult
// helpers) with the session-detection, file-watcher, and
// update-checker machinery dropped — this module has exactly one
// project root per process, fixed at startup, and no non-goal wire
// protocol beyond what the MCP SDK already provides.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kestrel-dev/structindex/internal/query"
)

// Version is reported in the MCP implementation handshake.
const Version = "0.1.0"

// Server wraps an mcp.Server exposing the query engine's operation
// surface as MCP tools.
type Server struct {
	mcp      *mcp.Server
	engine   *query.Engine
	handlers map[string]mcp.ToolHandler
}

// NewServer builds an MCP server backed by engine, with every tool
// registered.
func NewServer(engine *query.Engine) *Server {
	s := &Server{
		engine:   engine,
		handlers: make(map[string]mcp.ToolHandler),
	}
	s.mcp = mcp.NewServer(
		&mcp.Implementation{Name: "structindex", Version: Version},
		nil,
	)
	s.registerTools()
	return s
}

// MCPServer returns the underlying MCP server, e.g. to call Run with
// a transport.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// CallTool invokes a registered tool handler directly, bypassing MCP
// transport — used by the `structindex query` CLI subcommand.
func (s *Server) CallTool(ctx context.Context, name string, argsJSON json.RawMessage) (*mcp.CallToolResult, error) {
	handler, ok := s.handlers[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
	if len(argsJSON) == 0 {
		argsJSON = json.RawMessage(`{}`)
	}
	req := &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Name: name, Arguments: argsJSON},
	}
	return handler(ctx, req)
}

// ToolNames returns every registered tool name, sorted.
func (s *Server) ToolNames() []string {
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Server) addTool(tool *mcp.Tool, handler mcp.ToolHandler) {
	s.mcp.AddTool(tool, handler)
	s.handlers[tool.Name] = handler
}

func (s *Server) registerTools() {
	s.registerProjectTools()
	s.registerSymbolTools()
	s.registerDependencyTools()
	s.registerSearchTools()
}

// jsonResult marshals data as the tool's single text content block.
func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errResult("json marshal err=" + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}
}

// errResult returns an IsError tool result carrying msg.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// queryErrResult renders a *query.Error as a tool error result,
// carrying its code alongside the message so callers can branch on it
// without re-parsing text.
func queryErrResult(qerr *query.Error) *mcp.CallToolResult {
	return errResult(fmt.Sprintf("[%s] %s", qerr.Code, qerr.Message))
}

// decodeParams unmarshals a tool call's raw arguments into p.
func decodeParams(req *mcp.CallToolRequest, p any) error {
	args := req.Params.Arguments
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	if err := json.Unmarshal(args, p); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}
