package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kestrel-dev/structindex/internal/query"
)

func (s *Server) registerSymbolTools() {
	s.addTool(&mcp.Tool{
		Name:        "get_functions",
		Description: "List function/method declarations, optionally scoped to one file, sorted by (path, line). Supports max_results (0 = unlimited).",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {"type": "string", "description": "Project-relative file path; omit to list every file's functions"},
				"max_results": {"type": "integer"}
			}
		}`),
	}, s.handleGetFunctions)

	s.addTool(&mcp.Tool{
		Name:        "get_classes",
		Description: "List class/struct/enum/interface/trait declarations, optionally scoped to one file. Supports max_results (0 = unlimited).",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {"type": "string"},
				"max_results": {"type": "integer"}
			}
		}`),
	}, s.handleGetClasses)

	s.addTool(&mcp.Tool{
		Name:        "get_imports",
		Description: "List import/use/require statements, optionally scoped to one file. Supports max_results (0 = unlimited).",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {"type": "string"},
				"max_results": {"type": "integer"}
			}
		}`),
	}, s.handleGetImports)

	s.addTool(&mcp.Tool{
		Name:        "get_function_source",
		Description: "Return the source lines of a function/method by name, tie-broken by path when ambiguous. Supports max_lines (0 = unlimited); truncation is flagged with the omitted-line count.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"name": {"type": "string", "description": "Function or method name, bare or qualified"},
				"path": {"type": "string", "description": "Disambiguates when name is not unique"},
				"max_lines": {"type": "integer"}
			},
			"required": ["name"]
		}`),
	}, s.handleGetFunctionSource)

	s.addTool(&mcp.Tool{
		Name:        "get_class_source",
		Description: "Return the source lines of a class/struct/enum/interface/trait by name, tie-broken by path when ambiguous. Supports max_lines (0 = unlimited).",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"name": {"type": "string"},
				"path": {"type": "string"},
				"max_lines": {"type": "integer"}
			},
			"required": ["name"]
		}`),
	}, s.handleGetClassSource)

	s.addTool(&mcp.Tool{
		Name:        "find_symbol",
		Description: "Locate every declaration of a name across the project and the single tie-broken best match (exact qualified-name match first, then lexicographically earliest path, then earliest line).",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"name": {"type": "string"}
			},
			"required": ["name"]
		}`),
	}, s.handleFindSymbol)
}

func (s *Server) handleGetFunctions(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p query.GetFunctionsParams
	if err := decodeParams(req, &p); err != nil {
		return errResult(err.Error()), nil
	}
	res, qerr := s.engine.GetFunctions(p)
	if qerr != nil {
		return queryErrResult(qerr), nil
	}
	return jsonResult(res), nil
}

func (s *Server) handleGetClasses(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p query.GetClassesParams
	if err := decodeParams(req, &p); err != nil {
		return errResult(err.Error()), nil
	}
	res, qerr := s.engine.GetClasses(p)
	if qerr != nil {
		return queryErrResult(qerr), nil
	}
	return jsonResult(res), nil
}

func (s *Server) handleGetImports(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p query.GetImportsParams
	if err := decodeParams(req, &p); err != nil {
		return errResult(err.Error()), nil
	}
	res, qerr := s.engine.GetImports(p)
	if qerr != nil {
		return queryErrResult(qerr), nil
	}
	return jsonResult(res), nil
}

func (s *Server) handleGetFunctionSource(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p query.GetFunctionSourceParams
	if err := decodeParams(req, &p); err != nil {
		return errResult(err.Error()), nil
	}
	res, qerr := s.engine.GetFunctionSource(p)
	if qerr != nil {
		return queryErrResult(qerr), nil
	}
	return jsonResult(res), nil
}

func (s *Server) handleGetClassSource(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p query.GetClassSourceParams
	if err := decodeParams(req, &p); err != nil {
		return errResult(err.Error()), nil
	}
	res, qerr := s.engine.GetClassSource(p)
	if qerr != nil {
		return queryErrResult(qerr), nil
	}
	return jsonResult(res), nil
}

func (s *Server) handleFindSymbol(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p query.FindSymbolParams
	if err := decodeParams(req, &p); err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(s.engine.FindSymbol(p)), nil
}
