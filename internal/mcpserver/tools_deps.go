package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kestrel-dev/structindex/internal/query"
)

func (s *Server) registerDependencyTools() {
	s.addTool(&mcp.Tool{
		Name:        "get_dependencies",
		Description: "List the symbols a given symbol's body references directly (deps_out), sorted by (path, line). Supports max_results (0 = unlimited).",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"symbol": {"type": "string"},
				"max_results": {"type": "integer"}
			},
			"required": ["symbol"]
		}`),
	}, s.handleGetDependencies)

	s.addTool(&mcp.Tool{
		Name:        "get_dependents",
		Description: "List the symbols that reference a given symbol directly (deps_in), sorted by (path, line). Self-recursive edges are included. Supports max_results (0 = unlimited).",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"symbol": {"type": "string"},
				"max_results": {"type": "integer"}
			},
			"required": ["symbol"]
		}`),
	}, s.handleGetDependents)

	s.addTool(&mcp.Tool{
		Name:        "get_change_impact",
		Description: "BFS over deps_in from a symbol: direct callers (hop 1) and every symbol transitively reachable beyond that, disjoint from direct. Supports independent max_direct/max_transitive caps (0 = unlimited).",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"symbol": {"type": "string"},
				"max_direct": {"type": "integer"},
				"max_transitive": {"type": "integer"}
			},
			"required": ["symbol"]
		}`),
	}, s.handleGetChangeImpact)

	s.addTool(&mcp.Tool{
		Name:        "get_call_chain",
		Description: "Find the shortest call chain from one symbol to another over deps_out (BFS). found=false if no chain exists.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"from": {"type": "string"},
				"to": {"type": "string"}
			},
			"required": ["from", "to"]
		}`),
	}, s.handleGetCallChain)

	s.addTool(&mcp.Tool{
		Name:        "get_file_dependencies",
		Description: "List the files a given file imports (resolved, in-project only), sorted. Supports max_results (0 = unlimited).",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {"type": "string"},
				"max_results": {"type": "integer"}
			},
			"required": ["path"]
		}`),
	}, s.handleGetFileDependencies)

	s.addTool(&mcp.Tool{
		Name:        "get_file_dependents",
		Description: "List the files that import a given file, sorted. Supports max_results (0 = unlimited).",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {"type": "string"},
				"max_results": {"type": "integer"}
			},
			"required": ["path"]
		}`),
	}, s.handleGetFileDependents)
}

func (s *Server) handleGetDependencies(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p query.GetDependenciesParams
	if err := decodeParams(req, &p); err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(s.engine.GetDependencies(p)), nil
}

func (s *Server) handleGetDependents(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p query.GetDependentsParams
	if err := decodeParams(req, &p); err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(s.engine.GetDependents(p)), nil
}

func (s *Server) handleGetChangeImpact(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p query.GetChangeImpactParams
	if err := decodeParams(req, &p); err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(s.engine.GetChangeImpact(p)), nil
}

func (s *Server) handleGetCallChain(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p query.GetCallChainParams
	if err := decodeParams(req, &p); err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(s.engine.GetCallChain(p)), nil
}

func (s *Server) handleGetFileDependencies(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p query.GetFileDependenciesParams
	if err := decodeParams(req, &p); err != nil {
		return errResult(err.Error()), nil
	}
	res, qerr := s.engine.GetFileDependencies(p)
	if qerr != nil {
		return queryErrResult(qerr), nil
	}
	return jsonResult(res), nil
}

func (s *Server) handleGetFileDependents(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p query.GetFileDependentsParams
	if err := decodeParams(req, &p); err != nil {
		return errResult(err.Error()), nil
	}
	res, qerr := s.engine.GetFileDependents(p)
	if qerr != nil {
		return queryErrResult(qerr), nil
	}
	return jsonResult(res), nil
}
