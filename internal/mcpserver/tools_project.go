package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kestrel-dev/structindex/internal/query"
)

func (s *Server) registerProjectTools() {
	s.addTool(&mcp.Tool{
		Name:        "get_project_summary",
		Description: "Return project-wide counts: files, functions, classes, symbols, import edges, dependency edges, warnings, and a per-language file breakdown.",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
	}, s.handleGetProjectSummary)

	s.addTool(&mcp.Tool{
		Name:        "list_files",
		Description: "List indexed file paths, optionally filtered by a glob pattern (e.g. '**/*.py'). Supports max_results (0 = unlimited).",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"pattern": {"type": "string", "description": "Glob pattern against the project-relative path"},
				"max_results": {"type": "integer", "description": "Cap on returned paths; 0 means unlimited"}
			}
		}`),
	}, s.handleListFiles)

	s.addTool(&mcp.Tool{
		Name:        "get_structure_summary",
		Description: "Return per-file structural counts (lines, chars, function/class/import/section counts). Omit path to summarize every file.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {"type": "string", "description": "Project-relative file path; omit to summarize every file"}
			}
		}`),
	}, s.handleGetStructureSummary)

	s.addTool(&mcp.Tool{
		Name:        "reindex",
		Description: "Rebuild the index. By default reuses unchanged files against the current index (incremental); pass full=true to force a from-scratch rebuild.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"full": {"type": "boolean", "description": "Force a from-scratch rebuild instead of incremental reuse"}
			}
		}`),
	}, s.handleReindex)
}

func (s *Server) handleGetProjectSummary(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.engine.GetProjectSummary()), nil
}

func (s *Server) handleListFiles(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p query.ListFilesParams
	if err := decodeParams(req, &p); err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(s.engine.ListFiles(p)), nil
}

func (s *Server) handleGetStructureSummary(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p query.GetStructureSummaryParams
	if err := decodeParams(req, &p); err != nil {
		return errResult(err.Error()), nil
	}
	res, qerr := s.engine.GetStructureSummary(p)
	if qerr != nil {
		return queryErrResult(qerr), nil
	}
	return jsonResult(res), nil
}

func (s *Server) handleReindex(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p query.ReindexParams
	if err := decodeParams(req, &p); err != nil {
		return errResult(err.Error()), nil
	}
	res, err := s.engine.Reindex(ctx, p)
	if err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(res), nil
}
