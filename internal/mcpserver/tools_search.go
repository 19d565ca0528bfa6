package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kestrel-dev/structindex/internal/query"
)

func (s *Server) registerSearchTools() {
	s.addTool(&mcp.Tool{
		Name:        "search_codebase",
		Description: "Search every indexed file for a regular expression (RE2 syntax), in sorted path order, emitting the first match per line. Stops early once max_results is reached (default 100; 0 = unlimited). A malformed regex returns a tool error, never a crash.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"regex": {"type": "string"},
				"max_results": {"type": "integer", "description": "0 = unlimited; omit for the default of 100"}
			},
			"required": ["regex"]
		}`),
	}, s.handleSearchCodebase)

	s.addTool(&mcp.Tool{
		Name:        "get_lines",
		Description: "Return a verbatim 1-indexed inclusive line range from one file. Returns an out_of_range error if start/end fall outside the file.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {"type": "string"},
				"start": {"type": "integer"},
				"end": {"type": "integer"}
			},
			"required": ["path", "start", "end"]
		}`),
	}, s.handleGetLines)
}

// defaultSearchMaxResults matches spec §6's documented default for
// search_codebase when the caller omits max_results entirely.
const defaultSearchMaxResults = 100

func (s *Server) handleSearchCodebase(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var raw struct {
		Regex      string `json:"regex"`
		MaxResults *int   `json:"max_results"`
	}
	if err := decodeParams(req, &raw); err != nil {
		return errResult(err.Error()), nil
	}
	p := query.SearchCodebaseParams{Regex: raw.Regex, MaxResults: defaultSearchMaxResults}
	if raw.MaxResults != nil {
		p.MaxResults = *raw.MaxResults
	}
	res, qerr := s.engine.SearchCodebase(p)
	if qerr != nil {
		return queryErrResult(qerr), nil
	}
	return jsonResult(res), nil
}

func (s *Server) handleGetLines(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p query.GetLinesParams
	if err := decodeParams(req, &p); err != nil {
		return errResult(err.Error()), nil
	}
	res, qerr := s.engine.GetLines(p)
	if qerr != nil {
		return queryErrResult(qerr), nil
	}
	return jsonResult(res), nil
}
