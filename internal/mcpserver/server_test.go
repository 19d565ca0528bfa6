package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kestrel-dev/structindex/internal/index"
	"github.com/kestrel-dev/structindex/internal/model"
	"github.com/kestrel-dev/structindex/internal/query"
)

func testServer() *Server {
	pi := &index.ProjectIndex{
		Root: "/project",
		Files: map[string]*model.FileRecord{
			"a.py": {
				Path: "a.py", Language: model.LangPython, TotalLines: 1,
				Lines:     []string{"def foo(): pass"},
				Functions: []model.FunctionRecord{{Name: "foo", QualifiedName: "foo", Range: model.LineRange{Start: 1, End: 1}}},
			},
		},
		Symbols: map[string][]model.SymbolLocation{
			"foo": {{Path: "a.py", Kind: model.KindFunction, Line: 1}},
		},
		ImportsOut: map[string]map[string]bool{},
		ImportsIn:  map[string]map[string]bool{},
		DepsOut:    map[string]map[string]bool{},
		DepsIn:     map[string]map[string]bool{},
	}
	idx := index.New("/project")
	idx.Replace(pi)
	return NewServer(query.New(idx, nil))
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatal("no text content in result")
	return ""
}

func TestToolNamesCoversAllOperations(t *testing.T) {
	srv := testServer()
	want := []string{
		"find_symbol", "get_change_impact", "get_call_chain", "get_classes",
		"get_class_source", "get_dependencies", "get_dependents",
		"get_file_dependencies", "get_file_dependents", "get_function_source",
		"get_functions", "get_imports", "get_lines", "get_project_summary",
		"get_structure_summary", "list_files", "reindex", "search_codebase",
	}
	names := srv.ToolNames()
	if len(names) != len(want) {
		t.Fatalf("got %d tools, want %d: %v", len(names), len(want), names)
	}
	have := make(map[string]bool, len(names))
	for _, n := range names {
		have[n] = true
	}
	for _, w := range want {
		if !have[w] {
			t.Errorf("missing tool %q", w)
		}
	}
}

func TestCallToolFindSymbol(t *testing.T) {
	srv := testServer()
	res, err := srv.CallTool(context.Background(), "find_symbol", json.RawMessage(`{"name": "foo"}`))
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", textOf(t, res))
	}
	var out query.FindSymbolResult
	if err := json.Unmarshal([]byte(textOf(t, res)), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Best == nil || out.Best.Path != "a.py" {
		t.Fatalf("got %+v, want a.py", out.Best)
	}
}

func TestCallToolUnknownName(t *testing.T) {
	srv := testServer()
	if _, err := srv.CallTool(context.Background(), "nonexistent", nil); err == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestCallToolGetLinesOutOfRange(t *testing.T) {
	srv := testServer()
	res, err := srv.CallTool(context.Background(), "get_lines", json.RawMessage(`{"path": "a.py", "start": 1, "end": 99}`))
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected tool error for out-of-range lines, got %s", textOf(t, res))
	}
	if got := textOf(t, res); got == "" {
		t.Fatal("expected error message text")
	}
}

func TestCallToolSearchCodebaseDefaultMaxResults(t *testing.T) {
	srv := testServer()
	res, err := srv.CallTool(context.Background(), "search_codebase", json.RawMessage(`{"regex": "foo"}`))
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error: %s", textOf(t, res))
	}
	var out query.SearchResult
	if err := json.Unmarshal([]byte(textOf(t, res)), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out.Matches) != 1 || out.Matches[0].Path != "a.py" {
		t.Fatalf("got %+v", out.Matches)
	}
}

func TestCallToolSearchCodebaseInvalidRegex(t *testing.T) {
	srv := testServer()
	res, err := srv.CallTool(context.Background(), "search_codebase", json.RawMessage(`{"regex": "(("}`))
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error result for malformed regex")
	}
}
