// Package query implements the 17-operation read-only query engine of
// spec §4.E/§6 against an *index.Index. Every operation is a method on
// Engine taking and returning a typed struct — the REDESIGN FLAG's
// "stable interface on a single value" replacing a closure-dictionary.
package query

import (
	"time"

	"github.com/kestrel-dev/structindex/internal/model"
)

// SymbolRef names a resolved symbol by its qualified name and where it
// lives, used wherever a dependency/impact/call-chain result names a
// symbol rather than returning its full source.
type SymbolRef struct {
	Name string
	Path string
	Line int
}

// --- get_project_summary ---

type ProjectSummaryResult struct {
	Files       int
	Functions   int
	Classes     int
	Symbols     int
	ImportEdges int
	DepEdges    int
	Warnings    int
	Languages   map[model.Language]int
}

// --- list_files ---

type ListFilesParams struct {
	Pattern    string `json:"pattern,omitempty"` // glob against project-relative path; "" matches all
	MaxResults int    `json:"max_results,omitempty"`
}

type ListFilesResult struct {
	Paths     []string
	Total     int
	Truncated bool
}

// --- get_structure_summary ---

type GetStructureSummaryParams struct {
	Path string `json:"path,omitempty"` // "" summarizes every file
}

type FileStructure struct {
	Path          string
	Language      model.Language
	TotalLines    int
	TotalChars    int
	FunctionCount int
	ClassCount    int
	ImportCount   int
	SectionCount  int
}

type GetStructureSummaryResult struct {
	Files []FileStructure
}

// --- get_functions / get_classes / get_imports ---

type GetFunctionsParams struct {
	Path       string `json:"path,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

type FunctionRef struct {
	model.FunctionRecord
	Path string
}

type GetFunctionsResult struct {
	Functions []FunctionRef
	Total     int
	Truncated bool
}

type GetClassesParams struct {
	Path       string `json:"path,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

type ClassRef struct {
	model.ClassRecord
	Path string
}

type GetClassesResult struct {
	Classes   []ClassRef
	Total     int
	Truncated bool
}

type GetImportsParams struct {
	Path       string `json:"path,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

type ImportRef struct {
	model.ImportRecord
	Path string
}

type GetImportsResult struct {
	Imports   []ImportRef
	Total     int
	Truncated bool
}

// --- get_function_source / get_class_source ---

type GetFunctionSourceParams struct {
	Name     string `json:"name"`
	Path     string `json:"path,omitempty"` // disambiguates when Name is ambiguous; "" means tie-break
	MaxLines int    `json:"max_lines,omitempty"`
}

type SourceResult struct {
	Name           string
	Path           string
	Range          model.LineRange
	Lines          []string
	Truncated      bool
	TruncatedCount int // lines omitted, when Truncated
}

type GetClassSourceParams struct {
	Name     string `json:"name"`
	Path     string `json:"path,omitempty"`
	MaxLines int    `json:"max_lines,omitempty"`
}

// --- find_symbol ---

type FindSymbolParams struct {
	Name string `json:"name"`
}

type FindSymbolResult struct {
	Matches []model.SymbolLocation // sorted by (path, line)
	Best    *model.SymbolLocation  // tie-broken per spec §3; nil if not found
}

// --- get_dependencies / get_dependents ---

type GetDependenciesParams struct {
	Symbol     string `json:"symbol"`
	MaxResults int    `json:"max_results,omitempty"`
}

type DependencyResult struct {
	Refs      []SymbolRef
	Total     int
	Truncated bool
}

type GetDependentsParams struct {
	Symbol     string `json:"symbol"`
	MaxResults int    `json:"max_results,omitempty"`
}

// --- get_change_impact ---

type GetChangeImpactParams struct {
	Symbol        string `json:"symbol"`
	MaxDirect     int    `json:"max_direct,omitempty"`
	MaxTransitive int    `json:"max_transitive,omitempty"`
}

type ImpactResult struct {
	Direct              []SymbolRef
	Transitive          []SymbolRef
	DirectTruncated     bool
	TransitiveTruncated bool
}

// --- get_call_chain ---

type GetCallChainParams struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type CallChainResult struct {
	Chain []string // qualified names, from -> ... -> to
	Found bool
}

// --- get_file_dependencies / get_file_dependents ---

type GetFileDependenciesParams struct {
	Path       string `json:"path"`
	MaxResults int    `json:"max_results,omitempty"`
}

type FileRefResult struct {
	Paths     []string
	Total     int
	Truncated bool
}

type GetFileDependentsParams struct {
	Path       string `json:"path"`
	MaxResults int    `json:"max_results,omitempty"`
}

// --- search_codebase ---

type SearchCodebaseParams struct {
	Regex      string `json:"regex"`
	MaxResults int    `json:"max_results,omitempty"` // 0 = unlimited; default 100 is the caller's responsibility
}

type SearchMatch struct {
	Path string
	Line int
	Text string
}

type SearchResult struct {
	Matches   []SearchMatch
	Truncated bool
}

// --- get_lines ---

type GetLinesParams struct {
	Path  string `json:"path"`
	Start int    `json:"start"` // 1-indexed, inclusive
	End   int    `json:"end"`   // 1-indexed, inclusive
}

type GetLinesResult struct {
	Path  string
	Start int
	End   int
	Lines []string
}

// --- reindex ---

type ReindexParams struct {
	Full bool `json:"full,omitempty"` // true forces a from-scratch rebuild instead of incremental reuse
}

type ReindexResult struct {
	Files    int
	Symbols  int
	Warnings int
	Elapsed  time.Duration
}
