package query

import (
	"testing"

	"github.com/kestrel-dev/structindex/internal/index"
	"github.com/kestrel-dev/structindex/internal/model"
)

// buildFixture wires a small ProjectIndex by hand, corresponding to
// spec.md §8's concrete scenario S1: a.py defines foo, which calls
// nothing; b.py imports foo, defines bar, and run calls foo.
func buildFixture(t *testing.T) *index.Index {
	t.Helper()
	pi := &index.ProjectIndex{
		Root: "/project",
		Files: map[string]*model.FileRecord{
			"a.py": {
				Path: "a.py", Language: model.LangPython, TotalLines: 1,
				Lines:     []string{"def foo(): bar()"},
				Functions: []model.FunctionRecord{{Name: "foo", QualifiedName: "foo", Range: model.LineRange{Start: 1, End: 1}}},
			},
			"b.py": {
				Path: "b.py", Language: model.LangPython, TotalLines: 3,
				Lines: []string{"from a import foo", "def bar(): pass", "def run(): foo()"},
				Functions: []model.FunctionRecord{
					{Name: "bar", QualifiedName: "bar", Range: model.LineRange{Start: 2, End: 2}},
					{Name: "run", QualifiedName: "run", Range: model.LineRange{Start: 3, End: 3}},
				},
				Imports: []model.ImportRecord{{Module: "a", Names: []string{"foo"}, IsFrom: true, Line: 1}},
			},
		},
		Symbols: map[string][]model.SymbolLocation{
			"foo": {{Path: "a.py", Kind: model.KindFunction, Line: 1}},
			"bar": {{Path: "b.py", Kind: model.KindFunction, Line: 2}},
			"run": {{Path: "b.py", Kind: model.KindFunction, Line: 3}},
		},
		ImportsOut: map[string]map[string]bool{"b.py": {"a.py": true}},
		ImportsIn:  map[string]map[string]bool{"a.py": {"b.py": true}},
		DepsOut:    map[string]map[string]bool{"run": {"foo": true}},
		DepsIn:     map[string]map[string]bool{"foo": {"run": true}},
	}
	idx := index.New("/project")
	idx.Replace(pi)
	return idx
}

func TestFindSymbolS1(t *testing.T) {
	e := New(buildFixture(t), nil)
	res := e.FindSymbol(FindSymbolParams{Name: "foo"})
	if res.Best == nil || res.Best.Path != "a.py" || res.Best.Line != 1 {
		t.Fatalf("got %+v, want a.py:1", res.Best)
	}
}

func TestGetDependentsS1(t *testing.T) {
	e := New(buildFixture(t), nil)
	res := e.GetDependents(GetDependentsParams{Symbol: "foo"})
	if len(res.Refs) != 1 || res.Refs[0].Name != "run" || res.Refs[0].Path != "b.py" {
		t.Fatalf("got %+v, want [{run b.py 3}]", res.Refs)
	}
}

func TestGetCallChainS1(t *testing.T) {
	e := New(buildFixture(t), nil)
	res := e.GetCallChain(GetCallChainParams{From: "run", To: "bar"})
	if res.Found {
		t.Errorf("expected no chain from run to bar, got %v", res.Chain)
	}
	res = e.GetCallChain(GetCallChainParams{From: "run", To: "foo"})
	if !res.Found || len(res.Chain) != 2 || res.Chain[0] != "run" || res.Chain[1] != "foo" {
		t.Fatalf("got %+v, want [run foo]", res.Chain)
	}
}

// buildImpactFixture wires spec.md §8's S2: a->b->c, a->d, e->b.
func buildImpactFixture() *index.Index {
	pi := &index.ProjectIndex{
		Root:  "/project",
		Files: map[string]*model.FileRecord{},
		Symbols: map[string][]model.SymbolLocation{
			"a": {{Path: "x.go", Line: 1, Kind: model.KindFunction}},
			"b": {{Path: "x.go", Line: 2, Kind: model.KindFunction}},
			"c": {{Path: "x.go", Line: 3, Kind: model.KindFunction}},
			"d": {{Path: "x.go", Line: 4, Kind: model.KindFunction}},
			"e": {{Path: "x.go", Line: 5, Kind: model.KindFunction}},
		},
		ImportsOut: map[string]map[string]bool{},
		ImportsIn:  map[string]map[string]bool{},
		DepsOut: map[string]map[string]bool{
			"a": {"b": true, "d": true},
			"b": {"c": true},
			"e": {"b": true},
		},
		DepsIn: map[string]map[string]bool{
			"b": {"a": true, "e": true},
			"c": {"b": true},
			"d": {"a": true},
		},
	}
	idx := index.New("/project")
	idx.Replace(pi)
	return idx
}

func TestGetChangeImpactS2(t *testing.T) {
	e := New(buildImpactFixture(), nil)

	resB := e.GetChangeImpact(GetChangeImpactParams{Symbol: "b"})
	if !namesEqual(resB.Direct, "a", "e") {
		t.Errorf("impact(b).Direct = %+v, want [a e]", resB.Direct)
	}
	if len(resB.Transitive) != 0 {
		t.Errorf("impact(b).Transitive = %+v, want []", resB.Transitive)
	}

	resC := e.GetChangeImpact(GetChangeImpactParams{Symbol: "c"})
	if !namesEqual(resC.Direct, "b") {
		t.Errorf("impact(c).Direct = %+v, want [b]", resC.Direct)
	}
	if !namesEqual(resC.Transitive, "a", "e") {
		t.Errorf("impact(c).Transitive = %+v, want [a e]", resC.Transitive)
	}
}

func TestGetChangeImpactDisjoint(t *testing.T) {
	e := New(buildImpactFixture(), nil)
	res := e.GetChangeImpact(GetChangeImpactParams{Symbol: "c"})
	seen := make(map[string]bool)
	for _, r := range res.Direct {
		seen[r.Name] = true
	}
	for _, r := range res.Transitive {
		if seen[r.Name] {
			t.Errorf("symbol %s appears in both direct and transitive", r.Name)
		}
	}
}

func namesEqual(refs []SymbolRef, want ...string) bool {
	if len(refs) != len(want) {
		return false
	}
	got := make(map[string]bool, len(refs))
	for _, r := range refs {
		got[r.Name] = true
	}
	for _, w := range want {
		if !got[w] {
			return false
		}
	}
	return true
}

func TestSearchCodebaseTruncation(t *testing.T) {
	pi := &index.ProjectIndex{
		Root: "/project",
		Files: map[string]*model.FileRecord{
			"a.txt": {Path: "a.txt", TotalLines: 4, Lines: []string{"TODO one", "x", "TODO two", "TODO three"}},
			"b.txt": {Path: "b.txt", TotalLines: 2, Lines: []string{"TODO four", "y"}},
		},
	}
	idx := index.New("/project")
	idx.Replace(pi)
	e := New(idx, nil)

	res, qerr := e.SearchCodebase(SearchCodebaseParams{Regex: "TODO", MaxResults: 3})
	if qerr != nil {
		t.Fatalf("unexpected error: %v", qerr)
	}
	if len(res.Matches) != 3 || !res.Truncated {
		t.Fatalf("got %d matches, truncated=%v; want 3, true", len(res.Matches), res.Truncated)
	}

	all, qerr := e.SearchCodebase(SearchCodebaseParams{Regex: "TODO", MaxResults: 0})
	if qerr != nil {
		t.Fatalf("unexpected error: %v", qerr)
	}
	if len(all.Matches) != 4 || all.Truncated {
		t.Fatalf("got %d matches, truncated=%v; want 4, false", len(all.Matches), all.Truncated)
	}
	for i := range res.Matches {
		if res.Matches[i] != all.Matches[i] {
			t.Fatalf("truncated result is not a prefix of the full result at index %d", i)
		}
	}
}

func TestSearchCodebaseInvalidRegex(t *testing.T) {
	idx := index.New("/project")
	idx.Replace(&index.ProjectIndex{Files: map[string]*model.FileRecord{}})
	e := New(idx, nil)
	_, qerr := e.SearchCodebase(SearchCodebaseParams{Regex: "(("})
	if qerr == nil || qerr.Code != CodeInvalidRegex {
		t.Fatalf("got %+v, want invalid_regex error", qerr)
	}
}

func TestGetFunctionSourceTruncation(t *testing.T) {
	lines := []string{"def parse():", "  a", "  b", "  c", "  d", "  e", "  f", "  g", "  h", "  i", "  j", "  return"}
	pi := &index.ProjectIndex{
		Files: map[string]*model.FileRecord{
			"p.py": {
				Path: "p.py", TotalLines: len(lines), Lines: lines,
				Functions: []model.FunctionRecord{{Name: "parse", QualifiedName: "parse", Range: model.LineRange{Start: 1, End: 12}}},
			},
		},
		Symbols: map[string][]model.SymbolLocation{
			"parse": {{Path: "p.py", Kind: model.KindFunction, Line: 1}},
		},
	}
	idx := index.New("/project")
	idx.Replace(pi)
	e := New(idx, nil)

	res, qerr := e.GetFunctionSource(GetFunctionSourceParams{Name: "parse", MaxLines: 5})
	if qerr != nil {
		t.Fatalf("unexpected error: %v", qerr)
	}
	if len(res.Lines) != 5 || !res.Truncated || res.TruncatedCount != 7 {
		t.Fatalf("got %d lines, truncated=%v, count=%d; want 5, true, 7", len(res.Lines), res.Truncated, res.TruncatedCount)
	}
	for i, want := range lines[:5] {
		if res.Lines[i] != want {
			t.Errorf("line %d = %q, want %q", i, res.Lines[i], want)
		}
	}
}

func TestGetLinesOutOfRange(t *testing.T) {
	pi := &index.ProjectIndex{
		Files: map[string]*model.FileRecord{
			"p.py": {Path: "p.py", TotalLines: 3, Lines: []string{"a", "b", "c"}},
		},
	}
	idx := index.New("/project")
	idx.Replace(pi)
	e := New(idx, nil)

	if _, qerr := e.GetLines(GetLinesParams{Path: "p.py", Start: 2, End: 5}); qerr == nil || qerr.Code != CodeOutOfRange {
		t.Fatalf("got %+v, want out_of_range error", qerr)
	}
	res, qerr := e.GetLines(GetLinesParams{Path: "p.py", Start: 2, End: 3})
	if qerr != nil {
		t.Fatalf("unexpected error: %v", qerr)
	}
	if len(res.Lines) != 2 || res.Lines[0] != "b" || res.Lines[1] != "c" {
		t.Fatalf("got %+v, want [b c]", res.Lines)
	}
}

func TestListFilesTruncationIsPrefix(t *testing.T) {
	pi := &index.ProjectIndex{
		Files: map[string]*model.FileRecord{
			"a.go": {Path: "a.go"}, "b.go": {Path: "b.go"}, "c.go": {Path: "c.go"}, "d.go": {Path: "d.go"},
		},
	}
	idx := index.New("/project")
	idx.Replace(pi)
	e := New(idx, nil)

	full := e.ListFiles(ListFilesParams{})
	capped := e.ListFiles(ListFilesParams{MaxResults: 2})
	if len(capped.Paths) != 2 || !capped.Truncated {
		t.Fatalf("got %+v", capped)
	}
	for i := range capped.Paths {
		if capped.Paths[i] != full.Paths[i] {
			t.Fatalf("capped result is not a prefix of full result at index %d", i)
		}
	}
}
