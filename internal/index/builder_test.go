package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFixture(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		"pkg/util.py": `def helper(x):
    return x + 1
`,
		"pkg/main.py": `from pkg.util import helper


def run():
    return helper(1)


def recurse():
    return recurse()
`,
	}
	for rel, content := range files {
		full := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestBuildGraphInverseConsistency(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir)

	pi, err := NewBuilder(dir, nil).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	assertInverse(t, "imports", pi.ImportsOut, pi.ImportsIn)
	assertInverse(t, "deps", pi.DepsOut, pi.DepsIn)
}

func assertInverse(t *testing.T, label string, out, in map[string]map[string]bool) {
	t.Helper()
	for from, tos := range out {
		for to := range tos {
			if !in[to][from] {
				t.Errorf("%s: expected %s to list %s as an inbound edge from %s", label, label, to, from)
			}
		}
	}
	for to, froms := range in {
		for from := range froms {
			if !out[from][to] {
				t.Errorf("%s: expected %s to list %s as an outbound edge to %s", label, label, from, to)
			}
		}
	}
}

func TestBuildDeterminism(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir)

	ctx := context.Background()
	b := NewBuilder(dir, nil)

	first, err := b.Build(ctx)
	if err != nil {
		t.Fatalf("first Build: %v", err)
	}
	second, err := b.Build(ctx)
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}

	if len(first.Files) != len(second.Files) {
		t.Fatalf("file count changed across rebuilds: %d vs %d", len(first.Files), len(second.Files))
	}
	for path, fr := range first.Files {
		other, ok := second.Files[path]
		if !ok {
			t.Fatalf("file %s missing on second build", path)
		}
		if fr.SHA256 != other.SHA256 {
			t.Errorf("hash mismatch for %s across rebuilds", path)
		}
		if len(fr.Functions) != len(other.Functions) {
			t.Errorf("function count mismatch for %s across rebuilds", path)
		}
	}
	if len(first.Symbols) != len(second.Symbols) {
		t.Errorf("symbol count changed across rebuilds: %d vs %d", len(first.Symbols), len(second.Symbols))
	}
}

func TestBuildRangeValidity(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir)

	pi, err := NewBuilder(dir, nil).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for path, fr := range pi.Files {
		for _, fn := range fr.Functions {
			if !fn.Range.Valid() {
				t.Errorf("%s: function %s has invalid range %v", path, fn.Name, fn.Range)
			}
		}
		for _, cls := range fr.Classes {
			if !cls.Range.Valid() {
				t.Errorf("%s: class %s has invalid range %v", path, cls.Name, cls.Range)
			}
			for _, m := range cls.Methods {
				if !m.Range.Valid() {
					t.Errorf("%s: method %s has invalid range %v", path, m.Name, m.Range)
				}
			}
		}
	}
}

func TestBuildSelfRecursiveDependencyEdge(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir)

	pi, err := NewBuilder(dir, nil).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if !pi.DepsOut["recurse"]["recurse"] {
		t.Errorf("expected recurse -> recurse self edge, got %+v", pi.DepsOut["recurse"])
	}
}

func TestUpdateMatchesFullRebuild(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir)

	ctx := context.Background()
	b := NewBuilder(dir, nil)

	full, err := b.Build(ctx)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	incremental, err := b.Update(ctx, full)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if len(full.Files) != len(incremental.Files) {
		t.Fatalf("file count diverged: full=%d incremental=%d", len(full.Files), len(incremental.Files))
	}
	for path, fr := range full.Files {
		other, ok := incremental.Files[path]
		if !ok {
			t.Fatalf("incremental update missing file %s", path)
		}
		if fr.SHA256 != other.SHA256 {
			t.Errorf("incremental hash mismatch for %s", path)
		}
	}
	if len(full.Symbols) != len(incremental.Symbols) {
		t.Errorf("symbol count diverged: full=%d incremental=%d", len(full.Symbols), len(incremental.Symbols))
	}
	assertInverse(t, "incremental imports", incremental.ImportsOut, incremental.ImportsIn)
	assertInverse(t, "incremental deps", incremental.DepsOut, incremental.DepsIn)
}

func TestUpdateReusesUnchangedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir)

	ctx := context.Background()
	b := NewBuilder(dir, nil)

	full, err := b.Build(ctx)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// touch only one file; the other should be reused by pointer identity.
	if err := os.WriteFile(filepath.Join(dir, "pkg/util.py"), []byte(`def helper(x):
    return x + 2
`), 0o644); err != nil {
		t.Fatal(err)
	}

	updated, err := b.Update(ctx, full)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if updated.Files["pkg/main.py"] != full.Files["pkg/main.py"] {
		t.Errorf("expected unchanged pkg/main.py to be reused by pointer identity")
	}
	if updated.Files["pkg/util.py"] == full.Files["pkg/util.py"] {
		t.Errorf("expected changed pkg/util.py to be re-extracted")
	}
}
