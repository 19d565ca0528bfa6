package snapshot

import (
	"testing"

	"github.com/kestrel-dev/structindex/internal/index"
	"github.com/kestrel-dev/structindex/internal/model"
)

func TestOpenMemory(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	s.Close()
}

func testIndex() *index.ProjectIndex {
	return &index.ProjectIndex{
		Root: "/project",
		Files: map[string]*model.FileRecord{
			"a.py": {
				Path: "a.py", Language: model.LangPython, TotalLines: 1,
				Lines:     []string{"def foo(): bar()"},
				Functions: []model.FunctionRecord{{Name: "foo", QualifiedName: "foo", Range: model.LineRange{Start: 1, End: 1}}},
				SHA256:    "hash-a",
			},
			"b.py": {
				Path: "b.py", Language: model.LangPython, TotalLines: 1,
				Lines:     []string{"def bar(): foo()"},
				Functions: []model.FunctionRecord{{Name: "bar", QualifiedName: "bar", Range: model.LineRange{Start: 1, End: 1}}},
				SHA256:    "hash-b",
			},
		},
		Symbols: map[string][]model.SymbolLocation{
			"foo": {{Path: "a.py", Kind: model.KindFunction, Line: 1}},
			"bar": {{Path: "b.py", Kind: model.KindFunction, Line: 1}},
		},
		ImportsOut: map[string]map[string]bool{"b.py": {"a.py": true}},
		ImportsIn:  map[string]map[string]bool{"a.py": {"b.py": true}},
		DepsOut:    map[string]map[string]bool{"bar": {"foo": true}},
		DepsIn:     map[string]map[string]bool{"foo": {"bar": true}},
		Warnings:   []model.BuildWarning{{Path: "c.py", Stage: "read", Message: "permission denied"}},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	pi := testIndex()
	if err := s.Save(pi); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, ok, err := s.Load("/project")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatal("expected snapshot to be found")
	}

	if len(loaded.Files) != 2 {
		t.Fatalf("got %d files, want 2", len(loaded.Files))
	}
	if loaded.Files["a.py"].SHA256 != "hash-a" {
		t.Errorf("a.py SHA256 = %q, want hash-a", loaded.Files["a.py"].SHA256)
	}
	if len(loaded.Warnings) != 1 || loaded.Warnings[0].Message != "permission denied" {
		t.Errorf("got warnings %+v", loaded.Warnings)
	}

	if !loaded.ImportsOut["b.py"]["a.py"] {
		t.Error("expected imports_out[b.py][a.py]")
	}
	if !loaded.ImportsIn["a.py"]["b.py"] {
		t.Error("expected imports_in rebuilt as the inverse of imports_out")
	}
	if !loaded.DepsOut["bar"]["foo"] || !loaded.DepsIn["foo"]["bar"] {
		t.Errorf("deps graph not rebuilt correctly: out=%v in=%v", loaded.DepsOut, loaded.DepsIn)
	}
}

func TestLoadMissingProject(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	_, ok, err := s.Load("/nowhere")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for a project with no snapshot")
	}
}

func TestSaveReplacesPriorSnapshot(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	pi := testIndex()
	if err := s.Save(pi); err != nil {
		t.Fatalf("Save: %v", err)
	}

	pi2 := testIndex()
	delete(pi2.Files, "b.py")
	delete(pi2.Symbols, "bar")
	if err := s.Save(pi2); err != nil {
		t.Fatalf("Save (update): %v", err)
	}

	loaded, ok, err := s.Load("/project")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatal("expected snapshot to be found")
	}
	if len(loaded.Files) != 1 {
		t.Fatalf("got %d files after replace, want 1", len(loaded.Files))
	}

	hashes, err := s.FileHashes("/project")
	if err != nil {
		t.Fatalf("FileHashes: %v", err)
	}
	if len(hashes) != 1 || hashes["a.py"] != "hash-a" {
		t.Errorf("got %+v, want {a.py: hash-a}", hashes)
	}
}

func TestFileHashes(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	if err := s.Save(testIndex()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	hashes, err := s.FileHashes("/project")
	if err != nil {
		t.Fatalf("FileHashes: %v", err)
	}
	if hashes["a.py"] != "hash-a" || hashes["b.py"] != "hash-b" {
		t.Errorf("got %+v", hashes)
	}
}

func TestSaveAsyncLogsOnFailure(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	s.Close() // closed store makes the async Save fail; exercises the warn-and-swallow path

	done := make(chan struct{})
	go func() {
		s.SaveAsync(testIndex())
		close(done)
	}()
	<-done
}
