package index

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/kestrel-dev/structindex/internal/discover"
	"github.com/kestrel-dev/structindex/internal/extract"
	"github.com/kestrel-dev/structindex/internal/model"
)

// Builder runs the four-pass index construction of spec §4.C: file
// ingestion, symbol-table construction, import-graph construction, and
// symbol dependency-graph construction. Grounded on the teacher's
// Pipeline (internal/pipeline/pipeline.go): parallel per-file parsing
// via errgroup with a worker-per-CPU limit, followed by a sequential
// aggregation stage, mirrors passDefinitions's two-stage shape.
type Builder struct {
	Root    string
	Options *discover.Options
}

// NewBuilder creates a Builder for root using opts (nil selects the
// package defaults via discover.Options zero value semantics).
func NewBuilder(root string, opts *discover.Options) *Builder {
	return &Builder{Root: root, Options: opts}
}

// fileResult is the output of extracting one file, carried from the
// parallel ingestion stage to the sequential aggregation stage.
type fileResult struct {
	info    discover.FileInfo
	record  *model.FileRecord
	hash    string
	warning *extract.Warning
	readErr error
}

// Build performs a full, from-scratch index build: discover files,
// extract each in parallel, then sequentially build the symbol table,
// import graph, and dependency graph. It never mutates an existing
// Index — callers install the result via Index.Replace.
func (b *Builder) Build(ctx context.Context) (*ProjectIndex, error) {
	t0 := time.Now()
	files, err := discover.Discover(ctx, b.Root, b.Options)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	slog.Info("index.build.discovered", "files", len(files))

	results, err := b.extractAll(ctx, files)
	if err != nil {
		return nil, err
	}

	pi := assemble(b.Root, results, b.Options)
	slog.Info("index.build.done", "files", len(pi.Files), "symbols", len(pi.Symbols), "elapsed", time.Since(t0))
	return pi, nil
}

// Update performs the incremental re-index of spec §4.D: files whose
// content hash is unchanged since prev keep their existing FileRecord;
// only changed, added, or removed files are re-extracted, but the
// symbol table and both graphs are always rebuilt from the resulting
// full file set so they stay internally consistent (the spec's
// incremental-equivalence invariant — an incremental update must
// produce exactly the index a full rebuild would).
func (b *Builder) Update(ctx context.Context, prev *ProjectIndex) (*ProjectIndex, error) {
	t0 := time.Now()
	files, err := discover.Discover(ctx, b.Root, b.Options)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}

	var toExtract []discover.FileInfo
	reused := make(map[string]*fileResult, len(files))

	for _, f := range files {
		hash, hashErr := fileHash(f.AbsPath)
		if hashErr != nil {
			toExtract = append(toExtract, f)
			continue
		}
		if existing, ok := prev.Files[f.RelPath]; ok && existing.SHA256 == hash {
			reused[f.RelPath] = &fileResult{info: f, record: existing, hash: hash}
			continue
		}
		toExtract = append(toExtract, f)
	}

	slog.Info("index.update.classify", "reused", len(reused), "changed", len(toExtract), "total", len(files))

	extracted, err := b.extractAll(ctx, toExtract)
	if err != nil {
		return nil, err
	}

	all := make([]*fileResult, 0, len(files))
	for _, r := range extracted {
		all = append(all, r)
	}
	for _, r := range reused {
		all = append(all, r)
	}

	pi := assemble(b.Root, all, b.Options)
	slog.Info("index.update.done", "files", len(pi.Files), "symbols", len(pi.Symbols), "elapsed", time.Since(t0))
	return pi, nil
}

// extractAll runs the parallel ingestion stage: one goroutine per CPU
// reads and extracts each file. A per-file read or extract failure
// becomes a BuildWarning rather than aborting the build, per spec §7's
// recovery policy; only context cancellation aborts the whole pass.
func (b *Builder) extractAll(ctx context.Context, files []discover.FileInfo) ([]*fileResult, error) {
	results := make([]*fileResult, len(files))
	numWorkers := runtime.NumCPU()
	if numWorkers > len(files) && len(files) > 0 {
		numWorkers = len(files)
	}

	g, gctx := errgroup.WithContext(ctx)
	if numWorkers > 0 {
		g.SetLimit(numWorkers)
	}
	for i, f := range files {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			results[i] = extractOne(f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func extractOne(f discover.FileInfo) *fileResult {
	src, err := os.ReadFile(f.AbsPath)
	if err != nil {
		return &fileResult{info: f, readErr: err}
	}
	hash := hashBytes(src)
	record, warn := extract.Extract(f.RelPath, f.Language, src)
	record.SHA256 = hash
	return &fileResult{info: f, record: record, hash: hash, warning: warn}
}

// assemble runs passes 2-4 (symbol table, import graph, dependency
// graph) over a complete set of per-file results. opts carries the
// project's PySrcRoots/TSAliases overrides through to the import
// resolver; it may be nil.
func assemble(root string, results []*fileResult, opts *discover.Options) *ProjectIndex {
	pi := newProjectIndex(root)

	for _, r := range results {
		if r == nil {
			continue
		}
		if r.readErr != nil {
			slog.Warn("index.build.read_failed", "path", r.info.RelPath, "err", r.readErr)
			pi.Warnings = append(pi.Warnings, model.BuildWarning{
				Path: r.info.RelPath, Stage: "read", Message: r.readErr.Error(),
			})
			pi.Files[r.info.RelPath], _ = extract.Extract(r.info.RelPath, model.LangGeneric, nil)
			continue
		}
		if r.warning != nil {
			slog.Warn("index.build.parse_failed", "path", r.warning.Path, "err", r.warning.Message)
			pi.Warnings = append(pi.Warnings, model.BuildWarning{
				Path: r.warning.Path, Stage: r.warning.Stage, Message: r.warning.Message,
			})
		}
		pi.Files[r.info.RelPath] = r.record
	}

	buildSymbolTable(pi)
	mi := buildModuleIndex(pi.Files, opts)
	buildImportGraph(pi, mi)
	buildDependencyGraph(pi, mi)

	return pi
}

// buildSymbolTable populates Symbols from every file/function/class
// record, per spec §4.C pass 2. All definitions for a name are kept
// (no first-wins), per the REDESIGN FLAG.
func buildSymbolTable(pi *ProjectIndex) {
	for path, fr := range pi.Files {
		for _, fn := range fr.Functions {
			addSymbol(pi, fn.Name, path, symbolKindForFunc(fn), fn.Range.Start)
			if fn.QualifiedName != fn.Name {
				addSymbol(pi, fn.QualifiedName, path, symbolKindForFunc(fn), fn.Range.Start)
			}
		}
		for _, cls := range fr.Classes {
			addSymbol(pi, cls.Name, path, cls.Kind, cls.Range.Start)
			for _, m := range cls.Methods {
				addSymbol(pi, m.Name, path, model.KindMethod, m.Range.Start)
				addSymbol(pi, m.QualifiedName, path, model.KindMethod, m.Range.Start)
			}
		}
	}
}

func symbolKindForFunc(fn model.FunctionRecord) model.SymbolKind {
	if fn.IsMethod {
		return model.KindMethod
	}
	return model.KindFunction
}

func addSymbol(pi *ProjectIndex, name, path string, kind model.SymbolKind, line int) {
	if name == "" {
		return
	}
	loc := model.SymbolLocation{Path: path, Kind: kind, Line: line}
	for _, existing := range pi.Symbols[name] {
		if existing == loc {
			return
		}
	}
	pi.Symbols[name] = append(pi.Symbols[name], loc)
}

// buildImportGraph populates ImportsOut/ImportsIn from every file's
// import records, resolved against the project's own file set via mi.
// Imports that don't resolve to a project file (external packages)
// contribute no edge, per spec §3's "imports_out omits unresolved
// imports" rule.
func buildImportGraph(pi *ProjectIndex, mi *moduleIndex) {
	for path, fr := range pi.Files {
		for _, imp := range fr.Imports {
			target := mi.resolveImport(path, imp, fr.Language)
			if target == "" || target == path {
				continue
			}
			addEdge(pi.ImportsOut, path, target)
			addEdge(pi.ImportsIn, target, path)
		}
	}
}

// buildDependencyGraph populates DepsOut/DepsIn from each FileRecord's
// LocalRefs, resolving a bare reference against the file's own imports
// first, then the declaring file, then a project-wide unique match,
// per spec §4.C pass 4's (a)->(b)->(c) priority. Self-recursive edges
// are kept, per spec §9.
func buildDependencyGraph(pi *ProjectIndex, mi *moduleIndex) {
	for path, fr := range pi.Files {
		localQNames := qualifiedNamesIn(fr)
		for qname, refs := range fr.LocalRefs {
			for _, ref := range refs {
				for _, targetQName := range resolveRef(pi, mi, path, fr, localQNames, ref) {
					addEdge(pi.DepsOut, qname, targetQName)
					addEdge(pi.DepsIn, targetQName, qname)
				}
			}
		}
	}
}

// qualifiedNamesIn returns every qualified name declared in fr, keyed
// by bare name, for same-file reference resolution.
func qualifiedNamesIn(fr *model.FileRecord) map[string][]string {
	out := make(map[string][]string)
	for _, fn := range fr.Functions {
		out[fn.Name] = append(out[fn.Name], fn.QualifiedName)
	}
	for _, cls := range fr.Classes {
		for _, m := range cls.Methods {
			out[m.Name] = append(out[m.Name], m.QualifiedName)
		}
	}
	return out
}

// resolveRef resolves a bare reference name by (a) checking whether
// the declaring file imports ref (directly or via an aliased
// from-import) and, if so, targeting the symbol it names in the
// imported file; else (b) the declaring file's own symbols; else (c)
// the project-wide symbol table, when that project-wide name is
// unambiguous.
func resolveRef(pi *ProjectIndex, mi *moduleIndex, path string, fr *model.FileRecord, localQNames map[string][]string, ref string) []string {
	if qnames := resolveImportedRef(pi, mi, path, fr, ref); len(qnames) > 0 {
		return qnames
	}
	if qnames, ok := localQNames[ref]; ok {
		return qnames
	}
	locs := pi.Symbols[ref]
	if len(locs) != 1 {
		return nil
	}
	return []string{ref}
}

// resolveImportedRef implements pass 4 rule (a): ref is only a
// candidate if some from-import in fr binds it into local scope (bare
// `from X import ref`, or `from X import real as ref`); the import is
// then resolved to a project file via mi, and ref is matched against
// that file's own declared functions/classes/methods by bare name.
func resolveImportedRef(pi *ProjectIndex, mi *moduleIndex, path string, fr *model.FileRecord, ref string) []string {
	for _, imp := range fr.Imports {
		if !imp.IsFrom || !containsName(imp.Names, ref) {
			continue
		}
		target := mi.resolveImport(path, imp, fr.Language)
		if target == "" || target == path {
			continue
		}
		targetFr, ok := pi.Files[target]
		if !ok {
			continue
		}
		if qnames := symbolsNamedInFile(targetFr, ref); len(qnames) > 0 {
			return qnames
		}
	}
	return nil
}

// symbolsNamedInFile returns the qualified name(s) of every
// function, class, or method in fr whose bare name is name.
func symbolsNamedInFile(fr *model.FileRecord, name string) []string {
	var out []string
	for _, fn := range fr.Functions {
		if fn.Name == name {
			out = append(out, fn.QualifiedName)
		}
	}
	for _, cls := range fr.Classes {
		if cls.Name == name {
			out = append(out, cls.Name)
		}
		for _, m := range cls.Methods {
			if m.Name == name {
				out = append(out, m.QualifiedName)
			}
		}
	}
	return out
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func addEdge(graph map[string]map[string]bool, from, to string) {
	if graph[from] == nil {
		graph[from] = make(map[string]bool)
	}
	graph[from][to] = true
}

// fileHash and hashBytes must agree on identical content: the
// incremental classify stage hashes from disk (fileHash) while the
// extraction stage hashes the bytes it already has in memory
// (hashBytes), and the two are compared directly to decide reuse.
func fileHash(path string) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return hashBytes(src), nil
}

func hashBytes(b []byte) string {
	h := xxh3.Hash128(b)
	return hex.EncodeToString(h.Bytes())
}
