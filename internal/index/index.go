// Package index builds and holds the in-memory ProjectIndex: the
// symbol table, import graph, and symbol dependency graph described in
// spec §3 and built by the four-pass builder of spec §4.C. The index is
// never persisted by this package — see internal/snapshot for the
// optional SQLite-backed cache.
package index

import (
	"sync"

	"github.com/kestrel-dev/structindex/internal/model"
)

// ProjectIndex is the complete in-memory structural index of one
// project. All fields are built by Builder.Build/Update and read by
// internal/query; callers must go through Index's RWMutex-guarded
// accessors rather than touching these fields directly from outside
// the package's own build/update code.
type ProjectIndex struct {
	Root string

	// Files maps a project-relative path to its FileRecord.
	Files map[string]*model.FileRecord

	// Symbols maps a bare or qualified name to every location where it
	// is declared, project-wide. Per the spec's REDESIGN FLAG, this
	// keeps ALL definitions — it never "first wins" on collision;
	// disambiguation happens at query time.
	Symbols map[string][]model.SymbolLocation

	// ImportsOut maps a file path to the file paths it imports (after
	// best-effort module-to-file resolution); ImportsIn is its
	// inverse. Entries that couldn't be resolved to a file in this
	// project are omitted, not nil-padded.
	ImportsOut map[string]map[string]bool
	ImportsIn  map[string]map[string]bool

	// DepsOut maps a function/method qualified name to the qualified
	// names it references; DepsIn is its inverse. Self-recursive edges
	// are included, per spec §9.
	DepsOut map[string]map[string]bool
	DepsIn  map[string]map[string]bool

	// Warnings accumulates non-fatal extraction/resolution problems
	// from the most recent build or incremental update.
	Warnings []model.BuildWarning
}

func newProjectIndex(root string) *ProjectIndex {
	return &ProjectIndex{
		Root:       root,
		Files:      make(map[string]*model.FileRecord),
		Symbols:    make(map[string][]model.SymbolLocation),
		ImportsOut: make(map[string]map[string]bool),
		ImportsIn:  make(map[string]map[string]bool),
		DepsOut:    make(map[string]map[string]bool),
		DepsIn:     make(map[string]map[string]bool),
	}
}

// Index wraps a ProjectIndex with the concurrency contract of spec §5:
// many concurrent readers, a single writer, and a pending-writer flag
// so a steady stream of readers cannot starve a writer waiting for the
// lock. Grounded on the teacher's FunctionRegistry
// (internal/pipeline/resolver.go), generalized from a single
// sync.RWMutex to additionally track pending writers.
type Index struct {
	mu             sync.RWMutex
	pendingWriters int32
	pendingMu      sync.Mutex
	cond           *sync.Cond
	current        *ProjectIndex
}

// New creates an empty Index rooted at root.
func New(root string) *Index {
	idx := &Index{current: newProjectIndex(root)}
	idx.cond = sync.NewCond(&idx.pendingMu)
	return idx
}

// View runs fn with a read lock held over the current ProjectIndex.
// fn must not retain the pointer passed to it beyond the call.
func (ix *Index) View(fn func(*ProjectIndex)) {
	ix.waitForNoPendingWriter()
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	fn(ix.current)
}

// Replace installs next as the current index, taking the write lock.
// Callers (query.Engine.Reindex and the cmd/structindex entrypoints)
// call this once Builder.Build or Builder.Update has finished
// constructing a new ProjectIndex off to the side, so readers never
// observe a partially built index.
func (ix *Index) Replace(next *ProjectIndex) {
	ix.pendingMu.Lock()
	ix.pendingWriters++
	ix.pendingMu.Unlock()

	ix.mu.Lock()
	ix.current = next
	ix.mu.Unlock()

	ix.pendingMu.Lock()
	ix.pendingWriters--
	ix.cond.Broadcast()
	ix.pendingMu.Unlock()
}

// waitForNoPendingWriter blocks new readers while a writer is queued,
// preventing a continuous stream of readers from starving Replace.
func (ix *Index) waitForNoPendingWriter() {
	ix.pendingMu.Lock()
	for ix.pendingWriters > 0 {
		ix.cond.Wait()
	}
	ix.pendingMu.Unlock()
}

// Snapshot returns the current ProjectIndex under a read lock. The
// returned pointer is safe to read concurrently with further Replace
// calls — Replace always installs a new value rather than mutating
// the one readers may be holding.
func (ix *Index) Snapshot() *ProjectIndex {
	ix.waitForNoPendingWriter()
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.current
}
