// Package snapshot implements the optional on-disk cache of spec
// SPEC_FULL.md Component F: a SQLite-backed, lazily-read,
// lazily-written acceleration layer that lets a process restart
// warm-start an index instead of re-running discovery and extraction
// from scratch. It never substitutes for the in-memory
// *index.ProjectIndex, which remains authoritative; this package only
// persists a point-in-time copy of it.
//
// Grounded directly on the teacher's internal/store/store.go: same
// modernc.org/sqlite driver, same WAL/busy-timeout pragma string, same
// CREATE TABLE IF NOT EXISTS schema style, generalized from the
// teacher's graph-node/edge tables to a project-keyed serialized index
// blob plus a per-file hash table, read back by FileHashes.
package snapshot

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kestrel-dev/structindex/internal/index"
	"github.com/kestrel-dev/structindex/internal/model"
)

// Store wraps a SQLite connection holding one project's cached index.
type Store struct {
	db     *sql.DB
	dbPath string
}

// cacheDir returns the default cache directory, mirroring the
// teacher's per-user cache location under the home directory.
func cacheDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	dir := filepath.Join(home, ".cache", "structindex")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir cache: %w", err)
	}
	return dir, nil
}

// hashRoot derives a filesystem-safe cache file name from a project
// root path, since two different roots must never collide.
func hashRoot(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	return fmt.Sprintf("%x", fnv32(abs))
}

func fnv32(s string) uint32 {
	const prime = 16777619
	h := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime
	}
	return h
}

// Open opens (creating if absent) the default cache database for root.
func Open(root string) (*Store, error) {
	dir, err := cacheDir()
	if err != nil {
		return nil, err
	}
	return OpenPath(filepath.Join(dir, hashRoot(root)+".db"))
}

// OpenPath opens a snapshot cache database at an explicit path,
// primarily for tests.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	s := &Store{db: db, dbPath: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init snapshot schema: %w", err)
	}
	return s, nil
}

// OpenMemory opens a private, non-shared in-memory database, used by
// tests that want schema coverage without touching the filesystem.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open snapshot memory db: %w", err)
	}
	s := &Store{db: db, dbPath: ":memory:"}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init snapshot schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS projects (
		root TEXT PRIMARY KEY,
		saved_at TEXT NOT NULL,
		data BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS file_hashes (
		root TEXT NOT NULL REFERENCES projects(root) ON DELETE CASCADE,
		rel_path TEXT NOT NULL,
		sha256 TEXT NOT NULL,
		PRIMARY KEY (root, rel_path)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// snapshotDoc is the JSON-serializable projection of a ProjectIndex.
// Sets are encoded as sorted slices so the blob is deterministic and
// diffable, matching spec §8's canonicalized-equality expectation.
type snapshotDoc struct {
	Root       string                         `json:"root"`
	Files      map[string]*model.FileRecord   `json:"files"`
	Symbols    map[string][]model.SymbolLocation `json:"symbols"`
	ImportsOut map[string][]string           `json:"imports_out"`
	DepsOut    map[string][]string           `json:"deps_out"`
	Warnings   []model.BuildWarning           `json:"warnings"`
}

func toDoc(pi *index.ProjectIndex) snapshotDoc {
	doc := snapshotDoc{
		Root:       pi.Root,
		Files:      pi.Files,
		Symbols:    pi.Symbols,
		ImportsOut: flatten(pi.ImportsOut),
		DepsOut:    flatten(pi.DepsOut),
		Warnings:   pi.Warnings,
	}
	return doc
}

func flatten(m map[string]map[string]bool) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, set := range m {
		vals := make([]string, 0, len(set))
		for v := range set {
			vals = append(vals, v)
		}
		sort.Strings(vals)
		out[k] = vals
	}
	return out
}

// Save persists pi as the snapshot for its root, replacing any prior
// snapshot for that root. Callers that want this off the critical
// path (per Component F's "never blocks query-engine operations")
// should invoke Save from a goroutine, e.g. via SaveAsync.
func (s *Store) Save(pi *index.ProjectIndex) error {
	doc := toDoc(pi)
	blob, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO projects(root, saved_at, data) VALUES (?, ?, ?)
		 ON CONFLICT(root) DO UPDATE SET saved_at=excluded.saved_at, data=excluded.data`,
		pi.Root, time.Now().UTC().Format(time.RFC3339), blob,
	); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM file_hashes WHERE root = ?`, pi.Root); err != nil {
		return fmt.Errorf("clear file hashes: %w", err)
	}
	for path, fr := range pi.Files {
		if fr.SHA256 == "" {
			continue
		}
		if _, err := tx.Exec(
			`INSERT INTO file_hashes(root, rel_path, sha256) VALUES (?, ?, ?)`,
			pi.Root, path, fr.SHA256,
		); err != nil {
			return fmt.Errorf("save file hash %s: %w", path, err)
		}
	}

	return tx.Commit()
}

// SaveAsync launches Save on a background goroutine and logs (rather
// than propagates) a failure, per Component F: "a failed snapshot
// write is logged at warn and never fails the update itself."
func (s *Store) SaveAsync(pi *index.ProjectIndex) {
	go func() {
		if err := s.Save(pi); err != nil {
			slog.Warn("snapshot.save.failed", "root", pi.Root, "err", err)
		}
	}()
}

// Load reads back the most recent snapshot for root, if any. The
// returned ProjectIndex's imports_in/deps_in inverses are rebuilt from
// imports_out/deps_out rather than serialized, since they are fully
// determined by the forward maps.
func (s *Store) Load(root string) (*index.ProjectIndex, bool, error) {
	var blob []byte
	err := s.db.QueryRow(`SELECT data FROM projects WHERE root = ?`, root).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load snapshot: %w", err)
	}

	var doc snapshotDoc
	if err := json.Unmarshal(blob, &doc); err != nil {
		return nil, false, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	pi := &index.ProjectIndex{
		Root:       doc.Root,
		Files:      doc.Files,
		Symbols:    doc.Symbols,
		ImportsOut: unflatten(doc.ImportsOut),
		ImportsIn:  make(map[string]map[string]bool),
		DepsOut:    unflatten(doc.DepsOut),
		DepsIn:     make(map[string]map[string]bool),
		Warnings:   doc.Warnings,
	}
	invert(pi.ImportsOut, pi.ImportsIn)
	invert(pi.DepsOut, pi.DepsIn)
	return pi, true, nil
}

func unflatten(m map[string][]string) map[string]map[string]bool {
	out := make(map[string]map[string]bool, len(m))
	for k, vals := range m {
		set := make(map[string]bool, len(vals))
		for _, v := range vals {
			set[v] = true
		}
		out[k] = set
	}
	return out
}

func invert(out, in map[string]map[string]bool) {
	for from, tos := range out {
		for to := range tos {
			if in[to] == nil {
				in[to] = make(map[string]bool)
			}
			in[to][from] = true
		}
	}
}

// FileHashes returns the rel_path -> sha256 table last saved for root.
// Builder.Update does not read it; it compares against the hashes on
// the previous in-memory index's FileRecords.
func (s *Store) FileHashes(root string) (map[string]string, error) {
	rows, err := s.db.Query(`SELECT rel_path, sha256 FROM file_hashes WHERE root = ?`, root)
	if err != nil {
		return nil, fmt.Errorf("query file hashes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, err
		}
		out[path] = hash
	}
	return out, rows.Err()
}
