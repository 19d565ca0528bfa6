// Package discover walks a project root, classifies each file by
// language, and filters out build/cache noise, oversized files, and
// binaries, per spec §4.A. It never reads file content beyond the
// small prefix needed for binary sniffing.
package discover

import (
	"bufio"
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kestrel-dev/structindex/internal/lang"
	"github.com/kestrel-dev/structindex/internal/model"
)

// DefaultMaxFileSize is the per-file size cap (512 KiB) beyond which a
// file is skipped entirely, per spec §4.A.
const DefaultMaxFileSize = 512 * 1024

// sniffWindow is how many leading bytes are read to decide if a file is
// binary (a NUL byte anywhere in the window marks it binary).
const sniffWindow = 8 * 1024

// defaultExcludeDirs are directory names skipped during the walk,
// matching spec §4.A's named set plus the common aliases the teacher's
// own ignore table carries.
var defaultExcludeDirs = map[string]bool{
	"__pycache__": true, "node_modules": true, ".git": true,
	".venv": true, "venv": true, "target": true, "dist": true,
	"build": true, ".hg": true, ".svn": true, ".tox": true,
	".mypy_cache": true, ".pytest_cache": true, ".idea": true,
	".vscode": true, "vendor": true, "bin": true, "obj": true,
	"coverage": true, ".nyc_output": true, ".cache": true,
}

// FileInfo is one discovered, classified source file.
type FileInfo struct {
	AbsPath  string
	RelPath  string // project-relative, forward-slash normalized
	Language model.Language
}

// Options configures a Discover call. The zero value uses spec defaults.
// PySrcRoots and TSAliases are not consulted by Discover itself — they
// ride along on Options purely so a single value, built once by
// config.Config.DiscoverOptions, carries every per-project override
// from the caller down to the index builder's import-resolution pass.
type Options struct {
	Include     []string // glob patterns; nil admits every file (unknown extensions classify as generic)
	Exclude     []string // extra glob patterns, on top of defaultExcludeDirs
	MaxFileSize int64    // 0 means DefaultMaxFileSize

	// PySrcRoots are the source-root prefixes tried in order when
	// resolving a Python import to a project file (e.g. "", "src/",
	// "lib/"). Empty means the spec defaults.
	PySrcRoots []string

	// TSAliases maps a TypeScript/JavaScript non-relative import prefix
	// (e.g. "@/") to the path it expands to (e.g. "src/"). Empty means
	// the spec default of {"@/": "src/"}.
	TSAliases map[string]string
}

func (o *Options) maxFileSize() int64 {
	if o == nil || o.MaxFileSize <= 0 {
		return DefaultMaxFileSize
	}
	return o.MaxFileSize
}

// Discover walks root and returns every file that passes the include/
// exclude filters, the size cap, and binary sniffing. Files too large
// or binary are silently omitted; a file that fails to open while
// being sniffed is kept, and the build's own read of it records the
// warning, per §7. Discovery itself fails only when root cannot be
// walked or the context is cancelled.
func Discover(ctx context.Context, root string, opts *Options) ([]FileInfo, error) {
	start := time.Now()
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []FileInfo
	maxSize := opts.maxFileSize()

	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == absRoot {
				return walkErr
			}
			slog.Warn("discover.walk_error", "path", path, "err", walkErr)
			return filepath.SkipDir
		}

		rel, relErr := filepath.Rel(absRoot, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if path != absRoot && shouldSkipDir(info.Name(), rel, opts) {
				return filepath.SkipDir
			}
			return nil
		}

		if !matchesInclude(rel, opts) || matchesExclude(rel, opts) {
			return nil
		}

		if info.Size() > maxSize {
			slog.Debug("discover.skip_large", "path", rel, "size", info.Size())
			return nil
		}

		if looksBinary(path) {
			slog.Debug("discover.skip_binary", "path", rel)
			return nil
		}

		language := classify(rel)
		out = append(out, FileInfo{AbsPath: path, RelPath: rel, Language: language})
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("discover.done", "files", len(out), "elapsed_ms", time.Since(start).Milliseconds())
	return out, nil
}

// classify returns the language bound to rel's extension, or
// model.LangGeneric when no dedicated extractor exists — spec §4.A:
// "unknown extensions bind to the generic extractor".
func classify(rel string) model.Language {
	ext := strings.ToLower(filepath.Ext(rel))
	if l, ok := lang.ForExtension(ext); ok {
		return l
	}
	return model.LangGeneric
}

func shouldSkipDir(name, rel string, opts *Options) bool {
	if defaultExcludeDirs[name] {
		return true
	}
	if opts == nil {
		return false
	}
	for _, pattern := range opts.Exclude {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

func matchesInclude(rel string, opts *Options) bool {
	if opts == nil || len(opts.Include) == 0 {
		return true // default include covers every extension at classify time
	}
	for _, pattern := range opts.Include {
		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, filepath.Base(rel)); matched {
			return true
		}
	}
	return false
}

func matchesExclude(rel string, opts *Options) bool {
	if opts == nil {
		return false
	}
	for _, pattern := range opts.Exclude {
		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, filepath.Base(rel)); matched {
			return true
		}
	}
	return false
}

// looksBinary reads up to sniffWindow bytes and reports whether a NUL
// byte appears, per spec §4.A's binary-sniffing rule. Read failures are
// treated as "not binary" — the generic extractor will hit the same
// read error and record a warning.
func looksBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, sniffWindow)
	r := bufio.NewReader(f)
	n, _ := r.Read(buf)
	return bytes.IndexByte(buf[:n], 0) >= 0
}
