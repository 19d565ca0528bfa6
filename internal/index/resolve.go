package index

import (
	"path/filepath"
	"strings"

	"github.com/kestrel-dev/structindex/internal/discover"
	"github.com/kestrel-dev/structindex/internal/model"
)

// defaultPySrcRoots and defaultTSAliases are the spec-default
// resolution tables, used whenever the caller's discover.Options
// leaves PySrcRoots/TSAliases unset.
var (
	defaultPySrcRoots = []string{"", "src/", "lib/"}
	defaultTSAliases  = map[string]string{"@/": "src/"}
)

// moduleIndex is a lookup table built once per build/update pass that
// lets resolveImport turn an import string into the project-relative
// file path it names, when that file is part of the discovered set.
type moduleIndex struct {
	// byStrippedPath maps a path with its extension (and a trailing
	// "/__init__" or "/index") stripped, slash-separated and
	// project-root-relative, to the original file path carrying it.
	// byDir maps each containing directory to the files in it, for
	// imports that resolve against directories (Go).
	byStrippedPath map[string]string
	byDir          map[string][]string

	// pySrcRoots and tsAliases carry the project's per-language
	// resolution configuration (spec §4.C pass 3), resolved once to
	// their defaults here so resolvePython/resolveJSLike never have to
	// re-check for an unset Options.
	pySrcRoots []string
	tsAliases  map[string]string
}

func buildModuleIndex(files map[string]*model.FileRecord, opts *discover.Options) *moduleIndex {
	mi := &moduleIndex{
		byStrippedPath: make(map[string]string),
		byDir:          make(map[string][]string),
		pySrcRoots:     defaultPySrcRoots,
		tsAliases:      defaultTSAliases,
	}
	if opts != nil {
		if len(opts.PySrcRoots) > 0 {
			mi.pySrcRoots = opts.PySrcRoots
		}
		if len(opts.TSAliases) > 0 {
			mi.tsAliases = opts.TSAliases
		}
	}
	for path := range files {
		slash := filepath.ToSlash(path)
		stripped := strings.TrimSuffix(slash, filepath.Ext(slash))
		stripped = strings.TrimSuffix(stripped, "/__init__")
		stripped = strings.TrimSuffix(stripped, "/index")
		mi.byStrippedPath[stripped] = path

		dir := filepath.Dir(slash)
		if dir == "." {
			dir = ""
		}
		mi.byDir[dir] = append(mi.byDir[dir], path)
	}
	return mi
}

// resolveImport returns the project-relative file path that imp most
// likely refers to, or "" if it can't be resolved within the
// discovered file set (most commonly because it names a third-party
// package outside the project).
func (mi *moduleIndex) resolveImport(fromPath string, imp model.ImportRecord, lang model.Language) string {
	switch lang {
	case model.LangPython:
		return mi.resolvePython(imp.Module)
	case model.LangJavaScript, model.LangTypeScript:
		return mi.resolveJSLike(fromPath, imp.Module)
	case model.LangGo:
		return mi.resolveGo(imp.Module)
	case model.LangRust:
		return mi.resolveRust(fromPath, imp.Module)
	default:
		return ""
	}
}

// resolvePython tries module against every configured source root in
// turn (e.g. "" then "src/" then "lib/"), per spec §4.C pass 3: a
// project that keeps its Python sources under "src/" still resolves
// "from pkg.util import helper" to "src/pkg/util.py".
func (mi *moduleIndex) resolvePython(module string) string {
	if module == "" {
		return ""
	}
	slash := strings.ReplaceAll(strings.TrimPrefix(module, "."), ".", "/")
	for _, root := range mi.pySrcRoots {
		candidate := strings.TrimSuffix(root, "/")
		if candidate != "" {
			candidate += "/" + slash
		} else {
			candidate = slash
		}
		if path, ok := mi.byStrippedPath[candidate]; ok {
			return path
		}
	}
	return ""
}

// resolveJSLike resolves a relative specifier against fromPath's
// directory, then falls back to the configured alias table (e.g.
// "@/" -> "src/") for a non-relative specifier, per spec §4.C pass 3.
func (mi *moduleIndex) resolveJSLike(fromPath, module string) string {
	if strings.HasPrefix(module, ".") {
		dir := filepath.ToSlash(filepath.Dir(fromPath))
		joined := filepath.ToSlash(filepath.Join(dir, module))
		if path, ok := mi.byStrippedPath[joined]; ok {
			return path
		}
		return ""
	}
	for prefix, expansion := range mi.tsAliases {
		if !strings.HasPrefix(module, prefix) {
			continue
		}
		rest := strings.TrimPrefix(module, prefix)
		candidate := filepath.ToSlash(filepath.Join(expansion, rest))
		if path, ok := mi.byStrippedPath[candidate]; ok {
			return path
		}
	}
	return "" // bare specifier: package from node_modules, not project-local
}

func (mi *moduleIndex) resolveGo(module string) string {
	// Go import paths are package-qualified, not file-qualified; match
	// the last path segment against a discovered directory's last
	// segment (the longest such directory wins),
	// since the module's own prefix (its module path) isn't known here.
	segs := strings.Split(module, "/")
	if len(segs) == 0 {
		return ""
	}
	last := segs[len(segs)-1]
	var bestDir string
	for dir := range mi.byDir {
		if dir == last || strings.HasSuffix(dir, "/"+last) {
			if bestDir == "" || len(dir) > len(bestDir) {
				bestDir = dir
			}
		}
	}
	if bestDir == "" {
		return ""
	}
	files := mi.byDir[bestDir]
	if len(files) == 0 {
		return ""
	}
	return files[0] // package-level edge: any file in the package stands for it
}

func (mi *moduleIndex) resolveRust(fromPath, module string) string {
	segs := strings.Split(module, "::")
	if len(segs) == 0 {
		return ""
	}
	switch segs[0] {
	case "crate":
		segs = segs[1:]
	case "self":
		dir := filepath.ToSlash(filepath.Dir(fromPath))
		segs = append(strings.Split(dir, "/"), segs[1:]...)
	case "super":
		dir := filepath.ToSlash(filepath.Dir(filepath.Dir(fromPath)))
		segs = append(strings.Split(dir, "/"), segs[1:]...)
	}
	if len(segs) == 0 {
		return ""
	}
	candidate := strings.Join(segs, "/")
	if path, ok := mi.byStrippedPath[candidate]; ok {
		return path
	}
	if path, ok := mi.byStrippedPath[candidate+"/mod"]; ok {
		return path
	}
	return ""
}
