// Package lang holds the static table that maps file extensions to the
// model.Language the discovery and extraction layers use to pick an
// extractor. It mirrors the teacher's extension-keyed registry but
// drops the tree-sitter node-type tables that only the Python extractor
// still needs (those live next to the extractor itself, in
// internal/extract).
package lang

import "github.com/kestrel-dev/structindex/internal/model"

// registry maps a lowercase file extension (including the leading dot)
// to the language it is extracted as.
var registry = map[string]model.Language{
	".py":  model.LangPython,
	".pyi": model.LangPython,

	".js":  model.LangJavaScript,
	".jsx": model.LangJavaScript,
	".mjs": model.LangJavaScript,
	".cjs": model.LangJavaScript,
	".ts":  model.LangTypeScript,
	".tsx": model.LangTypeScript,

	".go": model.LangGo,

	".rs": model.LangRust,

	".md":  model.LangText,
	".txt": model.LangText,
	".rst": model.LangText,
}

// ForExtension returns the language bound to ext (which must include the
// leading dot) and whether a dedicated extractor exists for it. Unknown
// extensions bind to the generic extractor at the call site, not here.
func ForExtension(ext string) (model.Language, bool) {
	l, ok := registry[ext]
	return l, ok
}

// Extensions returns every extension this module has a dedicated
// extractor for, in no particular order.
func Extensions() []string {
	exts := make([]string, 0, len(registry))
	for ext := range registry {
		exts = append(exts, ext)
	}
	return exts
}
