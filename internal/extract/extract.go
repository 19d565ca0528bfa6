package extract

import (
	"fmt"

	"github.com/kestrel-dev/structindex/internal/model"
)

// Warning is a non-fatal problem encountered while extracting one file,
// per spec §7's "extractor read error" / "extractor parse error" taxonomy.
type Warning struct {
	Path    string
	Stage   string // "read" | "parse"
	Message string
}

func (w Warning) Error() string {
	return fmt.Sprintf("%s: %s: %s", w.Path, w.Stage, w.Message)
}

// Extract dispatches to the per-language extractor for language and
// returns a FileRecord plus an optional non-fatal Warning. Extract
// never returns a nil FileRecord — a failure downgrades to the generic
// extractor's output so the build always has something to index,
// per §7's recovery policy.
func Extract(path string, language model.Language, src []byte) (*model.FileRecord, *Warning) {
	switch language {
	case model.LangPython:
		return extractPython(path, src)
	case model.LangJavaScript, model.LangTypeScript:
		return extractTSJS(path, language, src)
	case model.LangGo:
		return extractGo(path, src)
	case model.LangRust:
		return extractRust(path, src)
	case model.LangText:
		return extractText(path, src)
	default:
		return extractGeneric(path, src), nil
	}
}

// extractGeneric emits only total_lines, total_chars, and lines, per
// spec §4.B's generic extractor contract.
func extractGeneric(path string, src []byte) *model.FileRecord {
	lines := splitLines(src)
	return &model.FileRecord{
		Path:       path,
		Language:   model.LangGeneric,
		TotalLines: len(lines),
		TotalChars: len(src),
		Lines:      lines,
	}
}
