package query

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/kestrel-dev/structindex/internal/index"
	"github.com/kestrel-dev/structindex/internal/model"
)

// Engine answers the 17 read-only queries of spec §4.E against a live
// *index.Index. It never mutates the index directly — reindex goes
// through idx.Replace via a Builder, same as any other writer.
type Engine struct {
	idx     *index.Index
	builder *index.Builder
}

// New creates an Engine over idx. builder is used only by Reindex; pass
// nil if the caller never calls Reindex through this Engine.
func New(idx *index.Index, builder *index.Builder) *Engine {
	return &Engine{idx: idx, builder: builder}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func truncateStrings(ss []string, max int) ([]string, bool) {
	if max <= 0 || len(ss) <= max {
		return ss, false
	}
	return ss[:max], true
}

func truncateRefs(refs []SymbolRef, max int) ([]SymbolRef, bool) {
	if max <= 0 || len(refs) <= max {
		return refs, false
	}
	return refs[:max], true
}

// sortLocations orders symbol locations by (path, line), the tie-break
// rule of spec §3 applied whenever a set of locations must be given a
// stable order.
func sortLocations(locs []model.SymbolLocation) {
	sort.Slice(locs, func(i, j int) bool {
		if locs[i].Path != locs[j].Path {
			return locs[i].Path < locs[j].Path
		}
		return locs[i].Line < locs[j].Line
	})
}

// GetProjectSummary projects file/symbol/edge counts across the index.
func (e *Engine) GetProjectSummary() ProjectSummaryResult {
	var res ProjectSummaryResult
	e.idx.View(func(pi *index.ProjectIndex) {
		res.Languages = make(map[model.Language]int)
		res.Files = len(pi.Files)
		res.Symbols = len(pi.Symbols)
		res.Warnings = len(pi.Warnings)
		for _, fr := range pi.Files {
			res.Languages[fr.Language]++
			res.Functions += len(fr.Functions)
			res.Classes += len(fr.Classes)
		}
		for _, tos := range pi.ImportsOut {
			res.ImportEdges += len(tos)
		}
		for _, tos := range pi.DepsOut {
			res.DepEdges += len(tos)
		}
	})
	return res
}

// ListFiles lists discovered project-relative paths, optionally
// filtered by a glob pattern matched against the path or its basename.
func (e *Engine) ListFiles(p ListFilesParams) ListFilesResult {
	var res ListFilesResult
	e.idx.View(func(pi *index.ProjectIndex) {
		var paths []string
		for path := range pi.Files {
			if p.Pattern == "" || matchGlob(p.Pattern, path) {
				paths = append(paths, path)
			}
		}
		sort.Strings(paths)
		res.Total = len(paths)
		paths, res.Truncated = truncateStrings(paths, p.MaxResults)
		res.Paths = paths
	})
	return res
}

// matchGlob matches pattern against either the full path or its
// basename, supporting a leading "**/" the way the teacher's
// search-file-collection helper does.
func matchGlob(pattern, path string) bool {
	if strings.Contains(pattern, "**") {
		parts := strings.SplitN(pattern, "**", 2)
		prefix := strings.TrimRight(parts[0], "/")
		suffix := strings.TrimLeft(parts[1], "/")
		if prefix != "" && !strings.HasPrefix(path, prefix) {
			return false
		}
		if suffix != "" {
			matched, _ := filepath.Match(suffix, filepath.Base(path))
			return matched
		}
		return true
	}
	if matched, _ := filepath.Match(pattern, path); matched {
		return true
	}
	matched, _ := filepath.Match(pattern, filepath.Base(path))
	return matched
}

// GetStructureSummary summarizes one file (if Path is set) or every
// file in the project, sorted by path.
func (e *Engine) GetStructureSummary(p GetStructureSummaryParams) (GetStructureSummaryResult, *Error) {
	var res GetStructureSummaryResult
	var notFoundErr *Error
	e.idx.View(func(pi *index.ProjectIndex) {
		if p.Path != "" {
			fr, ok := pi.Files[p.Path]
			if !ok {
				notFoundErr = notFound("no file at path %q", p.Path)
				return
			}
			res.Files = []FileStructure{fileStructure(p.Path, fr)}
			return
		}
		paths := make([]string, 0, len(pi.Files))
		for path := range pi.Files {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		for _, path := range paths {
			res.Files = append(res.Files, fileStructure(path, pi.Files[path]))
		}
	})
	if notFoundErr != nil {
		return GetStructureSummaryResult{}, notFoundErr
	}
	return res, nil
}

func fileStructure(path string, fr *model.FileRecord) FileStructure {
	return FileStructure{
		Path:          path,
		Language:      fr.Language,
		TotalLines:    fr.TotalLines,
		TotalChars:    fr.TotalChars,
		FunctionCount: len(fr.Functions),
		ClassCount:    len(fr.Classes),
		ImportCount:   len(fr.Imports),
		SectionCount:  len(fr.Sections),
	}
}

// GetFunctions lists top-level function declarations, optionally
// scoped to one file, sorted by (path, line).
func (e *Engine) GetFunctions(p GetFunctionsParams) (GetFunctionsResult, *Error) {
	var res GetFunctionsResult
	var errOut *Error
	e.idx.View(func(pi *index.ProjectIndex) {
		if p.Path != "" {
			if _, ok := pi.Files[p.Path]; !ok {
				errOut = notFound("no file at path %q", p.Path)
				return
			}
		}
		var refs []FunctionRef
		forEachFileInOrder(pi, p.Path, func(path string, fr *model.FileRecord) {
			for _, fn := range fr.Functions {
				refs = append(refs, FunctionRef{FunctionRecord: fn, Path: path})
			}
		})
		sortFunctionRefs(refs)
		res.Total = len(refs)
		refs, res.Truncated = truncateFunctionRefs(refs, p.MaxResults)
		res.Functions = refs
	})
	if errOut != nil {
		return GetFunctionsResult{}, errOut
	}
	return res, nil
}

// GetClasses lists class/struct/enum/interface/trait declarations,
// optionally scoped to one file, sorted by (path, line).
func (e *Engine) GetClasses(p GetClassesParams) (GetClassesResult, *Error) {
	var res GetClassesResult
	var errOut *Error
	e.idx.View(func(pi *index.ProjectIndex) {
		if p.Path != "" {
			if _, ok := pi.Files[p.Path]; !ok {
				errOut = notFound("no file at path %q", p.Path)
				return
			}
		}
		var refs []ClassRef
		forEachFileInOrder(pi, p.Path, func(path string, fr *model.FileRecord) {
			for _, cls := range fr.Classes {
				refs = append(refs, ClassRef{ClassRecord: cls, Path: path})
			}
		})
		sort.Slice(refs, func(i, j int) bool {
			if refs[i].Path != refs[j].Path {
				return refs[i].Path < refs[j].Path
			}
			return refs[i].Range.Start < refs[j].Range.Start
		})
		res.Total = len(refs)
		if p.MaxResults > 0 && len(refs) > p.MaxResults {
			refs, res.Truncated = refs[:p.MaxResults], true
		}
		res.Classes = refs
	})
	if errOut != nil {
		return GetClassesResult{}, errOut
	}
	return res, nil
}

// GetImports lists import records, optionally scoped to one file,
// sorted by (path, line).
func (e *Engine) GetImports(p GetImportsParams) (GetImportsResult, *Error) {
	var res GetImportsResult
	var errOut *Error
	e.idx.View(func(pi *index.ProjectIndex) {
		if p.Path != "" {
			if _, ok := pi.Files[p.Path]; !ok {
				errOut = notFound("no file at path %q", p.Path)
				return
			}
		}
		var refs []ImportRef
		forEachFileInOrder(pi, p.Path, func(path string, fr *model.FileRecord) {
			for _, imp := range fr.Imports {
				refs = append(refs, ImportRef{ImportRecord: imp, Path: path})
			}
		})
		sort.Slice(refs, func(i, j int) bool {
			if refs[i].Path != refs[j].Path {
				return refs[i].Path < refs[j].Path
			}
			return refs[i].Line < refs[j].Line
		})
		res.Total = len(refs)
		if p.MaxResults > 0 && len(refs) > p.MaxResults {
			refs, res.Truncated = refs[:p.MaxResults], true
		}
		res.Imports = refs
	})
	if errOut != nil {
		return GetImportsResult{}, errOut
	}
	return res, nil
}

func forEachFileInOrder(pi *index.ProjectIndex, onlyPath string, fn func(path string, fr *model.FileRecord)) {
	if onlyPath != "" {
		if fr, ok := pi.Files[onlyPath]; ok {
			fn(onlyPath, fr)
		}
		return
	}
	paths := make([]string, 0, len(pi.Files))
	for path := range pi.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		fn(path, pi.Files[path])
	}
}

func sortFunctionRefs(refs []FunctionRef) {
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Path != refs[j].Path {
			return refs[i].Path < refs[j].Path
		}
		return refs[i].Range.Start < refs[j].Range.Start
	})
}

func truncateFunctionRefs(refs []FunctionRef, max int) ([]FunctionRef, bool) {
	if max <= 0 || len(refs) <= max {
		return refs, false
	}
	return refs[:max], true
}

// GetLines splices a 1-indexed, inclusive line range out of one file's
// verbatim content.
func (e *Engine) GetLines(p GetLinesParams) (GetLinesResult, *Error) {
	var res GetLinesResult
	var errOut *Error
	e.idx.View(func(pi *index.ProjectIndex) {
		fr, ok := pi.Files[p.Path]
		if !ok {
			errOut = invalidPath("no file at path %q", p.Path)
			return
		}
		if p.Start < 1 || p.Start > p.End || p.End > fr.TotalLines {
			errOut = outOfRange("requested %d-%d outside 1-%d", p.Start, p.End, fr.TotalLines)
			return
		}
		res = GetLinesResult{
			Path:  p.Path,
			Start: p.Start,
			End:   p.End,
			Lines: append([]string(nil), fr.Lines[p.Start-1:p.End]...),
		}
	})
	if errOut != nil {
		return GetLinesResult{}, errOut
	}
	return res, nil
}
