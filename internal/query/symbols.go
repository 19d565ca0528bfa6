package query

import (
	"github.com/kestrel-dev/structindex/internal/index"
	"github.com/kestrel-dev/structindex/internal/model"
)

// FindSymbol looks up every declaration of name across the project,
// tie-broken to a single Best location per spec §3: smallest path,
// then smallest line (an exact qualified-name match is already
// guaranteed by the lookup key itself, since symbols is keyed by the
// exact name string the caller supplied).
func (e *Engine) FindSymbol(p FindSymbolParams) FindSymbolResult {
	var res FindSymbolResult
	e.idx.View(func(pi *index.ProjectIndex) {
		locs := append([]model.SymbolLocation(nil), pi.Symbols[p.Name]...)
		sortLocations(locs)
		res.Matches = locs
		if len(locs) > 0 {
			best := locs[0]
			res.Best = &best
		}
	})
	return res
}

// findFunctionRecord locates the FunctionRecord backing a symbol
// location: either a top-level function or a method whose declared
// line matches, since a bare name can be shared by several
// declarations and the location pins down which one.
func findFunctionRecord(fr *model.FileRecord, name string, line int) (model.FunctionRecord, bool) {
	for _, fn := range fr.Functions {
		if (fn.Name == name || fn.QualifiedName == name) && fn.Range.Start == line {
			return fn, true
		}
	}
	for _, cls := range fr.Classes {
		for _, m := range cls.Methods {
			if (m.Name == name || m.QualifiedName == name) && m.Range.Start == line {
				return m, true
			}
		}
	}
	return model.FunctionRecord{}, false
}

func findClassRecord(fr *model.FileRecord, name string, line int) (model.ClassRecord, bool) {
	for _, cls := range fr.Classes {
		if cls.Name == name && cls.Range.Start == line {
			return cls, true
		}
	}
	return model.ClassRecord{}, false
}

var functionKinds = map[model.SymbolKind]bool{model.KindFunction: true, model.KindMethod: true}

var classKinds = map[model.SymbolKind]bool{
	model.KindClass: true, model.KindStruct: true, model.KindEnum: true,
	model.KindInterface: true, model.KindTrait: true,
}

// resolveLocation picks the symbol location to splice source from,
// restricted to locations of an acceptable kind (so a function and a
// class sharing a name never cross-resolve): if path is given, the
// first matching location at that path; otherwise the tie-broken
// smallest-path-then-line location, per spec §3.
func resolveLocation(pi *index.ProjectIndex, name, path string, acceptKind map[model.SymbolKind]bool) (model.SymbolLocation, bool) {
	var locs []model.SymbolLocation
	for _, loc := range pi.Symbols[name] {
		if acceptKind[loc.Kind] {
			locs = append(locs, loc)
		}
	}
	sortLocations(locs)
	if path != "" {
		for _, loc := range locs {
			if loc.Path == path {
				return loc, true
			}
		}
		return model.SymbolLocation{}, false
	}
	if len(locs) == 0 {
		return model.SymbolLocation{}, false
	}
	return locs[0], true
}

// GetFunctionSource resolves name (disambiguated by Path when given)
// and splices its declared line range out of the owning file's
// verbatim lines, truncated to MaxLines; the number of omitted lines
// is reported in TruncatedCount.
func (e *Engine) GetFunctionSource(p GetFunctionSourceParams) (SourceResult, *Error) {
	var res SourceResult
	var errOut *Error
	e.idx.View(func(pi *index.ProjectIndex) {
		loc, ok := resolveLocation(pi, p.Name, p.Path, functionKinds)
		if !ok {
			errOut = notFound("no function named %q", p.Name)
			return
		}
		fr, ok := pi.Files[loc.Path]
		if !ok {
			errOut = notFound("no function named %q", p.Name)
			return
		}
		fn, ok := findFunctionRecord(fr, p.Name, loc.Line)
		if !ok {
			errOut = notFound("no function named %q", p.Name)
			return
		}
		lines := sliceLines(fr, fn.Range)
		res = SourceResult{Name: p.Name, Path: loc.Path, Range: fn.Range}
		res.Lines, res.Truncated, res.TruncatedCount = truncateSource(lines, p.MaxLines)
	})
	if errOut != nil {
		return SourceResult{}, errOut
	}
	return res, nil
}

// GetClassSource resolves name (disambiguated by Path when given) and
// splices its declared line range, covering the whole class body
// including its methods.
func (e *Engine) GetClassSource(p GetClassSourceParams) (SourceResult, *Error) {
	var res SourceResult
	var errOut *Error
	e.idx.View(func(pi *index.ProjectIndex) {
		loc, ok := resolveLocation(pi, p.Name, p.Path, classKinds)
		if !ok {
			errOut = notFound("no class named %q", p.Name)
			return
		}
		fr, ok := pi.Files[loc.Path]
		if !ok {
			errOut = notFound("no class named %q", p.Name)
			return
		}
		cls, ok := findClassRecord(fr, p.Name, loc.Line)
		if !ok {
			errOut = notFound("no class named %q", p.Name)
			return
		}
		lines := sliceLines(fr, cls.Range)
		res = SourceResult{Name: p.Name, Path: loc.Path, Range: cls.Range}
		res.Lines, res.Truncated, res.TruncatedCount = truncateSource(lines, p.MaxLines)
	})
	if errOut != nil {
		return SourceResult{}, errOut
	}
	return res, nil
}

func sliceLines(fr *model.FileRecord, r model.LineRange) []string {
	start, end := r.Start-1, r.End
	if start < 0 {
		start = 0
	}
	if end > len(fr.Lines) {
		end = len(fr.Lines)
	}
	if start >= end {
		return nil
	}
	return fr.Lines[start:end]
}

// truncateSource caps lines to max. No marker line is appended, here
// or in the MCP adapter: truncation is reported only through the
// Truncated flag and the omitted-line count.
func truncateSource(lines []string, max int) ([]string, bool, int) {
	if max <= 0 || len(lines) <= max {
		return lines, false, 0
	}
	return lines[:max], true, len(lines) - max
}
