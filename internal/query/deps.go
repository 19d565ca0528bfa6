package query

import (
	"sort"

	"github.com/kestrel-dev/structindex/internal/index"
)

// symbolRefFor resolves a qualified name to a SymbolRef using the
// symbol table's own tie-break rule (smallest path, then smallest
// line), since deps_out/deps_in only carry bare qualified-name strings.
func symbolRefFor(pi *index.ProjectIndex, qname string) (SymbolRef, bool) {
	locs := pi.Symbols[qname]
	if len(locs) == 0 {
		return SymbolRef{}, false
	}
	best := locs[0]
	for _, loc := range locs[1:] {
		if loc.Path < best.Path || (loc.Path == best.Path && loc.Line < best.Line) {
			best = loc
		}
	}
	return SymbolRef{Name: qname, Path: best.Path, Line: best.Line}, true
}

func refsFromSet(pi *index.ProjectIndex, names map[string]bool) []SymbolRef {
	refs := make([]SymbolRef, 0, len(names))
	for name := range names {
		if ref, ok := symbolRefFor(pi, name); ok {
			refs = append(refs, ref)
		}
	}
	sortRefs(refs)
	return refs
}

func sortRefs(refs []SymbolRef) {
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Path != refs[j].Path {
			return refs[i].Path < refs[j].Path
		}
		if refs[i].Line != refs[j].Line {
			return refs[i].Line < refs[j].Line
		}
		return refs[i].Name < refs[j].Name
	})
}

// GetDependencies returns deps_out[symbol], sorted by (path, line).
func (e *Engine) GetDependencies(p GetDependenciesParams) DependencyResult {
	var res DependencyResult
	e.idx.View(func(pi *index.ProjectIndex) {
		refs := refsFromSet(pi, pi.DepsOut[p.Symbol])
		res.Total = len(refs)
		refs, res.Truncated = truncateRefs(refs, p.MaxResults)
		res.Refs = refs
	})
	return res
}

// GetDependents returns deps_in[symbol], sorted by (path, line).
func (e *Engine) GetDependents(p GetDependentsParams) DependencyResult {
	var res DependencyResult
	e.idx.View(func(pi *index.ProjectIndex) {
		refs := refsFromSet(pi, pi.DepsIn[p.Symbol])
		res.Total = len(refs)
		refs, res.Truncated = truncateRefs(refs, p.MaxResults)
		res.Refs = refs
	})
	return res
}

// GetChangeImpact computes direct dependents (deps_in[symbol]) and the
// transitive BFS closure over deps_in beyond the direct set, per spec
// §4.E. Ordering within each set is BFS order, ties broken by
// (path, line); the two sets are disjoint by construction.
func (e *Engine) GetChangeImpact(p GetChangeImpactParams) ImpactResult {
	var res ImpactResult
	e.idx.View(func(pi *index.ProjectIndex) {
		direct := sortedKeys(pi.DepsIn[p.Symbol])

		hop := map[string]int{p.Symbol: 0}
		var order []string
		queue := append([]string(nil), direct...)
		for _, d := range direct {
			hop[d] = 1
		}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			order = append(order, cur)
			next := sortedKeys(pi.DepsIn[cur])
			for _, n := range next {
				if _, seen := hop[n]; seen {
					continue
				}
				hop[n] = hop[cur] + 1
				queue = append(queue, n)
			}
		}

		directSet := make(map[string]bool, len(direct))
		for _, d := range direct {
			directSet[d] = true
		}

		var directRefs, transitiveRefs []SymbolRef
		for _, d := range direct {
			if ref, ok := symbolRefFor(pi, d); ok {
				directRefs = append(directRefs, ref)
			}
		}
		// order is BFS order, so hop counts never decrease along it.
		// Within a BFS hop there is no further distance ordering, so
		// ties are broken by (path, line) as spec §4.E requires: each
		// hop's run of refs is sorted on its own.
		segStart, segHop := 0, -1
		for _, n := range order {
			if directSet[n] {
				continue
			}
			if hop[n] != segHop {
				sortRefs(transitiveRefs[segStart:])
				segStart, segHop = len(transitiveRefs), hop[n]
			}
			if ref, ok := symbolRefFor(pi, n); ok {
				transitiveRefs = append(transitiveRefs, ref)
			}
		}
		sortRefs(transitiveRefs[segStart:])
		sortRefs(directRefs)

		res.Direct, res.DirectTruncated = truncateRefs(directRefs, p.MaxDirect)
		res.Transitive, res.TransitiveTruncated = truncateRefs(transitiveRefs, p.MaxTransitive)
	})
	return res
}

// GetCallChain finds the shortest path over deps_out from from to to
// via BFS. An absent path returns Found=false with no error, per spec
// §4.E ("no path -> an explicit empty/absent result, never an error").
func (e *Engine) GetCallChain(p GetCallChainParams) CallChainResult {
	var res CallChainResult
	e.idx.View(func(pi *index.ProjectIndex) {
		if p.From == p.To {
			res.Chain = []string{p.From}
			res.Found = true
			return
		}
		parent := map[string]string{p.From: ""}
		queue := []string{p.From}
		found := false
		for len(queue) > 0 && !found {
			cur := queue[0]
			queue = queue[1:]
			for _, n := range sortedKeys(pi.DepsOut[cur]) {
				if _, seen := parent[n]; seen {
					continue
				}
				parent[n] = cur
				if n == p.To {
					found = true
					break
				}
				queue = append(queue, n)
			}
		}
		if !found {
			return
		}
		var chain []string
		for node := p.To; node != ""; node = parent[node] {
			chain = append([]string{node}, chain...)
			if node == p.From {
				break
			}
		}
		res.Chain = chain
		res.Found = true
	})
	return res
}

// GetFileDependencies returns imports_out[path], sorted.
func (e *Engine) GetFileDependencies(p GetFileDependenciesParams) (FileRefResult, *Error) {
	var res FileRefResult
	var errOut *Error
	e.idx.View(func(pi *index.ProjectIndex) {
		if _, ok := pi.Files[p.Path]; !ok {
			errOut = invalidPath("no file at path %q", p.Path)
			return
		}
		paths := sortedKeys(pi.ImportsOut[p.Path])
		res.Total = len(paths)
		paths, res.Truncated = truncateStrings(paths, p.MaxResults)
		res.Paths = paths
	})
	if errOut != nil {
		return FileRefResult{}, errOut
	}
	return res, nil
}

// GetFileDependents returns imports_in[path], sorted.
func (e *Engine) GetFileDependents(p GetFileDependentsParams) (FileRefResult, *Error) {
	var res FileRefResult
	var errOut *Error
	e.idx.View(func(pi *index.ProjectIndex) {
		if _, ok := pi.Files[p.Path]; !ok {
			errOut = invalidPath("no file at path %q", p.Path)
			return
		}
		paths := sortedKeys(pi.ImportsIn[p.Path])
		res.Total = len(paths)
		paths, res.Truncated = truncateStrings(paths, p.MaxResults)
		res.Paths = paths
	})
	if errOut != nil {
		return FileRefResult{}, errOut
	}
	return res, nil
}
