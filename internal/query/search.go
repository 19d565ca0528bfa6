package query

import (
	"regexp"
	"sort"

	"github.com/kestrel-dev/structindex/internal/index"
)

// SearchCodebase streams indexed files in sorted path order, compiling
// Regex once, and emits the first match per line (not all matches on a
// line) until MaxResults is reached — the only query permitted to
// short-circuit mid-scan, per spec §4.E.
func (e *Engine) SearchCodebase(p SearchCodebaseParams) (SearchResult, *Error) {
	re, err := regexp.Compile(p.Regex)
	if err != nil {
		return SearchResult{}, invalidRegex("%v", err)
	}

	var res SearchResult
	e.idx.View(func(pi *index.ProjectIndex) {
		paths := make([]string, 0, len(pi.Files))
		for path := range pi.Files {
			paths = append(paths, path)
		}
		sort.Strings(paths)

		for _, path := range paths {
			fr := pi.Files[path]
			for i, line := range fr.Lines {
				if !re.MatchString(line) {
					continue
				}
				res.Matches = append(res.Matches, SearchMatch{Path: path, Line: i + 1, Text: line})
				if p.MaxResults > 0 && len(res.Matches) >= p.MaxResults {
					res.Truncated = true
					return
				}
			}
		}
	})
	return res, nil
}
