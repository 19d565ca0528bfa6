package extract

import (
	"regexp"
	"strings"

	"github.com/kestrel-dev/structindex/internal/model"
)

var (
	mdHeadingRe   = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*\s*$`)
	orderedSecRe  = regexp.MustCompile(`^(\d+(?:\.\d+)*)\.?\s+(.+)$`)
	allCapsRe     = regexp.MustCompile(`^[A-Z][A-Z0-9 _\-/,:']{2,}$`)
	underlineEqRe = regexp.MustCompile(`^=+\s*$`)
	underlineDashRe = regexp.MustCompile(`^-+\s*$`)
)

// extractText detects headings in .md/.txt/.rst files by the three
// rules of spec §4.B and spans each section up to (but not including)
// the next heading of equal-or-higher level, or EOF.
func extractText(path string, src []byte) (*model.FileRecord, *Warning) {
	lines := splitLines(src)

	type heading struct {
		title string
		level int
		line  int // 1-indexed
	}
	var headings []heading

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimRight(line, " \t")
		if trimmed == "" {
			continue
		}

		if m := mdHeadingRe.FindStringSubmatch(trimmed); m != nil {
			headings = append(headings, heading{title: m[2], level: len(m[1]), line: i + 1})
			continue
		}

		// Underline style: current line is the title, next line is all '=' or '-'.
		if i+1 < len(lines) {
			next := strings.TrimRight(lines[i+1], " \t")
			if underlineEqRe.MatchString(next) && next != "" {
				headings = append(headings, heading{title: trimmed, level: 1, line: i + 1})
				i++ // consume the underline
				continue
			}
			if underlineDashRe.MatchString(next) && next != "" {
				headings = append(headings, heading{title: trimmed, level: 2, line: i + 1})
				i++
				continue
			}
		}

		if m := orderedSecRe.FindStringSubmatch(trimmed); m != nil {
			level := strings.Count(m[1], ".") + 1
			headings = append(headings, heading{title: m[2], level: level, line: i + 1})
			continue
		}

		if allCapsRe.MatchString(trimmed) {
			headings = append(headings, heading{title: trimmed, level: 1, line: i + 1})
			continue
		}
	}

	sections := make([]model.SectionRecord, 0, len(headings))
	for idx, h := range headings {
		end := len(lines)
		for j := idx + 1; j < len(headings); j++ {
			if headings[j].level <= h.level {
				end = headings[j].line - 1
				break
			}
		}
		if end < h.line {
			end = h.line
		}
		sections = append(sections, model.SectionRecord{
			Title: h.title,
			Level: h.level,
			Range: model.LineRange{Start: h.line, End: end},
		})
	}

	return &model.FileRecord{
		Path:       path,
		Language:   model.LangText,
		TotalLines: len(lines),
		TotalChars: len(src),
		Lines:      lines,
		Sections:   sections,
	}, nil
}
