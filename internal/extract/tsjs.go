package extract

import (
	"regexp"
	"strings"

	"github.com/kestrel-dev/structindex/internal/model"
)

var (
	tsFunctionRe = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:default\s+)?(async\s+)?function\s*\*?\s*(\w+)\s*(?:<[^(]*>)?\s*\(`)
	tsArrowRe    = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(const|let|var)\s+(\w+)\s*(?::[^=]+)?=\s*(async\s+)?\(`)
	tsClassRe    = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+(\w+)`)
	tsInterfaceRe = regexp.MustCompile(`(?m)^\s*(?:export\s+)?interface\s+(\w+)`)
	tsTypeRe     = regexp.MustCompile(`(?m)^\s*(?:export\s+)?type\s+(\w+)\s*(?:<[^=]*>)?\s*=`)
	tsMethodRe   = regexp.MustCompile(`(?m)^[ \t]*(?:static\s+)?(?:public\s+|private\s+|protected\s+)?(?:async\s+)?(?:get\s+|set\s+)?(\*?\s*[\w$]+)\s*\(([^)]*)\)\s*(?::[^{;]+)?\s*\{`)
	tsImportRe   = regexp.MustCompile(`(?m)^\s*import\s+(type\s+)?(.+?)\s+from\s+['"]([^'"]+)['"]`)
	tsImportBareRe = regexp.MustCompile(`(?m)^\s*import\s+['"]([^'"]+)['"]`)
	tsDynamicImportRe = regexp.MustCompile(`import\s*\(\s*['"]([^'"]+)['"]\s*\)`)
	tsExportBraceRe = regexp.MustCompile(`(?m)^\s*export\s*\{([^}]*)\}`)
)

func extractTSJS(path string, language model.Language, src []byte) (*model.FileRecord, *Warning) {
	lines := splitLines(src)
	nl := newlineOffsets(src)
	fr := &model.FileRecord{
		Path:       path,
		Language:   language,
		TotalLines: len(lines),
		TotalChars: len(src),
		Lines:      lines,
	}

	classRanges := extractTSClasses(src, nl, fr)
	extractTSFunctions(src, nl, fr, classRanges)
	extractTSArrows(src, nl, fr, classRanges)
	extractTSInterfacesAndTypes(src, nl, fr)
	extractTSImports(src, nl, fr)
	collectTSLocalRefs(src, nl, fr)

	return fr, nil
}

type byteSpan struct{ start, end int }

func extractTSClasses(src []byte, nl []int, fr *model.FileRecord) []byteSpan {
	var spans []byteSpan
	for _, m := range tsClassRe.FindAllSubmatchIndex(src, -1) {
		name := string(src[m[2]:m[3]])
		braceIdx := findNextBrace(src, m[1])
		if braceIdx < 0 {
			continue
		}
		closeBrace, ok := matchBrace(src, braceIdx)
		if !ok {
			continue
		}
		startLine := lineAt(nl, m[0])
		endLine := lineAt(nl, closeBrace)
		spans = append(spans, byteSpan{braceIdx, closeBrace})

		methods := extractTSMethods(src, nl, braceIdx, closeBrace, name)
		fr.Classes = append(fr.Classes, model.ClassRecord{
			Name:    name,
			Range:   model.LineRange{Start: startLine, End: maxInt(endLine, startLine)},
			Methods: methods,
			Kind:    model.KindClass,
		})
	}
	return spans
}

func extractTSMethods(src []byte, nl []int, bodyStart, bodyEnd int, className string) []model.FunctionRecord {
	var methods []model.FunctionRecord
	body := src[bodyStart:bodyEnd]
	for _, m := range tsMethodRe.FindAllSubmatchIndex(body, -1) {
		name := strings.TrimSpace(string(body[m[2]:m[3]]))
		name = strings.TrimPrefix(name, "*")
		if name == "" || name == "if" || name == "for" || name == "while" || name == "switch" || name == "catch" {
			continue
		}
		openBrace := bodyStart + m[1] - 1
		closeBrace, ok := matchBrace(src, openBrace)
		if !ok {
			continue
		}
		startLine := lineAt(nl, bodyStart+m[0])
		endLine := lineAt(nl, closeBrace)
		params := parseGoParams(string(body[m[4]:m[5]]))
		methods = append(methods, model.FunctionRecord{
			Name:          name,
			QualifiedName: className + "." + name,
			Range:         model.LineRange{Start: startLine, End: maxInt(endLine, startLine)},
			Params:        params,
			IsMethod:      true,
			Parent:        className,
		})
	}
	return methods
}

func extractTSFunctions(src []byte, nl []int, fr *model.FileRecord, classRanges []byteSpan) {
	for _, m := range tsFunctionRe.FindAllSubmatchIndex(src, -1) {
		if insideAny(classRanges, m[0]) {
			continue
		}
		name := string(src[m[4]:m[5]])
		openParen := m[1] - 1
		closeParen, ok := matchParen(src, openParen)
		if !ok {
			continue
		}
		braceIdx := findNextBrace(src, closeParen+1)
		startLine := lineAt(nl, m[0])
		endLine := startLine
		if braceIdx >= 0 {
			if closeBrace, ok := matchBrace(src, braceIdx); ok {
				endLine = lineAt(nl, closeBrace)
			}
		}
		params := parseGoParams(string(src[openParen+1 : closeParen]))
		mods := map[model.Modifier]bool{}
		if m[2] >= 0 {
			mods[model.ModAsync] = true
		}
		fr.Functions = append(fr.Functions, model.FunctionRecord{
			Name:          name,
			QualifiedName: name,
			Range:         model.LineRange{Start: startLine, End: maxInt(endLine, startLine)},
			Params:        params,
			Modifiers:     mods,
		})
	}
}

func extractTSArrows(src []byte, nl []int, fr *model.FileRecord, classRanges []byteSpan) {
	for _, m := range tsArrowRe.FindAllSubmatchIndex(src, -1) {
		if insideAny(classRanges, m[0]) {
			continue
		}
		name := string(src[m[4]:m[5]])
		openParen := m[1] - 1
		closeParen, ok := matchParen(src, openParen)
		if !ok {
			continue
		}
		startLine := lineAt(nl, m[0])
		endLine := startLine

		// look for '=>' then either a block '{' or an expression body
		arrowIdx := findArrow(src, closeParen+1)
		if arrowIdx < 0 {
			continue
		}
		bodyIdx := firstNonSpace(src, arrowIdx+2)
		if bodyIdx >= 0 && bodyIdx < len(src) && src[bodyIdx] == '{' {
			if closeBrace, ok := matchBrace(src, bodyIdx); ok {
				endLine = lineAt(nl, closeBrace)
			}
		} else {
			endLine = lineAt(nl, statementEnd(src, bodyIdx))
		}

		params := parseGoParams(string(src[openParen+1 : closeParen]))
		mods := map[model.Modifier]bool{}
		if m[6] >= 0 {
			mods[model.ModAsync] = true
		}
		if string(src[m[2]:m[3]]) == "const" {
			mods[model.ModConst] = true
		}
		fr.Functions = append(fr.Functions, model.FunctionRecord{
			Name:          name,
			QualifiedName: name,
			Range:         model.LineRange{Start: startLine, End: maxInt(endLine, startLine)},
			Params:        params,
			Modifiers:     mods,
		})
	}
}

func extractTSInterfacesAndTypes(src []byte, nl []int, fr *model.FileRecord) {
	for _, m := range tsInterfaceRe.FindAllSubmatchIndex(src, -1) {
		name := string(src[m[2]:m[3]])
		braceIdx := findNextBrace(src, m[1])
		startLine := lineAt(nl, m[0])
		endLine := startLine
		if braceIdx >= 0 {
			if closeBrace, ok := matchBrace(src, braceIdx); ok {
				endLine = lineAt(nl, closeBrace)
			}
		}
		fr.Classes = append(fr.Classes, model.ClassRecord{
			Name:  name,
			Range: model.LineRange{Start: startLine, End: maxInt(endLine, startLine)},
			Kind:  model.KindInterface,
		})
	}

	for _, m := range tsTypeRe.FindAllSubmatchIndex(src, -1) {
		name := string(src[m[2]:m[3]])
		startLine := lineAt(nl, m[0])
		endLine := startLine
		bodyIdx := firstNonSpace(src, m[1])
		if bodyIdx >= 0 && bodyIdx < len(src) && src[bodyIdx] == '{' {
			if closeBrace, ok := matchBrace(src, bodyIdx); ok {
				endLine = lineAt(nl, closeBrace)
			}
		} else {
			endLine = lineAt(nl, statementEnd(src, bodyIdx))
		}
		fr.Classes = append(fr.Classes, model.ClassRecord{
			Name:  name,
			Range: model.LineRange{Start: startLine, End: maxInt(endLine, startLine)},
			Kind:  model.KindTypeAlias,
		})
	}
}

func extractTSImports(src []byte, nl []int, fr *model.FileRecord) {
	for _, m := range tsImportRe.FindAllSubmatchIndex(src, -1) {
		line := lineAt(nl, m[0])
		clause := string(src[m[4]:m[5]])
		modulePath := string(src[m[6]:m[7]])
		names, alias := parseTSImportClause(clause)
		fr.Imports = append(fr.Imports, model.ImportRecord{
			Module: modulePath, Names: names, Alias: alias, Line: line, IsFrom: true,
		})
	}
	for _, m := range tsImportBareRe.FindAllSubmatchIndex(src, -1) {
		line := lineAt(nl, m[0])
		fr.Imports = append(fr.Imports, model.ImportRecord{
			Module: string(src[m[2]:m[3]]), Line: line, IsFrom: false,
		})
	}
	for _, m := range tsDynamicImportRe.FindAllSubmatchIndex(src, -1) {
		line := lineAt(nl, m[0])
		fr.Imports = append(fr.Imports, model.ImportRecord{
			Module: string(src[m[2]:m[3]]), Line: line, IsFrom: false,
		})
	}
}

// parseTSImportClause parses the clause between "import" and "from",
// e.g. "Default, { a, b as c }" or "* as ns" or "{ a, b }".
func parseTSImportClause(clause string) (names []string, alias string) {
	clause = strings.TrimSpace(clause)
	if idx := strings.Index(clause, "*"); idx >= 0 {
		rest := strings.TrimSpace(clause[idx+1:])
		rest = strings.TrimPrefix(rest, "as")
		alias = strings.TrimSpace(rest)
		if alias != "" {
			names = append(names, alias)
		}
		return names, alias
	}
	if start := strings.Index(clause, "{"); start >= 0 {
		defaultPart := strings.TrimSpace(clause[:start])
		defaultPart = strings.TrimSuffix(defaultPart, ",")
		if defaultPart != "" {
			names = append(names, defaultPart)
		}
		end := strings.Index(clause, "}")
		if end > start {
			inner := clause[start+1 : end]
			for _, part := range strings.Split(inner, ",") {
				part = strings.TrimSpace(part)
				if part == "" {
					continue
				}
				if as := strings.Index(part, " as "); as >= 0 {
					names = append(names, strings.TrimSpace(part[as+4:]))
				} else {
					names = append(names, part)
				}
			}
		}
		return names, alias
	}
	if clause != "" {
		names = append(names, clause)
	}
	return names, alias
}

func collectTSLocalRefs(src []byte, nl []int, fr *model.FileRecord) {
	declared := declaredNames(fr)
	imported := importedNames(fr)

	scan := func(qname string, r model.LineRange) {
		start, end := byteRangeForLines(nl, src, r)
		for _, id := range identifiersIn(src, start, end) {
			if declared[id] || imported[id] {
				fr.AddLocalRef(qname, id)
			}
		}
	}

	for _, fn := range fr.Functions {
		scan(fn.QualifiedName, fn.Range)
	}
	for _, cls := range fr.Classes {
		for _, m := range cls.Methods {
			scan(m.QualifiedName, m.Range)
		}
	}
}

func insideAny(spans []byteSpan, pos int) bool {
	for _, s := range spans {
		if pos > s.start && pos < s.end {
			return true
		}
	}
	return false
}

func findArrow(src []byte, from int) int {
	for i := from; i < len(src)-1; i++ {
		if src[i] == '=' && src[i+1] == '>' {
			return i
		}
		if src[i] == '\n' && i > from+500 {
			break
		}
	}
	return -1
}

func firstNonSpace(src []byte, from int) int {
	for i := from; i < len(src); i++ {
		if src[i] != ' ' && src[i] != '\t' && src[i] != '\n' && src[i] != '\r' {
			return i
		}
	}
	return -1
}

func statementEnd(src []byte, from int) int {
	if from < 0 {
		return from
	}
	for i := from; i < len(src); i++ {
		if src[i] == ';' || src[i] == '\n' {
			return i
		}
	}
	return len(src) - 1
}
