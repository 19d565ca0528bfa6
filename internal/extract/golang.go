package extract

import (
	"regexp"
	"strings"

	"github.com/kestrel-dev/structindex/internal/model"
)

var (
	goFuncRe   = regexp.MustCompile(`(?m)^func\s+(?:\(\s*(\w+)\s+(\*?\w+)(?:\[[^\]]*\])?\s*\)\s*)?(\w+)\s*(?:\[[^\]]*\])?\s*\(`)
	goTypeRe   = regexp.MustCompile(`(?m)^type\s+(\w+)\s*(?:\[[^\]]*\])?\s+(struct|interface)\b\s*\{?`)
	goAliasRe  = regexp.MustCompile(`(?m)^type\s+(\w+)\s*=?\s*([^{\n]*)$`)
	goImportRe = regexp.MustCompile(`(?m)^import\s+(\(|(?:(\w+)\s+)?"([^"]+)")`)
	goImpSpecRe = regexp.MustCompile(`(?m)^\s*(?:(\w+|_|\.)\s+)?"([^"]+)"`)
)

// extractGo is the lexical/regex Go extractor of spec §4.B: it finds
// func/method declarations and type declarations, computes their
// LineRange by brace matching, and records imports.
func extractGo(path string, src []byte) (*model.FileRecord, *Warning) {
	lines := splitLines(src)
	nl := newlineOffsets(src)
	fr := &model.FileRecord{
		Path:       path,
		Language:   model.LangGo,
		TotalLines: len(lines),
		TotalChars: len(src),
		Lines:      lines,
	}

	extractGoFunctions(src, nl, fr)
	extractGoTypes(src, nl, fr)
	extractGoImports(src, nl, fr)
	collectGoLocalRefs(src, nl, fr)

	return fr, nil
}

func extractGoFunctions(src []byte, nl []int, fr *model.FileRecord) {
	for _, m := range goFuncRe.FindAllSubmatchIndex(src, -1) {
		openParen := m[1] - 1 // index of '(' that ends the matched prefix
		closeParen, ok := matchParen(src, openParen)
		if !ok {
			continue
		}
		params := parseGoParams(string(src[openParen+1 : closeParen]))

		name := string(src[m[6]:m[7]])
		var parent string
		isMethod := m[2] >= 0 && m[4] >= 0
		if isMethod {
			recvType := string(src[m[4]:m[5]])
			parent = strings.TrimPrefix(recvType, "*")
		}

		// find the opening brace of the function body, skipping an
		// optional return-type clause between ) and {.
		braceIdx := findNextBrace(src, closeParen+1)
		startLine := lineAt(nl, m[0])
		endLine := startLine
		if braceIdx >= 0 {
			if closeBrace, ok := matchBrace(src, braceIdx); ok {
				endLine = lineAt(nl, closeBrace)
			}
		}

		qname := name
		if isMethod {
			qname = parent + "." + name
		}

		fn := model.FunctionRecord{
			Name:          name,
			QualifiedName: qname,
			Range:         model.LineRange{Start: startLine, End: maxInt(endLine, startLine)},
			Params:        params,
			IsMethod:      isMethod,
			Parent:        orEmpty(isMethod, parent),
		}
		fr.Functions = append(fr.Functions, fn)
	}
}

func extractGoTypes(src []byte, nl []int, fr *model.FileRecord) {
	seen := make(map[int]bool) // line -> handled, to avoid double-counting alias vs struct/interface match
	for _, m := range goTypeRe.FindAllSubmatchIndex(src, -1) {
		name := string(src[m[2]:m[3]])
		kindWord := string(src[m[4]:m[5]])
		braceIdx := bytesIndexFrom(src, m[1]-1, '{')
		startLine := lineAt(nl, m[0])
		endLine := startLine
		if braceIdx >= 0 {
			if closeBrace, ok := matchBrace(src, braceIdx); ok {
				endLine = lineAt(nl, closeBrace)
			}
		}
		kind := model.SymbolKind("struct")
		if kindWord == "interface" {
			kind = model.KindInterface
		}
		fr.Classes = append(fr.Classes, model.ClassRecord{
			Name:  name,
			Range: model.LineRange{Start: startLine, End: maxInt(endLine, startLine)},
			Kind:  kind,
		})
		seen[startLine] = true
	}

	for _, m := range goAliasRe.FindAllSubmatchIndex(src, -1) {
		startLine := lineAt(nl, m[0])
		if seen[startLine] {
			continue
		}
		rest := strings.TrimSpace(string(src[m[4]:m[5]]))
		if rest == "" || strings.HasPrefix(rest, "struct") || strings.HasPrefix(rest, "interface") {
			continue
		}
		name := string(src[m[2]:m[3]])
		fr.Classes = append(fr.Classes, model.ClassRecord{
			Name:  name,
			Range: model.LineRange{Start: startLine, End: startLine},
			Kind:  model.KindTypeAlias,
		})
	}
}

func extractGoImports(src []byte, nl []int, fr *model.FileRecord) {
	for _, m := range goImportRe.FindAllSubmatchIndex(src, -1) {
		line := lineAt(nl, m[0])
		if src[m[2]] == '(' {
			// block form: import ( ... )
			openIdx := m[2]
			closeIdx, ok := matchParen(src, openIdx)
			if !ok {
				continue
			}
			block := src[openIdx+1 : closeIdx]
			blockStartLine := lineAt(nl, openIdx)
			for _, sm := range goImpSpecRe.FindAllSubmatchIndex(block, -1) {
				alias := ""
				if sm[2] >= 0 {
					alias = string(block[sm[2]:sm[3]])
				}
				path := string(block[sm[4]:sm[5]])
				specLine := blockStartLine + countNewlines(block[:sm[0]])
				fr.Imports = append(fr.Imports, goImportRecord(path, alias, specLine))
			}
			continue
		}
		// single-line form: import alias? "path"
		alias := ""
		if m[4] >= 0 {
			alias = string(src[m[4]:m[5]])
		}
		path := string(src[m[6]:m[7]])
		fr.Imports = append(fr.Imports, goImportRecord(path, alias, line))
	}
}

func goImportRecord(path, alias string, line int) model.ImportRecord {
	localName := lastSegment(path)
	if alias != "" && alias != "_" && alias != "." {
		localName = alias
	}
	names := []string{localName}
	if alias == "_" {
		names = nil
	}
	return model.ImportRecord{Module: path, Names: names, Alias: alias, Line: line, IsFrom: false}
}

func lastSegment(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}

// collectGoLocalRefs scans each function body for identifiers matching
// another declaration in the file or an imported name, per spec §4.B's
// lexical reference-scanning rule.
func collectGoLocalRefs(src []byte, nl []int, fr *model.FileRecord) {
	declared := declaredNames(fr)
	imported := importedNames(fr)

	for i := range fr.Functions {
		fn := &fr.Functions[i]
		start, end := byteRangeForLines(nl, src, fn.Range)
		for _, id := range identifiersIn(src, start, end) {
			if declared[id] || imported[id] {
				fr.AddLocalRef(fn.QualifiedName, id)
			}
		}
	}
}

// parseGoParams splits a raw parameter-list string into Parameters. It
// is shared across the Go, Rust, and TS/JS extractors: besides Go's
// "name Type" style it also recognizes the "name: Type" style used by
// Rust and TypeScript, stripping the ownership/visibility qualifiers
// (pub, private, mut, &, ...) those languages allow before a name.
func parseGoParams(raw string) []model.Parameter {
	parts := splitTopLevel(raw, ',')
	var params []model.Parameter
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		for _, kw := range []string{"pub ", "private ", "public ", "protected ", "readonly ", "mut ", "&mut ", "&"} {
			p = strings.TrimPrefix(p, kw)
		}
		if idx := strings.Index(p, ":"); idx >= 0 && !strings.ContainsAny(p[:idx], " \t") {
			params = append(params, model.Parameter{
				Name:       strings.TrimSpace(p[:idx]),
				Annotation: strings.TrimSpace(p[idx+1:]),
			})
			continue
		}
		fields := strings.Fields(p)
		name := ""
		annotation := p
		if len(fields) >= 2 && !strings.ContainsAny(fields[0], "*[.") {
			name = fields[0]
			annotation = strings.Join(fields[1:], " ")
		}
		params = append(params, model.Parameter{Name: name, Annotation: annotation})
	}
	return params
}

// --- small shared helpers used across the lexical extractors ---

// findNextBrace finds the '{' that opens a declaration's body, scanning
// forward from the closing paren of its parameter list across an
// optional return-type clause. Declarations with no body (forward
// declarations) return -1.
func findNextBrace(src []byte, from int) int {
	depth := 0
	for i := from; i < len(src); i++ {
		switch src[i] {
		case '(':
			depth++
		case ')':
			depth--
		case '{':
			if depth == 0 {
				return i
			}
		case ';':
			if depth == 0 {
				return -1
			}
		}
	}
	return -1
}

func bytesIndexFrom(src []byte, from int, b byte) int {
	for i := from; i < len(src); i++ {
		if src[i] == b {
			return i
		}
		if src[i] == '\n' {
			break
		}
	}
	return -1
}

func countNewlines(b []byte) int {
	n := 0
	for _, c := range b {
		if c == '\n' {
			n++
		}
	}
	return n
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func orEmpty(cond bool, s string) string {
	if cond {
		return s
	}
	return ""
}

// splitTopLevel splits s on sep, but only at paren/bracket/brace depth 0.
func splitTopLevel(s string, sep byte) []string {
	var out []string
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case sep:
			if depth == 0 {
				out = append(out, s[last:i])
				last = i + 1
			}
		}
	}
	out = append(out, s[last:])
	return out
}

func declaredNames(fr *model.FileRecord) map[string]bool {
	names := make(map[string]bool)
	for _, fn := range fr.Functions {
		names[fn.Name] = true
	}
	for _, cls := range fr.Classes {
		names[cls.Name] = true
		for _, m := range cls.Methods {
			names[m.Name] = true
		}
	}
	return names
}

func importedNames(fr *model.FileRecord) map[string]bool {
	names := make(map[string]bool)
	for _, imp := range fr.Imports {
		for _, n := range imp.Names {
			if n != "*" {
				names[n] = true
			}
		}
	}
	return names
}

// byteRangeForLines converts a 1-indexed inclusive LineRange into a
// [start,end) byte span over src, given src's precomputed newline
// offsets (see newlineOffsets).
func byteRangeForLines(nl []int, src []byte, r model.LineRange) (int, int) {
	startByte := 0
	if r.Start > 1 && r.Start-2 < len(nl) {
		startByte = nl[r.Start-2] + 1
	}
	endByte := len(src)
	if r.End >= 1 && r.End-1 < len(nl) {
		endByte = nl[r.End-1]
	}
	if startByte > endByte {
		endByte = startByte
	}
	return startByte, endByte
}
