package extract

import (
	"regexp"
	"strings"

	"github.com/kestrel-dev/structindex/internal/model"
)

var (
	rustFnRe = regexp.MustCompile(
		`(?m)^\s*(?:(pub(?:\([^)]*\))?)\s+)?(?:(async)\s+)?(?:(const)\s+)?(?:(unsafe)\s+)?fn\s+(\w+)\s*(?:<[^(]*>)?\s*\(`)
	rustStructRe = regexp.MustCompile(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?struct\s+(\w+)`)
	rustEnumRe   = regexp.MustCompile(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?enum\s+(\w+)`)
	rustTraitRe  = regexp.MustCompile(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?(?:unsafe\s+)?trait\s+(\w+)`)
	rustImplRe   = regexp.MustCompile(`(?m)^\s*impl\s*(?:<[^>]*>)?\s*(?:(\w+)\s+for\s+)?(\w+)(?:<[^{]*>)?\s*(?:where[^{]*)?\{`)
	rustUseRe    = regexp.MustCompile(`(?m)^\s*(?:pub\s+)?use\s+([^;]+);`)
	rustMacroRe  = regexp.MustCompile(`(?m)^\s*macro_rules!\s*(\w+)\s*\{`)
)

// extractRust is the lexical/regex Rust extractor of spec §4.B: fn,
// pub/async/const/unsafe modifiers, struct/enum/trait declarations,
// impl blocks (whose methods are attributed to the implementing type),
// use statements, and macro_rules! definitions.
func extractRust(path string, src []byte) (*model.FileRecord, *Warning) {
	lines := splitLines(src)
	nl := newlineOffsets(src)
	fr := &model.FileRecord{
		Path:       path,
		Language:   model.LangRust,
		TotalLines: len(lines),
		TotalChars: len(src),
		Lines:      lines,
	}

	implSpans := extractRustImpls(src, nl, fr)
	extractRustFreeFunctions(src, nl, fr, implSpans)
	extractRustTypes(src, nl, fr)
	extractRustUses(src, nl, fr)
	extractRustMacros(src, nl, fr)
	collectRustLocalRefs(src, nl, fr)

	return fr, nil
}

func extractRustImpls(src []byte, nl []int, fr *model.FileRecord) []byteSpan {
	var spans []byteSpan
	for _, m := range rustImplRe.FindAllSubmatchIndex(src, -1) {
		typeName := string(src[m[4]:m[5]])
		openBrace := m[1] - 1
		closeBrace, ok := matchBrace(src, openBrace)
		if !ok {
			continue
		}
		spans = append(spans, byteSpan{openBrace, closeBrace})

		methods := extractRustFnsIn(src, nl, openBrace, closeBrace, typeName)
		fr.Classes = append(fr.Classes, model.ClassRecord{
			Name:    typeName,
			Range:   model.LineRange{Start: lineAt(nl, m[0]), End: maxInt(lineAt(nl, closeBrace), lineAt(nl, m[0]))},
			Methods: methods,
			Kind:    model.KindStruct,
		})
	}
	return spans
}

func extractRustFnsIn(src []byte, nl []int, bodyStart, bodyEnd int, typeName string) []model.FunctionRecord {
	var out []model.FunctionRecord
	body := src[bodyStart:bodyEnd]
	for _, m := range rustFnRe.FindAllSubmatchIndex(body, -1) {
		fn := buildRustFn(src, nl, bodyStart, m, typeName)
		out = append(out, fn)
	}
	return out
}

func extractRustFreeFunctions(src []byte, nl []int, fr *model.FileRecord, implSpans []byteSpan) {
	for _, m := range rustFnRe.FindAllSubmatchIndex(src, -1) {
		if insideAny(implSpans, m[0]) {
			continue
		}
		fn := buildRustFn(src, nl, 0, m, "")
		fr.Functions = append(fr.Functions, fn)
	}
}

// buildRustFn builds a FunctionRecord from a rustFnRe match. base is the
// byte offset m's indices are relative to (0 for file-level scans, the
// impl body's start offset for method scans).
func buildRustFn(src []byte, nl []int, base int, m []int, parent string) model.FunctionRecord {
	name := string(src[base+m[10] : base+m[11]])
	openParen := base + m[1] - 1
	closeParen, ok := matchParen(src, openParen)
	startLine := lineAt(nl, base+m[0])
	endLine := startLine
	var params []model.Parameter
	if ok {
		params = parseGoParams(string(src[openParen+1 : closeParen]))
		braceIdx := findNextBrace(src, closeParen+1)
		if braceIdx >= 0 {
			if closeBrace, ok := matchBrace(src, braceIdx); ok {
				endLine = lineAt(nl, closeBrace)
			}
		}
	}

	mods := map[model.Modifier]bool{}
	if m[2] >= 0 {
		mods[model.ModPub] = true
	}
	if m[4] >= 0 {
		mods[model.ModAsync] = true
	}
	if m[6] >= 0 {
		mods[model.ModConst] = true
	}
	if m[8] >= 0 {
		mods[model.ModUnsafe] = true
	}

	qname := name
	isMethod := parent != ""
	if isMethod {
		qname = parent + "." + name
	}
	return model.FunctionRecord{
		Name:          name,
		QualifiedName: qname,
		Range:         model.LineRange{Start: startLine, End: maxInt(endLine, startLine)},
		Params:        params,
		IsMethod:      isMethod,
		Parent:        parent,
		Modifiers:     mods,
	}
}

func extractRustTypes(src []byte, nl []int, fr *model.FileRecord) {
	for _, m := range rustStructRe.FindAllSubmatchIndex(src, -1) {
		name := string(src[m[2]:m[3]])
		fr.Classes = append(fr.Classes, rustTypeRecord(src, nl, m, name, model.KindStruct))
	}
	for _, m := range rustEnumRe.FindAllSubmatchIndex(src, -1) {
		name := string(src[m[2]:m[3]])
		fr.Classes = append(fr.Classes, rustTypeRecord(src, nl, m, name, model.KindEnum))
	}
	for _, m := range rustTraitRe.FindAllSubmatchIndex(src, -1) {
		name := string(src[m[2]:m[3]])
		fr.Classes = append(fr.Classes, rustTypeRecord(src, nl, m, name, model.KindTrait))
	}
}

func rustTypeRecord(src []byte, nl []int, m []int, name string, kind model.SymbolKind) model.ClassRecord {
	startLine := lineAt(nl, m[0])
	endLine := startLine
	braceIdx := bytesIndexFrom(src, m[1]-1, '{')
	if braceIdx >= 0 {
		if closeBrace, ok := matchBrace(src, braceIdx); ok {
			endLine = lineAt(nl, closeBrace)
		}
	} else if semiIdx := bytesIndexFrom(src, m[1]-1, ';'); semiIdx >= 0 {
		endLine = lineAt(nl, semiIdx)
	}
	return model.ClassRecord{
		Name:  name,
		Range: model.LineRange{Start: startLine, End: maxInt(endLine, startLine)},
		Kind:  kind,
	}
}

func extractRustUses(src []byte, nl []int, fr *model.FileRecord) {
	for _, m := range rustUseRe.FindAllSubmatchIndex(src, -1) {
		line := lineAt(nl, m[0])
		clause := strings.TrimSpace(string(src[m[2]:m[3]]))
		module, names, alias := parseRustUseClause(clause)
		fr.Imports = append(fr.Imports, model.ImportRecord{
			Module: module, Names: names, Alias: alias, Line: line, IsFrom: true,
		})
	}
}

// parseRustUseClause handles "a::b::c", "a::b::{c, d as e}", "a::b::*",
// and "a::b as c".
func parseRustUseClause(clause string) (module string, names []string, alias string) {
	if idx := strings.LastIndex(clause, "::"); idx >= 0 {
		module = clause[:idx]
		tail := clause[idx+2:]
		switch {
		case tail == "*":
			names = []string{"*"}
		case strings.HasPrefix(tail, "{"):
			inner := strings.TrimSuffix(strings.TrimPrefix(tail, "{"), "}")
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
		default:
			if as := strings.Index(tail, " as "); as >= 0 {
				alias = strings.TrimSpace(tail[as+4:])
				names = []string{alias}
			} else {
				names = []string{strings.TrimSpace(tail)}
			}
		}
		return module, names, alias
	}
	return clause, []string{clause}, ""
}

func extractRustMacros(src []byte, nl []int, fr *model.FileRecord) {
	for _, m := range rustMacroRe.FindAllSubmatchIndex(src, -1) {
		name := string(src[m[2]:m[3]])
		openBrace := m[1] - 1
		startLine := lineAt(nl, m[0])
		endLine := startLine
		if closeBrace, ok := matchBrace(src, openBrace); ok {
			endLine = lineAt(nl, closeBrace)
		}
		fr.Functions = append(fr.Functions, model.FunctionRecord{
			Name:          name,
			QualifiedName: name,
			Range:         model.LineRange{Start: startLine, End: maxInt(endLine, startLine)},
			Modifiers:     map[model.Modifier]bool{},
		})
	}
}

func collectRustLocalRefs(src []byte, nl []int, fr *model.FileRecord) {
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
