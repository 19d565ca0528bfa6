package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/kestrel-dev/structindex/internal/model"
	"github.com/kestrel-dev/structindex/internal/tsparse"
)

// extractPython is the full-AST Python extractor of spec §4.B: it
// walks the tree-sitter parse tree for function_definition and
// class_definition nodes, records decorators, docstrings, parameters,
// and import statements, and falls back to the generic extractor on a
// parse failure.
func extractPython(path string, src []byte) (*model.FileRecord, *Warning) {
	lines := splitLines(src)
	fr := &model.FileRecord{
		Path:       path,
		Language:   model.LangPython,
		TotalLines: len(lines),
		TotalChars: len(src),
		Lines:      lines,
	}

	tree, err := tsparse.Parse(src)
	if err != nil {
		return extractGeneric(path, src), &Warning{Path: path, Stage: "parse", Message: err.Error()}
	}
	defer tree.Close()

	root := tree.RootNode()

	tsparse.Walk(root, func(node *tree_sitter.Node) bool {
		switch node.Kind() {
		case "function_definition":
			if !insidePyClass(node) {
				fr.Functions = append(fr.Functions, buildPyFunction(node, src, ""))
				return false
			}
		case "class_definition":
			fr.Classes = append(fr.Classes, buildPyClass(node, src))
			return false
		}
		return true
	})

	extractPyImports(root, src, fr)
	collectPyLocalRefs(src, fr)

	return fr, nil
}

// insidePyClass reports whether node's nearest function/class ancestor
// is a class_definition — i.e. node is a top-level method handled by
// buildPyClass, not a free function.
func insidePyClass(node *tree_sitter.Node) bool {
	for p := node.Parent(); p != nil; p = p.Parent() {
		switch p.Kind() {
		case "class_definition":
			return true
		case "function_definition":
			return false
		}
	}
	return false
}

func buildPyFunction(node *tree_sitter.Node, src []byte, parent string) model.FunctionRecord {
	nameNode := node.ChildByFieldName("name")
	name := ""
	if nameNode != nil {
		name = tsparse.NodeText(nameNode, src)
	}

	qname := name
	if parent != "" {
		qname = parent + "." + name
	}

	params := parsePyParams(node.ChildByFieldName("parameters"), src)
	mods := map[model.Modifier]bool{}
	if isAsyncFunc(node, src) {
		mods[model.ModAsync] = true
	}

	return model.FunctionRecord{
		Name:          name,
		QualifiedName: qname,
		Range:         rowRange(node),
		Params:        params,
		Decorators:    pyDecorators(node, src),
		Doc:           pyDocstring(node, src),
		IsMethod:      parent != "",
		Parent:        parent,
		Modifiers:     mods,
	}
}

func buildPyClass(node *tree_sitter.Node, src []byte) model.ClassRecord {
	nameNode := node.ChildByFieldName("name")
	name := ""
	if nameNode != nil {
		name = tsparse.NodeText(nameNode, src)
	}

	var methods []model.FunctionRecord
	body := node.ChildByFieldName("body")
	if body != nil {
		for i := uint(0); i < body.NamedChildCount(); i++ {
			child := body.NamedChild(i)
			if child != nil && child.Kind() == "function_definition" {
				methods = append(methods, buildPyFunction(child, src, name))
			}
			if child != nil && child.Kind() == "decorated_definition" {
				if def := decoratedInner(child); def != nil && def.Kind() == "function_definition" {
					methods = append(methods, buildPyFunction(def, src, name))
				}
			}
		}
	}

	return model.ClassRecord{
		Name:       name,
		Range:      rowRange(node),
		Bases:      pyBases(node, src),
		Methods:    methods,
		Decorators: pyDecorators(node, src),
		Doc:        pyDocstring(node, src),
		Kind:       model.KindClass,
	}
}

// decoratedInner unwraps a decorated_definition to the definition it
// decorates (function_definition or class_definition).
func decoratedInner(node *tree_sitter.Node) *tree_sitter.Node {
	return node.ChildByFieldName("definition")
}

func pyDecorators(node *tree_sitter.Node, src []byte) []string {
	parent := node.Parent()
	if parent == nil || parent.Kind() != "decorated_definition" {
		return nil
	}
	var decs []string
	for i := uint(0); i < parent.NamedChildCount(); i++ {
		child := parent.NamedChild(i)
		if child != nil && child.Kind() == "decorator" {
			text := strings.TrimPrefix(tsparse.NodeText(child, src), "@")
			decs = append(decs, strings.TrimSpace(text))
		}
	}
	return decs
}

func pyDocstring(node *tree_sitter.Node, src []byte) string {
	body := node.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first == nil || first.Kind() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	strNode := first.NamedChild(0)
	if strNode == nil || strNode.Kind() != "string" {
		return ""
	}
	return cleanPyDocstring(tsparse.NodeText(strNode, src))
}

func cleanPyDocstring(s string) string {
	for _, delim := range []string{`"""`, `'''`} {
		if strings.HasPrefix(s, delim) && strings.HasSuffix(s, delim) && len(s) >= 6 {
			s = s[3 : len(s)-3]
			break
		}
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= 1 {
		return strings.TrimSpace(s)
	}
	minIndent := -1
	for _, line := range lines[1:] {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		indent := len(line) - len(trimmed)
		if minIndent < 0 || indent < minIndent {
			minIndent = indent
		}
	}
	if minIndent > 0 {
		for i := 1; i < len(lines); i++ {
			if len(lines[i]) >= minIndent {
				lines[i] = lines[i][minIndent:]
			}
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func pyBases(node *tree_sitter.Node, src []byte) []string {
	super := node.ChildByFieldName("superclasses")
	if super == nil {
		return nil
	}
	var bases []string
	for i := uint(0); i < super.NamedChildCount(); i++ {
		child := super.NamedChild(i)
		if child == nil || child.Kind() == "keyword_argument" {
			continue
		}
		bases = append(bases, tsparse.NodeText(child, src))
	}
	return bases
}

func isAsyncFunc(node *tree_sitter.Node, src []byte) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if child.Kind() == "async" {
			return true
		}
		if child.Kind() == "def" {
			break
		}
	}
	return false
}

func parsePyParams(node *tree_sitter.Node, src []byte) []model.Parameter {
	if node == nil {
		return nil
	}
	var params []model.Parameter
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "identifier":
			params = append(params, model.Parameter{Name: tsparse.NodeText(child, src)})
		case "typed_parameter":
			name := ""
			if nc := child.NamedChild(0); nc != nil {
				name = tsparse.NodeText(nc, src)
			}
			annotation := ""
			if t := child.ChildByFieldName("type"); t != nil {
				annotation = tsparse.NodeText(t, src)
			}
			params = append(params, model.Parameter{Name: name, Annotation: annotation})
		case "default_parameter", "typed_default_parameter":
			name := ""
			if n := child.ChildByFieldName("name"); n != nil {
				name = tsparse.NodeText(n, src)
			}
			annotation := ""
			if t := child.ChildByFieldName("type"); t != nil {
				annotation = tsparse.NodeText(t, src)
			}
			def := ""
			if v := child.ChildByFieldName("value"); v != nil {
				def = tsparse.NodeText(v, src)
			}
			params = append(params, model.Parameter{Name: name, Annotation: annotation, Default: def, HasDefault: true})
		case "list_splat_pattern", "dictionary_splat_pattern":
			params = append(params, model.Parameter{Name: tsparse.NodeText(child, src)})
		}
	}
	return params
}

func extractPyImports(root *tree_sitter.Node, src []byte, fr *model.FileRecord) {
	tsparse.Walk(root, func(node *tree_sitter.Node) bool {
		switch node.Kind() {
		case "import_statement":
			extractPyPlainImport(node, src, fr)
			return false
		case "import_from_statement":
			extractPyFromImport(node, src, fr)
			return false
		}
		return true
	})
}

func extractPyPlainImport(node *tree_sitter.Node, src []byte, fr *model.FileRecord) {
	line := int(node.StartPosition().Row) + 1
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "dotted_name", "identifier":
			mod := tsparse.NodeText(child, src)
			fr.Imports = append(fr.Imports, model.ImportRecord{
				Module: mod, Names: []string{lastPySegment(mod)}, Line: line, IsFrom: false,
			})
		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			if nameNode == nil {
				continue
			}
			mod := tsparse.NodeText(nameNode, src)
			alias := ""
			if aliasNode != nil {
				alias = tsparse.NodeText(aliasNode, src)
			}
			localName := alias
			if localName == "" {
				localName = lastPySegment(mod)
			}
			fr.Imports = append(fr.Imports, model.ImportRecord{
				Module: mod, Names: []string{localName}, Alias: alias, Line: line, IsFrom: false,
			})
		}
	}
}

func extractPyFromImport(node *tree_sitter.Node, src []byte, fr *model.FileRecord) {
	line := int(node.StartPosition().Row) + 1
	moduleNode := node.ChildByFieldName("module_name")
	module := ""
	if moduleNode != nil {
		module = tsparse.NodeText(moduleNode, src)
	}

	var names []string
	wildcard := false
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil || child == moduleNode {
			continue
		}
		switch child.Kind() {
		case "wildcard_import":
			wildcard = true
		case "dotted_name", "identifier":
			names = append(names, tsparse.NodeText(child, src))
		case "aliased_import":
			aliasNode := child.ChildByFieldName("alias")
			if aliasNode != nil {
				names = append(names, tsparse.NodeText(aliasNode, src))
			} else if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				names = append(names, tsparse.NodeText(nameNode, src))
			}
		}
	}
	if wildcard {
		names = []string{"*"}
	}

	fr.Imports = append(fr.Imports, model.ImportRecord{
		Module: module, Names: names, Line: line, IsFrom: true,
	})
}

func lastPySegment(mod string) string {
	idx := strings.LastIndexByte(mod, '.')
	if idx < 0 {
		return mod
	}
	return mod[idx+1:]
}

func rowRange(node *tree_sitter.Node) model.LineRange {
	start := int(node.StartPosition().Row) + 1
	end := int(node.EndPosition().Row) + 1
	if end < start {
		end = start
	}
	return model.LineRange{Start: start, End: end}
}

// collectPyLocalRefs scans each function/method's source span (the byte
// range covering its declared lines, via byteRangeForLines) for
// identifiers that match a declared or imported name, same policy as
// the lexical extractors.
func collectPyLocalRefs(src []byte, fr *model.FileRecord) {
	nl := newlineOffsets(src)
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
