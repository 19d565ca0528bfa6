// Package model defines the data types that flow between the discovery,
// extraction, indexing, and query layers: LineRange, the per-kind
// declaration records, FileRecord, SymbolLocation, and BuildWarning.
package model

import "fmt"

// Language identifies the source language of a file, or the generic
// fallback used for anything without a dedicated extractor.
type Language string

const (
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangGo         Language = "go"
	LangRust       Language = "rust"
	LangText       Language = "text"
	LangGeneric    Language = "generic"
)

// SymbolKind tags the shape of a declaration.
type SymbolKind string

const (
	KindFunction    SymbolKind = "function"
	KindMethod      SymbolKind = "method"
	KindClass       SymbolKind = "class"
	KindStruct      SymbolKind = "struct"
	KindEnum        SymbolKind = "enum"
	KindInterface   SymbolKind = "interface"
	KindTrait       SymbolKind = "trait"
	KindTypeAlias   SymbolKind = "type_alias"
	KindMacro       SymbolKind = "macro"
)

// Modifier is one of the lexical modifiers a function/method can carry.
type Modifier string

const (
	ModAsync  Modifier = "async"
	ModConst  Modifier = "const"
	ModUnsafe Modifier = "unsafe"
	ModPub    Modifier = "pub"
	ModStatic Modifier = "static"
)

// LineRange is a 1-indexed, inclusive-both-ends line span.
type LineRange struct {
	Start int
	End   int
}

// Valid reports whether the range satisfies 1 <= Start <= End.
func (r LineRange) Valid() bool {
	return r.Start >= 1 && r.Start <= r.End
}

func (r LineRange) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Parameter is one function/method parameter; order is preserved in the
// owning FunctionRecord.Params slice.
type Parameter struct {
	Name       string
	Default    string // presence is what matters; empty means "no default"
	HasDefault bool
	Annotation string
}

// FunctionRecord describes a function, method, or closure declaration.
type FunctionRecord struct {
	Name          string
	QualifiedName string
	Range         LineRange
	Params        []Parameter
	Decorators    []string
	Doc           string
	IsMethod      bool
	Parent        string // class/impl name for methods, "" otherwise
	Modifiers     map[Modifier]bool
}

// HasModifier reports whether m is set on the function.
func (f *FunctionRecord) HasModifier(m Modifier) bool {
	return f.Modifiers != nil && f.Modifiers[m]
}

// ClassRecord describes a class/struct/enum/interface/trait declaration,
// including its methods.
type ClassRecord struct {
	Name       string
	Range      LineRange
	Bases      []string
	Methods    []FunctionRecord
	Decorators []string
	Doc        string
	Kind       SymbolKind // "class", "struct", "enum", "interface", "trait", "type_alias"
}

// ImportRecord is one import/use/require statement.
type ImportRecord struct {
	Module string
	Names  []string // names introduced into local scope; ["*"] for wildcard
	Alias  string
	Line   int
	IsFrom bool
}

// SectionRecord is one detected heading in a text file.
type SectionRecord struct {
	Title string
	Level int
	Range LineRange
}

// FileRecord is the complete structural record of one source file.
type FileRecord struct {
	Path       string
	Language   Language
	TotalLines int
	TotalChars int
	Lines      []string

	Functions []FunctionRecord
	Classes   []ClassRecord
	Imports   []ImportRecord
	Sections  []SectionRecord

	// LocalRefs maps a function/method qualified name to the set of bare
	// names and attribute heads its body references, deduplicated per
	// function. It is consumed by the index builder's dependency pass
	// and kept on the record, so an incremental update that reuses an
	// unchanged file's record reads it again.
	LocalRefs map[string][]string

	// SHA256 is populated by the index builder from the raw file bytes;
	// extractors never set it.
	SHA256 string
}

// AddLocalRef records a reference from fnQName to name, skipping
// duplicates (a name is recorded at most once per function per spec).
func (fr *FileRecord) AddLocalRef(fnQName, name string) {
	if fr.LocalRefs == nil {
		fr.LocalRefs = make(map[string][]string)
	}
	for _, existing := range fr.LocalRefs[fnQName] {
		if existing == name {
			return
		}
	}
	fr.LocalRefs[fnQName] = append(fr.LocalRefs[fnQName], name)
}

// SymbolLocation is one entry in the project-wide symbol table: where a
// name is defined.
type SymbolLocation struct {
	Path string
	Kind SymbolKind
	Line int
}

// BuildWarning records a non-fatal problem encountered while extracting
// or resolving a file.
type BuildWarning struct {
	Path    string
	Stage   string // "read" | "parse" | "resolve"
	Message string
}
