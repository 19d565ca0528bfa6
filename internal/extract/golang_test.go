package extract

import (
	"testing"

	"github.com/kestrel-dev/structindex/internal/model"
)

func TestExtractGoFunctions(t *testing.T) {
	src := []byte(`package sample

func Add(a, b int) int {
	return a + b
}

func (s *Server) Start(ctx context.Context) error {
	return nil
}
`)
	fr, warn := extractGo("sample.go", src)
	if warn != nil {
		t.Fatalf("unexpected warning: %v", warn)
	}
	if len(fr.Functions) != 2 {
		t.Fatalf("got %d functions, want 2", len(fr.Functions))
	}

	add := fr.Functions[0]
	if add.Name != "Add" || add.IsMethod {
		t.Errorf("Add: got name=%q isMethod=%v", add.Name, add.IsMethod)
	}
	if len(add.Params) != 2 {
		t.Errorf("Add: got %d params, want 2", len(add.Params))
	}

	start := fr.Functions[1]
	if start.Name != "Start" || !start.IsMethod || start.Parent != "Server" {
		t.Errorf("Start: got name=%q isMethod=%v parent=%q", start.Name, start.IsMethod, start.Parent)
	}
	if start.QualifiedName != "Server.Start" {
		t.Errorf("Start: got qname=%q, want Server.Start", start.QualifiedName)
	}
}

func TestExtractGoTypes(t *testing.T) {
	src := []byte(`package sample

type Config struct {
	Name string
}

type Reader interface {
	Read() error
}

type Handler = func(int) error
`)
	fr, _ := extractGo("sample.go", src)
	if len(fr.Classes) != 3 {
		t.Fatalf("got %d classes, want 3", len(fr.Classes))
	}
	if fr.Classes[0].Kind != model.KindStruct {
		t.Errorf("Config: got kind %q, want struct", fr.Classes[0].Kind)
	}
	if fr.Classes[1].Kind != model.KindInterface {
		t.Errorf("Reader: got kind %q, want interface", fr.Classes[1].Kind)
	}
	if fr.Classes[2].Kind != model.KindTypeAlias {
		t.Errorf("Handler: got kind %q, want type_alias", fr.Classes[2].Kind)
	}
}

func TestExtractGoImports(t *testing.T) {
	src := []byte(`package sample

import (
	"fmt"
	ctx "context"
	_ "embed"
)

import "os"
`)
	fr, _ := extractGo("sample.go", src)
	if len(fr.Imports) != 4 {
		t.Fatalf("got %d imports, want 4", len(fr.Imports))
	}
	if fr.Imports[0].Module != "fmt" {
		t.Errorf("got module %q, want fmt", fr.Imports[0].Module)
	}
	if fr.Imports[1].Alias != "ctx" {
		t.Errorf("got alias %q, want ctx", fr.Imports[1].Alias)
	}
	if fr.Imports[2].Names != nil {
		t.Errorf("blank import should have no local names, got %v", fr.Imports[2].Names)
	}
	if fr.Imports[3].Module != "os" {
		t.Errorf("got module %q, want os", fr.Imports[3].Module)
	}
}

func TestExtractGoLocalRefs(t *testing.T) {
	src := []byte(`package sample

import "fmt"

func helper() {}

func Run() {
	helper()
	fmt.Println("x")
}
`)
	fr, _ := extractGo("sample.go", src)
	refs := fr.LocalRefs["Run"]
	if !containsStr(refs, "helper") {
		t.Errorf("expected Run to reference helper, got %v", refs)
	}
	if !containsStr(refs, "fmt") {
		t.Errorf("expected Run to reference fmt, got %v", refs)
	}
}

func containsStr(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}
