package extract

import (
	"testing"

	"github.com/kestrel-dev/structindex/internal/model"
)

func TestExtractPythonFunctionsAndClasses(t *testing.T) {
	src := []byte(`import os
from typing import Optional

def helper(name: str, count: int = 1) -> str:
    """Return a greeting."""
    return name


class Greeter:
    """Greets people."""

    def __init__(self, prefix: str):
        self.prefix = prefix

    async def greet(self, name: str) -> Optional[str]:
        return self.prefix + helper(name)
`)
	fr, warn := extractPython("sample.py", src)
	if warn != nil {
		t.Fatalf("unexpected warning: %v", warn)
	}
	if len(fr.Functions) != 1 || fr.Functions[0].Name != "helper" {
		t.Fatalf("got top-level functions %+v, want [helper]", fr.Functions)
	}
	if fr.Functions[0].Doc != "Return a greeting." {
		t.Errorf("got doc %q", fr.Functions[0].Doc)
	}
	if len(fr.Functions[0].Params) != 2 {
		t.Fatalf("got %d params, want 2: %+v", len(fr.Functions[0].Params), fr.Functions[0].Params)
	}
	if fr.Functions[0].Params[1].Default != "1" || !fr.Functions[0].Params[1].HasDefault {
		t.Errorf("count param: got %+v", fr.Functions[0].Params[1])
	}

	if len(fr.Classes) != 1 || fr.Classes[0].Name != "Greeter" {
		t.Fatalf("got classes %+v, want [Greeter]", fr.Classes)
	}
	cls := fr.Classes[0]
	if cls.Doc != "Greets people." {
		t.Errorf("got class doc %q", cls.Doc)
	}
	if len(cls.Methods) != 2 {
		t.Fatalf("got %d methods, want 2: %+v", len(cls.Methods), cls.Methods)
	}
	greet := cls.Methods[1]
	if greet.Name != "greet" || !greet.HasModifier(model.ModAsync) || greet.QualifiedName != "Greeter.greet" {
		t.Errorf("greet: got %+v", greet)
	}
}

func TestExtractPythonDecoratorsAndBases(t *testing.T) {
	src := []byte(`class Base:
    pass


@dataclass
class Point(Base):
    x: int
    y: int

    @staticmethod
    def origin():
        return Point(0, 0)
`)
	fr, _ := extractPython("sample.py", src)
	var point *model.ClassRecord
	for i := range fr.Classes {
		if fr.Classes[i].Name == "Point" {
			point = &fr.Classes[i]
		}
	}
	if point == nil {
		t.Fatalf("expected a Point class, got %+v", fr.Classes)
	}
	if !containsStr(point.Decorators, "dataclass") {
		t.Errorf("got decorators %v, want dataclass", point.Decorators)
	}
	if len(point.Bases) != 1 || point.Bases[0] != "Base" {
		t.Errorf("got bases %v, want [Base]", point.Bases)
	}
}

func TestExtractPythonImports(t *testing.T) {
	src := []byte(`import os
import numpy as np
from collections import OrderedDict, defaultdict as dd
from . import utils
`)
	fr, _ := extractPython("sample.py", src)
	if len(fr.Imports) != 4 {
		t.Fatalf("got %d imports, want 4: %+v", len(fr.Imports), fr.Imports)
	}
	if fr.Imports[0].Module != "os" {
		t.Errorf("got module %q, want os", fr.Imports[0].Module)
	}
	if fr.Imports[1].Alias != "np" {
		t.Errorf("got alias %q, want np", fr.Imports[1].Alias)
	}
	if fr.Imports[2].Module != "collections" || !containsStr(fr.Imports[2].Names, "OrderedDict") || !containsStr(fr.Imports[2].Names, "dd") {
		t.Errorf("got %+v", fr.Imports[2])
	}
}
