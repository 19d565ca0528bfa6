package extract

import (
	"testing"

	"github.com/kestrel-dev/structindex/internal/model"
)

func TestExtractTSFunctions(t *testing.T) {
	src := []byte(`export async function loadUser(id: string) {
  return fetch(id);
}

const add = (a: number, b: number) => {
  return a + b;
};

const square = (x) => x * x;
`)
	fr, warn := extractTSJS("sample.ts", model.LangTypeScript, src)
	if warn != nil {
		t.Fatalf("unexpected warning: %v", warn)
	}
	if len(fr.Functions) != 3 {
		t.Fatalf("got %d functions, want 3: %+v", len(fr.Functions), fr.Functions)
	}
	if fr.Functions[0].Name != "loadUser" || !fr.Functions[0].HasModifier(model.ModAsync) {
		t.Errorf("loadUser: got %+v", fr.Functions[0])
	}
	if fr.Functions[1].Name != "add" {
		t.Errorf("add: got name %q", fr.Functions[1].Name)
	}
	if fr.Functions[2].Name != "square" {
		t.Errorf("square: got name %q", fr.Functions[2].Name)
	}
}

func TestExtractTSClassAndMethods(t *testing.T) {
	src := []byte(`export class UserService {
  constructor(private db: Database) {}

  async findById(id: string) {
    return this.db.get(id);
  }

  static create() {
    return new UserService();
  }
}
`)
	fr, _ := extractTSJS("sample.ts", model.LangTypeScript, src)
	if len(fr.Classes) != 1 {
		t.Fatalf("got %d classes, want 1", len(fr.Classes))
	}
	cls := fr.Classes[0]
	if cls.Name != "UserService" {
		t.Errorf("got class name %q", cls.Name)
	}
	if len(cls.Methods) < 2 {
		t.Fatalf("got %d methods, want at least 2: %+v", len(cls.Methods), cls.Methods)
	}
}

func TestExtractTSImports(t *testing.T) {
	src := []byte(`import React from 'react';
import { useState, useEffect as useEff } from 'react';
import * as path from 'path';
import './styles.css';
`)
	fr, _ := extractTSJS("sample.ts", model.LangTypeScript, src)
	if len(fr.Imports) != 4 {
		t.Fatalf("got %d imports, want 4: %+v", len(fr.Imports), fr.Imports)
	}
	if fr.Imports[0].Module != "react" || len(fr.Imports[0].Names) == 0 || fr.Imports[0].Names[0] != "React" {
		t.Errorf("default import: got %+v", fr.Imports[0])
	}
	if fr.Imports[1].Module != "react" {
		t.Errorf("named import: got module %q", fr.Imports[1].Module)
	}
	if fr.Imports[2].Alias != "path" {
		t.Errorf("namespace import: got alias %q", fr.Imports[2].Alias)
	}
	if fr.Imports[3].Module != "./styles.css" {
		t.Errorf("bare import: got module %q", fr.Imports[3].Module)
	}
}

func TestExtractTSInterfaceAndType(t *testing.T) {
	src := []byte(`export interface User {
  id: string;
  name: string;
}

export type UserID = string;
`)
	fr, _ := extractTSJS("sample.ts", model.LangTypeScript, src)
	if len(fr.Classes) != 2 {
		t.Fatalf("got %d classes/types, want 2: %+v", len(fr.Classes), fr.Classes)
	}
	if fr.Classes[0].Kind != model.KindInterface {
		t.Errorf("got kind %q, want interface", fr.Classes[0].Kind)
	}
	if fr.Classes[1].Kind != model.KindTypeAlias {
		t.Errorf("got kind %q, want type_alias", fr.Classes[1].Kind)
	}
}
