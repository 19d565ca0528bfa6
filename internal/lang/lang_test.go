package lang

import (
	"testing"

	"github.com/kestrel-dev/structindex/internal/model"
)

func TestForExtension(t *testing.T) {
	cases := []struct {
		ext  string
		want model.Language
	}{
		{".py", model.LangPython},
		{".go", model.LangGo},
		{".rs", model.LangRust},
		{".ts", model.LangTypeScript},
		{".jsx", model.LangJavaScript},
		{".md", model.LangText},
	}
	for _, c := range cases {
		got, ok := ForExtension(c.ext)
		if !ok {
			t.Errorf("ForExtension(%q): not found", c.ext)
			continue
		}
		if got != c.want {
			t.Errorf("ForExtension(%q) = %q, want %q", c.ext, got, c.want)
		}
	}
}

func TestForExtensionUnknown(t *testing.T) {
	if _, ok := ForExtension(".xyz"); ok {
		t.Error("expected unknown extension to miss")
	}
}

func TestExtensionsNonEmpty(t *testing.T) {
	if len(Extensions()) == 0 {
		t.Error("expected a non-empty extension table")
	}
}
