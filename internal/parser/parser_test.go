package parser

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dgallion1/todotree/internal/todolist"
)

func TestForFile(t *testing.T) {
	tests := map[string]Parser{
		"a.txt":       &TextParser{},
		"a.MD":        &MarkdownParser{},
		"a.csv":       &CSVParser{},
		"a.htm":       &HTMLParser{},
		"a.pdf":       &PDFParser{},
		"a.docx":      &DOCXParser{},
		"a.yml":       &ListParser{Format: todolist.YAML},
		"dir/a.toml":  &ListParser{Format: todolist.TOML},
		"export.json": &ListParser{Format: todolist.JSON},
	}
	for name, want := range tests {
		got, err := ForFile(name)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if typeName(got) != typeName(want) {
			t.Errorf("%s: expected %s, got %s", name, typeName(want), typeName(got))
		}
		if !IsSupportedExtension(name) {
			t.Errorf("%s: expected supported", name)
		}
	}

	if _, err := ForFile("image.png"); err == nil {
		t.Fatal("expected an error for .png")
	}
	if IsSupportedExtension("image.png") {
		t.Fatal("expected .png to be unsupported")
	}
}

func typeName(p Parser) string {
	switch v := p.(type) {
	case *ListParser:
		return "ListParser/" + string(v.Format)
	case *TextParser:
		return "TextParser"
	case *MarkdownParser:
		return "MarkdownParser"
	case *CSVParser:
		return "CSVParser"
	case *HTMLParser:
		return "HTMLParser"
	case *PDFParser:
		return "PDFParser"
	case *DOCXParser:
		return "DOCXParser"
	}
	return "unknown"
}

func TestListParser_ReadsExport(t *testing.T) {
	list := todolist.New("ToDo List")
	list.AddChild(todolist.NewTask("buy milk"))

	for _, f := range todolist.Formats {
		var buf bytes.Buffer
		if err := todolist.Encode(&buf, list, f); err != nil {
			t.Fatalf("%s: encode: %v", f, err)
		}
		p, err := ForFile("export" + f.Ext())
		if err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		got, err := p.Parse(&buf, "export"+f.Ext())
		if err != nil {
			t.Fatalf("%s: parse: %v", f, err)
		}
		if !todolist.Equal(list, got) {
			t.Fatalf("%s: expected %s, got %s", f, list, got)
		}
	}
}

func TestListParser_Malformed(t *testing.T) {
	_, err := (&ListParser{Format: todolist.JSON}).Parse(strings.NewReader(`{"Item":{}}`), "x.json")
	if err == nil {
		t.Fatal("expected error")
	}
}
