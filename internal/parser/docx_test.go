package parser

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fumiama/go-docx"
)

func buildDocx(t *testing.T, paras [][2]string) *bytes.Buffer {
	t.Helper()
	doc := docx.New().WithDefaultTheme()
	for _, p := range paras {
		para := doc.AddParagraph()
		if p[0] != "" {
			para.Style(p[0])
		}
		para.AddText(p[1])
	}
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		t.Fatalf("write docx: %v", err)
	}
	return &buf
}

func TestDOCXParser_HeadingsAndGlyphs(t *testing.T) {
	buf := buildDocx(t, [][2]string{
		{"", "☐ loose task"},
		{"Heading1", "Groceries"},
		{"", "☒ milk"},
		{"", "☐ eggs"},
		{"Heading2", "Party"},
		{"", "cake X"},
		{"Heading1", "Chores"},
		{"", "   "},
		{"", "dishes"},
	})

	p := &DOCXParser{}
	root, err := p.Parse(buf, "plan.docx")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := strings.Join([]string{
		"0.plan:",
		"    1.loose task _",
		"    2.Groceries:",
		"        3.milk X",
		"        4.eggs _",
		"        5.Party:",
		"            6.cake X",
		"    7.Chores:",
		"        8.dishes _",
		"",
	}, "\n")
	if got := root.String(); got != want {
		t.Errorf("tree mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestDOCXParser_InvalidArchive(t *testing.T) {
	p := &DOCXParser{}
	if _, err := p.Parse(strings.NewReader("not a zip"), "a.docx"); err == nil {
		t.Fatal("expected an error for a non-zip document")
	}
}

func TestDOCXHeadingLevel(t *testing.T) {
	tests := map[string]int{
		"Heading1":  1,
		"heading 3": 3,
		"Heading7":  0,
		"Title":     0,
		"":          0,
	}
	for style, want := range tests {
		para := &docx.Paragraph{}
		if style != "" {
			para.Style(style)
		}
		if got := docxHeadingLevel(para); got != want {
			t.Errorf("docxHeadingLevel(%q) = %d, want %d", style, got, want)
		}
	}
}
