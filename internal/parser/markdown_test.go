package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/todotree/internal/todolist"
)

func TestMarkdownParser_HeadingHierarchy(t *testing.T) {
	input := `# Weekend

Intro text is not a task.

## Shopping

- [ ] buy milk
- [x] eggs

### Party

- cake

## Chores

1. dishes
`
	p := &MarkdownParser{}
	root, err := p.Parse(strings.NewReader(input), "plans.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "0.plans:\n" +
		"    1.Weekend:\n" +
		"        2.Shopping:\n" +
		"            3.buy milk _\n" +
		"            4.eggs X\n" +
		"            5.Party:\n" +
		"                6.cake _\n" +
		"        7.Chores:\n" +
		"            8.dishes _\n"
	if got := root.String(); got != want {
		t.Fatalf("unexpected tree:\n%s\nwant:\n%s", got, want)
	}
}

func TestMarkdownParser_NestedLists(t *testing.T) {
	input := "- [x] party\n  - cake\n  - balloons\n- eggs\n"

	root, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "todo.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(root.Children) != 2 {
		t.Fatalf("expected 2 top-level items, got %d", len(root.Children))
	}

	party := root.Children[0]
	if party.Kind != todolist.Group || party.Label != "party" {
		t.Fatalf("expected group %q, got %v %q", "party", party.Kind, party.Label)
	}
	if len(party.Children) != 2 || !party.Children[0].Done || !party.Children[1].Done {
		t.Fatalf("expected a checked item to mark its nested tasks, got %s", party)
	}
	if eggs := root.Children[1]; eggs.Kind != todolist.Leaf || eggs.Done {
		t.Fatalf("expected pending task eggs, got %s", eggs)
	}
}

func TestMarkdownParser_InlineMarkup(t *testing.T) {
	input := "# Release `v2`\n\n- update **docs** and [site](https://example.com)\n"

	root, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "release.markdown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h1 := root.Children[0]
	if h1.Label != "Release v2" {
		t.Errorf("expected heading %q, got %q", "Release v2", h1.Label)
	}
	if got := h1.Children[0].Label; got != "update docs and site" {
		t.Errorf("expected %q, got %q", "update docs and site", got)
	}
}

func TestMarkdownParser_NoLists(t *testing.T) {
	root, err := (&MarkdownParser{}).Parse(strings.NewReader("Just some prose.\n\n```\ncode\n```\n"), "notes.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(root.Children) != 0 {
		t.Fatalf("expected no tasks, got %s", root)
	}
	if root.Label != "notes" {
		t.Fatalf("expected label %q, got %q", "notes", root.Label)
	}
}
