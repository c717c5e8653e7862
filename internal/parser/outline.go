package parser

import (
	"regexp"
	"strings"

	"github.com/dgallion1/todotree/internal/todolist"
)

// headings nests groups by heading level: a heading closes every open
// heading of the same or deeper level.
type headings struct {
	stack []headingFrame
}

type headingFrame struct {
	node  *todolist.Node
	level int
}

// Root is level 0; all h1+ nest under it.
func newHeadings(label string) *headings {
	return &headings{stack: []headingFrame{{node: todolist.New(label), level: 0}}}
}

func (h *headings) open(level int, label string) {
	for len(h.stack) > 1 && h.stack[len(h.stack)-1].level >= level {
		h.stack = h.stack[:len(h.stack)-1]
	}
	group := todolist.New(label)
	h.current().Children = append(h.current().Children, group)
	h.stack = append(h.stack, headingFrame{node: group, level: level})
}

// current is the innermost open heading.
func (h *headings) current() *todolist.Node {
	return h.stack[len(h.stack)-1].node
}

func (h *headings) root() *todolist.Node {
	return h.stack[0].node
}

// indents nests tasks by indentation depth. A task that receives a child
// becomes a group; its own completion flag is dropped since groups derive
// theirs from their tasks.
type indents struct {
	stack []indentFrame
}

type indentFrame struct {
	node  *todolist.Node
	depth int
}

func newIndents(root *todolist.Node) *indents {
	return &indents{stack: []indentFrame{{node: root, depth: -1}}}
}

func (in *indents) add(depth int, item *todolist.Node) {
	for len(in.stack) > 1 && in.stack[len(in.stack)-1].depth >= depth {
		in.stack = in.stack[:len(in.stack)-1]
	}
	parent := in.stack[len(in.stack)-1].node
	if parent.Kind == todolist.Leaf {
		*parent = todolist.Node{Kind: todolist.Group, Label: parent.Label, Children: []*todolist.Node{}}
	}
	parent.Children = append(parent.Children, item)
	in.stack = append(in.stack, indentFrame{node: item, depth: depth})
}

var (
	numbering = regexp.MustCompile(`^\d+[.)]\s*`)
	bullet    = regexp.MustCompile(`^[-*+•](\s+|$)`)
	checkbox  = regexp.MustCompile(`^\[([ xX])\]\s*`)
)

// task reads one outline line. It understands bullets, numbering,
// checkboxes, ballot box glyphs, the rendered " X" / " _" suffixes and a
// trailing ":" marking a group. ok is false for lines with no label.
func task(line string) (node *todolist.Node, ok bool) {
	s := strings.TrimSpace(line)
	s = numbering.ReplaceAllString(s, "")
	s = bullet.ReplaceAllString(s, "")

	done := false
	if m := checkbox.FindStringSubmatch(s); m != nil {
		done = m[1] != " "
		s = s[len(m[0]):]
	} else if rest, found := cutGlyph(s); found >= 0 {
		done = found == 1
		s = rest
	}

	switch {
	case strings.HasSuffix(s, " X"):
		done = true
		s = strings.TrimSuffix(s, " X")
	case strings.HasSuffix(s, " _"):
		s = strings.TrimSuffix(s, " _")
	case strings.HasSuffix(s, ":"):
		label := strings.TrimSpace(strings.TrimSuffix(s, ":"))
		if label == "" {
			return nil, false
		}
		return todolist.New(label), true
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	n := todolist.NewTask(s)
	n.Done = done
	return n, true
}

// cutGlyph strips a leading ballot box. found is 0 for an empty box, 1 for a
// checked one and -1 when there is none.
func cutGlyph(s string) (rest string, found int) {
	for glyph, checked := range map[string]int{"☐": 0, "☑": 1, "☒": 1, "✓": 1, "✔": 1} {
		if r, ok := strings.CutPrefix(s, glyph); ok {
			return strings.TrimSpace(r), checked
		}
	}
	return s, -1
}

// indentWidth counts leading whitespace, a tab counting as four spaces.
func indentWidth(line string) int {
	w := 0
	for _, r := range line {
		switch r {
		case ' ':
			w++
		case '\t':
			w += 4
		default:
			return w
		}
	}
	return w
}
