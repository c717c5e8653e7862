package parser

import (
	"io"
	"strings"

	"github.com/dgallion1/todotree/internal/todolist"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Headings become
// groups, list items become tasks and "- [x]" items are done. An item with a
// nested list becomes a group of the nested items.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*todolist.Node, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.TaskList))
	doc := md.Parser().Parse(text.NewReader(src))

	h := newHeadings(title(filename))
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			h.open(node.Level, inlineText(node, src))
		case *ast.List:
			parent := h.current()
			parent.Children = append(parent.Children, markdownItems(node, src)...)
		}
	}
	return h.root(), nil
}

func markdownItems(list *ast.List, src []byte) []*todolist.Node {
	var out []*todolist.Node
	for li := list.FirstChild(); li != nil; li = li.NextSibling() {
		var label string
		var done bool
		var nested []*todolist.Node
		for c := li.FirstChild(); c != nil; c = c.NextSibling() {
			switch block := c.(type) {
			case *ast.List:
				nested = append(nested, markdownItems(block, src)...)
			case *ast.TextBlock, *ast.Paragraph:
				if label != "" {
					continue
				}
				label = inlineText(block, src)
				if cb, ok := block.FirstChild().(*east.TaskCheckBox); ok {
					done = cb.IsChecked
				}
			}
		}
		if label == "" && len(nested) == 0 {
			continue
		}

		if len(nested) > 0 {
			group := todolist.New(label)
			group.Children = nested
			if done {
				group.Mark(true)
			}
			out = append(out, group)
			continue
		}
		n := todolist.NewTask(label)
		n.Done = done
		out = append(out, n)
	}
	return out
}

// inlineText concatenates the text of n's inline descendants.
func inlineText(n ast.Node, src []byte) string {
	var buf strings.Builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				buf.Write(t.Segment.Value(src))
				if t.SoftLineBreak() || t.HardLineBreak() {
					buf.WriteByte(' ')
				}
			case *ast.String:
				buf.Write(t.Value)
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return strings.TrimSpace(buf.String())
}
