package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/todotree/internal/todolist"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. Headings become groups and <li> elements
// become tasks; an <li> holding a checked checkbox is done and an <li> with a
// nested list becomes a group.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*todolist.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	label := title(filename)
	if t := findTitle(doc); t != "" {
		label = t
	}
	h := newHeadings(label)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				h.open(level, textContent(n))
				return
			}
			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "ul", "ol":
				parent := h.current()
				parent.Children = append(parent.Children, htmlItems(n)...)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	return h.root(), nil
}

func htmlItems(list *html.Node) []*todolist.Node {
	var out []*todolist.Node
	for li := list.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}
		var label strings.Builder
		var nested []*todolist.Node
		done := false

		var collect func(*html.Node)
		collect = func(n *html.Node) {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				switch {
				case c.Type == html.TextNode:
					label.WriteString(c.Data)
				case c.Type == html.ElementNode && (c.Data == "ul" || c.Data == "ol"):
					nested = append(nested, htmlItems(c)...)
				case c.Type == html.ElementNode && c.Data == "input":
					if attr(c, "type") == "checkbox" && hasAttr(c, "checked") {
						done = true
					}
				case c.Type == html.ElementNode:
					collect(c)
				}
			}
		}
		collect(li)

		text := strings.Join(strings.Fields(label.String()), " ")
		if text == "" && len(nested) == 0 {
			continue
		}
		if len(nested) > 0 {
			group := todolist.New(text)
			group.Children = nested
			if done {
				group.Mark(true)
			}
			out = append(out, group)
			continue
		}
		n := todolist.NewTask(text)
		n.Done = done
		out = append(out, n)
	}
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.ToLower(a.Val)
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
