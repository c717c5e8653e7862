package parser

import (
	"bufio"
	"io"

	"github.com/dgallion1/todotree/internal/todolist"
)

// TextParser reads an indented outline, one task per line. Deeper
// indentation nests a line under the closest shallower line above it.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*todolist.Node, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	root := todolist.New(title(filename))
	parseOutline(root, lines)
	return root, nil
}

// parseOutline adds the tasks found in lines below root. Blank lines and
// lines without a label are skipped.
func parseOutline(root *todolist.Node, lines []string) {
	in := newIndents(root)
	for _, line := range lines {
		n, ok := task(line)
		if !ok {
			continue
		}
		in.add(indentWidth(line), n)
	}
}
