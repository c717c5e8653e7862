package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/todotree/internal/todolist"
)

// CSVParser reads rows of label,done,depth. done and depth are optional;
// depth 0 is a direct child of the list and each row may nest at most one
// level below the row before it. A header row starting with "label" is
// skipped.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*todolist.Node, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	root := todolist.New(title(filename))
	if len(records) > 0 && len(records[0]) > 0 && strings.EqualFold(strings.TrimSpace(records[0][0]), "label") {
		records = records[1:]
	}

	in := newIndents(root)
	prev := -1
	for i, row := range records {
		label := strings.TrimSpace(row[0])
		if label == "" {
			continue
		}
		done, err := csvBool(cell(row, 1))
		if err != nil {
			return nil, fmt.Errorf("row %d: done: %w", i+1, err)
		}
		depth := 0
		if d := cell(row, 2); d != "" {
			depth, err = strconv.Atoi(d)
			if err != nil || depth < 0 {
				return nil, fmt.Errorf("row %d: depth %q is not a non-negative integer", i+1, d)
			}
		}
		if depth > prev+1 {
			return nil, fmt.Errorf("row %d: depth %d skips a level", i+1, depth)
		}
		prev = depth

		n := todolist.NewTask(label)
		n.Done = done
		in.add(depth, n)
	}
	return root, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func csvBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "_", "no", "n":
		return false, nil
	case "x", "yes", "y":
		return true, nil
	}
	return strconv.ParseBool(s)
}
