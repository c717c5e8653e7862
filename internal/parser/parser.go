// Package parser turns documents into list trees for import. Every parser
// returns a group labeled with the document title whose children are the
// document's tasks.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/todotree/internal/todolist"
)

// Parser converts raw document bytes into a list tree.
type Parser interface {
	Parse(r io.Reader, filename string) (*todolist.Node, error)
}

// SupportedExtensions lists file extensions this service can import.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
	".json":     true,
	".yaml":     true,
	".yml":      true,
	".toml":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	case ".json", ".yaml", ".yml", ".toml":
		return &ListParser{Format: todolist.FormatFromExt(filename)}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// title is the file name without directory or extension.
func title(filename string) string {
	base := filepath.Base(filename)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ListParser reads a previously exported list document. The whole document
// becomes the imported subtree.
type ListParser struct {
	Format todolist.Format
}

func (p *ListParser) Parse(r io.Reader, filename string) (*todolist.Node, error) {
	root, err := todolist.Decode(r, p.Format)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", p.Format, err)
	}
	return root, nil
}
