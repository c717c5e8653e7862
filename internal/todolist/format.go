package todolist

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format is a serialization format for whole lists.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	TOML Format = "toml"
)

// Formats lists every supported format.
var Formats = []Format{JSON, YAML, TOML}

// ParseFormat accepts a format name, case-insensitively. "yml" is YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "toml":
		return TOML, nil
	}
	return "", fmt.Errorf("unsupported format %q (want json, yaml or toml)", s)
}

// FormatFromExt maps a file name to a format; unknown extensions are JSON.
func FormatFromExt(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return YAML
	case ".toml":
		return TOML
	}
	return JSON
}

// Ext returns the file extension used for f, with the leading dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// ContentType returns the MIME type used for f over HTTP.
func (f Format) ContentType() string {
	switch f {
	case YAML:
		return "application/yaml"
	case TOML:
		return "application/toml"
	}
	return "application/json"
}

// Encode writes n to w in format f.
func Encode(w io.Writer, n *Node, f Format) error {
	if err := n.Validate(); err != nil {
		return err
	}
	switch f {
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(toValue(n)); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case TOML:
		if err := toml.NewEncoder(w).Encode(toValue(n)); err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
		return nil
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(toValue(n)); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unsupported format %q", f)
}

// Decode reads a whole list in format f. YAML and TOML documents are
// normalized to JSON values so every format passes the same checks.
func Decode(r io.Reader, f Format) (*Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	switch f {
	case JSON:
		return Unmarshal(data)
	case YAML:
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, &DocumentError{Err: err}
		}
		return fromForeign(doc)
	case TOML:
		var doc map[string]any
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, &DocumentError{Err: err}
		}
		return fromForeign(doc)
	}
	return nil, fmt.Errorf("unsupported format %q", f)
}

func fromForeign(doc any) (*Node, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, &DocumentError{Err: err}
	}
	return Unmarshal(data)
}
