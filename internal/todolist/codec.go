package todolist

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// Tags of the serialized variants. The document shape is
//
//	{"Container": {"items": [...], "text": "..."}}
//	{"Item": {"mark": false, "text": "..."}}
const (
	tagGroup = "Container"
	tagLeaf  = "Item"
)

//go:embed schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("list.schema.json", schemaJSON)

// Schema returns the JSON Schema every serialized list satisfies.
func Schema() []byte {
	return []byte(schemaJSON)
}

// Marshal returns the compact tagged JSON document for n. Trees with labels
// that would not survive a round trip are refused.
func Marshal(n *Node) ([]byte, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(toValue(n))
}

// Unmarshal parses a tagged JSON document. Any mismatch with the tagged
// shape is reported as a *DocumentError.
func Unmarshal(data []byte) (*Node, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &DocumentError{Err: err}
	}
	return FromValue(doc)
}

// FromValue builds a tree from a decoded JSON value (maps, slices, strings,
// bools), validating it against Schema first.
func FromValue(doc any) (*Node, error) {
	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			leaf := deepestCause(ve)
			return nil, &DocumentError{Path: leaf.InstanceLocation, Err: errors.New(leaf.Message)}
		}
		return nil, &DocumentError{Err: err}
	}
	return decodeValue(doc, "")
}

// deepestCause picks the most specific failure. For a oneOf mismatch that is
// the branch that got furthest into the document.
func deepestCause(ve *jsonschema.ValidationError) *jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return ve
	}
	var best *jsonschema.ValidationError
	for _, c := range ve.Causes {
		if d := deepestCause(c); best == nil || len(d.InstanceLocation) > len(best.InstanceLocation) {
			best = d
		}
	}
	return best
}

func (n *Node) MarshalJSON() ([]byte, error) {
	return Marshal(n)
}

func (n *Node) UnmarshalJSON(data []byte) error {
	root, err := Unmarshal(data)
	if err != nil {
		return err
	}
	*n = *root
	return nil
}

// toValue converts n into plain maps and slices in the tagged shape.
func toValue(n *Node) map[string]any {
	if n.Kind == Leaf {
		return map[string]any{tagLeaf: map[string]any{
			"mark": n.Done,
			"text": n.Label,
		}}
	}
	items := make([]any, 0, len(n.Children))
	for _, c := range n.Children {
		items = append(items, toValue(c))
	}
	return map[string]any{tagGroup: map[string]any{
		"items": items,
		"text":  n.Label,
	}}
}

func decodeValue(v any, path string) (*Node, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &DocumentError{Path: path, Err: fmt.Errorf("expected an object tagged %s or %s, got %s", tagGroup, tagLeaf, typeName(v))}
	}
	if len(obj) != 1 {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		return nil, &DocumentError{Path: path, Err: fmt.Errorf("expected exactly one tag, got [%s]", strings.Join(keys, ", "))}
	}

	var tag string
	var raw any
	for tag, raw = range obj {
	}

	bodyPath := path + "/" + tag
	body, ok := raw.(map[string]any)
	if !ok {
		return nil, &DocumentError{Path: bodyPath, Err: fmt.Errorf("expected object, got %s", typeName(raw))}
	}

	switch tag {
	case tagLeaf:
		label, err := stringField(body, "text", bodyPath)
		if err != nil {
			return nil, err
		}
		mark, ok := body["mark"]
		if !ok {
			return nil, &DocumentError{Path: bodyPath, Err: errors.New(`missing field "mark"`)}
		}
		done, ok := mark.(bool)
		if !ok {
			return nil, &DocumentError{Path: bodyPath + "/mark", Err: fmt.Errorf("expected boolean, got %s", typeName(mark))}
		}
		return &Node{Kind: Leaf, Label: label, Done: done}, nil

	case tagGroup:
		label, err := stringField(body, "text", bodyPath)
		if err != nil {
			return nil, err
		}
		rawItems, ok := body["items"]
		if !ok {
			return nil, &DocumentError{Path: bodyPath, Err: errors.New(`missing field "items"`)}
		}
		items, ok := rawItems.([]any)
		if !ok {
			return nil, &DocumentError{Path: bodyPath + "/items", Err: fmt.Errorf("expected array, got %s", typeName(rawItems))}
		}
		group := &Node{Kind: Group, Label: label, Children: make([]*Node, 0, len(items))}
		for i, item := range items {
			child, err := decodeValue(item, bodyPath+"/items/"+strconv.Itoa(i))
			if err != nil {
				return nil, err
			}
			group.Children = append(group.Children, child)
		}
		return group, nil
	}
	return nil, &DocumentError{Path: path, Err: fmt.Errorf("unknown tag %q", tag)}
}

func stringField(body map[string]any, name, path string) (string, error) {
	raw, ok := body[name]
	if !ok {
		return "", &DocumentError{Path: path, Err: fmt.Errorf("missing field %q", name)}
	}
	s, ok := raw.(string)
	if !ok {
		return "", &DocumentError{Path: path + "/" + name, Err: fmt.Errorf("expected string, got %s", typeName(raw))}
	}
	return s, nil
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, json.Number:
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
