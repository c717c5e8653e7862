package todolist

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	// ErrOutOfRange is matched by every IndexError.
	ErrOutOfRange = errors.New("index out of range")
	// ErrMalformedDocument is matched by every DocumentError.
	ErrMalformedDocument = errors.New("malformed document")
	// ErrRemoveRoot is returned when removing index 0.
	ErrRemoveRoot = errors.New("cannot remove the root of a list")
	// ErrInvalidLabel is matched by every LabelError.
	ErrInvalidLabel = errors.New("invalid label")
)

// LabelError reports a label that cannot be stored without loss.
type LabelError struct {
	Index int // pre-order index of the node carrying the label
	Label string
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("label at index %d is not valid UTF-8: %q", e.Index, e.Label)
}

func (e *LabelError) Is(target error) bool {
	return target == ErrInvalidLabel
}

// IndexError reports a pre-order index outside [0, Size).
type IndexError struct {
	Index int
	Size  int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %d out of range [0, %d)", e.Index, e.Size)
}

func (e *IndexError) Is(target error) bool {
	return target == ErrOutOfRange
}

// DocumentError reports a serialized list that does not match the tagged
// Container/Item shape.
type DocumentError struct {
	Path string // location inside the document, e.g. "Container.items[2]"
	Err  error
}

func (e *DocumentError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("malformed document at %s: %s", e.Path, e.Err)
	}
	return fmt.Sprintf("malformed document: %s", e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

func (e *DocumentError) Is(target error) bool {
	return target == ErrMalformedDocument
}

// ValidateLabel rejects labels that JSON would rewrite: invalid UTF-8 is
// replaced with U+FFFD on encode.
func ValidateLabel(label string) error {
	if !utf8.ValidString(label) {
		return &LabelError{Label: label}
	}
	return nil
}

// Validate checks every label in the tree rooted at n.
func (n *Node) Validate() error {
	var err error
	n.Walk(func(node *Node, _ int, index int) bool {
		if err == nil && !utf8.ValidString(node.Label) {
			err = &LabelError{Index: index, Label: node.Label}
		}
		return err == nil
	})
	return err
}
