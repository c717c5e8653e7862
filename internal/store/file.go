package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/todotree/internal/todolist"
)

// File keeps one document per list in a directory.
type File struct {
	dir    string
	format todolist.Format
	ext    string
}

// FileOption customizes a File store.
type FileOption func(*File)

// WithExt overrides the file extension, e.g. ".txt" for a JSON list kept in
// todo.txt.
func WithExt(ext string) FileOption {
	return func(f *File) {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		f.ext = ext
	}
}

// NewFile creates dir if needed and stores lists in it using format.
func NewFile(dir string, format todolist.Format, opts ...FileOption) (*File, error) {
	f := &File{dir: dir, format: format, ext: format.Ext()}
	for _, opt := range opts {
		opt(f)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, unavailable("create data dir", err)
	}
	return f, nil
}

// Path returns the file holding list id.
func (f *File) Path(id string) string {
	return filepath.Join(f.dir, id+f.ext)
}

func (f *File) Load(ctx context.Context, id string) (*todolist.Node, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("read list", err)
	}
	root, err := todolist.Decode(bytes.NewReader(data), f.format)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", f.Path(id), err)
	}
	return root, nil
}

// Save replaces the document atomically: the tree is written to a temp file
// in the same directory and renamed over the old one.
func (f *File) Save(ctx context.Context, id string, root *todolist.Node) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.dir, "."+id+"-*.tmp")
	if err != nil {
		return unavailable("create temp file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := todolist.Encode(tmp, root, f.format); err != nil {
		tmp.Close()
		return fmt.Errorf("write list: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return unavailable("write list", err)
	}
	if err := os.Rename(tmpPath, f.Path(id)); err != nil {
		return unavailable("replace list", err)
	}
	return nil
}

func (f *File) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	err := os.Remove(f.Path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return unavailable("delete list", err)
	}
	return nil
}

func (f *File) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, unavailable("read data dir", err)
	}
	ids := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), f.ext) {
			continue
		}
		id := strings.TrimSuffix(e.Name(), f.ext)
		if ValidateID(id) == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *File) Close() error {
	return nil
}
