// Package store persists whole lists. Every backend reads and writes a
// complete tree per list id; callers serialize access per id.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/dgallion1/todotree/internal/todolist"
)

var (
	// ErrNotFound means no document exists for the id. It is the only load
	// failure a caller may replace with a fresh list.
	ErrNotFound = errors.New("list not found")
	// ErrUnavailable wraps failures to reach the backing store.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrMisconfigured means the backing store rejected our credentials.
	ErrMisconfigured = errors.New("storage rejected credentials")
	// ErrInvalidID rejects ids that cannot name a document safely.
	ErrInvalidID = errors.New("invalid list id")
)

// Store loads and saves whole lists by id.
type Store interface {
	Load(ctx context.Context, id string) (*todolist.Node, error)
	Save(ctx context.Context, id string, root *todolist.Node) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
	Close() error
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidateID checks that id is usable as a file name, row key and KV path
// segment.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}
