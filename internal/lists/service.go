// Package lists runs every list operation as one load, mutate and save cycle
// against a store, serialized per list id.
package lists

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dgallion1/todotree/internal/store"
	"github.com/dgallion1/todotree/internal/todolist"
)

// DefaultLabel names a list created without a label.
const DefaultLabel = "ToDo List"

// Service owns the list lifecycle on top of a store.
type Service struct {
	store store.Store
	locks *Locker
	label string
	log   *slog.Logger
}

// NewService builds a service. An empty label falls back to DefaultLabel and
// a nil logger to slog.Default.
func NewService(s store.Store, label string, log *slog.Logger) *Service {
	if label == "" {
		label = DefaultLabel
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: s, locks: NewLocker(), label: label, log: log}
}

// Label is the label given to fresh lists.
func (s *Service) Label() string {
	return s.label
}

// load returns the stored list, or a fresh one when none exists. A document
// that exists but cannot be decoded is an error.
func (s *Service) load(ctx context.Context, id string) (*todolist.Node, error) {
	root, err := s.store.Load(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return todolist.New(s.label), nil
	}
	if err != nil {
		return nil, err
	}
	return root, nil
}

// update runs fn on the list under the id's lock and saves the result. The
// list is not saved when fn fails.
func (s *Service) update(ctx context.Context, id string, fn func(root *todolist.Node) error) (*todolist.Node, error) {
	if err := store.ValidateID(id); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	root, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(root); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, id, root); err != nil {
		return nil, fmt.Errorf("save list %s: %w", id, err)
	}
	return root, nil
}

// Create stores a new empty list and returns its id.
func (s *Service) Create(ctx context.Context, label string) (string, *todolist.Node, error) {
	if label == "" {
		label = s.label
	}
	if err := todolist.ValidateLabel(label); err != nil {
		return "", nil, err
	}
	id := NewID()
	root := todolist.New(label)

	unlock := s.locks.Lock(id)
	defer unlock()
	if err := s.store.Save(ctx, id, root); err != nil {
		return "", nil, fmt.Errorf("create list: %w", err)
	}
	s.log.Info("list created", "list_id", id, "label", label)
	return id, root, nil
}

// Get returns the list, or a fresh one if it was never saved.
func (s *Service) Get(ctx context.Context, id string) (*todolist.Node, error) {
	if err := store.ValidateID(id); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(id)
	defer unlock()
	return s.load(ctx, id)
}

// Item returns a copy of the node at a pre-order index.
func (s *Service) Item(ctx context.Context, id string, index int) (*todolist.Node, error) {
	root, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	node, err := root.Resolve(index)
	if err != nil {
		return nil, err
	}
	return node.Clone(), nil
}

// Replace overwrites the whole list.
func (s *Service) Replace(ctx context.Context, id string, root *todolist.Node) error {
	if err := store.ValidateID(id); err != nil {
		return err
	}
	if err := root.Validate(); err != nil {
		return err
	}
	unlock := s.locks.Lock(id)
	defer unlock()
	if err := s.store.Save(ctx, id, root); err != nil {
		return fmt.Errorf("replace list %s: %w", id, err)
	}
	s.log.Info("list replaced", "list_id", id, "nodes", root.Count())
	return nil
}

// Delete removes the list. Deleting a list that was never saved reports
// store.ErrNotFound.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := store.ValidateID(id); err != nil {
		return err
	}
	unlock := s.locks.Lock(id)
	defer unlock()
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("list deleted", "list_id", id)
	return nil
}

// List returns the ids of every saved list.
func (s *Service) List(ctx context.Context) ([]string, error) {
	return s.store.List(ctx)
}

// Add appends a new task under the node at index, promoting it if it is a
// task.
func (s *Service) Add(ctx context.Context, id, label string, index int) (*todolist.Node, error) {
	if err := todolist.ValidateLabel(label); err != nil {
		return nil, err
	}
	return s.update(ctx, id, func(root *todolist.Node) error {
		parent, err := root.Resolve(index)
		if err != nil {
			return err
		}
		parent.AddChild(todolist.NewTask(label))
		s.log.Debug("task added", "list_id", id, "index", index, "label", label)
		return nil
	})
}

// Mark sets the completion flag of the node at index and of every task
// below it.
func (s *Service) Mark(ctx context.Context, id string, index int, value bool) (*todolist.Node, error) {
	return s.update(ctx, id, func(root *todolist.Node) error {
		node, err := root.Resolve(index)
		if err != nil {
			return err
		}
		node.Mark(value)
		s.log.Debug("node marked", "list_id", id, "index", index, "value", value)
		return nil
	})
}

// Remove deletes the node at index together with its descendants and
// returns it.
func (s *Service) Remove(ctx context.Context, id string, index int) (*todolist.Node, error) {
	var removed *todolist.Node
	_, err := s.update(ctx, id, func(root *todolist.Node) error {
		var err error
		removed, err = root.Remove(index)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("node removed", "list_id", id, "index", index, "nodes", removed.Count())
	return removed, nil
}

// Graft attaches a copy of subtree under the node at index.
func (s *Service) Graft(ctx context.Context, id string, index int, subtree *todolist.Node) (*todolist.Node, error) {
	if err := subtree.Validate(); err != nil {
		return nil, err
	}
	return s.update(ctx, id, func(root *todolist.Node) error {
		parent, err := root.Resolve(index)
		if err != nil {
			return err
		}
		parent.AddChild(subtree.Clone())
		s.log.Info("subtree grafted", "list_id", id, "index", index, "nodes", subtree.Count())
		return nil
	})
}

// Render writes the numbered listing of the list to w.
func (s *Service) Render(ctx context.Context, id string, w io.Writer) error {
	root, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return root.Render(w)
}

// Stats summarizes the list.
func (s *Service) Stats(ctx context.Context, id string) (todolist.Stats, error) {
	root, err := s.Get(ctx, id)
	if err != nil {
		return todolist.Stats{}, err
	}
	return root.Stats(), nil
}
