package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dgallion1/todotree/internal/pathstore"
	"github.com/dgallion1/todotree/internal/todolist"
)

// listScanLimit bounds a single List call against pathstore.
const listScanLimit = 1000

// Pathstore keeps each list as one tagged JSON value at <prefix>/<id>.
type Pathstore struct {
	client *pathstore.Client
	prefix string
}

// NewPathstore stores lists under prefix using client.
func NewPathstore(client *pathstore.Client, prefix string) *Pathstore {
	return &Pathstore{client: client, prefix: strings.Trim(prefix, "/")}
}

// classify sorts a client error: transport failures and temporary statuses
// are ErrUnavailable, 401/403 are ErrMisconfigured, other statuses pass
// through wrapped.
func classify(op string, err error) error {
	var se *pathstore.StatusError
	if !errors.As(err, &se) || se.Temporary() {
		return unavailable(op, err)
	}
	if se.Status == http.StatusUnauthorized || se.Status == http.StatusForbidden {
		return fmt.Errorf("%w: %s: %w", ErrMisconfigured, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (p *Pathstore) key(id string) string {
	if p.prefix == "" {
		return id
	}
	return p.prefix + "/" + id
}

func (p *Pathstore) Load(ctx context.Context, id string) (*todolist.Node, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	node, err := p.client.GetNode(ctx, p.key(id))
	if err != nil {
		return nil, classify("get list", err)
	}
	if node == nil {
		return nil, ErrNotFound
	}
	root, err := todolist.Unmarshal(node.Value)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", p.key(id), err)
	}
	return root, nil
}

func (p *Pathstore) Save(ctx context.Context, id string, root *todolist.Node) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	data, err := todolist.Marshal(root)
	if err != nil {
		return fmt.Errorf("marshal list: %w", err)
	}
	req := pathstore.NodeRequest{Value: json.RawMessage(data), Source: "todotree"}
	if err := p.client.PutNode(ctx, p.key(id), req); err != nil {
		return classify("put list", err)
	}
	return nil
}

// Delete removes the list. pathstore treats deleting a missing key as
// success, so existence is checked first.
func (p *Pathstore) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	node, err := p.client.GetNode(ctx, p.key(id))
	if err != nil {
		return classify("get list", err)
	}
	if node == nil {
		return ErrNotFound
	}
	if err := p.client.DeleteNode(ctx, p.key(id), false); err != nil {
		return classify("delete list", err)
	}
	return nil
}

func (p *Pathstore) List(ctx context.Context) ([]string, error) {
	nodes, err := p.client.ListChildren(ctx, p.prefix, listScanLimit)
	if err != nil {
		return nil, classify("list children", err)
	}
	ids := []string{}
	for _, n := range nodes {
		id := strings.TrimPrefix(n.Key, p.prefix+"/")
		if ValidateID(id) == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (p *Pathstore) Close() error {
	p.client.Close()
	return nil
}
