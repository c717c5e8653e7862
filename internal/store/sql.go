package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dgallion1/todotree/internal/todolist"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const createItemsTable = `
CREATE TABLE IF NOT EXISTS todo_items (
	list_id   TEXT    NOT NULL,
	id        INTEGER NOT NULL,
	parent_id INTEGER,
	position  INTEGER NOT NULL,
	kind      TEXT    NOT NULL,
	text      TEXT    NOT NULL,
	mark      BOOLEAN NOT NULL DEFAULT FALSE,
	PRIMARY KEY (list_id, id)
)`

// SQL stores each node as a row of todo_items. Rows are rewritten on every
// save with id equal to the node's pre-order index, so row ids and
// positional indexes agree for a freshly saved list.
type SQL struct {
	db     *sql.DB
	driver string
}

// OpenSQL connects with driver ("pgx" or "sqlite") and creates the table.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQL, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// One connection keeps in-memory databases shared and writes serial.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, unavailable("connect", err)
	}
	s := NewSQL(db, driver)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQL wraps an open database.
func NewSQL(db *sql.DB, driver string) *SQL {
	return &SQL{db: db, driver: driver}
}

// Migrate creates the items table if it does not exist.
func (s *SQL) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createItemsTable); err != nil {
		return unavailable("migrate", err)
	}
	return nil
}

// rebind rewrites ? placeholders as $1, $2, ... for postgres.
func (s *SQL) rebind(query string) string {
	if s.driver != "pgx" {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

type itemRow struct {
	ID       int64
	ParentID sql.NullInt64
	Position int
	Kind     string
	Text     string
	Mark     bool
}

// flatten emits rows in pre-order; *next is the next id to assign.
func flatten(n *todolist.Node, parent sql.NullInt64, pos int, next *int64, rows *[]itemRow) {
	id := *next
	*next++
	*rows = append(*rows, itemRow{
		ID:       id,
		ParentID: parent,
		Position: pos,
		Kind:     n.Kind.String(),
		Text:     n.Label,
		Mark:     n.Done,
	})
	for i, c := range n.Children {
		flatten(c, sql.NullInt64{Int64: id, Valid: true}, i, next, rows)
	}
}

func (s *SQL) Save(ctx context.Context, id string, root *todolist.Node) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	var rows []itemRow
	var next int64
	flatten(root, sql.NullInt64{}, 0, &next, &rows)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM todo_items WHERE list_id = ?`), id); err != nil {
		return unavailable("clear rows", err)
	}
	stmt, err := tx.PrepareContext(ctx, s.rebind(
		`INSERT INTO todo_items (list_id, id, parent_id, position, kind, text, mark) VALUES (?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return unavailable("prepare insert", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, id, r.ID, r.ParentID, r.Position, r.Kind, r.Text, r.Mark); err != nil {
			return unavailable("insert row", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return unavailable("commit", err)
	}
	return nil
}

func (s *SQL) Load(ctx context.Context, id string) (*todolist.Node, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	rs, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, parent_id, position, kind, text, mark FROM todo_items WHERE list_id = ? ORDER BY id`), id)
	if err != nil {
		return nil, unavailable("query rows", err)
	}
	defer rs.Close()

	var rows []itemRow
	for rs.Next() {
		var r itemRow
		if err := rs.Scan(&r.ID, &r.ParentID, &r.Position, &r.Kind, &r.Text, &r.Mark); err != nil {
			return nil, unavailable("scan row", err)
		}
		rows = append(rows, r)
	}
	if err := rs.Err(); err != nil {
		return nil, unavailable("read rows", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return buildTree(rows)
}

// buildTree rebuilds parent->children adjacency from rows. Children are
// ordered by position, not by id.
func buildTree(rows []itemRow) (*todolist.Node, error) {
	corrupt := func(format string, args ...any) error {
		return &todolist.DocumentError{Path: "todo_items", Err: fmt.Errorf(format, args...)}
	}

	nodes := make(map[int64]*todolist.Node, len(rows))
	for _, r := range rows {
		n := &todolist.Node{Label: r.Text}
		switch r.Kind {
		case "group":
			n.Kind = todolist.Group
			n.Children = []*todolist.Node{}
		case "leaf":
			n.Kind = todolist.Leaf
			n.Done = r.Mark
		default:
			return nil, corrupt("row %d: unknown kind %q", r.ID, r.Kind)
		}
		nodes[r.ID] = n
	}

	var root *todolist.Node
	byParent := make(map[int64][]itemRow)
	for _, r := range rows {
		if !r.ParentID.Valid {
			if root != nil {
				return nil, corrupt("row %d: second root", r.ID)
			}
			root = nodes[r.ID]
			continue
		}
		parent, ok := nodes[r.ParentID.Int64]
		if !ok {
			return nil, corrupt("row %d: missing parent %d", r.ID, r.ParentID.Int64)
		}
		if parent.Kind != todolist.Group {
			return nil, corrupt("row %d: parent %d is a leaf", r.ID, r.ParentID.Int64)
		}
		byParent[r.ParentID.Int64] = append(byParent[r.ParentID.Int64], r)
	}
	if root == nil {
		return nil, corrupt("no root row")
	}

	for parentID, children := range byParent {
		sort.SliceStable(children, func(i, j int) bool { return children[i].Position < children[j].Position })
		parent := nodes[parentID]
		for _, c := range children {
			parent.Children = append(parent.Children, nodes[c.ID])
		}
	}
	if root.Count() != len(rows) {
		return nil, corrupt("rows form a cycle or detached subtree")
	}
	return root, nil
}

func (s *SQL) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM todo_items WHERE list_id = ?`), id)
	if err != nil {
		return unavailable("delete rows", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("delete rows", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQL) List(ctx context.Context) ([]string, error) {
	rs, err := s.db.QueryContext(ctx, `SELECT DISTINCT list_id FROM todo_items ORDER BY list_id`)
	if err != nil {
		return nil, unavailable("list ids", err)
	}
	defer rs.Close()

	ids := []string{}
	for rs.Next() {
		var id string
		if err := rs.Scan(&id); err != nil {
			return nil, unavailable("scan id", err)
		}
		ids = append(ids, id)
	}
	if err := rs.Err(); err != nil {
		return nil, unavailable("list ids", err)
	}
	return ids, nil
}

func (s *SQL) Close() error {
	if err := s.db.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		return err
	}
	return nil
}
