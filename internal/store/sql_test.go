package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dgallion1/todotree/internal/todolist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQL_RowIDsArePreOrderIndexes(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQL(ctx, "sqlite", filepath.Join(t.TempDir(), "todo.db"))
	require.NoError(t, err)
	defer s.Close()

	root := shopping()
	require.NoError(t, s.Save(ctx, "todo", root))

	rows, err := s.db.QueryContext(ctx, `SELECT id, text FROM todo_items WHERE list_id = ? ORDER BY id`, "todo")
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var id int
		var text string
		require.NoError(t, rows.Scan(&id, &text))
		node, err := root.Resolve(id)
		require.NoError(t, err)
		assert.Equal(t, node.Label, text, "row %d", id)
	}
	require.NoError(t, rows.Err())
}

func TestSQL_ListsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQL(ctx, "sqlite", filepath.Join(t.TempDir(), "todo.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(ctx, "a", shopping()))
	require.NoError(t, s.Save(ctx, "b", todolist.New("B")))
	require.NoError(t, s.Delete(ctx, "b"))

	got, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.True(t, todolist.Equal(shopping(), got))
}

func TestSQL_Rebind(t *testing.T) {
	pg := NewSQL(nil, "pgx")
	assert.Equal(t, "SELECT $1, $2", pg.rebind("SELECT ?, ?"))
	lite := NewSQL(nil, "sqlite")
	assert.Equal(t, "SELECT ?, ?", lite.rebind("SELECT ?, ?"))
}

func TestBuildTree_OrdersChildrenByPosition(t *testing.T) {
	root := sql.NullInt64{}
	under := func(id int64) sql.NullInt64 { return sql.NullInt64{Int64: id, Valid: true} }
	got, err := buildTree([]itemRow{
		{ID: 0, ParentID: root, Kind: "group", Text: "list"},
		{ID: 1, ParentID: under(0), Position: 1, Kind: "leaf", Text: "second"},
		{ID: 2, ParentID: under(0), Position: 0, Kind: "leaf", Text: "first", Mark: true},
	})
	require.NoError(t, err)
	require.Len(t, got.Children, 2)
	assert.Equal(t, "first", got.Children[0].Label)
	assert.True(t, got.Children[0].Done)
	assert.Equal(t, "second", got.Children[1].Label)
}

func TestBuildTree_Corrupt(t *testing.T) {
	under := func(id int64) sql.NullInt64 { return sql.NullInt64{Int64: id, Valid: true} }
	tests := []struct {
		name string
		rows []itemRow
	}{
		{"unknown kind", []itemRow{{ID: 0, Kind: "folder", Text: "x"}}},
		{"two roots", []itemRow{{ID: 0, Kind: "group"}, {ID: 1, Kind: "group"}}},
		{"orphan", []itemRow{{ID: 0, Kind: "group"}, {ID: 1, ParentID: under(7), Kind: "leaf"}}},
		{"leaf parent", []itemRow{{ID: 0, Kind: "group"}, {ID: 1, ParentID: under(0), Kind: "leaf"}, {ID: 2, ParentID: under(1), Kind: "leaf"}}},
		{"no root", []itemRow{{ID: 0, ParentID: under(1), Kind: "group"}, {ID: 1, ParentID: under(0), Kind: "group"}}},
		{"detached cycle", []itemRow{
			{ID: 0, Kind: "group"},
			{ID: 1, ParentID: under(2), Kind: "group"},
			{ID: 2, ParentID: under(1), Kind: "group"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildTree(tt.rows)
			assert.ErrorIs(t, err, todolist.ErrMalformedDocument)
		})
	}
}
