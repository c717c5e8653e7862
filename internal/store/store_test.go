package store

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgallion1/todotree/internal/config"
	"github.com/dgallion1/todotree/internal/pathstore"
	"github.com/dgallion1/todotree/internal/pathstore/pathstoretest"
	"github.com/dgallion1/todotree/internal/todolist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shopping() *todolist.Node {
	root := todolist.New("ToDo List")
	root.AddChild(todolist.NewTask("buy milk"))
	party := todolist.NewTask("party")
	party.AddChild(todolist.NewTask("cake"))
	root.AddChild(party)
	root.AddChild(todolist.New("someday"))
	eggs := todolist.NewTask("eggs")
	eggs.Mark(true)
	root.AddChild(eggs)
	return root
}

// backends returns a fresh instance of every store implementation.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()

	file, err := NewFile(t.TempDir(), todolist.JSON)
	require.NoError(t, err)
	yamlFile, err := NewFile(t.TempDir(), todolist.YAML)
	require.NoError(t, err)

	db, err := OpenSQL(ctx, "sqlite", filepath.Join(t.TempDir(), "todo.db"))
	require.NoError(t, err)

	srv := pathstoretest.NewServer("secret")
	t.Cleanup(srv.Close)
	kv := NewPathstore(pathstore.NewClient(srv.URL, "secret"), "todo/lists")

	all := map[string]Store{"file": file, "file-yaml": yamlFile, "sql": db, "pathstore": kv}
	t.Cleanup(func() {
		for _, s := range all {
			s.Close()
		}
	})
	return all
}

func TestStores_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			want := shopping()
			require.NoError(t, s.Save(ctx, "groceries", want))

			got, err := s.Load(ctx, "groceries")
			require.NoError(t, err)
			assert.True(t, todolist.Equal(want, got), "got %s", got)

			// Saving again replaces rather than appends.
			want.Children = want.Children[:1]
			require.NoError(t, s.Save(ctx, "groceries", want))
			got, err = s.Load(ctx, "groceries")
			require.NoError(t, err)
			assert.Equal(t, 2, got.Count())
		})
	}
}

func TestStores_NotFound(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Load(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.Delete(ctx, "missing"), ErrNotFound)
		})
	}
}

func TestStores_DeleteAndList(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Save(ctx, "a", todolist.New("A")))
			require.NoError(t, s.Save(ctx, "b", todolist.New("B")))

			ids, err := s.List(ctx)
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"a", "b"}, ids)

			require.NoError(t, s.Delete(ctx, "a"))
			_, err = s.Load(ctx, "a")
			assert.ErrorIs(t, err, ErrNotFound)

			ids, err = s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"b"}, ids)
		})
	}
}

func TestStores_InvalidID(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"", "../etc", "a/b", ".hidden"} {
				_, err := s.Load(ctx, id)
				assert.ErrorIs(t, err, ErrInvalidID, id)
				assert.ErrorIs(t, s.Save(ctx, id, todolist.New("x")), ErrInvalidID, id)
			}
		})
	}
}

func TestFile_CorruptDocumentIsReported(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFile(dir, todolist.JSON, WithExt("txt"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "todo.txt"), []byte(`{"Item":{"text":"x"}}`), 0o644))

	_, err = s.Load(context.Background(), "todo")
	assert.ErrorIs(t, err, todolist.ErrMalformedDocument)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestFile_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFile(dir, todolist.TOML)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), "todo", shopping()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "todo.toml", entries[0].Name())
}

func TestPathstore_StoresTaggedDocument(t *testing.T) {
	srv := pathstoretest.NewServer("secret")
	defer srv.Close()
	s := NewPathstore(pathstore.NewClient(srv.URL, "secret"), "/todo/lists/")

	require.NoError(t, s.Save(context.Background(), "todo", todolist.New("ToDo List")))
	raw, ok := srv.Value("todo/lists/todo")
	require.True(t, ok)
	assert.JSONEq(t, `{"Container":{"items":[],"text":"ToDo List"}}`, string(raw))
}

func TestPathstore_CorruptAndUnavailable(t *testing.T) {
	srv := pathstoretest.NewServer("secret")
	defer srv.Close()
	s := NewPathstore(pathstore.NewClient(srv.URL, "secret"), "todo/lists")
	ctx := context.Background()

	srv.Set("todo/lists/bad", []byte(`{"Container":{"text":"x"}}`))
	_, err := s.Load(ctx, "bad")
	assert.ErrorIs(t, err, todolist.ErrMalformedDocument)

	srv.FailWith = 503
	_, err = s.Load(ctx, "bad")
	assert.ErrorIs(t, err, ErrUnavailable)
	var se *pathstore.StatusError
	require.True(t, errors.As(err, &se))
	assert.True(t, se.Temporary())
}

func TestPathstore_ClassifiesStatus(t *testing.T) {
	tests := []struct {
		status       int
		unavailable  bool
		misconfigured bool
	}{
		{http.StatusTooManyRequests, true, false},
		{http.StatusBadGateway, true, false},
		{http.StatusUnauthorized, false, true},
		{http.StatusForbidden, false, true},
		{http.StatusBadRequest, false, false},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := pathstoretest.NewServer("secret")
			defer srv.Close()
			s := NewPathstore(pathstore.NewClient(srv.URL, "secret"), "todo/lists")
			srv.FailWith = tt.status

			err := s.Save(context.Background(), "todo", todolist.New("ToDo List"))
			require.Error(t, err)
			assert.Equal(t, tt.unavailable, errors.Is(err, ErrUnavailable))
			assert.Equal(t, tt.misconfigured, errors.Is(err, ErrMisconfigured))
		})
	}

	s := NewPathstore(pathstore.NewClient("http://127.0.0.1:1", "secret"), "todo/lists")
	_, err := s.Load(context.Background(), "todo")
	assert.ErrorIs(t, err, ErrUnavailable, "transport failures are unavailable")
}

func TestOpen_SelectsBackend(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.Config{
		Backend:     config.BackendFile,
		DataDir:     t.TempDir(),
		Format:      "yaml",
		JobTTL:      time.Minute,
		StatsWindow: 3 * time.Hour,
	})
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &File{}, s.Store)
	assert.Equal(t, "file", s.Stats().Backend)
	assert.Equal(t, 3*time.Hour, s.load.maxAge)

	db, err := Open(ctx, config.Config{
		Backend:        config.BackendSQL,
		DatabaseDriver: "sqlite",
		DatabaseURL:    filepath.Join(t.TempDir(), "todo.db"),
	})
	require.NoError(t, err)
	defer db.Close()
	assert.IsType(t, &SQL{}, db.Store)

	_, err = Open(ctx, config.Config{Backend: config.BackendPathstore})
	assert.Error(t, err, "pathstore needs an api key")
}
