// Package cli implements the todo command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dgallion1/todotree/internal/config"
	"github.com/dgallion1/todotree/internal/lists"
	"github.com/dgallion1/todotree/internal/store"
	"github.com/dgallion1/todotree/internal/todolist"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
)

// DefaultList is the list id used when neither --list nor --file is given.
const DefaultList = "todo"

type app struct {
	configPath string
	file       string
	listID     string
	logLevel   string

	// open builds the configured store when --file is not given.
	open func(ctx context.Context, cfg config.Config) (store.Store, error)

	log   *slog.Logger
	store store.Store
	lists *lists.Service
}

func newApp() *app {
	return &app{
		open: func(ctx context.Context, cfg config.Config) (store.Store, error) {
			return store.Open(ctx, cfg)
		},
	}
}

// Execute runs the todo command line with args. The store is closed
// whether or not the command succeeds.
func Execute(args []string, stdout, stderr io.Writer) error {
	a := newApp()
	cmd := a.command(stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return a.execute(cmd)
}

func (a *app) execute(cmd *cobra.Command) error {
	err := cmd.Execute()
	if a.store != nil {
		if cerr := a.store.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close store: %w", cerr)
		}
	}
	return err
}

// command builds the todo command tree. Diagnostics go to stderr.
func (a *app) command(stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "todo",
		Short: "Keep a nested to-do list",
		Long: `todo keeps a tree of tasks. Every node is addressed by its pre-order
index as printed by "todo list"; 0 is the list itself.

Examples:
  todo add "buy milk"          # add a task to the list
  todo add eggs --index 1      # add under item 1, turning it into a group
  todo mark 2                  # mark item 2 and everything below it done
  todo mark 0 --value=false    # reset the whole list
  todo list`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd, stderr)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (yaml, toml or json)")
	flags.StringVarP(&a.file, "file", "f", "", "keep the list in this file instead of the configured store")
	flags.StringVarP(&a.listID, "list", "l", DefaultList, "list id within the store")
	flags.StringVar(&a.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newAddCommand(a),
		newMarkCommand(a),
		newListCommand(a),
		newRemoveCommand(a),
		newExportCommand(a),
		newImportCommand(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, stderr io.Writer) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level %q", a.logLevel)
	}
	a.log = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	if a.file != "" {
		s, id, err := openFile(a.file)
		if err != nil {
			return err
		}
		a.store, a.listID = s, id
	} else {
		s, err := a.open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		a.store = s
	}
	a.lists = lists.NewService(a.store, cfg.DefaultLabel, a.log)
	a.log.Debug("store ready", "backend", cfg.Backend, "list_id", a.listID)
	return nil
}

// openFile serves a single document at path: the directory becomes the
// store and the base name, minus its extension, the list id.
func openFile(path string) (store.Store, string, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, "", err
	}
	ext := filepath.Ext(path)
	id := strings.TrimSuffix(filepath.Base(path), ext)
	if err := store.ValidateID(id); err != nil {
		return nil, "", fmt.Errorf("--file %s: %w", path, err)
	}
	s, err := store.NewFile(filepath.Dir(path), todolist.FormatFromExt(path), store.WithExt(ext))
	if err != nil {
		return nil, "", err
	}
	return s, id, nil
}
