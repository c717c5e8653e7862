package cli

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/dgallion1/todotree/internal/parser"
	"github.com/dgallion1/todotree/internal/todolist"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func parseIndex(s string) (int, error) {
	index, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("index must be an integer, got %q", s)
	}
	return index, nil
}

// indexFlag registers --index/-i, the parent node for new items.
func indexFlag(fs *pflag.FlagSet, p *int) {
	fs.IntVarP(p, "index", "i", 0, "parent item index")
}

func newAddCommand(a *app) *cobra.Command {
	var index int
	cmd := &cobra.Command{
		Use:   "add <label>",
		Short: "Add a task under the item at --index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.lists.Add(cmd.Context(), a.listID, args[0], index)
			return err
		},
	}
	indexFlag(cmd.Flags(), &index)
	return cmd
}

func newMarkCommand(a *app) *cobra.Command {
	var value bool
	cmd := &cobra.Command{
		Use:   "mark <index>",
		Short: "Mark an item, and everything below it, done or pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			_, err = a.lists.Mark(cmd.Context(), a.listID, index, value)
			return err
		},
	}
	cmd.Flags().BoolVar(&value, "value", true, "completion state to set")
	return cmd
}

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Print the numbered list",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.lists.Render(cmd.Context(), a.listID, cmd.OutOrStdout())
		},
	}
}

func newRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <index>",
		Aliases: []string{"rm"},
		Short:   "Remove an item and everything below it",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			removed, err := a.lists.Remove(cmd.Context(), a.listID, index)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %q (%d items)\n", removed.Label, removed.Count())
			return nil
		},
	}
}

func newExportCommand(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the list as a json, yaml or toml document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := todolist.ParseFormat(format)
			if err != nil {
				return err
			}
			root, err := a.lists.Get(cmd.Context(), a.listID)
			if err != nil {
				return err
			}
			return todolist.Encode(cmd.OutOrStdout(), root, f)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "document format (json, yaml, toml)")
	return cmd
}

func newImportCommand(a *app) *cobra.Command {
	var (
		index int
		title string
	)
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Parse a document and add its tasks under --index",
		Long: `Parse a document and add its tasks under --index as a new group.
Supported: ` + supportedList(),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			p, err := parser.ForFile(path)
			if err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			subtree, err := p.Parse(f, path)
			if err != nil {
				return fmt.Errorf("parse %s: %w", path, err)
			}
			if title != "" {
				subtree.Label = title
			}
			if _, err := a.lists.Graft(cmd.Context(), a.listID, index, subtree); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d items from %s\n", subtree.Count(), path)
			return nil
		},
	}
	indexFlag(cmd.Flags(), &index)
	cmd.Flags().StringVar(&title, "title", "", "label for the imported group (default: file name)")
	return cmd
}

func supportedList() string {
	exts := make([]string, 0, len(parser.SupportedExtensions))
	for ext := range parser.SupportedExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return strings.Join(exts, " ")
}
