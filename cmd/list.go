package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xolan/outreach/internal/cli"
	"github.com/xolan/outreach/internal/service"
	"github.com/xolan/outreach/internal/view"
)

type listFlags struct {
	search string
	sort   string
	desc   bool
}

var listOpts listFlags

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List your entries",
	Long: `List the entries of the signed-in user.

The search matches name, email, user or category name, case-insensitively.
Without --sort entries keep the order of the collection.

Examples:
  outreach list                       All entries
  outreach list --search acme         Entries mentioning acme
  outreach list --sort category --desc`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		listEntries(cmd.Context(), listOpts)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listOpts.search, "search", "s", "", "Show only entries matching the query")
	listCmd.Flags().StringVar(&listOpts.sort, "sort", "", "Sort by column: name or category")
	listCmd.Flags().BoolVar(&listOpts.desc, "desc", false, "Sort in descending order")
}

// parseSort turns --sort and --desc into a sort state. An empty column
// means no sort.
func parseSort(column string, desc bool) (*view.SortState, error) {
	if column == "" {
		if desc {
			return nil, fmt.Errorf("--desc requires --sort")
		}
		return nil, nil
	}
	col, err := view.ParseColumn(column)
	if err != nil {
		return nil, err
	}
	dir := view.Ascending
	if desc {
		dir = view.Descending
	}
	return &view.SortState{Column: col, Direction: dir}, nil
}

func listEntries(ctx context.Context, f listFlags) {
	sortState, err := parseSort(f.sort, f.desc)
	if err != nil {
		_, _ = fmt.Fprintln(deps.Stderr, "Error: Invalid sort options")
		_, _ = fmt.Fprintf(deps.Stderr, "Details: %v\n", err)
		_, _ = fmt.Fprintln(deps.Stderr, "Hint: Valid --sort values: name, category")
		deps.Exit(1)
		return
	}

	services := openServices(ctx)
	if services == nil {
		return
	}
	defer func() { _ = services.Close() }()

	rows, err := services.Entry.List(ctx, service.ListOptions{Query: f.search, Sort: sortState})
	if err != nil {
		reportError("list entries", err)
		return
	}
	total := len(services.Store.Snapshot())

	if len(rows) == 0 {
		if f.search != "" {
			_, _ = fmt.Fprintf(deps.Stdout, "No entries found matching '%s'\n", f.search)
			return
		}
		_, _ = fmt.Fprintln(deps.Stdout, "No entries yet")
		_, _ = fmt.Fprintln(deps.Stdout, "Add one with: outreach add <name> [--email addr] [--category name]")
		return
	}

	cli.WriteEntryTable(deps.Stdout, rows)
	_, _ = fmt.Fprintln(deps.Stdout)
	_, _ = fmt.Fprintln(deps.Stdout, cli.FormatCount(len(rows), total))
}
