package cmd

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xolan/outreach/internal/cli"
	"github.com/xolan/outreach/internal/view"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete an entry",
	Long: `Delete one of your entries. The entry is shown and you are asked to
confirm; pass --yes to skip the prompt. Without a terminal on stdin --yes
is required.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		deleteEntry(cmd.Context(), args[0], deleteYes)
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Delete without asking for confirmation")
}

func deleteEntry(ctx context.Context, id string, yes bool) {
	services := openServices(ctx)
	if services == nil {
		return
	}
	defer func() { _ = services.Close() }()

	e, err := services.Entry.Get(ctx, id)
	if err != nil {
		reportError("find entry", err)
		return
	}
	row := view.Row{Entry: e, Category: services.Categories.Resolve(e.Category)}

	if !yes {
		if !deps.IsInteractive() {
			_, _ = fmt.Fprintln(deps.Stderr, "Error: Refusing to delete without confirmation")
			_, _ = fmt.Fprintln(deps.Stderr, "Hint: Pass --yes to delete from a script")
			deps.Exit(1)
			return
		}
		_, _ = fmt.Fprintln(deps.Stdout, "Entry to delete:")
		cli.WriteEntryDetail(deps.Stdout, row)
		_, _ = fmt.Fprintln(deps.Stdout)
		if !promptConfirmation() {
			_, _ = fmt.Fprintln(deps.Stdout, "Deletion cancelled.")
			return
		}
	}

	if _, err := services.Entry.Delete(ctx, id); err != nil {
		reportError("delete entry", err)
		return
	}
	_, _ = fmt.Fprintf(deps.Stdout, "Deleted: %s\n", cli.FormatEntryLine(row))
}

// promptConfirmation reads a y/N answer from stdin.
func promptConfirmation() bool {
	_, _ = fmt.Fprint(deps.Stdout, "Delete this entry? [y/N]: ")

	scanner := bufio.NewScanner(deps.Stdin)
	if !scanner.Scan() {
		return false
	}

	response := strings.TrimSpace(scanner.Text())
	return response == "y" || response == "Y"
}
