package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xolan/outreach/internal/cli"
	"github.com/xolan/outreach/internal/entry"
	"github.com/xolan/outreach/internal/view"
)

// editFlags holds the new values; a nil field was not given.
type editFlags struct {
	name     *string
	email    *string
	user     *string
	category *string
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit an existing entry",
	Long: `Change fields of one of your entries. Only the given flags are changed;
pass an empty string to clear the email or user.

Examples:
  outreach edit 01J9ZQ --name "Zoe Park-Lee"
  outreach edit 01J9ZQ --email "" --category entertainment`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var f editFlags
		set := func(name string) *string {
			if !cmd.Flags().Changed(name) {
				return nil
			}
			v, _ := cmd.Flags().GetString(name)
			return &v
		}
		f.name = set("name")
		f.email = set("email")
		f.user = set("user")
		f.category = set("category")
		editEntry(cmd.Context(), args[0], f)
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().String("name", "", "New name")
	editCmd.Flags().StringP("email", "e", "", "New email address")
	editCmd.Flags().StringP("user", "u", "", "New user handle")
	editCmd.Flags().StringP("category", "c", "", "New category name or code")
}

func editEntry(ctx context.Context, id string, f editFlags) {
	if f.name == nil && f.email == nil && f.user == nil && f.category == nil {
		_, _ = fmt.Fprintln(deps.Stderr, "Error: Nothing to change")
		_, _ = fmt.Fprintln(deps.Stderr, "Usage: outreach edit <id> [--name text] [--email addr] [--user handle] [--category name]")
		deps.Exit(1)
		return
	}

	services := openServices(ctx)
	if services == nil {
		return
	}
	defer func() { _ = services.Close() }()

	patch := entry.Patch{Name: f.name, Email: f.email, User: f.user}
	if f.category != nil {
		cat, ok := lookupCategory(services.Categories, *f.category)
		if !ok {
			return
		}
		patch.Category = &cat.ID
	}

	updated, err := services.Entry.Edit(ctx, id, patch)
	if err != nil {
		reportError("edit entry", err)
		return
	}
	row := view.Row{Entry: updated, Category: services.Categories.Resolve(updated.Category)}
	_, _ = fmt.Fprintf(deps.Stdout, "Updated: %s\n", cli.FormatEntryLine(row))
}
