package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xolan/outreach/internal/category"
	"github.com/xolan/outreach/internal/cli"
	"github.com/xolan/outreach/internal/entry"
	"github.com/xolan/outreach/internal/view"
)

type addFlags struct {
	email    string
	user     string
	category string
}

var addOpts addFlags

var addCmd = &cobra.Command{
	Use:   "add <name...>",
	Short: "Add an entry",
	Long: `Add an entry for the signed-in user.

All arguments are joined to form the name. The category is a name or a
numeric code (see 'outreach categories') and defaults to Misc.

Examples:
  outreach add Zoe Park
  outreach add Zoe Park --email zoe@acme.io --user zpark --category business
  outreach add "Bob Stone" -c 1`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		addEntry(cmd.Context(), args, addOpts)
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addOpts.email, "email", "e", "", "Email address")
	addCmd.Flags().StringVarP(&addOpts.user, "user", "u", "", "User handle")
	addCmd.Flags().StringVarP(&addOpts.category, "category", "c", "Misc.", "Category name or code")
}

// lookupCategory resolves a --category value, reporting an unknown one.
func lookupCategory(reg *category.Registry, value string) (category.Category, bool) {
	c, ok := reg.Lookup(value)
	if !ok {
		names := make([]string, 0)
		for _, known := range reg.List() {
			names = append(names, known.Name)
		}
		_, _ = fmt.Fprintf(deps.Stderr, "Error: Unknown category '%s'\n", value)
		_, _ = fmt.Fprintf(deps.Stderr, "Hint: Valid categories: %s\n", strings.Join(names, ", "))
		deps.Exit(1)
	}
	return c, ok
}

func addEntry(ctx context.Context, args []string, f addFlags) {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		_, _ = fmt.Fprintln(deps.Stderr, "Error: Name cannot be empty")
		_, _ = fmt.Fprintln(deps.Stderr, "Usage: outreach add <name...> [--email addr] [--user handle] [--category name]")
		deps.Exit(1)
		return
	}

	services := openServices(ctx)
	if services == nil {
		return
	}
	defer func() { _ = services.Close() }()

	cat, ok := lookupCategory(services.Categories, f.category)
	if !ok {
		return
	}

	created, err := services.Entry.Add(ctx, entry.Draft{
		Name:     name,
		Email:    f.email,
		User:     f.user,
		Category: cat.ID,
	})
	if err != nil {
		reportError("add entry", err)
		return
	}
	_, _ = fmt.Fprintf(deps.Stdout, "Added: %s\n", cli.FormatEntryLine(view.Row{Entry: created, Category: cat}))
}
