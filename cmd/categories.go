package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xolan/outreach/internal/category"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the entry categories",
	Long: `List the categories an entry can have. Commands accept either the name
(case-insensitive, trailing dot optional) or the code.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		listCategories(category.Default())
	},
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}

func listCategories(reg *category.Registry) {
	_, _ = fmt.Fprintln(deps.Stdout, "Categories:")
	for _, c := range reg.List() {
		_, _ = fmt.Fprintf(deps.Stdout, "  %d  %s\n", c.ID, c.Name)
	}
}
