package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xolan/outreach/internal/tui"
)

// tuiCmd represents the tui command
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	Long: `Launch the interactive terminal UI for outreach.

The entry table updates live as the collection changes.

Keyboard shortcuts:
  - j/k or arrows: Move the selection
  - /: Search (filters while you type)
  - s/c: Sort by name/category, again to reverse
  - n/e/d: New, edit or delete an entry
  - L: Sign out
  - ?: Show help
  - q: Quit`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runTUI(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)

	// Add --tui flag to root command for quick access
	rootCmd.PersistentFlags().Bool("tui", false, "Launch interactive terminal UI")
}

// runTUI initializes and runs the TUI application
func runTUI(ctx context.Context) {
	services := openServices(ctx)
	if services == nil {
		return
	}
	defer func() { _ = services.Close() }()

	if err := tui.Run(services); err != nil {
		_, _ = fmt.Fprintf(deps.Stderr, "Error running TUI: %v\n", err)
		deps.Exit(1)
	}
}

// CheckTUIFlag checks if the --tui flag is set and runs the TUI if so.
// Returns true if the TUI was launched, false otherwise.
func CheckTUIFlag(cmd *cobra.Command) bool {
	tuiFlag, _ := cmd.Root().PersistentFlags().GetBool("tui")
	if tuiFlag {
		runTUI(cmd.Context())
		return true
	}
	return false
}
