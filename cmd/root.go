package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "outreach",
	Short: "A live list of outreach contacts",
	Long: `outreach keeps a list of outreach contacts (name, email, user handle and
category) in a shared collection and shows your own entries as they change.

Usage:
  outreach                                  List your entries
  outreach list --search acme --sort name   Filter and sort the list
  outreach add Zoe Park --email zoe@acme.io --category business
  outreach edit <id> --category politics    Change fields of an entry
  outreach delete <id>                      Delete an entry (with confirmation)
  outreach watch                            Print the list every time it changes
  outreach tui                              Interactive terminal UI
  outreach serve                            Share a collection over websockets
  outreach token <user>                     Mint a token for the remote backend

The backend and the signed-in user come from the config file
(see 'outreach config') and OUTREACH_* environment variables.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if CheckTUIFlag(cmd) {
			return
		}
		listEntries(cmd.Context(), listFlags{})
	},
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(version, commit, date string) {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(
		"outreach version {{.Version}}\n" +
			"commit: " + commit + "\n" +
			"built: " + date + "\n",
	)
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
