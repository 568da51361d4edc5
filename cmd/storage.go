package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/xolan/outreach/internal/cli"
	"github.com/xolan/outreach/internal/config"
	"github.com/xolan/outreach/internal/remote/jsonlfile"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the entries file for corrupted lines",
	Long: `Check the entries file of the file backend. Lines that cannot be read are
listed; they are skipped by every other command.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		validateFile()
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore [backup_number]",
	Short: "Restore the entries file from a backup",
	Long: fmt.Sprintf(`Restore the entries file of the file backend from a backup.

Every change to the file keeps the previous content as a backup. By
default the most recent backup (.bak.1) is restored; optionally pass a
backup number (1-%d). The replaced file becomes the newest backup.

Examples:
  outreach restore       Restore from most recent backup
  outreach restore 2     Restore from backup #2`, jsonlfile.MaxBackupCount),
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		restoreFromBackup(args)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(restoreCmd)
}

// entriesFilePath returns the file of the file backend. It reports and
// exits for other backends.
func entriesFilePath() (string, bool) {
	_, cfg, ok := loadConfig()
	if !ok {
		return "", false
	}
	if cfg.Backend != config.BackendFile {
		_, _ = fmt.Fprintf(deps.Stderr, "Error: The %s backend has no entries file\n", cfg.Backend)
		_, _ = fmt.Fprintln(deps.Stderr, "Hint: This command works with backend = \"file\"")
		deps.Exit(1)
		return "", false
	}
	if cfg.FilePath != "" {
		return cfg.FilePath, true
	}
	path, err := jsonlfile.DefaultPath()
	if err != nil {
		_, _ = fmt.Fprintln(deps.Stderr, "Error: Failed to determine entries file location")
		_, _ = fmt.Fprintf(deps.Stderr, "Details: %v\n", err)
		deps.Exit(1)
		return "", false
	}
	return path, true
}

func validateFile() {
	path, ok := entriesFilePath()
	if !ok {
		return
	}
	result, err := jsonlfile.ReadEntries(path)
	if err != nil {
		_, _ = fmt.Fprintln(deps.Stderr, "Error: Failed to read entries file")
		_, _ = fmt.Fprintf(deps.Stderr, "Details: %v\n", err)
		_, _ = fmt.Fprintf(deps.Stderr, "Hint: Check that the file exists and is readable: %s\n", path)
		deps.Exit(1)
		return
	}

	_, _ = fmt.Fprintf(deps.Stdout, "Entries file: %s\n", path)
	if len(result.Warnings) == 0 {
		_, _ = fmt.Fprintf(deps.Stdout, "OK: %d %s, no corrupted lines\n",
			len(result.Entries), cli.Pluralize("entry", len(result.Entries)))
		return
	}

	_, _ = fmt.Fprintf(deps.Stdout, "Found %d corrupted %s (%d valid %s):\n",
		len(result.Warnings), cli.Pluralize("line", len(result.Warnings)),
		len(result.Entries), cli.Pluralize("entry", len(result.Entries)))
	for _, w := range result.Warnings {
		_, _ = fmt.Fprintln(deps.Stdout, cli.FormatCorruptionWarning(w))
	}
	_, _ = fmt.Fprintln(deps.Stdout)
	_, _ = fmt.Fprintln(deps.Stdout, "Hint: Run 'outreach restore' to go back to an earlier version of the file")
	deps.Exit(1)
}

// restoreFromBackup handles the restore command logic
func restoreFromBackup(args []string) {
	path, ok := entriesFilePath()
	if !ok {
		return
	}

	backups := jsonlfile.ListBackups(path)
	if len(backups) == 0 {
		_, _ = fmt.Fprintln(deps.Stdout, "No backups available")
		deps.Exit(1)
		return
	}

	backupNum := 1
	if len(args) > 0 {
		num, err := strconv.Atoi(args[0])
		if err != nil {
			_, _ = fmt.Fprintf(deps.Stderr, "Error: Invalid backup number '%s'\n", args[0])
			deps.Exit(1)
			return
		}
		backupNum = num
	}

	if err := jsonlfile.RestoreBackup(path, backupNum); err != nil {
		_, _ = fmt.Fprintln(deps.Stderr, "Error: Failed to restore backup")
		_, _ = fmt.Fprintf(deps.Stderr, "Details: %v\n", err)
		_, _ = fmt.Fprintln(deps.Stderr, "Available backups:")
		for _, b := range backups {
			_, _ = fmt.Fprintf(deps.Stderr, "  %s\n", b)
		}
		deps.Exit(1)
		return
	}

	_, _ = fmt.Fprintf(deps.Stdout, "Successfully restored from backup %d\n", backupNum)
}
