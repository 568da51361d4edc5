package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xolan/outreach/internal/cli"
	"github.com/xolan/outreach/internal/entry"
	"github.com/xolan/outreach/internal/service"
	"github.com/xolan/outreach/internal/stats"
)

// maxDomains bounds the domain list of the stats command.
const maxDomains = 5

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics for your entries",
	Long: `Show how many entries you have, how many carry an email or user handle,
the count per category and the most common email domains.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		showStats(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func showStats(ctx context.Context) {
	services := openServices(ctx)
	if services == nil {
		return
	}
	defer func() { _ = services.Close() }()

	rows, err := services.Entry.List(ctx, service.ListOptions{})
	if err != nil {
		reportError("load entries", err)
		return
	}
	entries := make([]entry.Entry, len(rows))
	for i, r := range rows {
		entries[i] = r.Entry
	}

	s := stats.CalculateStatistics(entries)
	_, _ = fmt.Fprintf(deps.Stdout, "Statistics for %s\n", services.Session.Current().UserID)
	_, _ = fmt.Fprintln(deps.Stdout, strings.Repeat("=", 60))
	_, _ = fmt.Fprintf(deps.Stdout, "Entries:        %d\n", s.EntryCount)
	_, _ = fmt.Fprintf(deps.Stdout, "With email:     %d\n", s.WithEmail)
	_, _ = fmt.Fprintf(deps.Stdout, "With user:      %d\n", s.WithUser)
	_, _ = fmt.Fprintf(deps.Stdout, "Email domains:  %d\n", s.DistinctDomains)
	_, _ = fmt.Fprintln(deps.Stdout)

	_, _ = fmt.Fprintln(deps.Stdout, "By category:")
	for _, b := range stats.CalculateCategoryBreakdown(entries, services.Categories) {
		_, _ = fmt.Fprintf(deps.Stdout, "  %-15s %4d  (%5.1f%%)\n", b.Category.Name, b.EntryCount, b.Percentage)
	}

	domains := stats.CalculateDomainBreakdown(entries)
	if len(domains) == 0 {
		return
	}
	_, _ = fmt.Fprintln(deps.Stdout)
	_, _ = fmt.Fprintln(deps.Stdout, "Top email domains:")
	for i, d := range domains {
		if i == maxDomains {
			rest := len(domains) - maxDomains
			_, _ = fmt.Fprintf(deps.Stdout, "  ... and %d more %s\n", rest, cli.Pluralize("domain", rest))
			break
		}
		_, _ = fmt.Fprintf(deps.Stdout, "  %-15s %4d\n", d.Domain, d.EntryCount)
	}
}
