package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xolan/outreach/internal/cli"
	"github.com/xolan/outreach/internal/entry"
	"github.com/xolan/outreach/internal/service"
	"github.com/xolan/outreach/internal/view"
)

var watchSearch string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print your entries every time they change",
	Long: `Subscribe to the collection and print the list of your entries each time
a new snapshot arrives, until interrupted with Ctrl+C.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		services := openServices(ctx)
		if services == nil {
			return
		}
		defer func() { _ = services.Close() }()
		if err := watchEntries(ctx, services, watchSearch); err != nil {
			reportError("watch entries", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVarP(&watchSearch, "search", "s", "", "Show only entries matching the query")
}

// watchEntries prints every snapshot until ctx is done. Subscription
// errors are printed as warnings; the store keeps its last snapshot.
func watchEntries(ctx context.Context, services *service.Services, query string) error {
	if !services.Session.Current().SignedIn {
		return service.ErrNotSignedIn
	}

	v := view.New(services.Categories)
	v.SetQuery(query)

	changed := make(chan struct{}, 1)
	stop := services.Store.Observe(func([]entry.Entry) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer stop()

	if services.Store.Loaded() {
		changed <- struct{}{}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-services.Store.Errors():
			_, _ = fmt.Fprintf(deps.Stderr, "Warning: %v\n", err)
		case <-changed:
			v.Refresh(services.Store.Snapshot())
			_, _ = fmt.Fprintf(deps.Stdout, "--- %s ---\n", cli.FormatCount(v.Len(), v.Total()))
			if v.Len() > 0 {
				cli.WriteEntryTable(deps.Stdout, v.Rows())
			}
			_, _ = fmt.Fprintln(deps.Stdout)
		}
	}
}
