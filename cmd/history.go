package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/webhand/internal/history"
	"github.com/xkilldash9x/webhand/internal/observability"
)

// newHistoryCmd creates the `history` command and its subcommands.
func newHistoryCmd() *cobra.Command {
	var (
		limit      int
		failedOnly bool
		actionType string
		search     string
	)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspects the recorded action history",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := newHistoryStore(ctx, appCfg, observability.GetLogger())
			if err != nil {
				return err
			}
			defer store.Close()

			var records []history.Record
			switch {
			case failedOnly:
				records, err = store.Failed(ctx)
			case actionType != "":
				records, err = store.ByType(ctx, actionType)
			case search != "":
				records, err = store.Search(ctx, search)
			default:
				records, err = store.Recent(ctx, limit)
			}
			if err != nil {
				return fmt.Errorf("failed to read history: %w", err)
			}
			if limit > 0 && len(records) > limit {
				records = records[len(records)-limit:]
			}

			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matching history records.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tTYPE\tOK\tURL\tMESSAGE")
			for _, rec := range records {
				ok := "yes"
				if !rec.Success {
					ok = "no"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					rec.Timestamp.Format(time.RFC3339),
					rec.ActionType,
					ok,
					rec.URL,
					truncateMessage(rec.Message, 80))
			}
			return w.Flush()
		},
	}

	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum records to show")
	historyCmd.Flags().BoolVar(&failedOnly, "failed", false, "show only failed actions")
	historyCmd.Flags().StringVar(&actionType, "type", "", "filter by action type (e.g. click)")
	historyCmd.Flags().StringVar(&search, "search", "", "filter by substring match on payload, URL or message")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Deletes all recorded history",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := newHistoryStore(ctx, appCfg, observability.GetLogger())
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Clear(ctx); err != nil {
				return fmt.Errorf("failed to clear history: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
			return nil
		},
	}
	historyCmd.AddCommand(clearCmd)

	return historyCmd
}

func truncateMessage(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
