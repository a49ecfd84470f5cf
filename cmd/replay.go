package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webhand/api/schemas"
	"github.com/xkilldash9x/webhand/internal/browser"
	"github.com/xkilldash9x/webhand/internal/executor"
	"github.com/xkilldash9x/webhand/internal/observability"
)

// newReplayCmd creates the `replay` command, which re-executes recently
// recorded actions against a fresh browser session.
func newReplayCmd() *cobra.Command {
	var (
		last     int
		startURL string
		preDelay time.Duration
	)

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-executes the most recent recorded actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg := appCfg

			store, err := newHistoryStore(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to open history store: %w", err)
			}
			defer store.Close()

			records, err := store.Recent(ctx, last)
			if err != nil {
				return fmt.Errorf("failed to read history: %w", err)
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to replay.")
				return nil
			}

			var actions []schemas.Action
			for _, rec := range records {
				action, err := schemas.DecodeAction(rec.Action)
				if err != nil {
					logger.Warn("Skipping history record that no longer decodes.",
						zap.String("action_type", rec.ActionType),
						zap.Error(err))
					continue
				}
				actions = append(actions, action)
			}
			if len(actions) == 0 {
				return fmt.Errorf("none of the last %d records could be decoded", last)
			}

			session, err := browser.NewSession(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to start browser session: %w", err)
			}
			defer session.Close()

			coord := executor.New(executor.Options{
				Driver:    session,
				DOM:       session,
				Watcher:   session.Watcher(),
				History:   store,
				Config:    cfg.Executor(),
				Logger:    logger,
				SessionID: session.ID(),
			})

			if startURL != "" {
				actions = append([]schemas.Action{schemas.NavigateAction{URL: startURL}}, actions...)
			}

			var execOpts []executor.ExecOption
			if preDelay > 0 {
				execOpts = append(execOpts, executor.WithPreDelay(preDelay))
			}

			failed := 0
			for i, action := range actions {
				result, err := coord.Execute(ctx, action, execOpts...)
				if err != nil {
					return fmt.Errorf("action %d (%s): %w", i+1, action.Type(), err)
				}
				status := "ok"
				if !result.Success {
					status = "FAILED"
					failed++
				}
				fmt.Fprintf(cmd.OutOrStdout(), "[%d/%d] %-22s %s  %s\n",
					i+1, len(actions), action.Type(), status, result.Summary)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d replayed actions failed", failed, len(actions))
			}
			return nil
		},
	}

	replayCmd.Flags().IntVarP(&last, "last", "n", 5, "how many recent actions to replay")
	replayCmd.Flags().StringVar(&startURL, "url", "", "navigate here before replaying")
	replayCmd.Flags().DurationVar(&preDelay, "pre-delay", 0, "pause before each action")

	return replayCmd
}
