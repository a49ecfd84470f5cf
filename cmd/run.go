package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webhand/api/schemas"
	"github.com/xkilldash9x/webhand/internal/browser"
	"github.com/xkilldash9x/webhand/internal/config"
	"github.com/xkilldash9x/webhand/internal/executor"
	"github.com/xkilldash9x/webhand/internal/history"
	"github.com/xkilldash9x/webhand/internal/observability"
)

// newRunCmd creates and configures the `run` command.
func newRunCmd() *cobra.Command {
	var (
		startURL    string
		actionsFile string
		preDelay    time.Duration
	)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Executes a JSON sequence of typed page actions in a live browser",
		Long: `Reads a JSON array of typed actions, opens a browser session and executes
them in order. Each action reports a human-readable outcome; execution
continues past failed actions so the full sequence is always attempted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg := appCfg

			raw, err := os.ReadFile(actionsFile)
			if err != nil {
				return fmt.Errorf("failed to read actions file: %w", err)
			}
			actions, err := schemas.UnmarshalActions(raw)
			if err != nil {
				return fmt.Errorf("failed to decode actions file: %w", err)
			}
			if len(actions) == 0 && startURL == "" {
				return fmt.Errorf("nothing to do: no actions and no --url")
			}

			session, err := browser.NewSession(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to start browser session: %w", err)
			}
			defer session.Close()

			store, err := newHistoryStore(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to open history store: %w", err)
			}
			defer store.Close()

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
				logger.Warn("Sequence finished with failures.",
					zap.Int("failed", failed),
					zap.Int("total", len(actions)))
				return fmt.Errorf("%d of %d actions failed", failed, len(actions))
			}
			return nil
		},
	}

	runCmd.Flags().StringVar(&startURL, "url", "", "navigate here before running the sequence")
	runCmd.Flags().StringVarP(&actionsFile, "actions", "a", "", "path to the JSON actions file")
	runCmd.Flags().DurationVar(&preDelay, "pre-delay", 0, "pause before each action")
	_ = runCmd.MarkFlagRequired("actions")

	return runCmd
}

// newHistoryStore builds the configured history backend.
func newHistoryStore(ctx context.Context, cfg config.Interface, logger *zap.Logger) (history.Store, error) {
	h := cfg.History()
	switch h.Backend {
	case "postgres":
		pool, err := pgxpool.New(ctx, h.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create database pool: %w", err)
		}
		store, err := history.NewPostgresStore(ctx, pool, h.MaxSize, logger)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return store, nil
	default:
		return history.NewFileStore(h.FilePath, h.MaxSize, logger), nil
	}
}
