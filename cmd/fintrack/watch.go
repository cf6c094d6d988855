package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/invalidation"
	"fintrack/internal/log"
	"fintrack/internal/worker"
)

func watchCmd() *cobra.Command {
	var (
		flags   filterFlags
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show balances and refresh them when another session changes data",
		Long: `Prints the balances of the selected period, then listens on the broadcast
backend. Every invalidation from another session marks the affected cached
results stale and the balances are printed again. Requires BROADCAST_BACKEND
to be amqp or redis.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := session.tracker
			out := cmd.OutOrStdout()
			logger := logFor(log.ComponentWorker)

			actions, err := flags.actions(cmd.Context(), t)
			if err != nil {
				return err
			}
			t.Dispatch(actions...)

			render := func(ctx context.Context) {
				overview, err := t.Balances(ctx)
				if err != nil {
					logger.WarnContext(ctx, "Failed to load balances", log.FieldError, err)
					return
				}
				fmt.Fprintf(out, "\n[%s]\n", time.Now().Format(time.TimeOnly))
				printOverview(out, overview)
			}
			render(cmd.Context())
			if session.cfg.BroadcastBackend == "none" {
				logger.Warn("Broadcast disabled, no updates will arrive")
			}

			ctx, done := cli.GracefulShutdown(cmd.Context(), logger, timeout, nil)

			w := worker.NewInvalidationWorker(session.bus, session.cache, t.Session(), t.User().DBName,
				worker.WithLogger(logger),
				worker.OnApplied(func(_ []invalidation.Key, stale int) {
					if stale > 0 {
						render(ctx)
					}
				}))

			if err := w.Run(ctx); err != nil {
				return err
			}
			cli.WaitForShutdown(ctx, done)
			return nil
		},
	}
	flags.register(cmd, false)
	cmd.Flags().DurationVar(&timeout, "shutdown-timeout", 5*time.Second, "time allowed for cleanup on exit")
	return cmd
}
