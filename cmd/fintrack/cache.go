package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Show the query cache and its saved snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			stats := session.cache.Stats()
			fmt.Fprintf(out, "entries: %d\nhits: %d\nmisses: %d\nloads: %d\n",
				stats.Size, stats.Hits, stats.Misses, stats.Loads)

			info, ok, err := session.snapshot.Info(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, "snapshot: none")
				return nil
			}
			fmt.Fprintf(out, "snapshot: %d entries saved %s ago\n",
				info.Entries, time.Since(info.SavedAt).Round(time.Second))
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop the saved snapshot and mark every cached result stale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := session.snapshot.Clear(cmd.Context()); err != nil {
				return err
			}
			n := session.tracker.Refresh()
			session.discard = true
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared snapshot, %d cached result(s) marked stale\n", n)
			return nil
		},
	})
	return cmd
}
