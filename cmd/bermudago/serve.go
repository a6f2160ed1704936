package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"bermudago/internal/analytics"
	"bermudago/internal/api"
	"bermudago/internal/cmdlog"
	"bermudago/internal/metrics"
	"bermudago/internal/model"
	"bermudago/internal/store/history"
)

var monitorSince time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the departure board as JSON over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmdlog.Run("serve", func() error {
			a, err := loadApp(true)
			if err != nil {
				return err
			}
			defer a.Close()
			metrics.StartServer(a.cfg.Server.MetricsAddr)
			ctx, cancel := signalContext()
			defer cancel()
			return api.NewServer(a.board, a.cfg.Server, a.cfg.Transit.FullScheduleURLs).ListenAndServe(ctx)
		})
	},
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Show hourly lookup counts per route",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmdlog.Run("monitor", func() error {
			a, err := loadApp(false)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.cfg.Storage.DBPath == "" {
				return fmt.Errorf("storage.dbPath is not set")
			}
			db, err := history.Open(a.cfg.Storage.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			return renderMonitor(cmd.Context(), cmd.OutOrStdout(), db, a.board.Routes(""), a.board.Now(), monitorSince)
		})
	},
}

// renderMonitor prints hourly lookup buckets followed by per-route totals
// for lookups recorded in the last since, up to now.
func renderMonitor(ctx context.Context, w io.Writer, db *history.DB, routes []model.Route, now time.Time, since time.Duration) error {
	start, end := now.Add(-since), now.Add(time.Second)
	lookups, err := db.LoadLookupsRange(ctx, start, end, "")
	if err != nil {
		return err
	}
	b := analytics.HourlyLookups(lookups, now.Location())
	if len(b) == 0 {
		fmt.Fprintln(w, "no lookups recorded")
		return nil
	}
	for _, k := range analytics.SortedBucketKeys(b) {
		fmt.Fprintf(w, "%s -> %v\n", k.Format("Jan 2 15:00"), b[k])
	}
	fmt.Fprintln(w)
	for _, r := range routes {
		n, err := db.CountLookupsWithin(ctx, start, end, r.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%-20s %d\n", r.ID, n)
	}
	return nil
}

func init() {
	monitorCmd.Flags().DurationVar(&monitorSince, "since", 24*time.Hour, "look back window")
}
