package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"bermudago/internal/board"
	"bermudago/internal/cmdlog"
	"bermudago/internal/config"
	"bermudago/internal/logging"
	"bermudago/internal/model"
	"bermudago/internal/schedule"
	"bermudago/internal/theme"
)

var (
	boardMode string
	nextRoute string
	nextBase  string
	nextEvery int
	nextAt    string
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show the next departure of every route",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmdlog.Run("board", func() error {
			a, err := loadApp(true)
			if err != nil {
				return err
			}
			defer a.Close()
			return renderBoard(cmd.Context(), cmd.OutOrStdout(), a, model.Mode(boardMode))
		})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Redraw the board on the configured refresh interval",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmdlog.Run("watch", func() error {
			a, err := loadApp(false)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx, cancel := signalContext()
			defer cancel()
			out := cmd.OutOrStdout()
			err = board.RunRefreshLoop(ctx, a.cfg.Display.RefreshInterval, func(ctx context.Context) error {
				fmt.Fprint(out, "\033[H\033[2J")
				return renderBoard(ctx, out, a, model.Mode(boardMode))
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	},
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show the next departure of one route or an ad-hoc schedule",
	Example: `  bermudago next --route route-2
  bermudago next --base "6:30 AM" --every 25 --at 07:00`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmdlog.Run("next", func() error {
			out := cmd.OutOrStdout()
			if nextRoute == "" {
				if nextBase == "" {
					return errors.New("either --route or --base is required")
				}
				return adHocNext(out, cfgPath, nextBase, nextEvery, nextAt, board.SystemClock{})
			}
			a, err := loadApp(true)
			if err != nil {
				return err
			}
			defer a.Close()
			d, err := a.board.Lookup(cmd.Context(), nextRoute)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, theme.Header(d.Route.Mode.Title()+" Schedule"))
			fmt.Fprintln(out, board.Detail(d, a.cfg.Transit.FullScheduleURLs[d.Route.Mode]))
			return nil
		})
	},
}

// adHocNext evaluates a schedule given on the command line. Only the
// timezone is taken from the config; an unreadable or invalid config falls
// back to the default timezone.
func adHocNext(w io.Writer, path, base string, every int, at string, clock board.Clock) error {
	loc := adHocLocation(path)
	now, err := parseAt(at, clock.Now().In(loc))
	if err != nil {
		return err
	}
	label, err := schedule.NextDeparture(base, every, now)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, label)
	return nil
}

func adHocLocation(path string) *time.Location {
	cfg, err := config.Load(path)
	if err != nil {
		logging.Debug("config_ignored", map[string]any{"path": path, "error": err.Error()})
		cfg = config.Default()
		cfg.ResolveEnv()
	}
	loc, err := cfg.Location()
	if err != nil {
		return time.UTC
	}
	return loc
}

func init() {
	boardCmd.Flags().StringVar(&boardMode, "mode", "", "bus or ferry (default all)")
	watchCmd.Flags().StringVar(&boardMode, "mode", "", "bus or ferry (default all)")
	nextCmd.Flags().StringVar(&nextRoute, "route", "", "configured route id")
	nextCmd.Flags().StringVar(&nextBase, "base", "", `first departure, e.g. "6:00 AM"`)
	nextCmd.Flags().IntVar(&nextEvery, "every", 0, "frequency in minutes")
	nextCmd.Flags().StringVar(&nextAt, "at", "", "evaluate at HH:MM today or an RFC3339 instant (default now)")
}

// parseAt resolves --at against the board's current day and timezone.
func parseAt(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(now.Location()), nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at %q: want HH:MM or RFC3339", s)
	}
	return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location()), nil
}

func renderBoard(ctx context.Context, w io.Writer, a *app, mode model.Mode) error {
	if mode != "" && !mode.Valid() {
		return fmt.Errorf("unknown mode %q", mode)
	}
	modes := []model.Mode{model.ModeBus, model.ModeFerry}
	if mode != "" {
		modes = []model.Mode{mode}
	}
	now := a.board.Now()
	fmt.Fprintf(w, "BermudaGo  %s\n\n", schedule.FormatClock(now))
	var errs []error
	for _, m := range modes {
		deps, err := a.board.DeparturesAt(ctx, m, now)
		if err != nil {
			errs = append(errs, err)
		}
		fmt.Fprintln(w, theme.Header(m.Title()+" Schedule"))
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ROUTE\tDESTINATION\tNEXT\tEVERY\tSTATUS")
		for _, d := range deps {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d min\t%s\n", d.Route.Name, dash(d.Route.Destination), d.NextLabel, d.Route.FrequencyMinutes, dash(d.Route.Status))
		}
		_ = tw.Flush()
		if u := a.cfg.Transit.FullScheduleURLs[m]; u != "" {
			fmt.Fprintf(w, "Full schedule: %s\n", u)
		}
		fmt.Fprintln(w)
	}
	return errors.Join(errs...)
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
