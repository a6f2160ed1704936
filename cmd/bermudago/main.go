package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"bermudago/internal/board"
	"bermudago/internal/config"
	"bermudago/internal/logging"
	"bermudago/internal/store/history"
	"bermudago/internal/theme"
)

var (
	cfgPath  string
	noRecord bool
)

var rootCmd = &cobra.Command{
	Use:           "bermudago",
	Short:         "BermudaGo - bus and ferry departures for Bermuda",
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		theme.FprintBanner(cmd.OutOrStdout())
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "./bermudago.yaml", "config path")
	rootCmd.PersistentFlags().BoolVar(&noRecord, "no-record", false, "do not log lookups to the history database")
	rootCmd.AddCommand(initCmd, boardCmd, nextCmd, watchCmd, serveCmd, monitorCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Save(cfgPath, config.Default()); err != nil {
			return err
		}
		abs, _ := filepath.Abs(cfgPath)
		theme.FprintBanner(cmd.OutOrStdout())
		fmt.Fprintln(cmd.OutOrStdout(), "Config written to:", abs)
		return nil
	},
}

// app is the loaded runtime shared by the commands.
type app struct {
	cfg   config.Config
	board *board.Board
	db    *history.DB
}

func (a *app) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

func loadApp(record bool) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, board: board.New(cfg.Routes(), loc, board.SystemClock{})}
	if record && !noRecord && cfg.Storage.DBPath != "" {
		db, err := history.Open(cfg.Storage.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open history %s: %w", cfg.Storage.DBPath, err)
		}
		a.db = db
		a.board.WithRecorder(db)
	}
	return a, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
