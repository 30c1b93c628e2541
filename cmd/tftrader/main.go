package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	appName = "tftrader"
	version = "v1.2.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Backtest simulator and risk validation gate for trading signals",
		Version: version,
		Long: `tftrader replays model predictions against historical prices to measure
strategy performance, and validates candidate trade signals against
portfolio risk limits before they reach execution.`,
	}

	backtestCmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run a backtest over prediction and price tables",
		Long:  "Simulates day-by-day trading from a prediction table and writes trade, equity, and summary artifacts",
		RunE:  runBacktest,
	}

	backtestCmd.Flags().String("predictions", "", "Path to predictions CSV (required)")
	backtestCmd.Flags().String("prices", "", "Path to prices CSV (required)")
	backtestCmd.Flags().String("config", "", "Path to backtest config YAML (defaults apply if empty)")
	backtestCmd.Flags().String("output", "out/backtest", "Directory for result artifacts")
	backtestCmd.Flags().String("model", "tft", "Model label recorded in the summary")
	backtestCmd.Flags().String("pg-dsn", "", "Postgres DSN to persist the run (optional)")
	_ = backtestCmd.MarkFlagRequired("predictions")
	_ = backtestCmd.MarkFlagRequired("prices")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a single trade signal against risk limits",
		Long:  "Runs the risk gate on a signal request read from a JSON file and prints the decision",
		RunE:  runValidate,
	}

	validateCmd.Flags().String("request", "", "Path to signal request JSON (required)")
	validateCmd.Flags().String("portfolio", "", "Path to portfolio state JSON (defaults apply if empty)")
	validateCmd.Flags().String("limits", "", "Path to risk limits YAML (defaults apply if empty)")
	_ = validateCmd.MarkFlagRequired("request")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the risk validation gate over HTTP",
		Long:  "Starts an HTTP server with /v1/risk/validate, /v1/risk/stats, /health, and /metrics endpoints",
		RunE:  runServe,
	}

	serveCmd.Flags().String("host", "127.0.0.1", "Listen host")
	serveCmd.Flags().Int("port", 8080, "Listen port")
	serveCmd.Flags().String("limits", "", "Path to risk limits YAML (defaults apply if empty)")

	rootCmd.AddCommand(backtestCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
