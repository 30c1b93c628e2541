package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/HarshilMaks/TFT-Stock-Trader/internal/backtest"
	"github.com/HarshilMaks/TFT-Stock-Trader/internal/persistence/postgres"
)

// runBacktest loads the prediction and price tables, replays the strategy,
// and writes result artifacts.
func runBacktest(cmd *cobra.Command, args []string) error {
	predictionsPath, _ := cmd.Flags().GetString("predictions")
	pricesPath, _ := cmd.Flags().GetString("prices")
	configPath, _ := cmd.Flags().GetString("config")
	outputDir, _ := cmd.Flags().GetString("output")
	model, _ := cmd.Flags().GetString("model")
	pgDSN, _ := cmd.Flags().GetString("pg-dsn")

	cfg := backtest.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = backtest.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load backtest config: %w", err)
		}
	}

	predictions, err := backtest.LoadPredictionsCSV(predictionsPath)
	if err != nil {
		return fmt.Errorf("failed to load predictions: %w", err)
	}

	prices, err := backtest.LoadPricesCSV(pricesPath)
	if err != nil {
		return fmt.Errorf("failed to load prices: %w", err)
	}

	log.Info().
		Int("predictions", len(predictions)).
		Int("prices", len(prices)).
		Str("model", model).
		Float64("initial_capital", cfg.InitialCapital).
		Msg("starting backtest")

	engine, err := backtest.NewEngine(cfg)
	if err != nil {
		return fmt.Errorf("invalid backtest config: %w", err)
	}

	report, err := engine.Run(predictions, prices, model)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	absOutputDir, err := filepath.Abs(outputDir)
	if err != nil {
		return fmt.Errorf("failed to resolve output directory: %w", err)
	}

	writer := backtest.NewWriter(absOutputDir)
	if err := writer.WriteAll(report); err != nil {
		return fmt.Errorf("failed to write artifacts: %w", err)
	}

	if pgDSN != "" {
		if err := persistRun(report, pgDSN); err != nil {
			log.Warn().Err(err).Msg("failed to persist run to postgres")
		}
	}

	s := report.Summary
	fmt.Printf("Backtest %s complete\n", report.RunID)
	fmt.Printf("  Trades:        %d (win rate %.1f%%)\n", s.NumTrades, s.WinRate*100)
	fmt.Printf("  Total return:  %.2f%%\n", s.TotalReturn*100)
	fmt.Printf("  Sharpe ratio:  %.2f\n", s.SharpeRatio)
	fmt.Printf("  Max drawdown:  %.2f%%\n", s.MaxDrawdown*100)
	fmt.Printf("  Artifacts:     %s\n", absOutputDir)

	return nil
}

func persistRun(report *backtest.Report, dsn string) error {
	pgCfg := postgres.DefaultConfig()
	pgCfg.DSN = dsn

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := postgres.Connect(ctx, pgCfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer db.Close()

	repo := postgres.NewRunsRepo(db, pgCfg.QueryTimeout)
	if err := repo.SaveRun(ctx, report); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	if err := repo.SaveTrades(ctx, report.RunID, report.Trades); err != nil {
		return fmt.Errorf("save trades: %w", err)
	}

	log.Info().Str("run_id", report.RunID).Msg("run persisted to postgres")
	return nil
}
