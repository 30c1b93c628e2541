package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/HarshilMaks/TFT-Stock-Trader/internal/risk"
)

// runValidate reads a signal request from disk, runs it through the risk
// gate, and prints the decision. A rejection is a normal outcome, not a
// command failure.
func runValidate(cmd *cobra.Command, args []string) error {
	requestPath, _ := cmd.Flags().GetString("request")
	portfolioPath, _ := cmd.Flags().GetString("portfolio")
	limitsPath, _ := cmd.Flags().GetString("limits")

	limits := risk.DefaultLimits()
	if limitsPath != "" {
		var err error
		limits, err = risk.LoadLimits(limitsPath)
		if err != nil {
			return fmt.Errorf("failed to load risk limits: %w", err)
		}
	}

	var req risk.SignalRequest
	if err := readJSONFile(requestPath, &req); err != nil {
		return fmt.Errorf("failed to read signal request: %w", err)
	}

	portfolio := risk.PortfolioState{PortfolioValue: 100000}
	if portfolioPath != "" {
		if err := readJSONFile(portfolioPath, &portfolio); err != nil {
			return fmt.Errorf("failed to read portfolio state: %w", err)
		}
	}

	validator := risk.NewValidator(limits)
	result := validator.Validate(req, portfolio)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Println(string(out))

	if result.Passed {
		log.Info().
			Str("ticker", req.Ticker).
			Float64("position_size_pct", result.PositionSizePct).
			Msg("signal approved")
	} else {
		log.Info().
			Str("ticker", req.Ticker).
			Str("reason", string(result.RejectionReason)).
			Msg("signal rejected")
	}

	return nil
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
