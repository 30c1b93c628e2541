package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	httpserver "github.com/HarshilMaks/TFT-Stock-Trader/internal/interfaces/http"
	"github.com/HarshilMaks/TFT-Stock-Trader/internal/risk"
)

// runServe starts the risk gate HTTP server and blocks until interrupted.
func runServe(cmd *cobra.Command, args []string) error {
	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetInt("port")
	limitsPath, _ := cmd.Flags().GetString("limits")

	limits := risk.DefaultLimits()
	if limitsPath != "" {
		var err error
		limits, err = risk.LoadLimits(limitsPath)
		if err != nil {
			return fmt.Errorf("failed to load risk limits: %w", err)
		}
	}

	metrics := httpserver.NewMetrics()
	gateMetrics := risk.NewGateMetrics(metrics.Registerer())
	validator := risk.NewValidator(limits, risk.WithMetrics(gateMetrics))

	serverCfg := httpserver.DefaultServerConfig()
	serverCfg.Host = host
	serverCfg.Port = port

	server := httpserver.NewServer(serverCfg, validator, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("host", host).
		Int("port", port).
		Float64("min_confidence", limits.MinConfidence).
		Msg("starting risk gate server")

	return server.Start(ctx)
}
