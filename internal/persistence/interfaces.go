package persistence

import (
	"context"
	"time"

	"github.com/HarshilMaks/TFT-Stock-Trader/internal/backtest"
)

// BacktestRun is one completed simulation with its headline statistics. The
// full artifact set lives on disk; the row exists so runs can be listed and
// compared later.
type BacktestRun struct {
	RunID        string    `json:"run_id" db:"run_id"`
	Model        string    `json:"model" db:"model"`
	StartedAt    time.Time `json:"started_at" db:"started_at"`
	CompletedAt  time.Time `json:"completed_at" db:"completed_at"`
	FinalCapital float64   `json:"final_capital" db:"final_capital"`
	TotalReturn  float64   `json:"total_return" db:"total_return"`
	SharpeRatio  float64   `json:"sharpe_ratio" db:"sharpe_ratio"`
	MaxDrawdown  float64   `json:"max_drawdown" db:"max_drawdown"`
	NumTrades    int       `json:"num_trades" db:"num_trades"`
	WinRate      float64   `json:"win_rate" db:"win_rate"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// RunsRepo persists backtest runs and their trade logs. Implementations must
// treat trade rows as append-only.
type RunsRepo interface {
	// SaveRun stores the run row for a completed report.
	SaveRun(ctx context.Context, report *backtest.Report) error

	// SaveTrades stores the closed-trade log for a run.
	SaveTrades(ctx context.Context, runID string, trades []backtest.Trade) error

	// GetRun retrieves one run by ID.
	GetRun(ctx context.Context, runID string) (*BacktestRun, error)

	// ListRuns retrieves the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]BacktestRun, error)

	// GetTrades retrieves the trade log for a run in close order.
	GetTrades(ctx context.Context, runID string) ([]backtest.Trade, error)
}
