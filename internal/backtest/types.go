package backtest

import (
	"time"
)

// Signal directions. Predictions carry exactly one of these.
const (
	SignalShort = -1
	SignalHold  = 0
	SignalLong  = 1
)

// Prediction is one model output row: a dated directional signal for a ticker.
type Prediction struct {
	Date       time.Time `json:"date"`
	Ticker     string    `json:"ticker"`
	Signal     int       `json:"signal"`
	Confidence float64   `json:"confidence"`
}

// PriceBar is one close price observation for a ticker.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Ticker string    `json:"ticker"`
	Close  float64   `json:"close_price"`
}

// Position is an open holding. At most one exists per ticker at any time.
type Position struct {
	Ticker     string    `json:"ticker"`
	EntryDate  time.Time `json:"entry_date"`
	EntryPrice float64   `json:"entry_price"`
	Signal     int       `json:"signal"`
	Shares     float64   `json:"shares"`
	Confidence float64   `json:"confidence"`
	Value      float64   `json:"position_value"`
}

// Trade is a closed round trip. Appended to the trade log on close and never
// mutated afterward.
type Trade struct {
	Ticker       string    `json:"ticker"`
	EntryDate    time.Time `json:"entry_date"`
	EntryPrice   float64   `json:"entry_price"`
	Signal       int       `json:"signal"`
	ExitDate     time.Time `json:"exit_date"`
	ExitPrice    float64   `json:"exit_price"`
	Shares       float64   `json:"shares"`
	DurationDays int       `json:"duration_days"`
	PnL          float64   `json:"pnl"`
	PnLPct       float64   `json:"pnl_pct"`
}

// EquityPoint is one sample of the capital curve. The curve holds one point per
// simulated day plus a leading point for the pre-run initial capital, which
// carries the first simulated date.
type EquityPoint struct {
	Date   time.Time `json:"date"`
	Equity float64   `json:"equity"`
}

// Summary is the full performance statistics block for a run.
type Summary struct {
	Model        string  `json:"model"`
	FinalCapital float64 `json:"final_capital"`

	TotalReturn  float64 `json:"total_return"`
	AnnualReturn float64 `json:"annual_return"`
	Volatility   float64 `json:"volatility"`
	SharpeRatio  float64 `json:"sharpe_ratio"`
	SortinoRatio float64 `json:"sortino_ratio"`
	CalmarRatio  float64 `json:"calmar_ratio"`
	MaxDrawdown  float64 `json:"max_drawdown"`

	NumTrades        int     `json:"num_trades"`
	NumWinningTrades int     `json:"num_winning_trades"`
	NumLosingTrades  int     `json:"num_losing_trades"`
	WinRate          float64 `json:"win_rate"`
	ProfitFactor     float64 `json:"profit_factor"`
	AvgWin           float64 `json:"avg_win"`
	AvgLoss          float64 `json:"avg_loss"`
	WinLossRatio     float64 `json:"win_loss_ratio"`
}

// Baseline is the unmanaged buy-and-hold comparison for the reference ticker.
type Baseline struct {
	Strategy    string  `json:"strategy"`
	Ticker      string  `json:"ticker"`
	TotalReturn float64 `json:"total_return"`
	Volatility  float64 `json:"volatility"`
	SharpeRatio float64 `json:"sharpe_ratio"`
	MaxDrawdown float64 `json:"max_drawdown"`
}

// Report is the complete output of a run.
type Report struct {
	RunID       string        `json:"run_id"`
	Summary     Summary       `json:"summary"`
	Trades      []Trade       `json:"trades"`
	EquityCurve []EquityPoint `json:"equity_curve"`
	Baseline    *Baseline     `json:"baseline_comparison,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
}
