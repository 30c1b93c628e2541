package backtest

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Engine drives the chronological simulation. A run is a pure batch
// computation over its two input tables: days are processed strictly in
// ascending date order, closes before opens within a day, opens in input
// order. Every decision for a date reads only price rows at or before it.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine after validating the configuration.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Run simulates the prediction table against the price table and returns the
// assembled report. Structural input problems abort before any simulation
// step; per-ticker gaps during the loop are skipped silently.
func (e *Engine) Run(predictions []Prediction, prices []PriceBar, model string) (*Report, error) {
	if err := ValidatePredictions(predictions); err != nil {
		return nil, fmt.Errorf("invalid predictions: %w", err)
	}
	if err := ValidatePrices(prices); err != nil {
		return nil, fmt.Errorf("invalid prices: %w", err)
	}

	startedAt := time.Now().UTC()
	runID := uuid.NewString()

	log.Info().Str("run_id", runID).Str("model", model).
		Int("predictions", len(predictions)).Int("price_rows", len(prices)).
		Msg("starting backtest")

	predictions = normalizePredictionDates(predictions)
	prices = normalizePriceDates(prices)

	byDate := make(map[time.Time][]Prediction)
	for _, p := range predictions {
		byDate[p.Date] = append(byDate[p.Date], p)
	}
	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	book := newPriceBook(prices)
	ledger := NewLedger(e.cfg)

	equity := make([]EquityPoint, 0, len(dates)+1)
	equity = append(equity, EquityPoint{Date: dates[0], Equity: e.cfg.InitialCapital})

	for dayIdx, date := range dates {
		dayPredictions := byDate[date]

		ledger.closeFlipped(date, dayPredictions, book)

		if dayIdx%e.cfg.RebalanceDays == 0 {
			ledger.openSignals(date, dayPredictions, book)
		}

		equity = append(equity, EquityPoint{Date: date, Equity: ledger.Capital()})
	}

	lastDate := dates[len(dates)-1]
	ledger.closeAll(lastDate, book)

	curve := make([]float64, len(equity))
	for i, pt := range equity {
		curve[i] = pt.Equity
	}

	summary := CalculateSummary(curve, ledger.Trades(), e.cfg.RiskFreeRate)
	summary.Model = model
	summary.FinalCapital = ledger.Capital()
	summary.TotalReturn = (ledger.Capital() - e.cfg.InitialCapital) / e.cfg.InitialCapital

	report := &Report{
		RunID:       runID,
		Summary:     summary,
		Trades:      ledger.Trades(),
		EquityCurve: equity,
		Baseline:    BuyAndHold(prices),
		StartedAt:   startedAt,
		CompletedAt: time.Now().UTC(),
	}

	log.Info().Str("run_id", runID).
		Float64("total_return", summary.TotalReturn).
		Int("num_trades", summary.NumTrades).
		Msg("backtest complete")

	return report, nil
}

// dateKey truncates a timestamp to its UTC calendar day so rows from different
// sources compare equal.
func dateKey(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func normalizePredictionDates(predictions []Prediction) []Prediction {
	out := make([]Prediction, len(predictions))
	for i, p := range predictions {
		p.Date = dateKey(p.Date)
		out[i] = p
	}
	return out
}

func normalizePriceDates(prices []PriceBar) []PriceBar {
	out := make([]PriceBar, len(prices))
	for i, p := range prices {
		p.Date = dateKey(p.Date)
		out[i] = p
	}
	return out
}
