package backtest

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tradingDaysFrom generates count consecutive calendar days starting at s.
func tradingDaysFrom(s string, count int) []time.Time {
	dates := make([]time.Time, count)
	start := day(s)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	return dates
}

func TestEngine_CostsErodeWhipsawedCapital(t *testing.T) {
	// Flat prices with a punishing 5% fee per leg: every flip loses money.
	cfg := DefaultConfig()
	cfg.InitialCapital = 10000
	cfg.TransactionCost = 0.05
	cfg.RebalanceDays = 1

	dates := tradingDaysFrom("2024-01-02", 3)
	var predictions []Prediction
	var prices []PriceBar
	signals := []int{SignalLong, SignalShort, SignalHold}
	for i, d := range dates {
		predictions = append(predictions, Prediction{
			Date: d, Ticker: "AAA", Signal: signals[i], Confidence: 1.0,
		})
		prices = append(prices, PriceBar{Date: d, Ticker: "AAA", Close: 100})
	}

	engine, err := NewEngine(cfg)
	require.NoError(t, err)

	report, err := engine.Run(predictions, prices, "tft")
	require.NoError(t, err)

	assert.Less(t, report.Summary.TotalReturn, 0.0)
	assert.Less(t, report.Summary.FinalCapital, cfg.InitialCapital)
	assert.Equal(t, 2, report.Summary.NumTrades)
	assert.Equal(t, 2, report.Summary.NumLosingTrades)
	// One sample per day plus the pre-run point.
	assert.Len(t, report.EquityCurve, len(dates)+1)
}

func TestEngine_LongThenShortOnRisingPrices(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialCapital = 100000

	dates := tradingDaysFrom("2024-01-02", 30)
	var predictions []Prediction
	var prices []PriceBar
	for i, d := range dates {
		signal := SignalLong
		if i >= 15 {
			signal = SignalShort
		}
		predictions = append(predictions, Prediction{
			Date: d, Ticker: "AAA", Signal: signal, Confidence: 0.8,
		})
		prices = append(prices, PriceBar{Date: d, Ticker: "AAA", Close: 100 + float64(i)})
	}

	engine, err := NewEngine(cfg)
	require.NoError(t, err)

	report, err := engine.Run(predictions, prices, "tft")
	require.NoError(t, err)

	require.GreaterOrEqual(t, report.Summary.NumTrades, 2)

	// The long leg rode the climb and won; the final short leg fought it.
	first := report.Trades[0]
	assert.Equal(t, SignalLong, first.Signal)
	assert.Greater(t, first.PnL, 0.0)

	last := report.Trades[len(report.Trades)-1]
	assert.Equal(t, SignalShort, last.Signal)
	assert.Less(t, last.PnL, 0.0)

	require.NotNil(t, report.Baseline)
	assert.Equal(t, "AAA", report.Baseline.Ticker)
	assert.Greater(t, report.Baseline.TotalReturn, 0.0)

	assert.Len(t, report.EquityCurve, len(dates)+1)
	assert.NotEmpty(t, report.RunID)
}

func TestEngine_TotalReturnMatchesFinalCapital(t *testing.T) {
	cfg := DefaultConfig()

	dates := tradingDaysFrom("2024-01-02", 10)
	var predictions []Prediction
	var prices []PriceBar
	for i, d := range dates {
		predictions = append(predictions, Prediction{
			Date: d, Ticker: "AAA", Signal: SignalLong, Confidence: 0.9,
		})
		prices = append(prices, PriceBar{Date: d, Ticker: "AAA", Close: 100 + 2*float64(i)})
	}

	engine, err := NewEngine(cfg)
	require.NoError(t, err)

	report, err := engine.Run(predictions, prices, "tft")
	require.NoError(t, err)

	// Total return reflects realized capital after the forced liquidation,
	// not just the daily equity samples.
	want := (report.Summary.FinalCapital - cfg.InitialCapital) / cfg.InitialCapital
	assert.InDelta(t, want, report.Summary.TotalReturn, 1e-9)
	assert.Greater(t, report.Summary.TotalReturn, 0.0)
}

func TestEngine_NoLookahead(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RebalanceDays = 1

	// BBB's first price bar lands after its only prediction date, so the
	// signal must be unusable.
	predictions := []Prediction{
		{Date: day("2024-01-02"), Ticker: "BBB", Signal: SignalLong, Confidence: 0.9},
		{Date: day("2024-01-03"), Ticker: "BBB", Signal: SignalHold, Confidence: 0.9},
	}
	prices := []PriceBar{
		{Date: day("2024-01-03"), Ticker: "BBB", Close: 100},
	}

	engine, err := NewEngine(cfg)
	require.NoError(t, err)

	report, err := engine.Run(predictions, prices, "tft")
	require.NoError(t, err)

	assert.Empty(t, report.Trades)
	assert.InDelta(t, cfg.InitialCapital, report.Summary.FinalCapital, 1e-9)
}

func TestEngine_SkipsTickersWithoutPrices(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RebalanceDays = 1

	dates := tradingDaysFrom("2024-01-02", 3)
	var predictions []Prediction
	var prices []PriceBar
	for i, d := range dates {
		signal := SignalLong
		if i == len(dates)-1 {
			signal = SignalHold
		}
		predictions = append(predictions,
			Prediction{Date: d, Ticker: "AAA", Signal: signal, Confidence: 0.9},
			Prediction{Date: d, Ticker: "ZZZ", Signal: signal, Confidence: 0.9},
		)
		prices = append(prices, PriceBar{Date: d, Ticker: "AAA", Close: 100 + float64(i)})
	}

	engine, err := NewEngine(cfg)
	require.NoError(t, err)

	report, err := engine.Run(predictions, prices, "tft")
	require.NoError(t, err)

	for _, trade := range report.Trades {
		assert.Equal(t, "AAA", trade.Ticker)
	}
	require.NotEmpty(t, report.Trades)
}

func TestEngine_RebalanceCadence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RebalanceDays = 5

	// A fresh actionable ticker appears each day; only day 0 and day 5
	// predictions can open.
	dates := tradingDaysFrom("2024-01-02", 6)
	var predictions []Prediction
	var prices []PriceBar
	for i, d := range dates {
		ticker := fmt.Sprintf("T%02d", i)
		predictions = append(predictions, Prediction{
			Date: d, Ticker: ticker, Signal: SignalLong, Confidence: 0.9,
		})
		for j := range dates {
			prices = append(prices, PriceBar{Date: dates[j], Ticker: ticker, Close: 100})
		}
	}

	engine, err := NewEngine(cfg)
	require.NoError(t, err)

	report, err := engine.Run(predictions, prices, "tft")
	require.NoError(t, err)

	// Two opens, both force-closed at the end.
	require.Len(t, report.Trades, 2)
	tickers := []string{report.Trades[0].Ticker, report.Trades[1].Ticker}
	assert.ElementsMatch(t, []string{"T00", "T05"}, tickers)
}

func TestEngine_RejectsMalformedInputs(t *testing.T) {
	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	goodPrediction := Prediction{
		Date: day("2024-01-02"), Ticker: "AAA", Signal: SignalLong, Confidence: 0.9,
	}
	goodPrice := PriceBar{Date: day("2024-01-02"), Ticker: "AAA", Close: 100}

	tests := []struct {
		name        string
		predictions []Prediction
		prices      []PriceBar
	}{
		{"empty predictions", nil, []PriceBar{goodPrice}},
		{"empty prices", []Prediction{goodPrediction}, nil},
		{"bad signal", []Prediction{{Date: day("2024-01-02"), Ticker: "AAA", Signal: 2}}, []PriceBar{goodPrice}},
		{"missing ticker", []Prediction{{Date: day("2024-01-02"), Signal: SignalLong}}, []PriceBar{goodPrice}},
		{"negative price", []Prediction{goodPrediction}, []PriceBar{{Date: day("2024-01-02"), Ticker: "AAA", Close: -1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Run(tt.predictions, tt.prices, "tft")
			assert.Error(t, err)
		})
	}
}

func TestNewEngine_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialCapital = -1

	_, err := NewEngine(cfg)
	assert.Error(t, err)
}

func TestDateKey_NormalizesTimezones(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	noon := time.Date(2024, 1, 2, 12, 30, 0, 0, est)

	key := dateKey(noon)
	assert.Equal(t, day("2024-01-02"), key)
}
