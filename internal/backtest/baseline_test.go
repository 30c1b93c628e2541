package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuyAndHold_RisingSeries(t *testing.T) {
	prices := []PriceBar{
		{Date: day("2024-01-02"), Ticker: "AAA", Close: 100},
		{Date: day("2024-01-03"), Ticker: "AAA", Close: 110},
		{Date: day("2024-01-04"), Ticker: "AAA", Close: 120},
	}

	bl := BuyAndHold(prices)
	require.NotNil(t, bl)

	assert.Equal(t, "buy_and_hold", bl.Strategy)
	assert.Equal(t, "AAA", bl.Ticker)
	assert.InDelta(t, 0.20, bl.TotalReturn, 1e-9)
	assert.LessOrEqual(t, bl.MaxDrawdown, 0.0)
}

func TestBuyAndHold_UsesFirstTickerOnly(t *testing.T) {
	prices := []PriceBar{
		{Date: day("2024-01-02"), Ticker: "AAA", Close: 100},
		{Date: day("2024-01-02"), Ticker: "BBB", Close: 500},
		{Date: day("2024-01-03"), Ticker: "BBB", Close: 100},
		{Date: day("2024-01-03"), Ticker: "AAA", Close: 150},
	}

	bl := BuyAndHold(prices)
	require.NotNil(t, bl)

	// BBB's crash must not leak into AAA's baseline.
	assert.Equal(t, "AAA", bl.Ticker)
	assert.InDelta(t, 0.50, bl.TotalReturn, 1e-9)
}

func TestBuyAndHold_HandlesUnsortedInput(t *testing.T) {
	prices := []PriceBar{
		{Date: day("2024-01-04"), Ticker: "AAA", Close: 120},
		{Date: day("2024-01-02"), Ticker: "AAA", Close: 100},
	}

	bl := BuyAndHold(prices)
	require.NotNil(t, bl)
	assert.InDelta(t, 0.20, bl.TotalReturn, 1e-9)
}

func TestBuyAndHold_InsufficientData(t *testing.T) {
	assert.Nil(t, BuyAndHold(nil))
	assert.Nil(t, BuyAndHold([]PriceBar{
		{Date: day("2024-01-02"), Ticker: "AAA", Close: 100},
	}))
}
