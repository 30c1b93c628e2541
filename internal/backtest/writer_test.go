package backtest

import (
	"bufio"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *Report {
	return &Report{
		RunID: "run-123",
		Summary: Summary{
			Model:        "tft",
			FinalCapital: 105000,
			TotalReturn:  0.05,
			SharpeRatio:  1.2,
			NumTrades:    2,
			ProfitFactor: math.Inf(1),
			WinLossRatio: math.Inf(1),
		},
		Trades: []Trade{
			{Ticker: "AAPL", Signal: SignalLong, PnL: 3000, PnLPct: 0.15},
			{Ticker: "TSLA", Signal: SignalShort, PnL: 2000, PnLPct: 0.10},
		},
		EquityCurve: []EquityPoint{
			{Date: day("2024-01-02"), Equity: 100000},
			{Date: day("2024-01-02"), Equity: 100000},
			{Date: day("2024-01-03"), Equity: 105000},
		},
		Baseline: &Baseline{
			Strategy:    "buy_and_hold",
			Ticker:      "AAPL",
			TotalReturn: 0.02,
		},
		StartedAt:   time.Now().UTC(),
		CompletedAt: time.Now().UTC(),
	}
}

func TestWriter_WriteAll(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	require.NoError(t, w.WriteAll(sampleReport()))

	for _, name := range []string{"trades.jsonl", "summary.json", "equity.csv", "report.md"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestWriter_TradesJSONL(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	require.NoError(t, w.WriteTrades(sampleReport()))

	f, err := os.Open(filepath.Join(dir, "trades.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var trade Trade
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &trade))
		lines++
	}
	assert.Equal(t, 2, lines)
}

func TestWriter_SummaryStringifiesInfinities(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	require.NoError(t, w.WriteSummary(sampleReport()))

	data, err := os.ReadFile(filepath.Join(dir, "summary.json"))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))

	summary, ok := doc["summary"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "inf", summary["profit_factor"])
	assert.Equal(t, "inf", summary["win_loss_ratio"])
	assert.Equal(t, "run-123", doc["run_id"])
	assert.Contains(t, doc, "baseline_comparison")
}

func TestWriter_EquityCurveCSV(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	require.NoError(t, w.WriteEquityCurve(sampleReport()))

	data, err := os.ReadFile(filepath.Join(dir, "equity.csv"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "date,equity", lines[0])
	assert.Equal(t, "2024-01-02,100000.00", lines[1])
	assert.Equal(t, "2024-01-03,105000.00", lines[3])
}

func TestWriter_ReportMarkdown(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	require.NoError(t, w.WriteReport(sampleReport()))

	data, err := os.ReadFile(filepath.Join(dir, "report.md"))
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "# Backtest Report: tft")
	assert.Contains(t, content, "run-123")
	assert.Contains(t, content, "Profit Factor: inf")
	assert.Contains(t, content, "## Baseline (buy and hold)")
}
