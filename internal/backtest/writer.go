package backtest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Writer persists run artifacts to an output directory: the trade log as
// JSONL, the summary as JSON, the equity curve as CSV, and a human-readable
// markdown report.
type Writer struct {
	outputDir string
}

// NewWriter creates an artifact writer rooted at outputDir.
func NewWriter(outputDir string) *Writer {
	return &Writer{outputDir: outputDir}
}

// OutputDir returns the directory artifacts are written to.
func (w *Writer) OutputDir() string {
	return w.outputDir
}

// WriteAll writes every artifact for the report.
func (w *Writer) WriteAll(report *Report) error {
	if err := w.WriteTrades(report); err != nil {
		return err
	}
	if err := w.WriteSummary(report); err != nil {
		return err
	}
	if err := w.WriteEquityCurve(report); err != nil {
		return err
	}
	return w.WriteReport(report)
}

// WriteTrades writes the trade log as one JSON object per line.
func (w *Writer) WriteTrades(report *Report) error {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(filepath.Join(w.outputDir, "trades.jsonl"))
	if err != nil {
		return fmt.Errorf("failed to create trades file: %w", err)
	}
	defer f.Close()

	for _, trade := range report.Trades {
		data, err := json.Marshal(trade)
		if err != nil {
			return fmt.Errorf("failed to marshal trade: %w", err)
		}
		if _, err := f.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("failed to write trade: %w", err)
		}
	}
	return nil
}

// WriteSummary writes the summary block as JSON. Non-finite ratios (no losing
// trades) are rendered as strings.
func (w *Writer) WriteSummary(report *Report) error {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	doc := map[string]any{
		"run_id":       report.RunID,
		"started_at":   report.StartedAt,
		"completed_at": report.CompletedAt,
		"summary":      summaryDoc(report.Summary),
	}
	if report.Baseline != nil {
		doc["baseline_comparison"] = report.Baseline
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.outputDir, "summary.json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// WriteEquityCurve writes the equity curve as date,equity CSV rows.
func (w *Writer) WriteEquityCurve(report *Report) error {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(filepath.Join(w.outputDir, "equity.csv"))
	if err != nil {
		return fmt.Errorf("failed to create equity file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write([]string{"date", "equity"}); err != nil {
		return fmt.Errorf("failed to write equity header: %w", err)
	}
	for _, pt := range report.EquityCurve {
		row := []string{pt.Date.Format(dateLayout), strconv.FormatFloat(pt.Equity, 'f', 2, 64)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write equity row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteReport writes the formatted markdown report.
func (w *Writer) WriteReport(report *Report) error {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var b strings.Builder
	s := report.Summary

	fmt.Fprintf(&b, "# Backtest Report: %s\n\n", s.Model)
	fmt.Fprintf(&b, "Run: `%s`\n\n", report.RunID)

	b.WriteString("## Performance\n\n")
	fmt.Fprintf(&b, "- Final Capital: $%.2f\n", s.FinalCapital)
	fmt.Fprintf(&b, "- Total Return: %.2f%%\n", s.TotalReturn*100)
	fmt.Fprintf(&b, "- Annual Return: %.2f%%\n", s.AnnualReturn*100)
	fmt.Fprintf(&b, "- Volatility: %.2f%%\n", s.Volatility*100)
	fmt.Fprintf(&b, "- Sharpe Ratio: %.2f\n", s.SharpeRatio)
	fmt.Fprintf(&b, "- Sortino Ratio: %.2f\n", s.SortinoRatio)
	fmt.Fprintf(&b, "- Calmar Ratio: %.2f\n", s.CalmarRatio)
	fmt.Fprintf(&b, "- Max Drawdown: %.2f%%\n", s.MaxDrawdown*100)

	b.WriteString("\n## Trades\n\n")
	fmt.Fprintf(&b, "- Trades: %d (%d wins, %d losses)\n", s.NumTrades, s.NumWinningTrades, s.NumLosingTrades)
	fmt.Fprintf(&b, "- Win Rate: %.2f%%\n", s.WinRate*100)
	fmt.Fprintf(&b, "- Profit Factor: %s\n", formatRatio(s.ProfitFactor))
	fmt.Fprintf(&b, "- Avg Win: $%.2f\n", s.AvgWin)
	fmt.Fprintf(&b, "- Avg Loss: $%.2f\n", s.AvgLoss)
	fmt.Fprintf(&b, "- Win/Loss Ratio: %s\n", formatRatio(s.WinLossRatio))

	if bl := report.Baseline; bl != nil {
		b.WriteString("\n## Baseline (buy and hold)\n\n")
		fmt.Fprintf(&b, "- Ticker: %s\n", bl.Ticker)
		fmt.Fprintf(&b, "- Total Return: %.2f%%\n", bl.TotalReturn*100)
		fmt.Fprintf(&b, "- Volatility: %.2f%%\n", bl.Volatility*100)
		fmt.Fprintf(&b, "- Sharpe Ratio: %.2f\n", bl.SharpeRatio)
		fmt.Fprintf(&b, "- Max Drawdown: %.2f%%\n", bl.MaxDrawdown*100)
	}

	if err := os.WriteFile(filepath.Join(w.outputDir, "report.md"), []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// summaryDoc renders a Summary for JSON output, stringifying non-finite
// values which encoding/json refuses to marshal.
func summaryDoc(s Summary) map[string]any {
	return map[string]any{
		"model":              s.Model,
		"final_capital":      s.FinalCapital,
		"total_return":       s.TotalReturn,
		"annual_return":      s.AnnualReturn,
		"volatility":         s.Volatility,
		"sharpe_ratio":       s.SharpeRatio,
		"sortino_ratio":      s.SortinoRatio,
		"calmar_ratio":       s.CalmarRatio,
		"max_drawdown":       s.MaxDrawdown,
		"num_trades":         s.NumTrades,
		"num_winning_trades": s.NumWinningTrades,
		"num_losing_trades":  s.NumLosingTrades,
		"win_rate":           s.WinRate,
		"profit_factor":      finiteOrString(s.ProfitFactor),
		"avg_win":            s.AvgWin,
		"avg_loss":           s.AvgLoss,
		"win_loss_ratio":     finiteOrString(s.WinLossRatio),
	}
}

func finiteOrString(v float64) any {
	if math.IsInf(v, 1) {
		return "inf"
	}
	if math.IsInf(v, -1) {
		return "-inf"
	}
	if math.IsNaN(v) {
		return "nan"
	}
	return v
}

func formatRatio(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", v)
}
