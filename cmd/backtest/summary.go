package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rxtech-lab/argo-intraday/internal/optimizer"
	"github.com/rxtech-lab/argo-intraday/internal/types"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			return cellStyle
		}).
		Headers(headers...)
}

// renderStats prints one row per backtest run.
func renderStats(stats []types.TradeStats) string {
	t := newTable("Symbol", "Strategy", "Trades", "Win %", "P&L", "Return %", "Max DD %", "Fees", "Buy & Hold")

	for _, s := range stats {
		t.Row(
			s.Symbol,
			s.Strategy,
			fmt.Sprintf("%d", s.TradeResult.NumberOfTrades),
			fmt.Sprintf("%.2f", s.TradeResult.WinRate),
			fmt.Sprintf("%.2f", s.TradePnl.TotalPnL),
			fmt.Sprintf("%.2f", s.ReturnPct),
			fmt.Sprintf("%.2f", s.TradeResult.MaxDrawdown*100),
			fmt.Sprintf("%.2f", s.TotalFees),
			fmt.Sprintf("%.2f", s.BuyAndHoldPnl),
		)
	}

	return t.String()
}

// renderRanking prints the optimizer results in rank order.
func renderRanking(results []optimizer.Result) string {
	t := newTable("#", "Params", "P&L", "Win %", "Trades")

	for i, r := range results {
		t.Row(
			fmt.Sprintf("%d", i+1),
			r.Label(),
			fmt.Sprintf("%.2f", r.PnL),
			fmt.Sprintf("%.2f", r.WinRate),
			fmt.Sprintf("%d", r.NumTrades),
		)
	}

	return t.String()
}
