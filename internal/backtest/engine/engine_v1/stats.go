package engine

import (
	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/shopspring/decimal"
)

// ComputeStats summarises a tracker result. Sums are accumulated as decimals
// so long ledgers do not drift.
func ComputeStats(bars []types.Bar, result TrackerResult) types.TradeStats {
	total := decimal.Zero
	stats := types.TradeStats{
		StartingValue: result.StartingCash,
		EndingValue:   result.EndingCash,
		TotalFees:     result.TotalFees,
		ExitReasons:   make(map[types.ExitReason]int),
	}

	for i, trade := range result.Trades {
		profit := decimal.NewFromFloat(trade.Profit)
		total = total.Add(profit)

		if trade.IsWin() {
			stats.TradeResult.NumberOfWinningTrades++
		} else {
			stats.TradeResult.NumberOfLosingTrades++
		}

		if i == 0 || trade.Profit > stats.TradePnl.MaximumProfit {
			stats.TradePnl.MaximumProfit = trade.Profit
		}

		if i == 0 || trade.Profit < stats.TradePnl.MaximumLoss {
			stats.TradePnl.MaximumLoss = trade.Profit
		}

		stats.ExitReasons[trade.ExitReason]++
	}

	stats.TradePnl.TotalPnL = total.InexactFloat64()
	stats.TradeResult.NumberOfTrades = len(result.Trades)

	if n := len(result.Trades); n > 0 {
		stats.TradeResult.WinRate = decimal.NewFromInt(int64(stats.TradeResult.NumberOfWinningTrades)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(n))).
			InexactFloat64()
	}

	if result.StartingCash > 0 {
		start := decimal.NewFromFloat(result.StartingCash)
		stats.ReturnPct = decimal.NewFromFloat(result.EndingCash).Sub(start).
			Div(start).
			Mul(decimal.NewFromInt(100)).
			InexactFloat64()
	}

	stats.TradeResult.MaxDrawdown = maxDrawdown(append(append([]float64{result.StartingCash}, result.Equity...), result.EndingCash))

	if len(bars) > 0 && bars[0].Close > 0 {
		first, last := bars[0].Close, bars[len(bars)-1].Close
		stats.BuyAndHoldPnl = result.StartingCash * (last/first - 1)
	}

	if len(bars) > 0 {
		stats.Symbol = bars[0].Symbol
	}

	return stats
}

// maxDrawdown returns the largest peak to trough fall as a fraction of the
// peak.
func maxDrawdown(curve []float64) float64 {
	var peak, worst float64

	for _, v := range curve {
		if v > peak {
			peak = v
		}

		if peak > 0 {
			if dd := (peak - v) / peak; dd > worst {
				worst = dd
			}
		}
	}

	return worst
}
