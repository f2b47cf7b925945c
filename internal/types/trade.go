package types

import (
	"time"
)

// ExitReason records why a position was closed.
type ExitReason string

const (
	ExitReasonStopLoss       ExitReason = "STOP_LOSS"
	ExitReasonTakeProfit     ExitReason = "TAKE_PROFIT"
	ExitReasonOppositeSignal ExitReason = "OPPOSITE_SIGNAL"
	ExitReasonEndOfData      ExitReason = "END_OF_DATA"
)

// ExitReasons lists every reason in exit priority order, with the end of data
// close last.
var ExitReasons = []ExitReason{
	ExitReasonStopLoss,
	ExitReasonTakeProfit,
	ExitReasonOppositeSignal,
	ExitReasonEndOfData,
}

// Position is the single open long holding.
type Position struct {
	Symbol          string    `json:"symbol" yaml:"symbol"`
	EntryTime       time.Time `json:"entry_time" yaml:"entry_time"`
	EntryPrice      float64   `json:"entry_price" yaml:"entry_price"`
	Shares          float64   `json:"shares" yaml:"shares"`
	StopLossPrice   float64   `json:"stop_loss_price" yaml:"stop_loss_price"`
	TakeProfitPrice float64   `json:"take_profit_price" yaml:"take_profit_price"`
}

// NewPosition sizes a position with all of cash at entryPrice and derives the
// protective levels from the stop loss and take profit fractions.
func NewPosition(symbol string, at time.Time, entryPrice, cash, stopLossPct, takeProfitPct float64) Position {
	return Position{
		Symbol:          symbol,
		EntryTime:       at,
		EntryPrice:      entryPrice,
		Shares:          cash / entryPrice,
		StopLossPrice:   entryPrice * (1 - stopLossPct),
		TakeProfitPrice: entryPrice * (1 + takeProfitPct),
	}
}

// MarketValue is the value of the position at price.
func (p Position) MarketValue(price float64) float64 {
	return p.Shares * price
}

// TradeRecord is one round trip. A record returned from a backtest always has
// its exit fields populated.
type TradeRecord struct {
	ID         string     `json:"id" yaml:"id"`
	Symbol     string     `json:"symbol" yaml:"symbol"`
	EntryTime  time.Time  `json:"entry_time" yaml:"entry_time"`
	EntryPrice float64    `json:"entry_price" yaml:"entry_price"`
	Shares     float64    `json:"shares" yaml:"shares"`
	ExitTime   time.Time  `json:"exit_time" yaml:"exit_time"`
	ExitPrice  float64    `json:"exit_price" yaml:"exit_price"`
	Profit     float64    `json:"profit" yaml:"profit"`
	ExitReason ExitReason `json:"exit_reason" yaml:"exit_reason"`
	// Fees is the brokerage charged on both legs.
	Fees float64 `json:"fees" yaml:"fees"`
}

// Close completes the record for position p. Profit excludes brokerage.
func (p Position) Close(id string, at time.Time, exitPrice float64, reason ExitReason, fees float64) TradeRecord {
	return TradeRecord{
		ID:         id,
		Symbol:     p.Symbol,
		EntryTime:  p.EntryTime,
		EntryPrice: p.EntryPrice,
		Shares:     p.Shares,
		ExitTime:   at,
		ExitPrice:  exitPrice,
		Profit:     (exitPrice - p.EntryPrice) * p.Shares,
		ExitReason: reason,
		Fees:       fees,
	}
}

// IsWin reports whether the trade made money before fees.
func (t TradeRecord) IsWin() bool {
	return t.Profit > 0
}
