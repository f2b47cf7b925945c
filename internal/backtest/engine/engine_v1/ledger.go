package engine

import (
	"fmt"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-intraday/internal/types"
)

// Ledger owns the cash balance, the open position and the completed trades
// of one backtest run.
type Ledger struct {
	symbol   string
	cash     float64
	open     optional.Option[types.Position]
	entryFee float64
	fees     float64
	trades   []types.TradeRecord
}

// NewLedger starts a flat ledger with cash.
func NewLedger(symbol string, cash float64) *Ledger {
	return &Ledger{
		symbol: symbol,
		cash:   cash,
		open:   optional.None[types.Position](),
	}
}

// Cash returns the cash balance.
func (l *Ledger) Cash() float64 {
	return l.cash
}

// Fees returns the brokerage charged so far.
func (l *Ledger) Fees() float64 {
	return l.fees
}

// Position returns the open position, if any.
func (l *Ledger) Position() optional.Option[types.Position] {
	return l.open
}

// Trades returns the completed trades in order.
func (l *Ledger) Trades() []types.TradeRecord {
	return l.trades
}

// AccountValue is cash when flat, otherwise cash plus the position marked
// at lastClose.
func (l *Ledger) AccountValue(lastClose float64) float64 {
	if l.open.IsNone() {
		return l.cash
	}

	return l.cash + l.open.Unwrap().MarketValue(lastClose)
}

// Enter pays fee and then commits the remaining cash to a long position at
// entryPrice. It returns None and leaves the ledger untouched if the entry
// cannot be funded: a position is already open, entryPrice is not positive
// or fee leaves no cash to buy with.
func (l *Ledger) Enter(at time.Time, entryPrice, fee, stopLossPct, takeProfitPct float64) optional.Option[types.Position] {
	if l.open.IsSome() || entryPrice <= 0 || l.cash-fee <= 0 {
		return optional.None[types.Position]()
	}

	l.cash -= fee
	l.fees += fee
	l.entryFee = fee

	position := types.NewPosition(l.symbol, at, entryPrice, l.cash, stopLossPct, takeProfitPct)
	l.cash = 0
	l.open = optional.Some(position)

	return optional.Some(position)
}

// Exit pays fee, credits the proceeds at exitPrice and completes the trade.
// It is a no-op returning None when flat.
func (l *Ledger) Exit(at time.Time, exitPrice, fee float64, reason types.ExitReason) optional.Option[types.TradeRecord] {
	if l.open.IsNone() {
		return optional.None[types.TradeRecord]()
	}

	position := l.open.Unwrap()
	l.cash -= fee
	l.fees += fee
	l.cash += position.MarketValue(exitPrice)

	trade := position.Close(fmt.Sprintf("%s-%d", l.symbol, len(l.trades)+1), at, exitPrice, reason, l.entryFee+fee)
	l.trades = append(l.trades, trade)
	l.open = optional.None[types.Position]()
	l.entryFee = 0

	return optional.Some(trade)
}
