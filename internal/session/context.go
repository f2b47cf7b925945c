// Package session holds the day-scoped state of the live opening range
// breakout agent. A Context is a value: Evaluate and RollOver return a new
// one and never mutate the receiver.
package session

import (
	"fmt"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-intraday/internal/strategy"
	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/rxtech-lab/argo-intraday/pkg/errors"
)

// Config is the money management and window the agent trades with.
type Config struct {
	Symbol        string               `yaml:"symbol" json:"symbol" validate:"required"`
	Session       strategy.Session     `yaml:"-" json:"-"`
	RangeMinutes  int                  `yaml:"range_minutes" json:"range_minutes" validate:"gt=0"`
	Capital       float64              `yaml:"capital" json:"capital" validate:"gt=0"`
	StopLossPct   float64              `yaml:"stop_loss_pct" json:"stop_loss_pct" validate:"gt=0,lt=1"`
	TakeProfitPct float64              `yaml:"take_profit_pct" json:"take_profit_pct" validate:"gt=0"`
	Positions     types.PositionPolicy `yaml:"position_policy" json:"position_policy"`
}

// DefaultConfig returns the paper trading setup for an NSE instrument.
func DefaultConfig(symbol string) Config {
	return Config{
		Symbol:        symbol,
		Session:       strategy.NSESession(),
		RangeMinutes:  30,
		Capital:       100000,
		StopLossPct:   0.02,
		TakeProfitPct: 0.04,
		Positions:     types.PositionPolicyLongOnly,
	}
}

// Validate checks the rules Evaluate relies on.
func (c Config) Validate() error {
	if c.Session.Location == nil {
		return errors.New(errors.ErrCodeInvalidConfiguration, "session location is required")
	}

	if c.RangeMinutes <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "range minutes must be positive, got %d", c.RangeMinutes)
	}

	if c.Capital <= 0 || c.StopLossPct <= 0 || c.TakeProfitPct <= 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "capital, stop loss and take profit must be positive")
	}

	if !c.Positions.Valid() {
		return errors.Newf(errors.ErrCodeUnsupportedPositionPolicy, "unsupported position policy %q", c.Positions)
	}

	return nil
}

// RangeEnd is the first instant after the opening range window on the day of t.
func (c Config) RangeEnd(t time.Time) time.Time {
	return c.Session.OpenOn(t).Add(time.Duration(c.RangeMinutes) * time.Minute)
}

// Context is everything the agent remembers within one trading day.
type Context struct {
	Day             string              `json:"day"`
	OpeningRange    types.OpeningRange  `json:"opening_range"`
	TradeTakenToday bool                `json:"trade_taken_today"`
	Position        *types.Position     `json:"position,omitempty"`
	Journal         []string            `json:"trade_journal"`
	Trades          []types.TradeRecord `json:"trades"`
	EODReportSent   bool                `json:"eod_report_sent"`
	LastSignal      types.Signal        `json:"last_signal"`
	LastClose       float64             `json:"last_close"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// New returns a fresh context for day (YYYY-MM-DD).
func New(day string) Context {
	return Context{
		Day:          day,
		OpeningRange: types.NewOpeningRange(day),
		Journal:      []string{},
		Trades:       []types.TradeRecord{},
		LastSignal:   types.SignalHold,
	}
}

// RollOver returns a fresh context when now falls on another day than c,
// and c unchanged otherwise. A position still open is dropped with the day.
func (c Context) RollOver(now time.Time, s strategy.Session) (Context, bool) {
	day := s.DayOf(now)
	if day == c.Day {
		return c, false
	}

	return New(day), true
}

// Evaluation describes what one cycle did.
type Evaluation struct {
	Signal types.Signal
	// Exit is the trade closed by a stop loss or take profit this cycle
	Exit optional.Option[types.TradeRecord]
	// Entry is the position opened this cycle
	Entry optional.Option[types.Position]
	// ShortIgnored is set when a downside breakout was seen under a long only policy
	ShortIgnored bool
}

// Evaluate applies the latest bar observed at now.
//
// An open position is checked first: low at or below the stop loss exits at
// the stop, otherwise high at or above the take profit exits at the target.
// Before the end of the opening range window the bar extends the range. After
// it, the first strict breakout of the day decides: above the high buys at
// the range high with all of the capital, below the low marks the day as
// traded without opening a short.
func (c Context) Evaluate(bar types.Bar, now time.Time, cfg Config) (Context, Evaluation) {
	next := c.clone()
	eval := Evaluation{
		Signal: types.SignalHold,
		Exit:   optional.None[types.TradeRecord](),
		Entry:  optional.None[types.Position](),
	}

	if next.Position != nil {
		position := *next.Position

		var reason types.ExitReason

		var exitPrice float64

		switch {
		case bar.Low <= position.StopLossPrice:
			reason, exitPrice = types.ExitReasonStopLoss, position.StopLossPrice
		case bar.High >= position.TakeProfitPrice:
			reason, exitPrice = types.ExitReasonTakeProfit, position.TakeProfitPrice
		}

		if reason != "" {
			trade := position.Close(fmt.Sprintf("%s-%s-%d", position.Symbol, next.Day, len(next.Trades)+1), now, exitPrice, reason, 0)
			next.Trades = append(next.Trades, trade)
			next.Journal = append(next.Journal, fmt.Sprintf("%s Exit at %.2f. P&L: %.2f", reason, exitPrice, trade.Profit))
			next.Position = nil
			eval.Exit = optional.Some(trade)
		}
	}

	if now.Before(cfg.RangeEnd(now)) {
		next.OpeningRange = next.OpeningRange.Observe(bar)
		eval.Signal = types.SignalDefiningRange
	} else {
		next.OpeningRange = next.OpeningRange.Finalize()

		if !next.TradeTakenToday && next.Position == nil {
			switch {
			case next.OpeningRange.BrokenUp(bar):
				position := types.NewPosition(cfg.Symbol, now, next.OpeningRange.High, cfg.Capital, cfg.StopLossPct, cfg.TakeProfitPct)
				next.Position = &position
				next.TradeTakenToday = true
				next.Journal = append(next.Journal, fmt.Sprintf("BUY Entry at %.2f for %.2f shares.", position.EntryPrice, position.Shares))
				eval.Signal = types.SignalBuy
				eval.Entry = optional.Some(position)
			case next.OpeningRange.BrokenDown(bar):
				next.TradeTakenToday = true
				eval.Signal = types.SignalSell
				eval.ShortIgnored = true
			}
		}
	}

	next.LastSignal = eval.Signal
	next.LastClose = bar.Close
	next.UpdatedAt = now

	return next, eval
}

// MarkReported records that the end of day report went out.
func (c Context) MarkReported() Context {
	next := c.clone()
	next.EODReportSent = true

	return next
}

// RealizedPnL sums the closed trades of the day.
func (c Context) RealizedPnL() float64 {
	var total float64

	for _, trade := range c.Trades {
		total += trade.Profit
	}

	return total
}

func (c Context) clone() Context {
	next := c
	next.Journal = append([]string{}, c.Journal...)
	next.Trades = append([]types.TradeRecord{}, c.Trades...)

	if c.Position != nil {
		position := *c.Position
		next.Position = &position
	}

	return next
}
