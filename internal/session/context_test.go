package session

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-intraday/internal/strategy"
	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/rxtech-lab/argo-intraday/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ContextTestSuite struct {
	suite.Suite
	cfg Config
}

func TestContextSuite(t *testing.T) {
	suite.Run(t, new(ContextTestSuite))
}

func (suite *ContextTestSuite) SetupTest() {
	suite.cfg = DefaultConfig("NSE_EQ|INE002A01018")
}

func (suite *ContextTestSuite) at(hour, minute int) time.Time {
	return time.Date(2024, 1, 2, hour, minute, 0, 0, suite.cfg.Session.Location)
}

func (suite *ContextTestSuite) bar(hour, minute int, high, low float64) types.Bar {
	return types.Bar{
		Time:   suite.at(hour, minute),
		Symbol: suite.cfg.Symbol,
		Open:   (high + low) / 2,
		High:   high,
		Low:    low,
		Close:  (high + low) / 2,
		Volume: 1000,
	}
}

// withRange builds the 99..102 range of the first half hour.
func (suite *ContextTestSuite) withRange() Context {
	ctx := New("2024-01-02")
	ctx, eval := ctx.Evaluate(suite.bar(9, 15, 101, 99), suite.at(9, 16), suite.cfg)
	suite.Equal(types.SignalDefiningRange, eval.Signal)
	ctx, eval = ctx.Evaluate(suite.bar(9, 30, 102, 99.5), suite.at(9, 31), suite.cfg)
	suite.Equal(types.SignalDefiningRange, eval.Signal)

	return ctx
}

func (suite *ContextTestSuite) TestDefaultConfigValidates() {
	suite.NoError(suite.cfg.Validate())
	suite.Equal(suite.at(9, 45), suite.cfg.RangeEnd(suite.at(12, 0)))
}

func (suite *ContextTestSuite) TestValidateRejectsBadConfig() {
	cfg := suite.cfg
	cfg.RangeMinutes = 0
	suite.True(errors.HasCode(cfg.Validate(), errors.ErrCodeInvalidPeriod))

	cfg = suite.cfg
	cfg.Capital = 0
	suite.True(errors.HasCode(cfg.Validate(), errors.ErrCodeInvalidParameter))

	cfg = suite.cfg
	cfg.Positions = "long_short"
	suite.True(errors.HasCode(cfg.Validate(), errors.ErrCodeUnsupportedPositionPolicy))

	cfg = suite.cfg
	cfg.Session = strategy.Session{}
	suite.True(errors.HasCode(cfg.Validate(), errors.ErrCodeInvalidConfiguration))
}

func (suite *ContextTestSuite) TestRangeBuildsInsideWindow() {
	ctx := suite.withRange()

	suite.Equal(102.0, ctx.OpeningRange.High)
	suite.Equal(99.0, ctx.OpeningRange.Low)
	suite.Equal(2, ctx.OpeningRange.Bars)
	suite.False(ctx.OpeningRange.Finalized)
	suite.Equal(types.SignalDefiningRange, ctx.LastSignal)
	suite.Equal(100.75, ctx.LastClose)
}

func (suite *ContextTestSuite) TestWindowEndIsExclusive() {
	ctx := suite.withRange()

	ctx, eval := ctx.Evaluate(suite.bar(9, 44, 110, 100), suite.at(9, 45), suite.cfg)

	suite.True(ctx.OpeningRange.Finalized)
	suite.Equal(102.0, ctx.OpeningRange.High)
	suite.Equal(types.SignalBuy, eval.Signal)
}

func (suite *ContextTestSuite) TestBuyAtRangeHigh() {
	ctx := suite.withRange()

	ctx, eval := ctx.Evaluate(suite.bar(9, 50, 102, 100), suite.at(9, 50), suite.cfg)
	suite.Equal(types.SignalHold, eval.Signal, "touching the high is not a breakout")
	suite.Nil(ctx.Position)

	ctx, eval = ctx.Evaluate(suite.bar(9, 51, 103.5, 101), suite.at(9, 51), suite.cfg)
	suite.Equal(types.SignalBuy, eval.Signal)
	suite.Require().True(eval.Entry.IsSome())
	suite.Require().NotNil(ctx.Position)

	position := *ctx.Position
	suite.Equal(102.0, position.EntryPrice)
	suite.InDelta(100000/102.0, position.Shares, 1e-9)
	suite.InDelta(99.96, position.StopLossPrice, 1e-9)
	suite.InDelta(106.08, position.TakeProfitPrice, 1e-9)
	suite.True(ctx.TradeTakenToday)
	suite.Equal([]string{"BUY Entry at 102.00 for 980.39 shares."}, ctx.Journal)
}

func (suite *ContextTestSuite) TestStopLossExit() {
	ctx := suite.withRange()
	ctx, _ = ctx.Evaluate(suite.bar(9, 51, 103, 101), suite.at(9, 51), suite.cfg)

	ctx, eval := ctx.Evaluate(suite.bar(10, 5, 106.5, 99.9), suite.at(10, 5), suite.cfg)

	suite.Require().True(eval.Exit.IsSome())
	trade := eval.Exit.Unwrap()
	suite.Equal(types.ExitReasonStopLoss, trade.ExitReason, "stop loss wins when both levels are touched")
	suite.InDelta(99.96, trade.ExitPrice, 1e-9)
	suite.InDelta(-2000, trade.Profit, 1e-6)
	suite.Equal("NSE_EQ|INE002A01018-2024-01-02-1", trade.ID)
	suite.Nil(ctx.Position)
	suite.Len(ctx.Trades, 1)
	suite.Equal("STOP_LOSS Exit at 99.96. P&L: -2000.00", ctx.Journal[1])
	suite.InDelta(-2000, ctx.RealizedPnL(), 1e-6)
}

func (suite *ContextTestSuite) TestTakeProfitExit() {
	ctx := suite.withRange()
	ctx, _ = ctx.Evaluate(suite.bar(9, 51, 103, 101), suite.at(9, 51), suite.cfg)

	ctx, eval := ctx.Evaluate(suite.bar(11, 0, 106.2, 104), suite.at(11, 0), suite.cfg)

	suite.Require().True(eval.Exit.IsSome())
	suite.Equal(types.ExitReasonTakeProfit, eval.Exit.Unwrap().ExitReason)
	suite.InDelta(4000, ctx.RealizedPnL(), 1e-6)
	suite.Equal("TAKE_PROFIT Exit at 106.08. P&L: 4000.00", ctx.Journal[1])
}

func (suite *ContextTestSuite) TestOneTradePerDay() {
	ctx := suite.withRange()
	ctx, _ = ctx.Evaluate(suite.bar(9, 51, 103, 101), suite.at(9, 51), suite.cfg)
	ctx, _ = ctx.Evaluate(suite.bar(10, 5, 101, 99.5), suite.at(10, 5), suite.cfg)
	suite.Nil(ctx.Position)

	ctx, eval := ctx.Evaluate(suite.bar(10, 30, 104, 101), suite.at(10, 30), suite.cfg)

	suite.Equal(types.SignalHold, eval.Signal)
	suite.True(eval.Entry.IsNone())
	suite.Nil(ctx.Position)
}

func (suite *ContextTestSuite) TestDownsideBreakoutIsIgnoredLongOnly() {
	ctx := suite.withRange()

	ctx, eval := ctx.Evaluate(suite.bar(9, 55, 100, 98.5), suite.at(9, 55), suite.cfg)
	suite.Equal(types.SignalSell, eval.Signal)
	suite.True(eval.ShortIgnored)
	suite.Nil(ctx.Position)
	suite.True(ctx.TradeTakenToday)

	_, eval = ctx.Evaluate(suite.bar(10, 0, 104, 101), suite.at(10, 0), suite.cfg)
	suite.Equal(types.SignalHold, eval.Signal)
}

func (suite *ContextTestSuite) TestEvaluateDoesNotMutateReceiver() {
	ctx := suite.withRange()
	withPosition, _ := ctx.Evaluate(suite.bar(9, 51, 103, 101), suite.at(9, 51), suite.cfg)

	suite.Nil(ctx.Position)
	suite.Empty(ctx.Journal)
	suite.False(ctx.TradeTakenToday)
	suite.False(ctx.OpeningRange.Finalized)

	closed, _ := withPosition.Evaluate(suite.bar(10, 5, 101, 99), suite.at(10, 5), suite.cfg)
	suite.NotNil(withPosition.Position)
	suite.Len(withPosition.Journal, 1)
	suite.Empty(withPosition.Trades)
	suite.Len(closed.Trades, 1)
}

func (suite *ContextTestSuite) TestRollOver() {
	ctx := suite.withRange()
	ctx, _ = ctx.Evaluate(suite.bar(9, 51, 103, 101), suite.at(9, 51), suite.cfg)

	same, rolled := ctx.RollOver(suite.at(15, 0), suite.cfg.Session)
	suite.False(rolled)
	suite.Equal(ctx, same)

	next, rolled := ctx.RollOver(suite.at(9, 0).AddDate(0, 0, 1), suite.cfg.Session)
	suite.True(rolled)
	suite.Equal("2024-01-03", next.Day)
	suite.Nil(next.Position)
	suite.False(next.TradeTakenToday)
	suite.False(next.EODReportSent)
	suite.Empty(next.Journal)
	suite.Equal(types.SignalHold, next.LastSignal)
}

func (suite *ContextTestSuite) TestMarkReported() {
	ctx := New("2024-01-02")
	reported := ctx.MarkReported()

	suite.False(ctx.EODReportSent)
	suite.True(reported.EODReportSent)
}
