package types

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-intraday/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type TypesTestSuite struct {
	suite.Suite
}

func TestTypesSuite(t *testing.T) {
	suite.Run(t, new(TypesTestSuite))
}

func bar(minute int, high, low, close float64) Bar {
	return Bar{
		Time:   time.Date(2024, 1, 2, 9, 15+minute, 0, 0, time.UTC),
		Symbol: "INFY",
		Open:   close,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: 1000,
	}
}

func (suite *TypesTestSuite) TestValidateSeries() {
	tests := []struct {
		name    string
		bars    []Bar
		wantErr bool
		index   int
	}{
		{name: "empty", bars: nil},
		{name: "single", bars: []Bar{bar(0, 1, 1, 1)}},
		{name: "increasing", bars: []Bar{bar(0, 1, 1, 1), bar(1, 1, 1, 1), bar(2, 1, 1, 1)}},
		{name: "duplicate", bars: []Bar{bar(0, 1, 1, 1), bar(0, 1, 1, 1)}, wantErr: true, index: 1},
		{name: "out of order", bars: []Bar{bar(0, 1, 1, 1), bar(2, 1, 1, 1), bar(1, 1, 1, 1)}, wantErr: true, index: 2},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			err := ValidateSeries(tc.bars)
			if !tc.wantErr {
				suite.NoError(err)

				return
			}

			var seriesErr *errors.InvalidSeriesError
			suite.Require().True(errors.As(err, &seriesErr))
			suite.Equal(tc.index, seriesErr.Index)
		})
	}
}

func (suite *TypesTestSuite) TestTypicalPriceAndExtractors() {
	bars := []Bar{bar(0, 12, 6, 9), bar(1, 10, 8, 9)}
	suite.InDelta(9.0, bars[0].TypicalPrice(), 1e-12)
	suite.Equal([]float64{9, 9}, Closes(bars))
	suite.Equal([]float64{1000, 1000}, Volumes(bars))
	suite.Equal(1000.0, FieldVolume.Value(bars[0]))
	suite.Equal(9.0, FieldClose.Value(bars[0]))
}

func (suite *TypesTestSuite) TestSignalHelpers() {
	suite.Equal([]Signal{SignalHold, SignalHold, SignalHold}, Holds(3))
	suite.Empty(Holds(0))
	suite.True(SignalBuy.IsEntry())
	suite.False(SignalSell.IsEntry())
	suite.False(SignalDefiningRange.IsEntry())
	suite.Equal("DEFINING_RANGE", SignalDefiningRange.String())
}

func (suite *TypesTestSuite) TestPositionSizingAndClose() {
	entryTime := time.Date(2024, 1, 2, 9, 20, 0, 0, time.UTC)
	pos := NewPosition("INFY", entryTime, 100.05, 99980, 0.02, 0.04)

	suite.InDelta(99980/100.05, pos.Shares, 1e-9)
	suite.InDelta(98.049, pos.StopLossPrice, 1e-9)
	suite.InDelta(104.052, pos.TakeProfitPrice, 1e-9)
	suite.InDelta(99980.0, pos.MarketValue(100.05), 1e-6)

	trade := pos.Close("t1", entryTime.Add(time.Minute), pos.StopLossPrice, ExitReasonStopLoss, 40)
	suite.Equal(entryTime, trade.EntryTime)
	suite.InDelta((98.049-100.05)*pos.Shares, trade.Profit, 1e-6)
	suite.Equal(ExitReasonStopLoss, trade.ExitReason)
	suite.False(trade.IsWin())
}

func (suite *TypesTestSuite) TestOpeningRangeFreezes() {
	r := NewOpeningRange("2024-01-02")
	suite.False(r.Defined())
	suite.False(r.BrokenUp(bar(0, 200, 1, 100)))

	r = r.Observe(bar(0, 101, 99, 100))
	r = r.Observe(bar(1, 103, 100, 102))
	suite.Equal(103.0, r.High)
	suite.Equal(99.0, r.Low)
	suite.Equal(2, r.Bars)

	r = r.Finalize()
	frozen := r.Observe(bar(2, 150, 50, 100))
	suite.Equal(r, frozen)

	suite.True(r.BrokenUp(bar(3, 103.5, 101, 103)))
	suite.False(r.BrokenUp(bar(3, 103, 101, 103)))
	suite.True(r.BrokenDown(bar(3, 101, 98.5, 99)))
	suite.False(r.BrokenDown(bar(3, 101, 99, 99)))
}

func (suite *TypesTestSuite) TestPolicies() {
	suite.True(EndOfDataRawClose.Valid())
	suite.True(EndOfDataWithCosts.Valid())
	suite.False(EndOfDataPolicy("mark_to_market").Valid())
	suite.True(PositionPolicyLongOnly.Valid())
	suite.False(PositionPolicy("long_short").Valid())
}
