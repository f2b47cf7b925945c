package strategy

import (
	"time"

	"github.com/rxtech-lab/argo-intraday/internal/indicator"
	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/rxtech-lab/argo-intraday/pkg/errors"
)

// ORB is the opening range breakout. The range covers bars from the session
// open up to and including open plus RangeMinutes. After that the first bar
// that breaks the range decides the day.
type ORB struct {
	rangeMinutes int
	session      Session
}

// NewORB validates params and creates the strategy.
func NewORB(params ORBParams, session Session) (*ORB, error) {
	if params.RangeMinutes <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "range minutes must be positive, got %d", params.RangeMinutes)
	}

	return &ORB{rangeMinutes: params.RangeMinutes, session: session}, nil
}

// Name returns the strategy kind.
func (o *ORB) Name() Kind {
	return KindORB
}

// WarmUp is zero. Warm-up is handled per day.
func (o *ORB) WarmUp() int {
	return 0
}

// RangeEnd returns the last instant that belongs to the opening range on the
// day of t.
func (o *ORB) RangeEnd(t time.Time) time.Time {
	return o.session.OpenOn(t).Add(time.Duration(o.rangeMinutes) * time.Minute)
}

// InRange reports whether t falls inside the opening range window.
func (o *ORB) InRange(t time.Time) bool {
	return !t.Before(o.session.OpenOn(t)) && !t.After(o.RangeEnd(t))
}

// Generate runs the breakout day by day. The registry is unused.
func (o *ORB) Generate(bars []types.Bar, _ indicator.IndicatorRegistry) ([]types.Signal, error) {
	signals := types.Holds(len(bars))

	for _, day := range GroupByDay(bars, o.session) {
		if day.Len() <= o.rangeMinutes {
			continue
		}

		o.generateDay(bars[day.Start:day.End], signals[day.Start:day.End], day.Date)
	}

	return signals, nil
}

func (o *ORB) generateDay(bars []types.Bar, signals []types.Signal, date string) {
	openingRange := types.NewOpeningRange(date)
	for _, b := range bars {
		if o.InRange(b.Time) {
			openingRange = openingRange.Observe(b)
		}
	}

	if !openingRange.Defined() {
		return
	}

	openingRange = openingRange.Finalize()

	for i, b := range bars {
		if o.InRange(b.Time) {
			signals[i] = types.SignalDefiningRange

			continue
		}

		if !b.Time.After(o.RangeEnd(b.Time)) {
			continue
		}

		switch {
		case openingRange.BrokenUp(b):
			signals[i] = types.SignalBuy

			return
		case openingRange.BrokenDown(b):
			signals[i] = types.SignalSell

			return
		}
	}
}
