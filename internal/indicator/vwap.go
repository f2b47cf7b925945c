package indicator

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/rxtech-lab/argo-intraday/pkg/errors"
)

// VWAP is the volume weighted average of the typical price, reset at the
// start of every calendar day in the session location.
type VWAP struct {
	loc *time.Location
}

// NewVWAP creates a daily-anchored VWAP for the given session location.
func NewVWAP(loc *time.Location) *VWAP {
	if loc == nil {
		loc = time.UTC
	}

	return &VWAP{loc: loc}
}

// Name returns the name of the indicator.
func (v *VWAP) Name() types.IndicatorType {
	return types.IndicatorTypeVWAP
}

// Key returns the configured key. VWAPs anchored in different locations
// never share a key.
func (v *VWAP) Key() Key {
	return Key{Kind: types.IndicatorTypeVWAP, Field: types.FieldClose, Location: v.loc.String()}
}

// Config expects 1 parameter: the session location (*time.Location).
func (v *VWAP) Config(params ...any) error {
	if len(params) != 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 1 parameter: location (*time.Location)")
	}

	loc, ok := params[0].(*time.Location)
	if !ok || loc == nil {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for location parameter, expected *time.Location")
	}

	v.loc = loc

	return nil
}

// Compute accumulates price times volume per day. Bars with no cumulative
// volume yet are None.
func (v *VWAP) Compute(bars []types.Bar) (Result, error) {
	out := noneSeries(len(bars))

	var (
		day    string
		cumPV  float64
		cumVol float64
	)

	for i, b := range bars {
		d := b.Time.In(v.loc).Format(time.DateOnly)
		if d != day {
			day = d
			cumPV, cumVol = 0, 0
		}

		cumPV += b.TypicalPrice() * b.Volume
		cumVol += b.Volume

		if cumVol > 0 {
			out[i] = optional.Some(cumPV / cumVol)
		}
	}

	return Result{Key: v.Key(), Value: out}, nil
}
