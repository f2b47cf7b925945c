package indicator

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-intraday/internal/types"
)

// Key identifies a computed indicator by kind and parameters.
type Key struct {
	Kind       types.IndicatorType
	Field      types.PriceField
	Period     int
	Multiplier float64
	// Location names the session time zone of day-anchored indicators
	Location string
}

// String renders the key for logs.
func (k Key) String() string {
	switch k.Kind {
	case types.IndicatorTypeBollingerBands:
		return fmt.Sprintf("%s(%s,%d,%g)", k.Kind, k.Field, k.Period, k.Multiplier)
	case types.IndicatorTypeSMA:
		return fmt.Sprintf("%s(%s,%d)", k.Kind, k.Field, k.Period)
	case types.IndicatorTypeVWAP:
		return fmt.Sprintf("%s(%s)", k.Kind, k.Location)
	default:
		return string(k.Kind)
	}
}

// Series holds one value per bar; None marks bars where the indicator is
// not yet defined.
type Series []optional.Option[float64]

// At returns the value at i, or None when i is out of range.
func (s Series) At(i int) optional.Option[float64] {
	if i < 0 || i >= len(s) {
		return optional.None[float64]()
	}

	return s[i]
}

// Result is an indicator computed over a bar series. Value is the main line
// (the middle band for Bollinger Bands); Upper and Lower are only set for
// band indicators.
type Result struct {
	Key   Key
	Value Series
	Upper Series
	Lower Series
}

// Indicator interface defines methods that any technical indicator must implement
type Indicator interface {
	// Name returns the name of the indicator
	Name() types.IndicatorType
	// Key returns the kind and parameters the indicator is configured with
	Key() Key
	// Compute calculates the indicator for every bar, aligned with bars
	Compute(bars []types.Bar) (Result, error)
	Config(params ...any) error
}

func noneSeries(n int) Series {
	out := make(Series, n)
	for i := range out {
		out[i] = optional.None[float64]()
	}

	return out
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
