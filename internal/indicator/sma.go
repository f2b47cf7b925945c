package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/rxtech-lab/argo-intraday/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// SMA is a simple moving average over one bar field.
type SMA struct {
	field  types.PriceField
	period int
}

// NewSMA creates a new SMA over field with the given period.
func NewSMA(field types.PriceField, period int) *SMA {
	return &SMA{
		field:  field,
		period: period,
	}
}

// Name returns the name of the indicator.
func (m *SMA) Name() types.IndicatorType {
	return types.IndicatorTypeSMA
}

// Key returns the configured key.
func (m *SMA) Key() Key {
	return Key{Kind: types.IndicatorTypeSMA, Field: m.field, Period: m.period}
}

// Config expects 1 parameter: period (int or float64).
func (m *SMA) Config(params ...any) error {
	if len(params) != 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 1 parameter: period (int)")
	}

	period, ok := toInt(params[0])
	if !ok {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for period parameter, expected int")
	}

	if period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	m.period = period

	return nil
}

// Compute returns the rolling mean. The first period-1 values are None.
func (m *SMA) Compute(bars []types.Bar) (Result, error) {
	if m.period <= 0 {
		return Result{}, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", m.period)
	}

	values := make([]float64, len(bars))
	for i, b := range bars {
		values[i] = m.field.Value(b)
	}

	out := noneSeries(len(bars))
	for i := m.period - 1; i < len(values); i++ {
		out[i] = optional.Some(stat.Mean(values[i-m.period+1:i+1], nil))
	}

	return Result{Key: m.Key(), Value: out}, nil
}
