package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/rxtech-lab/argo-intraday/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// BollingerBands implements the Indicator interface for Bollinger Bands.
type BollingerBands struct {
	period int     // Number of periods for moving average
	stdDev float64 // Number of standard deviations
}

// NewBollingerBands creates a new Bollinger Bands indicator with default configuration.
func NewBollingerBands() *BollingerBands {
	return &BollingerBands{
		period: 20,
		stdDev: 2.0,
	}
}

// Name returns the name of the indicator.
func (bb *BollingerBands) Name() types.IndicatorType {
	return types.IndicatorTypeBollingerBands
}

// Key returns the configured key.
func (bb *BollingerBands) Key() Key {
	return Key{
		Kind:       types.IndicatorTypeBollingerBands,
		Field:      types.FieldClose,
		Period:     bb.period,
		Multiplier: bb.stdDev,
	}
}

// Config configures the Bollinger Bands indicator. Expected parameters: period (int), stdDev (float64).
func (bb *BollingerBands) Config(params ...any) error {
	if len(params) != 2 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 2 parameters: period (int), stdDev (float64)")
	}

	period, ok := toInt(params[0])
	if !ok {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for period parameter, expected int")
	}

	if period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	stdDev, ok := params[1].(float64)
	if !ok {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for stdDev parameter, expected float64")
	}

	if stdDev <= 0 {
		return errors.Newf(errors.ErrCodeInvalidMultiplier, "stdDev must be a positive number, got %f", stdDev)
	}

	bb.period = period
	bb.stdDev = stdDev

	return nil
}

// Compute calculates the middle, upper and lower bands over closes. The
// deviation is the population standard deviation of the window.
func (bb *BollingerBands) Compute(bars []types.Bar) (Result, error) {
	if bb.period <= 0 {
		return Result{}, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", bb.period)
	}

	closes := types.Closes(bars)
	middle := noneSeries(len(bars))
	upper := noneSeries(len(bars))
	lower := noneSeries(len(bars))

	for i := bb.period - 1; i < len(closes); i++ {
		mean, std := stat.PopMeanStdDev(closes[i-bb.period+1:i+1], nil)
		middle[i] = optional.Some(mean)
		upper[i] = optional.Some(mean + bb.stdDev*std)
		lower[i] = optional.Some(mean - bb.stdDev*std)
	}

	return Result{
		Key:   bb.Key(),
		Value: middle,
		Upper: upper,
		Lower: lower,
	}, nil
}
