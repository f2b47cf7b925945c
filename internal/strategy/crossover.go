package strategy

import (
	"github.com/rxtech-lab/argo-intraday/internal/indicator"
	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/rxtech-lab/argo-intraday/pkg/errors"
)

// Crossover signals when close crosses the daily VWAP on strong volume,
// optionally confirmed by a longer trend SMA.
type Crossover struct {
	params  CrossoverParams
	session Session
}

// NewCrossover validates params and creates the strategy.
func NewCrossover(params CrossoverParams, session Session) (*Crossover, error) {
	if params.VolumePeriod <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "volume period must be positive, got %d", params.VolumePeriod)
	}

	if params.VolumeFactor <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidMultiplier, "volume factor must be positive, got %f", params.VolumeFactor)
	}

	if params.TrendFilter && params.TrendPeriod <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "trend period must be positive when the trend filter is on, got %d", params.TrendPeriod)
	}

	return &Crossover{params: params, session: session}, nil
}

// Name returns the strategy kind.
func (c *Crossover) Name() Kind {
	return KindCrossover
}

// WarmUp is the trend period when gated, otherwise the volume period.
func (c *Crossover) WarmUp() int {
	if c.params.TrendFilter {
		return c.params.TrendPeriod
	}

	return c.params.VolumePeriod
}

// Generate evaluates the crossover on every bar past the warm-up.
func (c *Crossover) Generate(bars []types.Bar, registry indicator.IndicatorRegistry) ([]types.Signal, error) {
	registry = registryFor(bars, registry)
	signals := types.Holds(len(bars))

	vwap, err := registry.GetOrCompute(indicator.NewVWAP(c.session.Location))
	if err != nil {
		return nil, err
	}

	volumeAvg, err := registry.GetOrCompute(indicator.NewSMA(types.FieldVolume, c.params.VolumePeriod))
	if err != nil {
		return nil, err
	}

	var trend indicator.Result
	if c.params.TrendFilter {
		trend, err = registry.GetOrCompute(indicator.NewSMA(types.FieldClose, c.params.TrendPeriod))
		if err != nil {
			return nil, err
		}
	}

	for i := c.WarmUp(); i < len(bars); i++ {
		prevRef, curRef, prevAvg := vwap.Value.At(i-1), vwap.Value.At(i), volumeAvg.Value.At(i-1)
		if prevRef.IsNone() || curRef.IsNone() || prevAvg.IsNone() {
			continue
		}

		prev, cur := bars[i-1], bars[i]
		bullish := prev.Close < prevRef.Unwrap() && cur.Close > curRef.Unwrap()
		bearish := prev.Close > prevRef.Unwrap() && cur.Close < curRef.Unwrap()
		strongVolume := cur.Volume > prevAvg.Unwrap()*c.params.VolumeFactor

		buy, sell := bullish && strongVolume, bearish && strongVolume

		if c.params.TrendFilter {
			trendValue := trend.Value.At(i)
			if trendValue.IsNone() {
				continue
			}

			uptrend := cur.Close > trendValue.Unwrap()
			buy = buy && uptrend
			sell = sell && !uptrend
		}

		switch {
		case buy:
			signals[i] = types.SignalBuy
		case sell:
			signals[i] = types.SignalSell
		}
	}

	return signals, nil
}
