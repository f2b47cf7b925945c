package strategy

import (
	"github.com/rxtech-lab/argo-intraday/internal/indicator"
	"github.com/rxtech-lab/argo-intraday/internal/types"
)

// Bollinger buys below the lower band and sells above the upper band.
type Bollinger struct {
	bands *indicator.BollingerBands
}

// NewBollinger validates params and creates the strategy.
func NewBollinger(params BollingerParams) (*Bollinger, error) {
	bands := indicator.NewBollingerBands()
	if err := bands.Config(params.Period, params.StdDev); err != nil {
		return nil, err
	}

	return &Bollinger{bands: bands}, nil
}

// Name returns the strategy kind.
func (b *Bollinger) Name() Kind {
	return KindBollinger
}

// WarmUp is the band period.
func (b *Bollinger) WarmUp() int {
	return b.bands.Key().Period
}

// Generate compares each close with the bands. A close exactly on a band
// is HOLD.
func (b *Bollinger) Generate(bars []types.Bar, registry indicator.IndicatorRegistry) ([]types.Signal, error) {
	registry = registryFor(bars, registry)
	signals := types.Holds(len(bars))

	bands, err := registry.GetOrCompute(b.bands)
	if err != nil {
		return nil, err
	}

	for i := b.WarmUp(); i < len(bars); i++ {
		upper, lower := bands.Upper.At(i), bands.Lower.At(i)
		if upper.IsNone() || lower.IsNone() {
			continue
		}

		switch closePrice := bars[i].Close; {
		case closePrice < lower.Unwrap():
			signals[i] = types.SignalBuy
		case closePrice > upper.Unwrap():
			signals[i] = types.SignalSell
		}
	}

	return signals, nil
}
