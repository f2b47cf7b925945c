package strategy

import (
	"github.com/rxtech-lab/argo-intraday/internal/indicator"
	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/rxtech-lab/argo-intraday/pkg/errors"
)

// Kind names a signal rule.
type Kind string

const (
	KindCrossover Kind = "crossover"
	KindBollinger Kind = "bollinger"
	KindORB       Kind = "orb"
)

// Strategy turns a bar series into one signal per bar. Implementations are
// pure: the same bars always give the same signals.
type Strategy interface {
	// Name returns the strategy kind
	Name() Kind
	// WarmUp returns the number of leading bars that are always HOLD
	WarmUp() int
	// Generate returns a signal for every bar, reading indicators from
	// registry, which must be built over the same bars
	Generate(bars []types.Bar, registry indicator.IndicatorRegistry) ([]types.Signal, error)
}

// CrossoverParams configures the VWAP crossover with volume confirmation.
type CrossoverParams struct {
	VolumePeriod int     `yaml:"volume_period" json:"volume_period" validate:"gt=0" jsonschema:"default=20"`
	VolumeFactor float64 `yaml:"volume_factor" json:"volume_factor" validate:"gt=0" jsonschema:"default=1.5"`
	TrendPeriod  int     `yaml:"trend_period" json:"trend_period" validate:"gte=0" jsonschema:"default=50"`
	// TrendFilter gates BUY on close above the trend SMA and SELL on close at or below it.
	TrendFilter bool `yaml:"trend_filter" json:"trend_filter"`
}

// BollingerParams configures the band mean reversion rule.
type BollingerParams struct {
	Period int     `yaml:"period" json:"period" validate:"gt=0" jsonschema:"default=20"`
	StdDev float64 `yaml:"std_dev" json:"std_dev" validate:"gt=0" jsonschema:"default=2"`
}

// ORBParams configures the opening range breakout.
type ORBParams struct {
	RangeMinutes int `yaml:"range_minutes" json:"range_minutes" validate:"gt=0" jsonschema:"default=30"`
}

// Config selects a strategy and its parameters.
type Config struct {
	Kind      Kind            `yaml:"kind" json:"kind" validate:"required,oneof=crossover bollinger orb" jsonschema:"enum=crossover,enum=bollinger,enum=orb"`
	Crossover CrossoverParams `yaml:"crossover,omitempty" json:"crossover,omitempty"`
	Bollinger BollingerParams `yaml:"bollinger,omitempty" json:"bollinger,omitempty"`
	ORB       ORBParams       `yaml:"orb,omitempty" json:"orb,omitempty"`
}

// DefaultConfig returns the parameters used by the research scripts.
func DefaultConfig() Config {
	return Config{
		Kind: KindCrossover,
		Crossover: CrossoverParams{
			VolumePeriod: 20,
			VolumeFactor: 1.5,
			TrendPeriod:  50,
			TrendFilter:  true,
		},
		Bollinger: BollingerParams{Period: 20, StdDev: 2},
		ORB:       ORBParams{RangeMinutes: 30},
	}
}

// New builds the strategy selected by cfg.
func New(cfg Config, session Session) (Strategy, error) {
	switch cfg.Kind {
	case KindCrossover:
		return NewCrossover(cfg.Crossover, session)
	case KindBollinger:
		return NewBollinger(cfg.Bollinger)
	case KindORB:
		return NewORB(cfg.ORB, session)
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy kind %q", cfg.Kind)
	}
}

// Signals runs s over bars with a fresh indicator registry.
func Signals(s Strategy, bars []types.Bar) ([]types.Signal, error) {
	return s.Generate(bars, indicator.NewIndicatorRegistry(bars))
}

func registryFor(bars []types.Bar, registry indicator.IndicatorRegistry) indicator.IndicatorRegistry {
	if registry == nil {
		return indicator.NewIndicatorRegistry(bars)
	}

	return registry
}
