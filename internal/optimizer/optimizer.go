// Package optimizer searches crossover parameters by backtesting every
// combination of a grid over one series.
package optimizer

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	engine "github.com/rxtech-lab/argo-intraday/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-intraday/internal/indicator"
	"github.com/rxtech-lab/argo-intraday/internal/logger"
	"github.com/rxtech-lab/argo-intraday/internal/strategy"
	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/rxtech-lab/argo-intraday/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Grid lists the values tried for each crossover parameter.
type Grid struct {
	TrendPeriods  []int     `yaml:"trend_periods" json:"trend_periods" validate:"required,dive,gt=0"`
	VolumePeriods []int     `yaml:"volume_periods" json:"volume_periods" validate:"required,dive,gt=0"`
	VolumeFactors []float64 `yaml:"volume_factors" json:"volume_factors" validate:"required,dive,gt=0"`
}

// DefaultGrid is the search used for the trend filtered crossover.
func DefaultGrid() Grid {
	return Grid{
		TrendPeriods:  []int{50, 100},
		VolumePeriods: []int{20, 40},
		VolumeFactors: []float64{1.5, 2.5},
	}
}

// Combinations expands the grid with trend period outermost and volume
// factor innermost. The trend filter is always on.
func (g Grid) Combinations() []strategy.CrossoverParams {
	out := make([]strategy.CrossoverParams, 0, len(g.TrendPeriods)*len(g.VolumePeriods)*len(g.VolumeFactors))

	for _, trend := range g.TrendPeriods {
		for _, period := range g.VolumePeriods {
			for _, factor := range g.VolumeFactors {
				out = append(out, strategy.CrossoverParams{
					VolumePeriod: period,
					VolumeFactor: factor,
					TrendPeriod:  trend,
					TrendFilter:  true,
				})
			}
		}
	}

	return out
}

func (g Grid) longestPeriod() int {
	longest := 0

	for _, p := range append(append([]int{}, g.TrendPeriods...), g.VolumePeriods...) {
		longest = max(longest, p)
	}

	return longest
}

// Result is one evaluated combination.
type Result struct {
	// Index is the position of the combination in Grid.Combinations
	Index     int                      `yaml:"index" json:"index"`
	Params    strategy.CrossoverParams `yaml:"params" json:"params"`
	PnL       float64                  `yaml:"pnl" json:"pnl"`
	WinRate   float64                  `yaml:"win_rate" json:"win_rate"`
	NumTrades int                      `yaml:"num_trades" json:"num_trades"`
	Stats     types.TradeStats         `yaml:"stats" json:"-"`
}

// Label names a combination, e.g. "t50_v20_f1.5".
func (r Result) Label() string {
	return fmt.Sprintf("t%d_v%d_f%g", r.Params.TrendPeriod, r.Params.VolumePeriod, r.Params.VolumeFactor)
}

type Optimizer struct {
	config      engine.BacktestEngineV1Config
	grid        Grid
	concurrency int
	logger      *logger.Logger
}

type Option func(*Optimizer)

// WithConcurrency bounds the number of combinations evaluated at once.
func WithConcurrency(n int) Option {
	return func(o *Optimizer) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithLogger sets the logger used for per-combination progress.
func WithLogger(l *logger.Logger) Option {
	return func(o *Optimizer) {
		o.logger = l
	}
}

// New validates the base config and grid. The strategy section of config is
// replaced by each combination.
func New(config engine.BacktestEngineV1Config, grid Grid, opts ...Option) (*Optimizer, error) {
	if len(grid.TrendPeriods) == 0 || len(grid.VolumePeriods) == 0 || len(grid.VolumeFactors) == 0 {
		return nil, errors.New(errors.ErrCodeOptimizerEmptyGrid, "every grid dimension needs at least one value")
	}

	config.Strategy.Kind = strategy.KindCrossover
	if err := config.Validate(); err != nil {
		return nil, err
	}

	o := &Optimizer{
		config:      config,
		grid:        grid,
		concurrency: runtime.GOMAXPROCS(0),
		logger:      logger.NewNopLogger(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o, nil
}

// Run backtests every combination over bars and returns the results ranked
// by P&L, highest first. Equal P&L keeps grid order. onResult, when set, is
// called as each combination finishes and may be called concurrently.
func (o *Optimizer) Run(ctx context.Context, bars []types.Bar, onResult func(Result)) ([]Result, error) {
	if err := types.ValidateSeries(bars); err != nil {
		return nil, err
	}

	if longest := o.grid.longestPeriod(); len(bars) < longest {
		symbol := ""
		if len(bars) > 0 {
			symbol = bars[0].Symbol
		}

		return nil, errors.NewInsufficientDataErrorf(longest, len(bars), symbol,
			"insufficient data for %s: the grid needs %d bars, got %d", symbol, longest, len(bars))
	}

	combinations := o.grid.Combinations()
	results := make([]Result, len(combinations))
	// shared so SMA(volume) and VWAP are computed once per period
	registry := indicator.NewIndicatorRegistry(bars)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for i, params := range combinations {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			config := o.config
			config.Strategy.Crossover = params

			_, stats, err := engine.RunSeries(bars, registry, config)
			if err != nil {
				return errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "combination %d failed", i)
			}

			result := Result{
				Index:     i,
				Params:    params,
				PnL:       stats.EndingValue - stats.StartingValue,
				WinRate:   stats.TradeResult.WinRate,
				NumTrades: stats.TradeResult.NumberOfTrades,
				Stats:     stats,
			}
			results[i] = result

			o.logger.Info("Finished combination",
				zap.String("params", result.Label()),
				zap.Float64("pnl", result.PnL),
				zap.Int("trades", result.NumTrades),
			)

			if onResult != nil {
				onResult(result)
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	Rank(results)

	return results, nil
}

// Rank orders results by P&L descending, then by grid index.
func Rank(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].PnL != results[j].PnL {
			return results[i].PnL > results[j].PnL
		}

		return results[i].Index < results[j].Index
	})
}

// Top returns at most n of the ranked results.
func Top(results []Result, n int) []Result {
	if n < 0 || n >= len(results) {
		return results
	}

	return results[:n]
}
