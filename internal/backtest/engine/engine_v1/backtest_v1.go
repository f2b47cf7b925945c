package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-intraday/internal/backtest/engine"
	"github.com/rxtech-lab/argo-intraday/internal/backtest/engine/engine_v1/cache"
	"github.com/rxtech-lab/argo-intraday/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-intraday/internal/indicator"
	"github.com/rxtech-lab/argo-intraday/internal/logger"
	"github.com/rxtech-lab/argo-intraday/internal/strategy"
	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/rxtech-lab/argo-intraday/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// SummaryFileName is the portfolio summary written at the root of the results folder.
const SummaryFileName = "summary.yaml"

type BacktestEngineV1 struct {
	config        BacktestEngineV1Config
	strategies    []strategy.Config
	dataPaths     []string
	resultsFolder string
	log           *logger.Logger
	state         *TradeStore
	datasource    datasource.DataSource
	cache         cache.Cache
}

func NewBacktestEngineV1() engine.Engine {
	return NewBacktestEngineV1WithCache(cache.NewCacheV1())
}

// NewBacktestEngineV1WithCache shares loaded series with other engines.
func NewBacktestEngineV1WithCache(c cache.Cache) *BacktestEngineV1 {
	return &BacktestEngineV1{
		config:        EmptyConfig(),
		strategies:    nil,
		dataPaths:     nil,
		resultsFolder: "",
		log:           logger.NewNopLogger(),
		state:         nil,
		datasource:    nil,
		cache:         c,
	}
}

// SetLogger replaces the engine logger.
func (b *BacktestEngineV1) SetLogger(log *logger.Logger) {
	b.log = log
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	b.config = EmptyConfig()

	if err := yaml.Unmarshal([]byte(config), &b.config); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to parse backtest config", err)
	}

	if err := b.config.Validate(); err != nil {
		return err
	}

	b.log.Debug("Backtest engine initialized",
		zap.String("strategy", string(b.config.Strategy.Kind)),
		zap.Float64("initial_capital", b.config.InitialCapital),
	)

	if b.state != nil {
		b.state.Close()
	}

	var err error

	b.state, err = NewTradeStore(b.log)
	if err != nil {
		return err
	}

	if err := b.state.Initialize(); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to initialize trade store", err)
	}

	return nil
}

// Config returns the parsed configuration.
func (b *BacktestEngineV1) Config() BacktestEngineV1Config {
	return b.config
}

// LoadStrategy implements engine.Engine.
func (b *BacktestEngineV1) LoadStrategy(cfg strategy.Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid strategy config", err)
	}

	b.strategies = append(b.strategies, cfg)
	b.log.Debug("Strategy loaded",
		zap.String("kind", string(cfg.Kind)),
		zap.Int("total_strategies", len(b.strategies)),
	)

	return nil
}

// SetDataPath implements engine.Engine.
func (b *BacktestEngineV1) SetDataPath(path string) error {
	// use glob to get all the files that match the path
	files, err := filepath.Glob(path)
	if err != nil {
		b.log.Error("Failed to set data path",
			zap.String("path", path),
			zap.Error(err),
		)

		return errors.Wrap(errors.ErrCodeBacktestDataPathError, "invalid data path", err)
	}

	absolutePaths := make([]string, len(files))

	for i, file := range files {
		absPath, err := filepath.Abs(file)
		if err != nil {
			b.log.Error("Failed to get absolute path",
				zap.String("path", file),
				zap.Error(err),
			)

			return errors.Wrap(errors.ErrCodeBacktestDataPathError, "invalid data path", err)
		}

		absolutePaths[i] = absPath
	}

	b.dataPaths = absolutePaths
	b.log.Debug("Data paths set",
		zap.Strings("files", absolutePaths),
	)

	return nil
}

// SetResultsFolder implements engine.Engine.
func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	b.resultsFolder = folder
	b.log.Debug("Results folder set",
		zap.String("folder", folder),
	)

	return nil
}

// SetDataSource implements engine.Engine.
func (b *BacktestEngineV1) SetDataSource(datasource datasource.DataSource) error {
	b.datasource = datasource

	return nil
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", fmt.Errorf("failed to generate schema: %w", err)
	}

	return schema, nil
}

// Run implements engine.Engine. A data file that cannot be read or fails
// validation is logged and skipped; every other instrument still runs.
func (b *BacktestEngineV1) Run(ctx context.Context, callbacks engine.LifecycleCallbacks) (stats []types.TradeStats, err error) {
	if callbacks.OnBacktestEnd != nil {
		defer func() { (*callbacks.OnBacktestEnd)(err) }()
	}

	if err := b.preRunCheck(); err != nil {
		return nil, err
	}

	strategies := b.strategies
	if len(strategies) == 0 {
		strategies = []strategy.Config{b.config.Strategy}
	}

	if callbacks.OnBacktestStart != nil {
		if err := (*callbacks.OnBacktestStart)(len(strategies), len(b.dataPaths)); err != nil {
			return nil, err
		}
	}

	if err := os.RemoveAll(b.resultsFolder); err != nil {
		return nil, errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to clean results folder", err)
	}

	if err := os.MkdirAll(b.resultsFolder, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to create results folder", err)
	}

	var lastErr error

	for dataIndex, dataPath := range b.dataPaths {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		entry, err := b.loadSeries(ctx, dataPath, callbacks.OnProcessData)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return stats, ctxErr
			}

			b.skip(dataPath, err, callbacks.OnRunError)
			lastErr = err

			continue
		}

		for strategyIndex, strategyConfig := range strategies {
			runID := uuid.New().String()
			runName := string(strategyConfig.Kind)

			if len(strategies) > 1 {
				runName = fmt.Sprintf("%s_%d", strategyConfig.Kind, strategyIndex)
			}

			if callbacks.OnRunStart != nil {
				if err := (*callbacks.OnRunStart)(runID, runName, dataIndex, dataPath, len(entry.Bars)); err != nil {
					return stats, err
				}
			}

			config := b.config
			config.Strategy = strategyConfig

			result, runStats, err := RunSeries(entry.Bars, entry.Registry, config)
			if err != nil {
				b.skip(dataPath, err, callbacks.OnRunError)
				lastErr = err

				continue
			}

			runStats.ID = runID
			runStats.Timestamp = time.Now()
			runStats.DataPath = dataPath

			resultFolderPath := getResultFolder(b.resultsFolder, runName, dataPath, b.config.StartTime, b.config.EndTime)

			runStats, err = b.writeResults(runStats, result, resultFolderPath)
			if err != nil {
				return stats, err
			}

			b.log.Info("Backtest finished",
				zap.String("symbol", runStats.Symbol),
				zap.String("strategy", runName),
				zap.Int("trades", runStats.TradeResult.NumberOfTrades),
				zap.Float64("total_pnl", runStats.TradePnl.TotalPnL),
				zap.Float64("win_rate", runStats.TradeResult.WinRate),
			)

			stats = append(stats, runStats)

			if callbacks.OnRunEnd != nil {
				(*callbacks.OnRunEnd)(runStats, resultFolderPath)
			}
		}
	}

	if len(stats) == 0 && lastErr != nil {
		return nil, lastErr
	}

	if err := types.WriteTradeStats(filepath.Join(b.resultsFolder, SummaryFileName), stats); err != nil {
		return stats, errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to write summary", err)
	}

	return stats, nil
}

// RunSeries generates signals for bars with cfg.Strategy, tracks them and
// summarises the run. The registry may be shared between concurrent calls
// over the same bars.
func RunSeries(bars []types.Bar, registry indicator.IndicatorRegistry, cfg BacktestEngineV1Config) (TrackerResult, types.TradeStats, error) {
	if err := types.ValidateSeries(bars); err != nil {
		return TrackerResult{}, types.TradeStats{}, err
	}

	session, err := cfg.SessionSchedule()
	if err != nil {
		return TrackerResult{}, types.TradeStats{}, err
	}

	strat, err := strategy.New(cfg.Strategy, session)
	if err != nil {
		return TrackerResult{}, types.TradeStats{}, err
	}

	if registry == nil {
		registry = indicator.NewIndicatorRegistry(bars)
	}

	signals, err := strat.Generate(bars, registry)
	if err != nil {
		return TrackerResult{}, types.TradeStats{}, err
	}

	symbol := ""
	if len(bars) > 0 {
		symbol = bars[0].Symbol
	}

	trackerConfig, err := cfg.TrackerConfig(symbol)
	if err != nil {
		return TrackerResult{}, types.TradeStats{}, err
	}

	result, err := RunTracker(bars, signals, trackerConfig)
	if err != nil {
		return TrackerResult{}, types.TradeStats{}, err
	}

	stats := ComputeStats(bars, result)
	stats.Strategy = string(strat.Name())

	return result, stats, nil
}

// loadSeries reads a data file through the datasource once per file and range.
func (b *BacktestEngineV1) loadSeries(ctx context.Context, dataPath string, onProcessData *engine.OnProcessDataCallback) (cache.Entry, error) {
	key := cacheKey(dataPath, b.config.StartTime, b.config.EndTime)
	if entry, ok := b.cache.Get(key); ok {
		return entry, nil
	}

	if err := b.datasource.Initialize(dataPath); err != nil {
		return cache.Entry{}, err
	}

	count, err := b.datasource.Count(b.config.StartTime, b.config.EndTime)
	if err != nil {
		return cache.Entry{}, err
	}

	if count == 0 {
		return cache.Entry{}, errors.Newf(errors.ErrCodeNoDataFound, "no bars in %s", dataPath)
	}

	bars := make([]types.Bar, 0, count)

	for bar, err := range b.datasource.ReadAll(b.config.StartTime, b.config.EndTime) {
		if err != nil {
			return cache.Entry{}, err
		}

		if err := ctx.Err(); err != nil {
			return cache.Entry{}, err
		}

		bars = append(bars, bar)

		if onProcessData != nil {
			if err := (*onProcessData)(len(bars), count); err != nil {
				return cache.Entry{}, err
			}
		}
	}

	b.cache.Set(key, cache.Entry{Bars: bars})

	entry, _ := b.cache.Get(key)

	return entry, nil
}

func (b *BacktestEngineV1) writeResults(stats types.TradeStats, result TrackerResult, resultFolderPath string) (types.TradeStats, error) {
	if err := b.state.Reset(); err != nil {
		return stats, err
	}

	if err := b.state.Record(stats.Strategy, result.Trades); err != nil {
		return stats, err
	}

	holdingTime, err := b.state.HoldingTime(stats.Symbol)
	if err != nil {
		return stats, err
	}

	stats.TradeHoldingTime = holdingTime

	tradesPath, err := b.state.Write(resultFolderPath)
	if err != nil {
		return stats, err
	}

	stats.TradesFilePath = tradesPath

	if err := types.WriteTradeStats(filepath.Join(resultFolderPath, "stats.yaml"), []types.TradeStats{stats}); err != nil {
		return stats, errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to write stats", err)
	}

	return stats, nil
}

func (b *BacktestEngineV1) skip(dataPath string, err error, onRunError *engine.OnRunErrorCallback) {
	b.log.Error("Skipping data file",
		zap.String("data", dataPath),
		zap.Error(err),
	)

	if onRunError != nil {
		(*onRunError)(dataPath, err)
	}
}

func (b *BacktestEngineV1) preRunCheck() error {
	if b.state == nil {
		return errors.New(errors.ErrCodeBacktestInitFailed, "engine is not initialized")
	}

	if len(b.dataPaths) == 0 {
		b.log.Error("No data paths loaded")

		return errors.New(errors.ErrCodeBacktestNoDataPaths, "no data paths loaded")
	}

	if b.resultsFolder == "" {
		b.log.Error("No results folder set")

		return errors.New(errors.ErrCodeBacktestNoResultsDir, "no results folder set")
	}

	if b.datasource == nil {
		b.log.Error("No datasource set")

		return errors.New(errors.ErrCodeBacktestNoDatasource, "no datasource set")
	}

	return nil
}
