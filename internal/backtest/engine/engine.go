package engine

import (
	"context"

	"github.com/rxtech-lab/argo-intraday/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-intraday/internal/strategy"
	"github.com/rxtech-lab/argo-intraday/internal/types"
)

// Lifecycle callback types for backtest phases
// All callbacks with error return can abort execution if they return an error

// OnBacktestStartCallback is called when the entire backtest begins.
type OnBacktestStartCallback func(totalStrategies int, totalDataFiles int) error

// OnBacktestEndCallback is called when the entire backtest completes (always called via defer).
type OnBacktestEndCallback func(err error)

// OnRunStartCallback is called when processing of a strategy+data file combination begins.
// runID is a unique identifier for this run, generated before processing starts.
type OnRunStartCallback func(runID string, strategyName string, dataFileIndex int, dataFilePath string, totalBars int) error

// OnRunEndCallback is called when a strategy+data file combination has been written.
type OnRunEndCallback func(stats types.TradeStats, resultFolderPath string)

// OnRunErrorCallback is called when a data file is skipped because it could not be backtested.
type OnRunErrorCallback func(dataFilePath string, err error)

// OnProcessDataCallback is called for each bar read from a data file.
type OnProcessDataCallback func(current int, total int) error

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnBacktestStart *OnBacktestStartCallback
	OnBacktestEnd   *OnBacktestEndCallback
	OnRunStart      *OnRunStartCallback
	OnRunEnd        *OnRunEndCallback
	OnRunError      *OnRunErrorCallback
	OnProcessData   *OnProcessDataCallback
}

type Engine interface {
	// Initialize the engine with the given YAML configuration.
	Initialize(config string) error
	// SetDataPath sets the market data files. Accepts glob patterns (e.g., "data/*.csv");
	// every matching instrument gets its own independent run.
	SetDataPath(path string) error
	// SetResultsFolder sets the output directory for saving backtest results.
	SetResultsFolder(folder string) error
	// LoadStrategy adds a strategy to run over every data file. When none is loaded
	// the strategy from the configuration is used.
	LoadStrategy(cfg strategy.Config) error
	// SetDataSource sets the data source for the engine.
	SetDataSource(dataSource datasource.DataSource) error
	// Run runs every strategy over every data file and returns one summary per run.
	// The context can be used to cancel the backtest operation.
	Run(ctx context.Context, callbacks LifecycleCallbacks) ([]types.TradeStats, error)
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}
