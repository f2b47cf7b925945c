package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rxtech-lab/argo-intraday/internal/backtest/engine"
	engine_v1 "github.com/rxtech-lab/argo-intraday/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-intraday/internal/backtest/engine/engine_v1/cache"
	"github.com/rxtech-lab/argo-intraday/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-intraday/internal/logger"
	"github.com/rxtech-lab/argo-intraday/internal/strategy"
	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the configured strategies over every data file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the backtest YAML config",
				Value:   "config/backtest-engine-v1-config.yaml",
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Glob of parquet or csv bar files, one instrument per file",
				Value:   "data/*.parquet",
			},
			&cli.StringFlag{
				Name:    "results",
				Aliases: []string{"r"},
				Usage:   "Results folder, cleaned before the run",
				Value:   "results",
			},
			&cli.StringFlag{
				Name:    "strategies",
				Aliases: []string{"s"},
				Usage:   "Comma separated strategy kinds (crossover, bollinger, orb). Defaults to the one in the config.",
			},
		},
		Action: runAction,
	}
}

// parseKinds turns "crossover, orb" into strategy configs built from the
// parameters in base.
func parseKinds(value string, base strategy.Config) ([]strategy.Config, error) {
	var configs []strategy.Config

	for _, part := range strings.Split(value, ",") {
		kind := strings.ToLower(strings.TrimSpace(part))
		if kind == "" {
			continue
		}

		switch strategy.Kind(kind) {
		case strategy.KindCrossover, strategy.KindBollinger, strategy.KindORB:
		default:
			return nil, fmt.Errorf("unsupported strategy kind %q", kind)
		}

		config := base
		config.Kind = strategy.Kind(kind)
		configs = append(configs, config)
	}

	return configs, nil
}

// runBacktest wires the engine for one invocation and returns its summaries.
func runBacktest(ctx context.Context, configYAML string, dataGlob string, resultsFolder string, kinds string, l *logger.Logger) ([]types.TradeStats, error) {
	backtester := engine_v1.NewBacktestEngineV1WithCache(cache.NewCacheV1())
	backtester.SetLogger(l.Named("engine"))

	if err := backtester.Initialize(configYAML); err != nil {
		return nil, err
	}

	strategies, err := parseKinds(kinds, backtester.Config().Strategy)
	if err != nil {
		return nil, err
	}

	for _, s := range strategies {
		if err := backtester.LoadStrategy(s); err != nil {
			return nil, err
		}
	}

	if err := backtester.SetDataPath(dataGlob); err != nil {
		return nil, err
	}

	if err := backtester.SetResultsFolder(resultsFolder); err != nil {
		return nil, err
	}

	source, err := datasource.NewDataSource(":memory:", l.Named("datasource"))
	if err != nil {
		return nil, err
	}
	defer source.Close()

	if err := backtester.SetDataSource(source); err != nil {
		return nil, err
	}

	var bar *progressbar.ProgressBar

	onStart := engine.OnBacktestStartCallback(func(totalStrategies int, totalDataFiles int) error {
		bar = progressbar.NewOptions(totalStrategies*totalDataFiles,
			progressbar.OptionSetDescription("Backtesting"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWriter(os.Stderr),
		)

		return nil
	})
	onRunEnd := engine.OnRunEndCallback(func(_ types.TradeStats, _ string) {
		_ = bar.Add(1)
	})
	onRunError := engine.OnRunErrorCallback(func(dataFilePath string, err error) {
		l.Warn("Run skipped", zap.String("data", dataFilePath), zap.Error(err))
	})
	onEnd := engine.OnBacktestEndCallback(func(error) {
		if bar != nil {
			_ = bar.Finish()
		}
	})

	return backtester.Run(ctx, engine.LifecycleCallbacks{
		OnBacktestStart: &onStart,
		OnBacktestEnd:   &onEnd,
		OnRunEnd:        &onRunEnd,
		OnRunError:      &onRunError,
	})
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	l, err := newLogger(cmd)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer l.Sync() //nolint:errcheck

	config, err := os.ReadFile(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	stats, err := runBacktest(ctx, string(config), cmd.String("data"), cmd.String("results"), cmd.String("strategies"), l)
	if err != nil {
		return err
	}

	fmt.Println(renderStats(stats))

	return nil
}
