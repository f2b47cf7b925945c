package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/moznion/go-optional"
	engine_v1 "github.com/rxtech-lab/argo-intraday/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-intraday/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-intraday/internal/logger"
	"github.com/rxtech-lab/argo-intraday/internal/optimizer"
	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// OptimizationFileName is written to the results folder by optimize.
const OptimizationFileName = "optimization.yaml"

func optimizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "optimize",
		Usage: "Grid search the crossover parameters over one data file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the backtest YAML config",
				Value:   "config/backtest-engine-v1-config.yaml",
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Parquet or csv bar file",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "grid",
				Usage: "YAML file with trend_periods, volume_periods and volume_factors",
			},
			&cli.StringFlag{
				Name:    "results",
				Aliases: []string{"r"},
				Value:   "results",
			},
			&cli.IntFlag{
				Name:  "top",
				Usage: "Number of ranked combinations to print",
				Value: 5,
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Combinations evaluated at once, 0 for one per CPU",
			},
		},
		Action: optimizeAction,
	}
}

// loadGrid reads a grid file, or returns the default grid for an empty path.
func loadGrid(path string) (optimizer.Grid, error) {
	if path == "" {
		return optimizer.DefaultGrid(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return optimizer.Grid{}, fmt.Errorf("failed to read grid: %w", err)
	}

	var grid optimizer.Grid
	if err := yaml.Unmarshal(data, &grid); err != nil {
		return optimizer.Grid{}, fmt.Errorf("failed to parse grid: %w", err)
	}

	return grid, nil
}

func readSeries(path string, start, end optional.Option[time.Time], l *logger.Logger) ([]types.Bar, error) {
	source, err := datasource.NewDataSource(":memory:", l.Named("datasource"))
	if err != nil {
		return nil, err
	}
	defer source.Close()

	if err := source.Initialize(path); err != nil {
		return nil, err
	}

	return source.ReadSeries(start, end)
}

// optimizeSeries ranks every grid combination over bars and writes the
// ranking to resultsFolder.
func optimizeSeries(ctx context.Context, bars []types.Bar, config engine_v1.BacktestEngineV1Config, grid optimizer.Grid, concurrency int, resultsFolder string, l *logger.Logger) ([]optimizer.Result, error) {
	o, err := optimizer.New(config, grid, optimizer.WithConcurrency(concurrency), optimizer.WithLogger(l.Named("optimizer")))
	if err != nil {
		return nil, err
	}

	bar := progressbar.NewOptions(len(grid.Combinations()),
		progressbar.OptionSetDescription("Optimizing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr),
	)

	results, err := o.Run(ctx, bars, func(optimizer.Result) {
		_ = bar.Add(1)
	})
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(resultsFolder, 0755); err != nil {
		return nil, fmt.Errorf("failed to create results folder: %w", err)
	}

	data, err := yaml.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("failed to encode results: %w", err)
	}

	if err := os.WriteFile(filepath.Join(resultsFolder, OptimizationFileName), data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write results: %w", err)
	}

	return results, nil
}

func optimizeAction(ctx context.Context, cmd *cli.Command) error {
	l, err := newLogger(cmd)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer l.Sync() //nolint:errcheck

	raw, err := os.ReadFile(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	config := engine_v1.EmptyConfig()
	if err := yaml.Unmarshal(raw, &config); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	grid, err := loadGrid(cmd.String("grid"))
	if err != nil {
		return err
	}

	bars, err := readSeries(cmd.String("data"), config.StartTime, config.EndTime, l)
	if err != nil {
		return err
	}

	results, err := optimizeSeries(ctx, bars, config, grid, int(cmd.Int("concurrency")), cmd.String("results"), l)
	if err != nil {
		return err
	}

	fmt.Println(renderRanking(optimizer.Top(results, int(cmd.Int("top")))))

	return nil
}
