package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rxtech-lab/argo-intraday/internal/live"
	"github.com/rxtech-lab/argo-intraday/internal/logger"
	"github.com/rxtech-lab/argo-intraday/pkg/marketdata"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// secretEnv maps a keychain field of a download config to the environment
// variable it is read from.
var secretEnv = map[string]string{
	"accessToken": live.EnvUpstoxAccessToken,
	"apiKey":      live.EnvPolygonAPIKey,
}

// buildDownloadConfig merges the flag values with the optional JSON config
// file, fills missing secrets from getenv and parses the result for
// providerName. Values from the file win over flags.
func buildDownloadConfig(providerName string, flags map[string]any, file []byte, getenv func(string) string) (marketdata.DownloadConfig, error) {
	values := map[string]any{}

	for k, v := range flags {
		if s, ok := v.(string); ok && s == "" {
			continue
		}

		values[k] = v
	}

	if len(file) > 0 {
		fromFile := map[string]any{}
		if err := json.Unmarshal(file, &fromFile); err != nil {
			return nil, fmt.Errorf("failed to parse download config: %w", err)
		}

		for k, v := range fromFile {
			values[k] = v
		}
	}

	fields, err := marketdata.GetDownloadKeychainFields(providerName)
	if err != nil {
		return nil, err
	}

	for _, field := range fields {
		if _, ok := values[field]; ok {
			continue
		}

		if env, ok := secretEnv[field]; ok {
			if secret := getenv(env); secret != "" {
				values[field] = secret
			}
		}
	}

	raw, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to encode download config: %w", err)
	}

	return marketdata.ParseDownloadConfig(providerName, string(raw))
}

func downloadAction(ctx context.Context, cmd *cli.Command) error {
	_ = godotenv.Load()

	l, err := logger.NewLoggerWithLevel(cmd.String("log-level"))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer l.Sync() //nolint:errcheck

	providerName := cmd.String("provider")

	var file []byte

	if path := cmd.String("config"); path != "" {
		file, err = os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read download config: %w", err)
		}
	}

	config, err := buildDownloadConfig(providerName, map[string]any{
		"ticker":    cmd.String("ticker"),
		"symbol":    cmd.String("symbol"),
		"startDate": cmd.String("start"),
		"endDate":   cmd.String("end"),
		"interval":  cmd.String("interval"),
		"format":    cmd.String("format"),
	}, file, os.Getenv)
	if err != nil {
		return err
	}

	params, err := config.ToDownloadParams()
	if err != nil {
		return err
	}

	client, err := marketdata.NewClient(config.ToClientConfig(cmd.String("data")), func(current, total float64, message string) {
		l.Debug("Download progress",
			zap.Float64("current", current),
			zap.Float64("total", total),
			zap.String("message", message),
		)
	})
	if err != nil {
		return fmt.Errorf("failed to create market data client: %w", err)
	}

	client.SetLogger(l)

	l.Info("Starting download",
		zap.String("provider", providerName),
		zap.String("ticker", params.Ticker),
		zap.String("start", params.StartDate.Format(time.DateOnly)),
		zap.String("end", params.EndDate.Format(time.DateOnly)),
	)

	path, err := client.Download(ctx, params)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	l.Info("Download completed", zap.String("path", path))

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "download",
		Usage: "Download historical market data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   fmt.Sprintf("Data provider to use (%s)", strings.Join(marketdata.GetSupportedProviders(), ", ")),
				Value:   string(marketdata.ProviderUpstox),
			},
			&cli.StringFlag{
				Name:    "ticker",
				Aliases: []string{"t"},
				Usage:   "Ticker or instrument key, e.g. NSE_EQ|INE002A01018",
			},
			&cli.StringFlag{
				Name:  "symbol",
				Usage: "Name used for the output file, e.g. RELIANCE",
			},
			&cli.StringFlag{
				Name:    "start",
				Aliases: []string{"s"},
				Usage:   "Start date in `YYYY-MM-DD` format (or RFC3339)",
			},
			&cli.StringFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "End date in `YYYY-MM-DD` format (or RFC3339). Defaults to today.",
				Value:   time.Now().Format(time.DateOnly),
			},
			&cli.StringFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   fmt.Sprintf("Candle interval (%s)", strings.Join(marketdata.Timespans(), ", ")),
				Value:   string(marketdata.TimespanOneMinute),
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: fmt.Sprintf("Output format (%s, %s)", marketdata.FormatParquet, marketdata.FormatCSV),
				Value: string(marketdata.FormatParquet),
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Path to the data output directory",
				Value:   "data",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "JSON download config; its values override the flags",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "schema",
				Usage:     "Print the JSON schema of a provider download config",
				ArgsUsage: "<provider>",
				Action: func(_ context.Context, cmd *cli.Command) error {
					schema, err := marketdata.GetDownloadConfigSchema(cmd.Args().First())
					if err != nil {
						return err
					}

					fmt.Println(schema)

					return nil
				},
			},
		},
		Action: downloadAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
