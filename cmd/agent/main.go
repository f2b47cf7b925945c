package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rxtech-lab/argo-intraday/internal/live"
	"github.com/rxtech-lab/argo-intraday/internal/logger"
	"github.com/rxtech-lab/argo-intraday/internal/notify"
	"github.com/rxtech-lab/argo-intraday/internal/session"
	"github.com/rxtech-lab/argo-intraday/internal/status"
	"github.com/rxtech-lab/argo-intraday/pkg/marketdata/provider"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// overrides are the flags that replace values of the config file.
type overrides struct {
	statusFile  string
	sessionFile string
}

// loadConfig reads path, applies the environment secrets and the flag
// overrides, and validates the result.
func loadConfig(path string, o overrides, getenv func(string) string) (live.Config, error) {
	config, err := live.LoadConfig(path)
	if err != nil {
		return live.Config{}, err
	}

	config.ApplyEnv(getenv)

	if o.statusFile != "" {
		config.StatusFile = o.statusFile
	}

	if o.sessionFile != "" {
		config.SessionFile = o.sessionFile
	}

	if err := config.Validate(); err != nil {
		return live.Config{}, err
	}

	return config, nil
}

// buildAgent wires the provider, status sinks, notifiers and session store
// into an agent. The returned server is nil unless listen is set.
func buildAgent(config live.Config, listen bool, l *logger.Logger) (*live.Agent, *status.Server, error) {
	source, err := provider.NewMarketDataProvider(config.Provider, config.ProviderConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create market data provider: %w", err)
	}

	sinks := status.Sinks{status.NewFileWriter(config.StatusFile)}

	var server *status.Server

	if listen {
		server = status.NewServer(l.Named("status"))
		sinks = append(sinks, server)
	}

	notifier := notify.Multi{
		notify.NewEmailNotifier(config.Email, l.Named("email")),
		notify.NewIFTTTNotifier(config.IFTTT, l.Named("ifttt")),
	}

	opts := []live.Option{
		live.WithStatusSink(sinks),
		live.WithNotifier(notifier),
		live.WithLogger(l.Named("agent")),
	}

	if config.SessionFile != "" {
		opts = append(opts, live.WithStore(session.NewStore(config.SessionFile)))
	}

	agent, err := live.NewAgent(config, source, opts...)
	if err != nil {
		return nil, nil, err
	}

	return agent, server, nil
}

func agentAction(ctx context.Context, cmd *cli.Command) error {
	_ = godotenv.Load()

	l, err := logger.NewLoggerWithLevel(cmd.String("log-level"))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer l.Sync() //nolint:errcheck

	config, err := loadConfig(cmd.String("config"), overrides{
		statusFile:  cmd.String("status-file"),
		sessionFile: cmd.String("session-file"),
	}, os.Getenv)
	if err != nil {
		return err
	}

	listen := cmd.String("listen")

	agent, server, err := buildAgent(config, listen != "", l)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	l.Info("Starting ORB paper trading agent",
		zap.String("symbol", config.Symbol),
		zap.String("provider", string(config.Provider)),
		zap.String("status_file", config.StatusFile),
		zap.Duration("poll_interval", config.PollInterval),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return agent.Run(ctx)
	})

	if server != nil {
		g.Go(func() error {
			return server.ListenAndServe(ctx, listen)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	l.Info("Agent stopped")

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "agent",
		Usage: "Paper trade the opening range breakout on live intraday candles",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the agent YAML config. Defaults are used when empty.",
			},
			&cli.StringFlag{
				Name:  "status-file",
				Usage: "Override the status file written after every cycle",
			},
			&cli.StringFlag{
				Name:  "session-file",
				Usage: "Override the file the day context is persisted to",
			},
			&cli.StringFlag{
				Name:  "listen",
				Usage: "Serve the status over HTTP on this address, e.g. :8080",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "schema",
				Usage: "Print the JSON schema of the agent config",
				Action: func(_ context.Context, _ *cli.Command) error {
					schema, err := live.GetConfigSchema()
					if err != nil {
						return err
					}

					fmt.Println(schema)

					return nil
				},
			},
		},
		Action: agentAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
