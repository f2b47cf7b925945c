package main

import (
	"context"
	"log"
	"os"

	"github.com/rxtech-lab/argo-intraday/internal/logger"
	"github.com/urfave/cli/v3"
)

func newLogger(cmd *cli.Command) (*logger.Logger, error) {
	return logger.NewLoggerWithLevel(cmd.String("log-level"))
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Backtest intraday strategies over downloaded bars",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			optimizeCommand(),
			schemaCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
