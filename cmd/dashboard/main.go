package main

import (
	"context"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"
)

func dashboardAction(_ context.Context, cmd *cli.Command) error {
	var source StatusSource = FileSource{Path: cmd.String("status-file")}
	if url := cmd.String("url"); url != "" {
		source = NewHTTPSource(url)
	}

	p := tea.NewProgram(NewModel(source, cmd.Duration("refresh")), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "dashboard",
		Usage: "Watch the paper trading agent in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "status-file",
				Aliases: []string{"f"},
				Usage:   "Status file written by the agent",
				Value:   "status.json",
			},
			&cli.StringFlag{
				Name:  "url",
				Usage: "Agent status server, e.g. http://localhost:8080. Overrides --status-file.",
			},
			&cli.DurationFlag{
				Name:  "refresh",
				Usage: "Refresh interval",
				Value: defaultRefresh,
			},
		},
		Action: dashboardAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
