package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	engine_v1 "github.com/rxtech-lab/argo-intraday/internal/backtest/engine/engine_v1"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	schemaFileName       = "backtest-engine-v1-config.json"
	sampleConfigFileName = "backtest-engine-v1-config.yaml"
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Write the config JSON schema and a sample config",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Folder the schema and sample config are written to",
				Value: "config",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			schemaPath, err := writeSchema(cmd.String("dir"))
			if err != nil {
				return err
			}

			fmt.Printf("Schema generated at %s\n", schemaPath)

			return nil
		},
	}
}

// writeSchema writes the schema into dir and, when missing, a sample config
// pointing at it. It returns the schema path.
func writeSchema(dir string) (string, error) {
	config := engine_v1.EmptyConfig()

	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", fmt.Errorf("failed to generate schema: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	schemaPath := filepath.Join(dir, schemaFileName)
	if err := os.WriteFile(schemaPath, []byte(schemaJSON), 0644); err != nil {
		return "", fmt.Errorf("failed to write schema: %w", err)
	}

	samplePath := filepath.Join(dir, sampleConfigFileName)
	if _, err := os.Stat(samplePath); os.IsNotExist(err) {
		yamlBytes, err := yaml.Marshal(config)
		if err != nil {
			return "", fmt.Errorf("failed to marshal sample config: %w", err)
		}

		yamlBytes = append([]byte("# yaml-language-server: $schema="+schemaFileName+"\n"), yamlBytes...)
		if err := os.WriteFile(samplePath, yamlBytes, 0644); err != nil {
			return "", fmt.Errorf("failed to write sample config: %w", err)
		}
	}

	return schemaPath, nil
}
