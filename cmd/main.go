package main

import (
	"cmp"
	"context"
	"errors"
	"os"

	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := cmp.Or(os.Getenv("JUKEBOX_CONFIG"), "config.toml")
	config, err := shared.ResolveConfig(configPath)
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "jukebox",
		Usage:    "Browse and manage the albums, singers and songs catalogue",
		Version:  "0.1.0",
		Commands: runner.register(),

		DisableSliceFlagSeparator: true,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
