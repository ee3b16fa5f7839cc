package main

import (
	"fmt"
	"log/slog"

	"github.com/averycross/waygate/internal/config"
	"github.com/averycross/waygate/internal/engine"
	"github.com/averycross/waygate/internal/logging"
	"github.com/spf13/cobra"
)

// loadSetup resolves config and logger from the persistent flags.
func loadSetup(cmd *cobra.Command) (*config.Config, engine.Tunables, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, engine.Tunables{}, nil, err
	}

	level := cfg.LogLevel
	if override, _ := cmd.Flags().GetString("log-level"); override != "" {
		level = override
	}
	logger := logging.New(logging.ParseLevel(level))

	tun, err := cfg.Tunables()
	if err != nil {
		return nil, engine.Tunables{}, nil, fmt.Errorf("config: %w", err)
	}
	return cfg, tun, logger, nil
}
