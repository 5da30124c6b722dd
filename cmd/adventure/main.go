// Package main provides the adventure binary: the narrated terminal game and
// its content tooling.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/config"
	"github.com/cory-johannsen/adventure/internal/observability"
)

var rootCmd = &cobra.Command{
	Use:   "adventure",
	Short: "A narrated fantasy adventure with dice-driven combat",
	Long: `adventure runs a text role-playing game. A language model narrates the
story while every roll, hit and reward is resolved by the combat engine.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "configs/dev.yaml", "path to configuration file")
	rootCmd.AddCommand(playCmd, validateCmd, spawnCmd, importCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads configuration and builds the logger every command shares.
func bootstrap(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("loading config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("initializing logger: %w", err)
	}
	return cfg, logger, nil
}
