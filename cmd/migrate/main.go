// Package main provides the database migration runner for the adventure schema.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/config"
	"github.com/cory-johannsen/adventure/internal/observability"
	"github.com/cory-johannsen/adventure/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	dir := flag.String("dir", "migrations", "directory holding the numbered SQL migrations")
	direction := flag.String("direction", "up", "migration direction: up or down")
	steps := flag.Int("steps", 0, "number of steps (0 = all)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	res, err := postgres.Migrate(cfg.Database, *dir, *direction, *steps)
	if err != nil {
		logger.Fatal("migration failed",
			zap.String("dir", *dir),
			zap.String("direction", *direction),
			zap.Error(err),
		)
	}

	elapsed := time.Since(start).Round(time.Millisecond)
	logger.Info("migration complete",
		zap.String("direction", *direction),
		zap.Uint("version", res.Version),
		zap.Bool("dirty", res.Dirty),
		zap.Bool("no_change", res.NoChange),
		zap.Duration("elapsed", elapsed),
	)
	if res.NoChange {
		fmt.Fprintf(os.Stdout, "no changes (version=%d dirty=%v) [%s]\n", res.Version, res.Dirty, elapsed)
		return
	}
	fmt.Fprintf(os.Stdout, "migrated %s to version=%d dirty=%v [%s]\n", *direction, res.Version, res.Dirty, elapsed)
}
