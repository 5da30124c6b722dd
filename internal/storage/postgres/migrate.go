package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/cory-johannsen/adventure/internal/config"
)

// MigrationResult reports the schema version after a migration run.
type MigrationResult struct {
	Version  uint
	Dirty    bool
	NoChange bool
}

// Migrate applies the migrations in dir to the configured database.
// Direction is "up" or "down"; steps of 0 migrates all the way.
//
// Precondition: dir must contain golang-migrate numbered SQL files.
// Postcondition: Returns the resulting version; an already-current schema is
// not an error and sets NoChange.
func Migrate(cfg config.DatabaseConfig, dir, direction string, steps int) (MigrationResult, error) {
	if direction != "up" && direction != "down" {
		return MigrationResult{}, fmt.Errorf("invalid direction %q: must be 'up' or 'down'", direction)
	}
	if steps < 0 {
		return MigrationResult{}, fmt.Errorf("steps must be >= 0, got %d", steps)
	}

	m, err := migrate.New("file://"+dir, cfg.DSN())
	if err != nil {
		return MigrationResult{}, fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	switch {
	case steps > 0 && direction == "down":
		err = m.Steps(-steps)
	case steps > 0:
		err = m.Steps(steps)
	case direction == "down":
		err = m.Down()
	default:
		err = m.Up()
	}

	var res MigrationResult
	if errors.Is(err, migrate.ErrNoChange) {
		res.NoChange = true
	} else if err != nil {
		return MigrationResult{}, fmt.Errorf("migrating %s: %w", direction, err)
	}

	res.Version, res.Dirty, err = m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return res, fmt.Errorf("reading schema version: %w", err)
	}
	return res, nil
}
