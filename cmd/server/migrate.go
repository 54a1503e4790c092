package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/teamtasks/internal/config"
	pgInfra "github.com/fastygo/teamtasks/internal/infrastructure/postgres"
)

func runMigrate(cfg *config.Config, direction string, steps int, zapLogger *zap.Logger) error {
	if cfg.Storage != config.StoragePostgres {
		return fmt.Errorf("migrations need STORAGE=%s, got %q", config.StoragePostgres, cfg.Storage)
	}
	if err := pgInfra.Migrate(cfg, direction, steps, zapLogger); err != nil {
		return fmt.Errorf("migrate %s: %w", direction, err)
	}
	return nil
}
