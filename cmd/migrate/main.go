package main

import (
	"flag"
	"log"

	"nftmint_rewards/internal/config"
	"nftmint_rewards/internal/repository"
	"nftmint_rewards/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	var (
		steps   = flag.Int("steps", 0, "number of migrations to apply, negative to roll back, 0 for all pending")
		dsn     = flag.String("database-url", "", "postgres url, defaults to the database section of the config")
		version = flag.Bool("version", false, "print the current schema version and exit")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err = logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	databaseURL := *dsn
	if databaseURL == "" {
		databaseURL = cfg.Database.GetDatabaseURL()
	}

	if *version {
		v, dirty, err := repository.MigrationVersion(databaseURL)
		if err != nil {
			zapLogger.Fatal("Failed to read migration version", zap.Error(err))
		}
		zapLogger.Info("Schema version", zap.Uint("version", v), zap.Bool("dirty", dirty))
		return
	}

	if err = repository.Migrate(databaseURL, *steps); err != nil {
		zapLogger.Fatal("Failed to run migrations", zap.Int("steps", *steps), zap.Error(err))
	}
}
