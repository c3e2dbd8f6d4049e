package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"sheetsync/internal/config"
	"sheetsync/internal/etl"
	"sheetsync/internal/etl/destinations"
	_ "sheetsync/internal/etl/sources"
	"sheetsync/internal/logging"
	"sheetsync/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; deployed environments set variables directly.
	envErr := godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	log, closeLog, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	if envErr != nil {
		log.Warn(".env file not loaded", "error", envErr)
	}

	source, err := etl.GetSource(cfg.SourceType)
	if err != nil {
		return err
	}

	// Run history is best-effort: a broken local db never blocks a sync.
	var runs etl.RunRecorder
	if db, err := storage.New(cfg.RunDBPath); err != nil {
		log.Warn("run history unavailable", "path", cfg.RunDBPath, "error", err)
	} else {
		defer db.Close()
		runs = storage.NewRunStore(db)
	}

	p := &etl.Pipeline{
		Source:     source,
		SourceCfg:  cfg.SourceConfig(),
		Normalizer: etl.NewNormalizer(log),
		Relational: destinations.NewRelationalLoader(cfg.Relational, cfg.BatchSize, log),
		Document:   destinations.NewDocumentLoader(cfg.Mongo, log),
		Mode:       cfg.SyncMode,
		Log:        log,
		Runs:       runs,
	}
	return p.Run(context.Background())
}
