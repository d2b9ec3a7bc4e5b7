// Command history-import copies the historical case snapshot of a model
// version into MongoDB so the server can load it from there.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/ahmednasr/bug-triage/internal/artifact"
	"github.com/ahmednasr/bug-triage/internal/config"
	"github.com/ahmednasr/bug-triage/internal/database"
	"github.com/ahmednasr/bug-triage/internal/logging"
	"github.com/ahmednasr/bug-triage/internal/repository"
)

func main() {
	cfg := config.Load()
	logger := logging.Init(cfg.LogJSON, logging.ParseLevel(cfg.LogLevel))

	modelDir := flag.String("models", cfg.ModelDir, "artifact location (directory or gs://bucket/prefix)")
	file := flag.String("file", "", "history file name; defaults to the manifest's history entry")
	flag.Parse()

	if err := run(context.Background(), cfg, *modelDir, *file, logger); err != nil {
		logger.Error("history import failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, modelDir, file string, logger *slog.Logger) error {
	if cfg.MongoURI == "" {
		return errors.New("MONGODB_URI is not set")
	}

	store, closeStore, err := artifact.New(ctx, modelDir)
	if err != nil {
		return err
	}
	defer closeStore()

	if file == "" {
		manifest, err := artifact.LoadManifest(ctx, store)
		if err != nil {
			return err
		}
		file = manifest.History
	}
	cases, err := artifact.LoadHistory(ctx, store, file)
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		return fmt.Errorf("no historical cases found in %s/%s", store.Location(), file)
	}

	client, err := database.NewMongo(ctx, cfg.MongoURI)
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	defer client.Disconnect(context.Background())

	repo := repository.NewHistoryRepository(client.Database(cfg.DBName), cfg.HistoryCollection, logger)
	n, err := repo.Upsert(ctx, cases)
	if err != nil {
		return err
	}
	logger.Info("history imported", "cases", len(cases), "written", n, "collection", cfg.HistoryCollection)
	return nil
}
