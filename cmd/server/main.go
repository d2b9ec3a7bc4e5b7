package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"
	"google.golang.org/api/option"

	"github.com/ahmednasr/bug-triage/internal/artifact"
	"github.com/ahmednasr/bug-triage/internal/classifier"
	"github.com/ahmednasr/bug-triage/internal/config"
	"github.com/ahmednasr/bug-triage/internal/database"
	"github.com/ahmednasr/bug-triage/internal/handler"
	"github.com/ahmednasr/bug-triage/internal/jira"
	"github.com/ahmednasr/bug-triage/internal/logging"
	"github.com/ahmednasr/bug-triage/internal/metrics"
	"github.com/ahmednasr/bug-triage/internal/models"
	"github.com/ahmednasr/bug-triage/internal/repository"
	"github.com/ahmednasr/bug-triage/internal/service"
)

// main is the single entry‑point for the REST API.
func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	logger := logging.Init(cfg.LogJSON, logging.ParseLevel(cfg.LogLevel))
	logger.Info("configuration loaded",
		"model_dir", cfg.ModelDir,
		"embedding_provider", cfg.EmbeddingProvider,
		"jira_auto_create", cfg.JiraAutoCreate,
		"jira_configured", cfg.JiraConfigured(),
		"history_store", cfg.MongoURI != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Model artifacts
	store, closeStore, err := artifact.New(ctx, cfg.ModelDir)
	if err != nil {
		return err
	}
	defer closeStore()

	manifest, err := artifact.LoadManifest(ctx, store)
	if err != nil {
		return fmt.Errorf("load manifest from %s: %w", store.Location(), err)
	}
	set, err := artifact.LoadModels(ctx, store, manifest)
	if err != nil {
		return fmt.Errorf("load models: %w", err)
	}
	if err := jira.CheckSeverities(set.Severity.Labels()); err != nil {
		logger.Warn("severity labels will fall back to Medium priority", "err", err)
	}

	if cfg.CategoryEndpoint != "" {
		client, err := newPredictionClient(ctx, cfg.Location)
		if err != nil {
			return err
		}
		defer client.Close()
		set.Category, err = classifier.NewVertex(client, endpointName(cfg), manifest.Category.Labels)
		if err != nil {
			return err
		}
		logger.Info("category model served by Vertex AI endpoint", "endpoint", cfg.CategoryEndpoint)
	}
	logger.Info("models loaded", "version", set.Version, "location", store.Location())

	// Embeddings
	embedder, err := service.NewEmbedder(ctx, cfg.EmbeddingProvider, service.EmbedderOptions{
		ProjectID: cfg.ProjectID,
		Location:  cfg.Location,
	})
	if err != nil {
		return fmt.Errorf("init embedder: %w", err)
	}
	defer embedder.Close()

	// Historical cases: Mongo when configured, otherwise the artifact file.
	dbs := map[string]database.Pinger{}
	var mongoClient *mongo.Client
	if cfg.MongoURI != "" {
		mongoClient, err = database.NewMongo(ctx, cfg.MongoURI)
		if err != nil {
			return fmt.Errorf("connect to MongoDB: %w", err)
		}
		defer mongoClient.Disconnect(context.Background())
		dbs["history"] = database.MongoPinger{Client: mongoClient}
	}
	history, err := loadHistory(ctx, cfg, mongoClient, store, manifest, logger)
	if err != nil {
		return err
	}
	history = checkHistoryDimension(ctx, embedder, history, cfg.EmbedTimeout, logger)

	// Services
	predictor, err := service.NewPredictor(embedder, set)
	if err != nil {
		return err
	}
	thresholds, err := service.NewGatingThresholds(cfg.AutoCreateThreshold, cfg.CommentThreshold)
	if err != nil {
		return err
	}
	jiraClient := jira.NewClient(jira.Config{
		URL:     cfg.JiraURL,
		User:    cfg.JiraUser,
		Token:   cfg.JiraToken,
		Project: cfg.JiraProject,
	}, logger)
	m := metrics.New()
	executor := service.NewExecutor(jiraClient, service.ExecutorConfig{
		Enabled:       cfg.JiraAutoCreate,
		FallbackIssue: cfg.JiraFallbackIssue,
	}, m, logger)
	triageSvc := service.NewTriageService(
		predictor,
		service.NewExplainer(history),
		executor,
		jiraClient,
		service.TriageOptions{
			Thresholds:   thresholds,
			ExplainTopK:  cfg.ExplainTopK,
			EmbedTimeout: cfg.EmbedTimeout,
		},
		m,
		logger,
	)

	// HTTP
	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		ErrorHandler:          handler.ErrorHandler,
		DisableStartupMessage: true,
	})
	handler.RegisterRoutes(app, handler.RouterDeps{
		Triage:      triageSvc,
		Databases:   dbs,
		Metrics:     m.Handler(),
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func newPredictionClient(ctx context.Context, location string) (*aiplatform.PredictionClient, error) {
	client, err := aiplatform.NewPredictionClient(ctx,
		option.WithEndpoint(fmt.Sprintf("%s-aiplatform.googleapis.com:443", location)))
	if err != nil {
		return nil, fmt.Errorf("vertex prediction client: %w", err)
	}
	return client, nil
}

// endpointName accepts either a bare endpoint id or a full resource name.
func endpointName(cfg config.Config) string {
	if strings.Contains(cfg.CategoryEndpoint, "/") {
		return cfg.CategoryEndpoint
	}
	return fmt.Sprintf("projects/%s/locations/%s/endpoints/%s", cfg.ProjectID, cfg.Location, cfg.CategoryEndpoint)
}

func loadHistory(
	ctx context.Context,
	cfg config.Config,
	client *mongo.Client,
	store artifact.Store,
	manifest artifact.Manifest,
	logger *slog.Logger,
) ([]models.HistoricalCase, error) {
	if client != nil {
		repo := repository.NewHistoryRepository(client.Database(cfg.DBName), cfg.HistoryCollection, logger)
		cases, err := repo.LoadAll(ctx)
		if err == nil && len(cases) > 0 {
			return cases, nil
		}
		if err != nil {
			logger.Warn("history store unavailable; falling back to artifact", "err", err)
		}
	}

	cases, err := artifact.LoadHistory(ctx, store, manifest.History)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if len(cases) == 0 {
		logger.Info("no historical embeddings; explanations disabled")
	} else {
		logger.Info("loaded historical embeddings", "cases", len(cases))
	}
	return cases, nil
}

// checkHistoryDimension embeds a fixed text once and drops historical cases
// of another dimension. If the embedding fails the snapshot is kept as is.
func checkHistoryDimension(
	ctx context.Context,
	embedder service.Embedder,
	history []models.HistoricalCase,
	timeout time.Duration,
	logger *slog.Logger,
) []models.HistoricalCase {
	if len(history) == 0 {
		return history
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	vec, err := embedder.Embed(ctx, "dimension check")
	if err != nil {
		logger.Warn("could not verify history embedding dimension", "err", err)
		return history
	}
	kept, dropped := service.MatchDimension(history, len(vec))
	switch {
	case len(kept) == 0:
		logger.Warn("history embeddings do not match the embedding model; explanations disabled",
			"dim", len(vec), "cases", len(history))
	case dropped > 0:
		logger.Warn("dropped historical cases with a different embedding dimension",
			"dim", len(vec), "dropped", dropped, "kept", len(kept))
	}
	return kept
}
