// Package app wires configuration to use cases and owns the application
// lifecycle.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"NewsPipeline/internal/config"
	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/infrastructure/collector"
	"NewsPipeline/internal/infrastructure/llm"
	"NewsPipeline/internal/infrastructure/scheduler"
	"NewsPipeline/internal/infrastructure/storage"
	"NewsPipeline/internal/logging"
	"NewsPipeline/internal/metrics"
	"NewsPipeline/internal/ports"
	"NewsPipeline/internal/scoring"
	"NewsPipeline/internal/usecase"
	"NewsPipeline/internal/validation"
)

// Application holds the wired pipeline and its supporting components.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	pipeline   *usecase.Pipeline
	scheduled  *usecase.ScheduledPipeline
	batch      *usecase.Batch
	queue      *usecase.ReviewQueue
	db         *sql.DB
	metricsWeb *http.Server
}

// New builds a runnable application instance from configuration.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	a := &Application{cfg: cfg, logger: baseLogger}

	repo, err := a.buildRepository()
	if err != nil {
		return nil, err
	}

	registry := collector.NewRegistry()
	registry.Register(collector.NewHTMLCollector(nil, time.Now))
	source := collector.NewConfigSource(registry, cfg.Sources, baseLogger.With("component", "collector"))

	var generator ports.Generator = llm.NewRetryingGenerator(
		a.buildPrimaryGenerator(),
		llm.NewTemplateGenerator(cfg.Pipeline.FallbackCeiling),
		cfg.Pipeline,
		baseLogger.With("component", "generator"),
	)

	scoringCfg := scoring.DefaultConfig()
	if len(cfg.Scoring.Gazetteer) > 0 {
		scoringCfg.Gazetteer = cfg.Scoring.Gazetteer
	}
	for cat, words := range cfg.Scoring.FreshnessKeywords {
		scoringCfg.FreshnessKeywords[domainCategory(cat)] = words
	}
	for cat, words := range cfg.Scoring.CategoryVocabulary {
		scoringCfg.CategoryVocabulary[domainCategory(cat)] = words
	}

	validationCfg := validation.DefaultConfig()
	validationCfg.Gazetteer = cfg.Scoring.Gazetteer
	validationCfg.CategoryVocabulary = scoringCfg.CategoryVocabulary

	pipelineMetrics := metrics.NewPipeline(prometheus.DefaultRegisterer)

	publisher := usecase.NewPublisher(repo, time.Now, cfg.Pipeline.FallbackNeighborhoods, baseLogger.With("component", "publisher"))
	a.batch = usecase.NewBatch(repo, publisher, time.Now, baseLogger.With("component", "batch"))
	a.queue = usecase.NewReviewQueue(repo, time.Now)

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Repository: repo,
		Source:     source,
		Generator:  generator,
		Scorer:     scoring.NewEngine(scoringCfg),
		Validator:  validation.NewEngine(validationCfg),
		Publisher:  publisher,
		Batch:      a.batch,
		Config:     cfg.Pipeline,
		Clock:      time.Now,
		Logger:     baseLogger.With("component", "pipeline"),
		Metrics:    pipelineMetrics,
	})

	cron := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())
	a.scheduled = usecase.NewScheduledPipeline(cron, a.pipeline, baseLogger.With("component", "scheduler"))

	return a, nil
}

func (a *Application) buildRepository() (ports.Repository, error) {
	if a.cfg.Database.DSN == "" {
		a.logger.Warn("no database configured, using in-memory repository")
		return storage.NewMemoryRepository(), nil
	}

	db, err := sql.Open("postgres", a.cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.db = db
	return storage.NewPostgresRepository(db), nil
}

func (a *Application) buildPrimaryGenerator() ports.Generator {
	if a.cfg.Generation.APIKey == "" {
		a.logger.Warn("no generation api key, template fallback only")
		return nil
	}
	return llm.NewOpenAIGenerator(a.cfg.Generation)
}

// RunOnce executes a single pipeline pass and returns its summary.
func (a *Application) RunOnce(ctx context.Context) (usecase.RunSummary, error) {
	return a.pipeline.Run(ctx)
}

// Start launches the scheduler and, when configured, the metrics endpoint.
// It returns immediately; runs fire on the cron cadence until Stop.
func (a *Application) Start(ctx context.Context) error {
	if addr := a.cfg.Metrics.Addr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		a.metricsWeb = &http.Server{Addr: addr, Handler: mux}
		go func() {
			if err := a.metricsWeb.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				a.logger.Error("metrics listener stopped", "error", err)
			}
		}()
		a.logger.Info("metrics endpoint listening", "addr", addr)
	}

	return a.scheduled.Start(ctx)
}

// Stop halts the scheduler and releases held resources.
func (a *Application) Stop(ctx context.Context) error {
	if err := a.scheduled.Stop(ctx); err != nil {
		return err
	}
	if a.metricsWeb != nil {
		if err := a.metricsWeb.Shutdown(ctx); err != nil {
			return err
		}
	}
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Batch exposes the batch engine for admin tooling.
func (a *Application) Batch() *usecase.Batch {
	return a.batch
}

// ReviewQueue exposes the read-only review projection.
func (a *Application) ReviewQueue() *usecase.ReviewQueue {
	return a.queue
}

func domainCategory(s string) domain.Category {
	if c := domain.Category(s); c.Valid() {
		return c
	}
	return domain.CategoryGeneral
}
