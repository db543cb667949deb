package usecase

import (
	"context"
	"log/slog"
	"time"

	"NewsPipeline/internal/ports"
)

// ScheduledPipeline binds the orchestrator to a trigger so runs fire on
// the configured cadence.
type ScheduledPipeline struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewScheduledPipeline wires a pipeline to its schedule driver.
func NewScheduledPipeline(driver ports.Scheduler, pipeline *Pipeline, logger *slog.Logger) *ScheduledPipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScheduledPipeline{driver: driver, pipeline: pipeline, logger: logger}
}

// Start begins triggering pipeline runs. An overlapping trigger lands on
// the run lock and is skipped by the pipeline itself.
func (s *ScheduledPipeline) Start(ctx context.Context) error {
	return s.driver.Start(ctx, func(at time.Time) {
		s.logger.Info("scheduled pipeline trigger", "at", at)
		if _, err := s.pipeline.Run(ctx); err != nil {
			s.logger.Error("scheduled pipeline run failed", "error", err)
		}
	})
}

// Stop halts the trigger source.
func (s *ScheduledPipeline) Stop(ctx context.Context) error {
	return s.driver.Stop(ctx)
}
