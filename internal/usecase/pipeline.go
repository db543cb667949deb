package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"NewsPipeline/internal/config"
	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/metrics"
	"NewsPipeline/internal/ports"
	"NewsPipeline/internal/scoring"
	"NewsPipeline/internal/validation"
)

// collectWindow bounds how far back a run asks its sources for items.
const collectWindow = 24 * time.Hour

// Scorer rates article copy for a category.
type Scorer interface {
	Score(title, body string, category domain.Category) scoring.Score
}

// Validator runs the check battery and decides the next status.
type Validator interface {
	Validate(item domain.ContentItem, th validation.Thresholds) validation.Result
}

// PipelineDeps collects everything a pipeline run touches.
type PipelineDeps struct {
	Repository ports.Repository
	Source     ports.RawSource
	Generator  ports.Generator
	Scorer     Scorer
	Validator  Validator
	Publisher  *Publisher
	Batch      *Batch
	Config     config.PipelineConfig
	Clock      ports.Clock
	Logger     *slog.Logger
	Metrics    *metrics.Pipeline
}

// RunSummary reports one pipeline run after it finished or was skipped.
type RunSummary struct {
	RunID       string
	Status      domain.RunStatus
	Counters    domain.RunCounters
	Failures    []ItemResult
	StartedAt   time.Time
	CompletedAt *time.Time
}

// Pipeline drives the collect, generate, validate, auto-approve, publish
// sequence. The repository's run lock guarantees at most one run executes
// at a time.
type Pipeline struct {
	deps PipelineDeps
}

// NewPipeline wires the orchestrator.
func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Config.GenerationWorkers < 1 {
		deps.Config.GenerationWorkers = 1
	}
	return &Pipeline{deps: deps}
}

// Run executes one full pipeline pass. A concurrent run turns this call
// into a no-op: the summary comes back with an empty RunID and no error.
func (p *Pipeline) Run(ctx context.Context) (RunSummary, error) {
	d := p.deps
	now := d.Clock()

	run := domain.PipelineRun{
		ID:        uuid.NewString(),
		StartedAt: now,
		Status:    domain.RunRunning,
	}
	if err := d.Repository.AcquireRun(ctx, run); err != nil {
		if errors.Is(err, domain.ErrRunActive) {
			d.Logger.Info("pipeline run already active, skipping")
			return RunSummary{}, nil
		}
		return RunSummary{}, fmt.Errorf("acquire run: %w", err)
	}
	d.Metrics.RunStarted()
	d.Logger.Info("pipeline run started", "run", run.ID)

	summary := RunSummary{RunID: run.ID, StartedAt: now}
	var stageErrs []string

	raws, err := p.collect(ctx, &run)
	if err != nil {
		stageErrs = append(stageErrs, fmt.Sprintf("collect: %v", err))
	}

	if len(raws) > 0 {
		genFailures, err := p.generate(ctx, &run, raws)
		summary.Failures = append(summary.Failures, genFailures...)
		if err != nil {
			stageErrs = append(stageErrs, fmt.Sprintf("generate: %v", err))
		}
	}

	valFailures, err := p.scoreAndValidate(ctx, &run)
	summary.Failures = append(summary.Failures, valFailures...)
	if err != nil {
		stageErrs = append(stageErrs, fmt.Sprintf("validate: %v", err))
	}

	autoFailures, err := p.autoApprove(ctx, &run)
	summary.Failures = append(summary.Failures, autoFailures...)
	if err != nil {
		stageErrs = append(stageErrs, fmt.Sprintf("auto-approve: %v", err))
	}

	pubFailures, err := p.publishApproved(ctx, &run)
	summary.Failures = append(summary.Failures, pubFailures...)
	if err != nil {
		stageErrs = append(stageErrs, fmt.Sprintf("publish: %v", err))
	}

	done := d.Clock()
	run.CompletedAt = &done
	if len(stageErrs) > 0 {
		run.Status = domain.RunFailed
		run.ErrorSummary = strings.Join(stageErrs, "; ")
		d.Metrics.RunFailed()
	} else {
		run.Status = domain.RunCompleted
		d.Metrics.RunCompleted()
	}
	if err := d.Repository.UpdateRun(ctx, run); err != nil {
		return summary, fmt.Errorf("finalize run %s: %w", run.ID, err)
	}

	summary.Status = run.Status
	summary.Counters = run.Counters
	summary.CompletedAt = run.CompletedAt

	d.Logger.Info("pipeline run finished",
		"run", run.ID,
		"status", run.Status,
		"collected", run.Counters.Collected,
		"generated", run.Counters.Generated,
		"scored", run.Counters.Scored,
		"published", run.Counters.Published,
		"failed", run.Counters.Failed,
	)
	if run.Status == domain.RunFailed {
		return summary, errors.New(run.ErrorSummary)
	}
	return summary, nil
}

// collect pulls fresh raw items, stores them write-once, and returns the
// unconsumed ones above the relevance gate.
func (p *Pipeline) collect(ctx context.Context, run *domain.PipelineRun) ([]domain.RawItem, error) {
	d := p.deps

	if d.Source != nil {
		since := d.Clock().Add(-collectWindow)
		items, err := d.Source.Collect(ctx, since)
		if err != nil {
			return nil, err
		}
		fresh := 0
		for _, item := range items {
			ok, err := d.Repository.SaveRawItem(ctx, item)
			if err != nil {
				return nil, fmt.Errorf("save raw item %s: %w", item.ID, err)
			}
			if ok {
				fresh++
			}
		}
		d.Logger.Info("collection finished", "fetched", len(items), "new", fresh)
	}

	raws, err := d.Repository.ListRawItems(ctx, ports.RawItemFilter{
		MinRelevance: d.Config.CollectionMinRelevance,
		Unconsumed:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("list raw items: %w", err)
	}

	run.Counters.Collected = len(raws)
	d.Metrics.ItemsCollected(len(raws))
	p.persistRun(ctx, run)
	return raws, nil
}

// generate turns raw items into draft content concurrently. Each item
// fails on its own; a broken generation never stops the batch. A failing
// repository is a stage failure, not an item failure.
func (p *Pipeline) generate(ctx context.Context, run *domain.PipelineRun, raws []domain.RawItem) ([]ItemResult, error) {
	d := p.deps

	hoods, err := d.Repository.ListNeighborhoods(ctx, ports.NeighborhoodFilter{ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list neighborhoods: %w", err)
	}
	hoodsByID := make(map[string]domain.Neighborhood, len(hoods))
	for _, hood := range hoods {
		hoodsByID[hood.ID] = hood
	}

	var (
		mu       sync.Mutex
		failures []ItemResult
		created  int
	)

	jobs := make(chan domain.RawItem)
	var wg sync.WaitGroup
	for i := 0; i < d.Config.GenerationWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for raw := range jobs {
				err := p.generateOne(ctx, raw, hoodsByID)
				mu.Lock()
				if err != nil {
					failures = append(failures, ItemResult{ID: raw.ID, Reason: err.Error()})
					d.Metrics.ItemFailed()
				} else {
					created++
					d.Metrics.ItemGenerated()
				}
				mu.Unlock()
			}
		}()
	}
	for _, raw := range raws {
		jobs <- raw
	}
	close(jobs)
	wg.Wait()

	run.Counters.Generated = created
	run.Counters.Failed += len(failures)
	p.persistRun(ctx, run)
	d.Logger.Info("generation finished", "created", created, "failed", len(failures))
	return failures, nil
}

func (p *Pipeline) generateOne(ctx context.Context, raw domain.RawItem, hoods map[string]domain.Neighborhood) error {
	d := p.deps

	var hood domain.Neighborhood
	if id := raw.Metadata.Extra["neighborhood_id"]; id != "" {
		hood = hoods[id]
	}

	gen, err := d.Generator.Generate(ctx, raw, hood, raw.Category)
	if err != nil {
		return fmt.Errorf("generate from %s: %w", raw.ID, err)
	}

	item := domain.ContentItem{
		ID:             uuid.NewString(),
		Title:          gen.Title,
		Body:           gen.Body,
		Category:       raw.Category,
		NeighborhoodID: hood.ID,
		Status:         domain.StatusGenerated,
		Confidence:     domain.ClampConfidence(gen.Confidence),
		Origin:         gen.Origin,
		CreatedAt:      d.Clock(),
		RawItemID:      raw.ID,
		RetryCount:     max(gen.Attempts-1, 0),
		Metadata:       gen.Metadata,
	}
	if err := d.Repository.CreateContent(ctx, item); err != nil {
		return fmt.Errorf("store content for %s: %w", raw.ID, err)
	}
	return nil
}

// scoreAndValidate decides the next status for every freshly generated
// item. The scoring engine acts as a demotion guard over the validation
// decision, and fallback content never auto-approves.
func (p *Pipeline) scoreAndValidate(ctx context.Context, run *domain.PipelineRun) ([]ItemResult, error) {
	d := p.deps

	items, err := d.Repository.ListContent(ctx, ports.ContentFilter{
		Statuses: []domain.Status{domain.StatusGenerated},
	})
	if err != nil {
		return nil, fmt.Errorf("list generated items: %w", err)
	}

	th := validation.Thresholds{Approve: d.Config.ApproveThreshold, Reject: d.Config.RejectThreshold}
	var failures []ItemResult
	scored := 0

	for _, item := range items {
		result := d.Validator.Validate(item, th)
		status := result.Status
		confidence := result.Confidence

		quality := d.Scorer.Score(item.Title, item.Body, item.Category)
		if status == domain.StatusApproved && quality.Confidence < d.Config.RejectThreshold {
			status = domain.StatusReview
		}

		if item.Origin == domain.OriginFallback {
			if confidence > d.Config.FallbackCeiling {
				confidence = d.Config.FallbackCeiling
			}
			if status == domain.StatusApproved {
				status = domain.StatusReview
			}
		}

		if status == domain.StatusReview && !result.Profile[validation.CheckPlaceholders] {
			status = domain.StatusNeedsImprovement
		}

		now := d.Clock()
		if err := d.Repository.AppendValidation(ctx, domain.ValidationRecord{
			ContentID:  item.ID,
			Profile:    result.Profile,
			Confidence: confidence,
			Status:     status,
			CheckedAt:  now,
		}); err != nil {
			failures = append(failures, ItemResult{ID: item.ID, OldStatus: item.Status, Reason: err.Error()})
			continue
		}

		fields := ports.ContentFields{Confidence: &confidence}
		switch status {
		case domain.StatusApproved:
			fields.ApprovedAt = &now
		case domain.StatusRejected:
			fields.RejectedAt = &now
		}
		applied, err := d.Repository.UpdateStatus(ctx, item.ID, domain.StatusGenerated, status, fields)
		if err != nil {
			failures = append(failures, ItemResult{ID: item.ID, OldStatus: item.Status, Reason: err.Error()})
			continue
		}
		if !applied {
			failures = append(failures, ItemResult{ID: item.ID, OldStatus: item.Status, Reason: "status conflict"})
			continue
		}
		scored++
		d.Logger.Debug("item validated",
			"content", item.ID,
			"status", status,
			"confidence", confidence,
			"quality", quality.Confidence,
		)
	}

	run.Counters.Scored = scored
	run.Counters.Failed += len(failures)
	p.persistRun(ctx, run)
	return failures, nil
}

func (p *Pipeline) autoApprove(ctx context.Context, run *domain.PipelineRun) ([]ItemResult, error) {
	d := p.deps

	results, err := d.Batch.RunThreshold(ctx, ThresholdOptions{
		Threshold: d.Config.AutoApproveThreshold,
		Limit:     d.Config.AutoApproveLimit,
	})
	if err != nil {
		return nil, err
	}

	var failures []ItemResult
	for _, res := range results {
		if res.Success {
			run.Counters.Published++
			d.Metrics.ItemPublished()
		} else {
			failures = append(failures, res)
		}
	}
	run.Counters.Failed += len(failures)
	p.persistRun(ctx, run)
	d.Logger.Info("auto-approval finished", "published", Succeeded(results), "skipped", len(failures))
	return failures, nil
}

// publishApproved fans out items a human approved (or that a crash left
// behind in approved state). An item another process already published is
// skipped, not failed.
func (p *Pipeline) publishApproved(ctx context.Context, run *domain.PipelineRun) ([]ItemResult, error) {
	d := p.deps

	items, err := d.Repository.ListContent(ctx, ports.ContentFilter{
		Statuses: []domain.Status{domain.StatusApproved},
	})
	if err != nil {
		return nil, fmt.Errorf("list approved items: %w", err)
	}

	var failures []ItemResult
	for _, item := range items {
		if _, err := d.Publisher.Publish(ctx, item, PublishOptions{}); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			failures = append(failures, ItemResult{ID: item.ID, OldStatus: item.Status, Reason: err.Error()})
			d.Metrics.ItemFailed()
			continue
		}
		run.Counters.Published++
		d.Metrics.ItemPublished()
	}

	run.Counters.Failed += len(failures)
	p.persistRun(ctx, run)
	return failures, nil
}

func (p *Pipeline) persistRun(ctx context.Context, run *domain.PipelineRun) {
	if err := p.deps.Repository.UpdateRun(ctx, *run); err != nil {
		p.deps.Logger.Warn("cannot persist run counters", "run", run.ID, "error", err)
	}
}
