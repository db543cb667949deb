package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsPipeline/internal/config"
	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/infrastructure/storage"
	"NewsPipeline/internal/ports"
	"NewsPipeline/internal/scoring"
	"NewsPipeline/internal/validation"
)

type fakeSource struct {
	items []domain.RawItem
	err   error
}

func (s *fakeSource) Collect(context.Context, time.Time) ([]domain.RawItem, error) {
	return s.items, s.err
}

type fakeGenerator struct {
	origin  domain.Origin
	failIDs map[string]bool
}

func (g *fakeGenerator) Generate(_ context.Context, raw domain.RawItem, _ domain.Neighborhood, _ domain.Category) (ports.GeneratedContent, error) {
	if g.failIDs[raw.ID] {
		return ports.GeneratedContent{}, &domain.PermanentError{Op: "generate", Err: errors.New("rejected prompt")}
	}
	origin := g.origin
	if origin == "" {
		origin = domain.OriginAuto
	}
	return ports.GeneratedContent{
		Title: "Harbor District ferry schedule changes from Monday",
		Body: "The ferry between the Harbor District and the city center will run " +
			"every 20 minutes starting Monday. The operator said this change will " +
			"stay in place for the season. Questions are answered at 555-123456.",
		Confidence: 0.8,
		Origin:     origin,
		Attempts:   1,
		Metadata:   domain.NewMetadata(),
	}, nil
}

func rawTransportItem(id string) domain.RawItem {
	return domain.RawItem{
		ID:          id,
		Source:      "city-site",
		Title:       "Ferry schedule change",
		Body:        "The ferry timetable changes on Monday.",
		CollectedAt: testTime.Add(-time.Hour),
		Category:    domain.CategoryTransport,
		Relevance:   0.75,
		Metadata:    domain.NewMetadata().WithExtra("neighborhood_id", "hood-a"),
	}
}

func pipelineFixture(t *testing.T, repo *storage.MemoryRepository, source ports.RawSource, gen ports.Generator) *Pipeline {
	t.Helper()

	cfg := config.PipelineConfig{
		CollectionMinRelevance: 0.6,
		ApproveThreshold:       0.85,
		RejectThreshold:        0.40,
		AutoApproveThreshold:   0.85,
		AutoApproveLimit:       20,
		FallbackCeiling:        0.60,
		GenerationWorkers:      2,
	}
	pub := NewPublisher(repo, testClock, 3, testLogger())
	return NewPipeline(PipelineDeps{
		Repository: repo,
		Source:     source,
		Generator:  gen,
		Scorer:     scoring.NewEngine(scoring.Config{Gazetteer: []string{"harbor district"}}),
		Validator:  validation.NewEngine(validation.DefaultConfig()),
		Publisher:  pub,
		Batch:      NewBatch(repo, pub, testClock, testLogger()),
		Config:     cfg,
		Clock:      testClock,
		Logger:     testLogger(),
	})
}

func TestPipelineEndToEnd(t *testing.T) {
	t.Parallel()

	repo := seededRepo()
	source := &fakeSource{items: []domain.RawItem{rawTransportItem("raw-1")}}
	pipeline := pipelineFixture(t, repo, source, &fakeGenerator{})

	summary, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, summary.Status)
	assert.Empty(t, summary.Failures)
	assert.Equal(t, 1, summary.Counters.Collected)
	assert.Equal(t, 1, summary.Counters.Generated)
	assert.Equal(t, 1, summary.Counters.Scored)
	assert.Equal(t, 1, summary.Counters.Published)
	assert.Equal(t, 0, summary.Counters.Failed)

	published, err := repo.ListContent(context.Background(), ports.ContentFilter{
		Statuses: []domain.Status{domain.StatusPublished},
	})
	require.NoError(t, err)
	require.Len(t, published, 1)
	item := published[0]
	assert.Equal(t, domain.CategoryTransport, item.Category)
	assert.GreaterOrEqual(t, item.Confidence, 0.85)
	require.NotNil(t, item.PublishedAt)

	// Transport is city-wide: one record per active neighborhood.
	records, err := repo.ListPublications(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	// The validation pass left an audit record.
	validations := repo.Validations()
	require.Len(t, validations, 1)
	assert.Equal(t, item.ID, validations[0].ContentID)
	assert.Equal(t, domain.StatusApproved, validations[0].Status)
}

func TestPipelineSkipsWhenRunActive(t *testing.T) {
	t.Parallel()

	repo := seededRepo()
	require.NoError(t, repo.AcquireRun(context.Background(), domain.PipelineRun{
		ID:        "other-run",
		StartedAt: testTime.Add(-time.Minute),
		Status:    domain.RunRunning,
	}))

	pipeline := pipelineFixture(t, repo, &fakeSource{}, &fakeGenerator{})
	summary, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summary.RunID)

	assert.Len(t, repo.Runs(), 1)
}

func TestPipelineIsolatesGenerationFailures(t *testing.T) {
	t.Parallel()

	repo := seededRepo()
	source := &fakeSource{items: []domain.RawItem{rawTransportItem("ok-1"), rawTransportItem("bad-1")}}
	gen := &fakeGenerator{failIDs: map[string]bool{"bad-1": true}}
	pipeline := pipelineFixture(t, repo, source, gen)

	summary, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, summary.Status)
	assert.Equal(t, 2, summary.Counters.Collected)
	assert.Equal(t, 1, summary.Counters.Generated)
	assert.Equal(t, 1, summary.Counters.Failed)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "bad-1", summary.Failures[0].ID)
}

func TestPipelineFallbackContentNeverAutoApproves(t *testing.T) {
	t.Parallel()

	repo := seededRepo()
	source := &fakeSource{items: []domain.RawItem{rawTransportItem("raw-fb")}}
	pipeline := pipelineFixture(t, repo, source, &fakeGenerator{origin: domain.OriginFallback})

	summary, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, summary.Status)
	assert.Equal(t, 0, summary.Counters.Published)

	pending, err := repo.ListContent(context.Background(), ports.ContentFilter{
		Statuses: []domain.Status{domain.StatusReview},
	})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.LessOrEqual(t, pending[0].Confidence, 0.60)
}

func TestPipelinePersistsRunCounters(t *testing.T) {
	t.Parallel()

	repo := seededRepo()
	source := &fakeSource{items: []domain.RawItem{rawTransportItem("raw-c")}}
	pipeline := pipelineFixture(t, repo, source, &fakeGenerator{})

	summary, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	run, err := repo.GetRun(context.Background(), summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, run.Status)
	assert.Equal(t, summary.Counters, run.Counters)
	require.NotNil(t, run.CompletedAt)
}

type hoodFailingRepo struct {
	*storage.MemoryRepository
}

func (r *hoodFailingRepo) ListNeighborhoods(context.Context, ports.NeighborhoodFilter) ([]domain.Neighborhood, error) {
	return nil, errors.New("repository unreachable")
}

func TestPipelineRepositoryOutageFailsRun(t *testing.T) {
	t.Parallel()

	repo := &hoodFailingRepo{MemoryRepository: seededRepo()}
	source := &fakeSource{items: []domain.RawItem{rawTransportItem("raw-out")}}

	cfg := config.PipelineConfig{
		CollectionMinRelevance: 0.6,
		ApproveThreshold:       0.85,
		RejectThreshold:        0.40,
		AutoApproveThreshold:   0.85,
		GenerationWorkers:      2,
	}
	pub := NewPublisher(repo, testClock, 3, testLogger())
	pipeline := NewPipeline(PipelineDeps{
		Repository: repo,
		Source:     source,
		Generator:  &fakeGenerator{},
		Scorer:     scoring.NewEngine(scoring.Config{}),
		Validator:  validation.NewEngine(validation.DefaultConfig()),
		Publisher:  pub,
		Batch:      NewBatch(repo, pub, testClock, testLogger()),
		Config:     cfg,
		Clock:      testClock,
		Logger:     testLogger(),
	})

	summary, err := pipeline.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.RunFailed, summary.Status)

	run, getErr := repo.GetRun(context.Background(), summary.RunID)
	require.NoError(t, getErr)
	assert.Equal(t, domain.RunFailed, run.Status)
	assert.Contains(t, run.ErrorSummary, "repository unreachable")
}

func TestPipelineCollectFailureFailsRun(t *testing.T) {
	t.Parallel()

	repo := seededRepo()
	source := &fakeSource{err: errors.New("upstream down")}
	pipeline := pipelineFixture(t, repo, source, &fakeGenerator{})

	summary, err := pipeline.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.RunFailed, summary.Status)

	run, getErr := repo.GetRun(context.Background(), summary.RunID)
	require.NoError(t, getErr)
	assert.Contains(t, run.ErrorSummary, "upstream down")
}
