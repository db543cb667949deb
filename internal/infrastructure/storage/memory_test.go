package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

func TestRawItemWriteOnce(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepository()
	ctx := context.Background()

	created, err := repo.SaveRawItem(ctx, domain.RawItem{ID: "r1", Relevance: 0.7})
	require.NoError(t, err)
	require.True(t, created)

	created, err = repo.SaveRawItem(ctx, domain.RawItem{ID: "r1", Relevance: 0.9})
	require.NoError(t, err)
	require.False(t, created)

	items, err := repo.ListRawItems(ctx, ports.RawItemFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 0.7, items[0].Relevance, "first write must win")
}

func TestListRawItemsUnconsumed(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepository()
	ctx := context.Background()

	for _, id := range []string{"r1", "r2"} {
		_, err := repo.SaveRawItem(ctx, domain.RawItem{ID: id, Relevance: 0.8})
		require.NoError(t, err)
	}
	require.NoError(t, repo.CreateContent(ctx, domain.ContentItem{ID: "c1", RawItemID: "r1", Status: domain.StatusGenerated}))

	items, err := repo.ListRawItems(ctx, ports.RawItemFilter{Unconsumed: true})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "r2", items[0].ID)
}

func TestUpdateStatusCAS(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.CreateContent(ctx, domain.ContentItem{ID: "c1", Status: domain.StatusReview}))

	applied, err := repo.UpdateStatus(ctx, "c1", domain.StatusReview, domain.StatusApproved, ports.ContentFields{})
	require.NoError(t, err)
	require.True(t, applied)

	// stale expectation must lose
	applied, err = repo.UpdateStatus(ctx, "c1", domain.StatusReview, domain.StatusRejected, ports.ContentFields{})
	require.NoError(t, err)
	require.False(t, applied)

	item, err := repo.GetContent(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusApproved, item.Status)

	_, err = repo.UpdateStatus(ctx, "missing", domain.StatusReview, domain.StatusApproved, ports.ContentFields{})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateStatusFields(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.CreateContent(ctx, domain.ContentItem{ID: "c1", Status: domain.StatusApproved}))

	published := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	conf := 0.9
	applied, err := repo.UpdateStatus(ctx, "c1", domain.StatusApproved, domain.StatusPublished, ports.ContentFields{
		Confidence:  &conf,
		PublishedAt: &published,
	})
	require.NoError(t, err)
	require.True(t, applied)

	item, err := repo.GetContent(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, 0.9, item.Confidence)
	require.NotNil(t, item.PublishedAt)
	require.True(t, item.PublishedAt.Equal(published))
}

func TestListContentOrdering(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	seed := []domain.ContentItem{
		{ID: "low", Status: domain.StatusReview, Confidence: 0.5, CreatedAt: base},
		{ID: "high-old", Status: domain.StatusReview, Confidence: 0.9, CreatedAt: base},
		{ID: "high-new", Status: domain.StatusReview, Confidence: 0.9, CreatedAt: base.Add(time.Hour)},
		{ID: "rejected", Status: domain.StatusRejected, Confidence: 0.95, CreatedAt: base},
	}
	for _, item := range seed {
		require.NoError(t, repo.CreateContent(ctx, item))
	}

	items, err := repo.ListContent(ctx, ports.ContentFilter{
		Statuses:          []domain.Status{domain.StatusReview},
		MinConfidence:     0.6,
		OrderByConfidence: true,
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "high-new", items[0].ID, "ties order by recency")
	require.Equal(t, "high-old", items[1].ID)
}

func TestPublicationIdempotent(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepository()
	ctx := context.Background()
	rec := domain.PublicationRecord{ID: "p1", ContentID: "c1", NeighborhoodID: "n1"}

	created, err := repo.CreatePublication(ctx, rec)
	require.NoError(t, err)
	require.True(t, created)

	rec.ID = "p2"
	created, err = repo.CreatePublication(ctx, rec)
	require.NoError(t, err)
	require.False(t, created)

	records, err := repo.ListPublications(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestRunLock(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepository()
	ctx := context.Background()

	first := domain.PipelineRun{ID: "run1", Status: domain.RunRunning}
	require.NoError(t, repo.AcquireRun(ctx, first))

	second := domain.PipelineRun{ID: "run2", Status: domain.RunRunning}
	require.ErrorIs(t, repo.AcquireRun(ctx, second), domain.ErrRunActive)

	done := time.Now()
	first.Status = domain.RunCompleted
	first.CompletedAt = &done
	require.NoError(t, repo.UpdateRun(ctx, first))

	require.NoError(t, repo.AcquireRun(ctx, second))
}

func TestListNeighborhoodsTopN(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepository()
	repo.SeedNeighborhoods([]domain.Neighborhood{
		{ID: "n1", Active: true, Subscribers: 10},
		{ID: "n2", Active: true, Subscribers: 50},
		{ID: "n3", Active: false, Subscribers: 100},
		{ID: "n4", Active: true, Subscribers: 30},
	})

	hoods, err := repo.ListNeighborhoods(context.Background(), ports.NeighborhoodFilter{ActiveOnly: true, TopBySubscribers: 2})
	require.NoError(t, err)
	require.Len(t, hoods, 2)
	require.Equal(t, "n2", hoods[0].ID)
	require.Equal(t, "n4", hoods[1].ID)
}
