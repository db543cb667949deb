package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsPipeline/internal/domain"
)

func TestReviewQueueOrdersByPriority(t *testing.T) {
	t.Parallel()

	repo := seededRepo()
	ctx := context.Background()

	stale := pendingItem("stale", domain.StatusReview, 0.6)
	stale.CreatedAt = testTime.Add(-72 * time.Hour)
	require.NoError(t, repo.CreateContent(ctx, stale))

	urgent := pendingItem("urgent", domain.StatusReview, 0.7)
	urgent.Category = domain.CategoryEmergency
	require.NoError(t, repo.CreateContent(ctx, urgent))

	published := pendingItem("done", domain.StatusPublished, 0.9)
	require.NoError(t, repo.CreateContent(ctx, published))

	queue := NewReviewQueue(repo, testClock)
	entries, err := queue.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Emergency outweighs the age boost: 0.7*1.5 > 0.6*1.0 + 0.3.
	assert.Equal(t, "urgent", entries[0].Item.ID)
	assert.Equal(t, "stale", entries[1].Item.ID)
	assert.Contains(t, entries[0].Insights, "time critical")
	assert.Contains(t, entries[1].Insights, "pending for 72h")
}

func TestReviewQueueLimit(t *testing.T) {
	t.Parallel()

	repo := seededRepo()
	ctx := context.Background()
	for _, id := range []string{"q1", "q2", "q3"} {
		require.NoError(t, repo.CreateContent(ctx, pendingItem(id, domain.StatusReview, 0.7)))
	}

	queue := NewReviewQueue(repo, testClock)
	entries, err := queue.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
