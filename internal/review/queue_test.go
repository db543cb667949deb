package review

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"NewsPipeline/internal/domain"
)

func TestPriorityOrdering(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	emergency := domain.ContentItem{Category: domain.CategoryEmergency, Confidence: 0.7, CreatedAt: now}
	business := domain.ContentItem{Category: domain.CategoryBusiness, Confidence: 0.7, CreatedAt: now}
	require.Greater(t, Priority(emergency, now), Priority(business, now))

	fresh := domain.ContentItem{Category: domain.CategoryLocal, Confidence: 0.6, CreatedAt: now}
	stale := fresh
	stale.CreatedAt = now.Add(-72 * time.Hour)
	require.Greater(t, Priority(stale, now), Priority(fresh, now))
}

func TestPriorityAgeBoostCapped(t *testing.T) {
	t.Parallel()

	now := time.Now()
	ancient := domain.ContentItem{Category: domain.CategoryLocal, Confidence: 0, CreatedAt: now.Add(-1000 * time.Hour)}
	require.InDelta(t, 0.5, Priority(ancient, now), 1e-9)
}

func TestInsights(t *testing.T) {
	t.Parallel()

	now := time.Now()
	item := domain.ContentItem{
		Status:     domain.StatusReview,
		Confidence: 0.9,
		Origin:     domain.OriginFallback,
		CreatedAt:  now.Add(-50 * time.Hour),
	}

	flags := Insights(item, now)
	require.Contains(t, flags, "high confidence")
	require.Contains(t, flags, "flagged for manual review")
	require.Contains(t, flags, "generated by fallback template")
	require.Contains(t, flags, "pending for 50h")
}
