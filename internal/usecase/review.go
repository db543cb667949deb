package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
	"NewsPipeline/internal/review"
)

// QueueEntry is one row of the admin review queue projection.
type QueueEntry struct {
	Item     domain.ContentItem
	Priority float64
	Insights []string
}

// ReviewQueue projects pending content into the ordered list the admin
// review UI renders. It reads only; every mutation goes through Batch.
type ReviewQueue struct {
	repo  ports.Repository
	clock ports.Clock
}

// NewReviewQueue wires the projection.
func NewReviewQueue(repo ports.Repository, clock ports.Clock) *ReviewQueue {
	if clock == nil {
		clock = time.Now
	}
	return &ReviewQueue{repo: repo, clock: clock}
}

// List returns pending items ordered by priority descending.
func (q *ReviewQueue) List(ctx context.Context, limit int) ([]QueueEntry, error) {
	items, err := q.repo.ListContent(ctx, ports.ContentFilter{
		Statuses: []domain.Status{domain.StatusGenerated, domain.StatusReview, domain.StatusNeedsImprovement},
	})
	if err != nil {
		return nil, fmt.Errorf("list pending items: %w", err)
	}

	now := q.clock()
	entries := make([]QueueEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, QueueEntry{
			Item:     item,
			Priority: review.Priority(item, now),
			Insights: review.Insights(item, now),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Priority > entries[j].Priority
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
