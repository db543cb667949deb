package storage

import (
	"context"
	"sort"
	"sync"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

// MemoryRepository is a mutex-guarded in-memory implementation of
// ports.Repository. It backs tests and DSN-less local runs with the same
// compare-and-swap semantics as the Postgres repository.
type MemoryRepository struct {
	mu            sync.Mutex
	raw           map[string]domain.RawItem
	content       map[string]domain.ContentItem
	validations   []domain.ValidationRecord
	publications  map[string]domain.PublicationRecord
	runs          map[string]domain.PipelineRun
	neighborhoods []domain.Neighborhood
}

var _ ports.Repository = (*MemoryRepository)(nil)

// NewMemoryRepository builds an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		raw:          map[string]domain.RawItem{},
		content:      map[string]domain.ContentItem{},
		publications: map[string]domain.PublicationRecord{},
		runs:         map[string]domain.PipelineRun{},
	}
}

// SeedNeighborhoods replaces the neighborhood set; used at bootstrap and in
// tests.
func (r *MemoryRepository) SeedNeighborhoods(hoods []domain.Neighborhood) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.neighborhoods = append([]domain.Neighborhood(nil), hoods...)
}

// SaveRawItem stores a raw item write-once.
func (r *MemoryRepository) SaveRawItem(_ context.Context, item domain.RawItem) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.raw[item.ID]; exists {
		return false, nil
	}
	r.raw[item.ID] = item
	return true, nil
}

// ListRawItems filters stored raw items.
func (r *MemoryRepository) ListRawItems(_ context.Context, f ports.RawItemFilter) ([]domain.RawItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	consumed := map[string]bool{}
	if f.Unconsumed {
		for _, c := range r.content {
			if c.RawItemID != "" {
				consumed[c.RawItemID] = true
			}
		}
	}

	var out []domain.RawItem
	for _, item := range r.raw {
		if item.Relevance < f.MinRelevance {
			continue
		}
		if f.Category != "" && item.Category != f.Category {
			continue
		}
		if f.Unconsumed && consumed[item.ID] {
			continue
		}
		out = append(out, item)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CollectedAt.Before(out[j].CollectedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// CreateContent stores a new content item.
func (r *MemoryRepository) CreateContent(_ context.Context, item domain.ContentItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.content[item.ID]; exists {
		return domain.ErrConflict
	}
	r.content[item.ID] = item
	return nil
}

// GetContent returns one content item by id.
func (r *MemoryRepository) GetContent(_ context.Context, id string) (domain.ContentItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.content[id]
	if !ok {
		return domain.ContentItem{}, domain.ErrNotFound
	}
	return item, nil
}

// ListContent filters and orders stored content items.
func (r *MemoryRepository) ListContent(_ context.Context, f ports.ContentFilter) ([]domain.ContentItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.ContentItem
	for _, item := range r.content {
		if len(f.Statuses) > 0 && !statusIn(item.Status, f.Statuses) {
			continue
		}
		if f.Category != "" && item.Category != f.Category {
			continue
		}
		if f.NeighborhoodID != "" && item.NeighborhoodID != f.NeighborhoodID {
			continue
		}
		if item.Confidence < f.MinConfidence {
			continue
		}
		if f.MaxConfidence > 0 && item.Confidence > f.MaxConfidence {
			continue
		}
		out = append(out, item)
	}

	if f.OrderByConfidence {
		sort.Slice(out, func(i, j int) bool {
			if out[i].Confidence != out[j].Confidence {
				return out[i].Confidence > out[j].Confidence
			}
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	} else {
		sort.Slice(out, func(i, j int) bool {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
	}

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// UpdateStatus applies a compare-and-swap status transition.
func (r *MemoryRepository) UpdateStatus(_ context.Context, id string, expected, next domain.Status, fields ports.ContentFields) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.content[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if item.Status != expected {
		return false, nil
	}

	item.Status = next
	if fields.Confidence != nil {
		item.Confidence = *fields.Confidence
	}
	if fields.NeighborhoodID != nil {
		item.NeighborhoodID = *fields.NeighborhoodID
	}
	if fields.ApprovedAt != nil {
		item.ApprovedAt = fields.ApprovedAt
	}
	if fields.RejectedAt != nil {
		item.RejectedAt = fields.RejectedAt
	}
	if fields.PublishedAt != nil {
		item.PublishedAt = fields.PublishedAt
	}
	if fields.AdminNotes != nil {
		item.AdminNotes = *fields.AdminNotes
	}
	if fields.RetryCount != nil {
		item.RetryCount = *fields.RetryCount
	}

	r.content[id] = item
	return true, nil
}

// AppendValidation stores an audit record; records are never mutated.
func (r *MemoryRepository) AppendValidation(_ context.Context, rec domain.ValidationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validations = append(r.validations, rec)
	return nil
}

// Validations returns a copy of the audit trail, for tests.
func (r *MemoryRepository) Validations() []domain.ValidationRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ValidationRecord(nil), r.validations...)
}

// CreatePublication stores a record unless the pair already exists.
func (r *MemoryRepository) CreatePublication(_ context.Context, rec domain.PublicationRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := rec.ContentID + "|" + rec.NeighborhoodID
	if _, exists := r.publications[key]; exists {
		return false, nil
	}
	r.publications[key] = rec
	return true, nil
}

// ListPublications returns records for one content item.
func (r *MemoryRepository) ListPublications(_ context.Context, contentID string) ([]domain.PublicationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.PublicationRecord
	for _, rec := range r.publications {
		if rec.ContentID == contentID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NeighborhoodID < out[j].NeighborhoodID })
	return out, nil
}

// AcquireRun creates the run unless another one is already running.
func (r *MemoryRepository) AcquireRun(_ context.Context, run domain.PipelineRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.runs {
		if existing.Status == domain.RunRunning {
			return domain.ErrRunActive
		}
	}
	r.runs[run.ID] = run
	return nil
}

// UpdateRun overwrites the run record.
func (r *MemoryRepository) UpdateRun(_ context.Context, run domain.PipelineRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[run.ID]; !ok {
		return domain.ErrNotFound
	}
	r.runs[run.ID] = run
	return nil
}

// GetRun returns one run by id.
func (r *MemoryRepository) GetRun(_ context.Context, id string) (domain.PipelineRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.runs[id]
	if !ok {
		return domain.PipelineRun{}, domain.ErrNotFound
	}
	return run, nil
}

// Runs returns all stored runs, for tests.
func (r *MemoryRepository) Runs() []domain.PipelineRun {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.PipelineRun, 0, len(r.runs))
	for _, run := range r.runs {
		out = append(out, run)
	}
	return out
}

// ListNeighborhoods filters the seeded neighborhood set.
func (r *MemoryRepository) ListNeighborhoods(_ context.Context, f ports.NeighborhoodFilter) ([]domain.Neighborhood, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Neighborhood
	for _, hood := range r.neighborhoods {
		if f.ActiveOnly && !hood.Active {
			continue
		}
		out = append(out, hood)
	}

	if f.TopBySubscribers > 0 {
		sort.Slice(out, func(i, j int) bool { return out[i].Subscribers > out[j].Subscribers })
		if len(out) > f.TopBySubscribers {
			out = out[:f.TopBySubscribers]
		}
	}
	return out, nil
}

func statusIn(s domain.Status, set []domain.Status) bool {
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}
