package ports

import (
	"context"
	"time"

	"NewsPipeline/internal/domain"
)

// Clock supplies the current time; injected so freshness logic and
// timestamps stay deterministic in tests.
type Clock func() time.Time

// RawItemFilter narrows raw item listings.
type RawItemFilter struct {
	MinRelevance float64
	Category     domain.Category
	// Unconsumed keeps only raw items no content item references yet.
	Unconsumed bool
	Limit      int
}

// ContentFilter narrows content item listings.
type ContentFilter struct {
	Statuses       []domain.Status
	Category       domain.Category
	NeighborhoodID string
	MinConfidence  float64
	MaxConfidence  float64 // 0 means no ceiling
	// OrderByConfidence sorts by confidence descending, then recency.
	OrderByConfidence bool
	Limit             int
}

// NeighborhoodFilter narrows neighborhood listings.
type NeighborhoodFilter struct {
	ActiveOnly bool
	// TopBySubscribers keeps the N most subscribed neighborhoods.
	TopBySubscribers int
}

// ContentFields carries the optional columns a conditional status update may
// set alongside the transition. Nil fields are left untouched.
type ContentFields struct {
	Confidence     *float64
	NeighborhoodID *string
	ApprovedAt     *time.Time
	RejectedAt     *time.Time
	PublishedAt    *time.Time
	AdminNotes     *string
	RetryCount     *int
}

// Repository is the durable store for the moderation pipeline. All status
// mutation goes through UpdateStatus, a compare-and-swap keyed on the
// item's expected current status.
type Repository interface {
	// SaveRawItem stores a raw item write-once; it reports false when an
	// item with the same id already exists.
	SaveRawItem(ctx context.Context, item domain.RawItem) (bool, error)
	ListRawItems(ctx context.Context, f RawItemFilter) ([]domain.RawItem, error)

	CreateContent(ctx context.Context, item domain.ContentItem) error
	GetContent(ctx context.Context, id string) (domain.ContentItem, error)
	ListContent(ctx context.Context, f ContentFilter) ([]domain.ContentItem, error)
	// UpdateStatus transitions an item only if its current status equals
	// expected; it reports whether the update applied.
	UpdateStatus(ctx context.Context, id string, expected, next domain.Status, fields ContentFields) (bool, error)

	AppendValidation(ctx context.Context, rec domain.ValidationRecord) error

	// CreatePublication stores a publication record idempotently; it
	// reports false when the (content, neighborhood) pair already exists.
	CreatePublication(ctx context.Context, rec domain.PublicationRecord) (bool, error)
	ListPublications(ctx context.Context, contentID string) ([]domain.PublicationRecord, error)

	// AcquireRun creates the run in running state, failing with
	// domain.ErrRunActive when another run is already running.
	AcquireRun(ctx context.Context, run domain.PipelineRun) error
	UpdateRun(ctx context.Context, run domain.PipelineRun) error
	GetRun(ctx context.Context, id string) (domain.PipelineRun, error)

	ListNeighborhoods(ctx context.Context, f NeighborhoodFilter) ([]domain.Neighborhood, error)
}

// GeneratedContent is the outcome of one generation call.
type GeneratedContent struct {
	Title      string
	Body       string
	Confidence float64
	Origin     domain.Origin
	Attempts   int
	Metadata   domain.Metadata
}

// Generator turns a raw item into article copy for a neighborhood. Errors
// are classified via domain.TransientError / domain.PermanentError.
type Generator interface {
	Generate(ctx context.Context, raw domain.RawItem, hood domain.Neighborhood, category domain.Category) (GeneratedContent, error)
}

// RawSource pulls fresh raw items from upstream collectors.
type RawSource interface {
	Collect(ctx context.Context, since time.Time) ([]domain.RawItem, error)
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
