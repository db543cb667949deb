package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// uniqueViolation is the Postgres error code for a unique constraint hit.
const uniqueViolation = pq.ErrorCode("23505")

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// PostgresRepository persists the moderation pipeline into Postgres.
type PostgresRepository struct {
	db *sql.DB
}

var _ ports.Repository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// SaveRawItem inserts the raw item write-once via ON CONFLICT DO NOTHING.
func (r *PostgresRepository) SaveRawItem(ctx context.Context, item domain.RawItem) (bool, error) {
	meta, err := json.Marshal(item.Metadata)
	if err != nil {
		return false, fmt.Errorf("marshal metadata: %w", err)
	}

	query, args, err := psql.Insert("raw_items").
		Columns("id", "source", "title", "body", "url", "collected_at", "category", "relevance", "metadata").
		Values(item.ID, item.Source, item.Title, item.Body, item.URL, item.CollectedAt, item.Category, item.Relevance, meta).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert raw item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected == 1, nil
}

// ListRawItems selects raw items matching the filter.
func (r *PostgresRepository) ListRawItems(ctx context.Context, f ports.RawItemFilter) ([]domain.RawItem, error) {
	builder := psql.Select("id", "source", "title", "body", "url", "collected_at", "category", "relevance", "metadata").
		From("raw_items").
		Where(sq.GtOrEq{"relevance": f.MinRelevance}).
		OrderBy("collected_at ASC")

	if f.Category != "" {
		builder = builder.Where(sq.Eq{"category": f.Category})
	}
	if f.Unconsumed {
		builder = builder.Where("NOT EXISTS (SELECT 1 FROM content_items c WHERE c.raw_item_id = raw_items.id)")
	}
	if f.Limit > 0 {
		builder = builder.Limit(uint64(f.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query raw items: %w", err)
	}
	defer rows.Close()

	var out []domain.RawItem
	for rows.Next() {
		var item domain.RawItem
		var meta []byte
		if err := rows.Scan(&item.ID, &item.Source, &item.Title, &item.Body, &item.URL,
			&item.CollectedAt, &item.Category, &item.Relevance, &meta); err != nil {
			return nil, fmt.Errorf("scan raw item: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &item.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata: %w", err)
			}
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// CreateContent inserts a new content item.
func (r *PostgresRepository) CreateContent(ctx context.Context, item domain.ContentItem) error {
	meta, err := json.Marshal(item.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query, args, err := psql.Insert("content_items").
		Columns("id", "title", "body", "category", "neighborhood_id", "status", "confidence",
			"origin", "created_at", "raw_item_id", "admin_notes", "manual_override", "retry_count", "metadata").
		Values(item.ID, item.Title, item.Body, item.Category, nullString(item.NeighborhoodID),
			item.Status, item.Confidence, item.Origin, item.CreatedAt,
			nullString(item.RawItemID), item.AdminNotes, item.ManualOverride, item.RetryCount, meta).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert content: %w", err)
	}
	return nil
}

// GetContent loads one content item.
func (r *PostgresRepository) GetContent(ctx context.Context, id string) (domain.ContentItem, error) {
	query, args, err := contentSelect().Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.ContentItem{}, fmt.Errorf("build select: %w", err)
	}

	row := r.db.QueryRowContext(ctx, query, args...)
	item, err := scanContent(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ContentItem{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ContentItem{}, fmt.Errorf("get content %s: %w", id, err)
	}
	return item, nil
}

// ListContent selects content items matching the filter.
func (r *PostgresRepository) ListContent(ctx context.Context, f ports.ContentFilter) ([]domain.ContentItem, error) {
	builder := contentSelect()

	if len(f.Statuses) > 0 {
		builder = builder.Where(sq.Eq{"status": f.Statuses})
	}
	if f.Category != "" {
		builder = builder.Where(sq.Eq{"category": f.Category})
	}
	if f.NeighborhoodID != "" {
		builder = builder.Where(sq.Eq{"neighborhood_id": f.NeighborhoodID})
	}
	if f.MinConfidence > 0 {
		builder = builder.Where(sq.GtOrEq{"confidence": f.MinConfidence})
	}
	if f.MaxConfidence > 0 {
		builder = builder.Where(sq.LtOrEq{"confidence": f.MaxConfidence})
	}
	if f.OrderByConfidence {
		builder = builder.OrderBy("confidence DESC", "created_at DESC")
	} else {
		builder = builder.OrderBy("created_at ASC")
	}
	if f.Limit > 0 {
		builder = builder.Limit(uint64(f.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query content: %w", err)
	}
	defer rows.Close()

	var out []domain.ContentItem
	for rows.Next() {
		item, err := scanContent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// UpdateStatus performs the compare-and-swap transition in one UPDATE.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, expected, next domain.Status, fields ports.ContentFields) (bool, error) {
	builder := psql.Update("content_items").
		Set("status", next).
		Where(sq.Eq{"id": id, "status": expected})

	if fields.Confidence != nil {
		builder = builder.Set("confidence", *fields.Confidence)
	}
	if fields.NeighborhoodID != nil {
		builder = builder.Set("neighborhood_id", *fields.NeighborhoodID)
	}
	if fields.ApprovedAt != nil {
		builder = builder.Set("approved_at", *fields.ApprovedAt)
	}
	if fields.RejectedAt != nil {
		builder = builder.Set("rejected_at", *fields.RejectedAt)
	}
	if fields.PublishedAt != nil {
		builder = builder.Set("published_at", *fields.PublishedAt)
	}
	if fields.AdminNotes != nil {
		builder = builder.Set("admin_notes", *fields.AdminNotes)
	}
	if fields.RetryCount != nil {
		builder = builder.Set("retry_count", *fields.RetryCount)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return false, fmt.Errorf("build update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 1 {
		return true, nil
	}

	// distinguish a lost compare-and-swap from a missing row
	if _, err := r.GetContent(ctx, id); errors.Is(err, domain.ErrNotFound) {
		return false, domain.ErrNotFound
	} else if err != nil {
		return false, err
	}
	return false, nil
}

// AppendValidation inserts one audit record.
func (r *PostgresRepository) AppendValidation(ctx context.Context, rec domain.ValidationRecord) error {
	profile, err := json.Marshal(rec.Profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	query, args, err := psql.Insert("validation_records").
		Columns("content_id", "profile", "confidence", "status", "checked_at").
		Values(rec.ContentID, profile, rec.Confidence, rec.Status, rec.CheckedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert validation record: %w", err)
	}
	return nil
}

// CreatePublication inserts idempotently on the (content, neighborhood)
// unique constraint.
func (r *PostgresRepository) CreatePublication(ctx context.Context, rec domain.PublicationRecord) (bool, error) {
	query, args, err := psql.Insert("publication_records").
		Columns("id", "content_id", "neighborhood_id", "category", "published_at", "auto").
		Values(rec.ID, rec.ContentID, rec.NeighborhoodID, rec.Category, rec.PublishedAt, rec.Auto).
		Suffix("ON CONFLICT (content_id, neighborhood_id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert publication: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected == 1, nil
}

// ListPublications returns records for one content item.
func (r *PostgresRepository) ListPublications(ctx context.Context, contentID string) ([]domain.PublicationRecord, error) {
	query, args, err := psql.Select("id", "content_id", "neighborhood_id", "category", "published_at", "auto").
		From("publication_records").
		Where(sq.Eq{"content_id": contentID}).
		OrderBy("neighborhood_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query publications: %w", err)
	}
	defer rows.Close()

	var out []domain.PublicationRecord
	for rows.Next() {
		var rec domain.PublicationRecord
		if err := rows.Scan(&rec.ID, &rec.ContentID, &rec.NeighborhoodID, &rec.Category, &rec.PublishedAt, &rec.Auto); err != nil {
			return nil, fmt.Errorf("scan publication: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// AcquireRun inserts the run only while no other run is marked running.
// The WHERE NOT EXISTS guard settles the common case; the partial unique
// index pipeline_runs_one_running settles the race where two triggers
// read before either commits.
func (r *PostgresRepository) AcquireRun(ctx context.Context, run domain.PipelineRun) error {
	const query = `INSERT INTO pipeline_runs
		(id, started_at, status, collected, generated, scored, published, failed, error_summary)
		SELECT $1, $2, $3, 0, 0, 0, 0, 0, ''
		WHERE NOT EXISTS (SELECT 1 FROM pipeline_runs WHERE status = $4)`

	res, err := r.db.ExecContext(ctx, query, run.ID, run.StartedAt, domain.RunRunning, domain.RunRunning)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrRunActive
		}
		return fmt.Errorf("insert run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrRunActive
	}
	return nil
}

// UpdateRun overwrites the run's counters and completion state.
func (r *PostgresRepository) UpdateRun(ctx context.Context, run domain.PipelineRun) error {
	builder := psql.Update("pipeline_runs").
		Set("status", run.Status).
		Set("collected", run.Counters.Collected).
		Set("generated", run.Counters.Generated).
		Set("scored", run.Counters.Scored).
		Set("published", run.Counters.Published).
		Set("failed", run.Counters.Failed).
		Set("error_summary", run.ErrorSummary).
		Where(sq.Eq{"id": run.ID})
	if run.CompletedAt != nil {
		builder = builder.Set("completed_at", *run.CompletedAt)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetRun loads one run.
func (r *PostgresRepository) GetRun(ctx context.Context, id string) (domain.PipelineRun, error) {
	query, args, err := psql.Select("id", "started_at", "completed_at", "status",
		"collected", "generated", "scored", "published", "failed", "error_summary").
		From("pipeline_runs").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.PipelineRun{}, fmt.Errorf("build select: %w", err)
	}

	var run domain.PipelineRun
	var completed sql.NullTime
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&run.ID, &run.StartedAt, &completed, &run.Status,
		&run.Counters.Collected, &run.Counters.Generated, &run.Counters.Scored,
		&run.Counters.Published, &run.Counters.Failed, &run.ErrorSummary)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PipelineRun{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.PipelineRun{}, fmt.Errorf("get run %s: %w", id, err)
	}
	if completed.Valid {
		t := completed.Time
		run.CompletedAt = &t
	}
	return run, nil
}

// ListNeighborhoods selects neighborhoods matching the filter.
func (r *PostgresRepository) ListNeighborhoods(ctx context.Context, f ports.NeighborhoodFilter) ([]domain.Neighborhood, error) {
	builder := psql.Select("id", "name", "active", "subscribers").From("neighborhoods")
	if f.ActiveOnly {
		builder = builder.Where(sq.Eq{"active": true})
	}
	if f.TopBySubscribers > 0 {
		builder = builder.OrderBy("subscribers DESC").Limit(uint64(f.TopBySubscribers))
	} else {
		builder = builder.OrderBy("name ASC")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query neighborhoods: %w", err)
	}
	defer rows.Close()

	var out []domain.Neighborhood
	for rows.Next() {
		var hood domain.Neighborhood
		if err := rows.Scan(&hood.ID, &hood.Name, &hood.Active, &hood.Subscribers); err != nil {
			return nil, fmt.Errorf("scan neighborhood: %w", err)
		}
		out = append(out, hood)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

func contentSelect() sq.SelectBuilder {
	return psql.Select("id", "title", "body", "category", "neighborhood_id", "status", "confidence",
		"origin", "created_at", "approved_at", "rejected_at", "published_at",
		"raw_item_id", "admin_notes", "manual_override", "retry_count", "metadata").
		From("content_items")
}

func scanContent(scan func(...any) error) (domain.ContentItem, error) {
	var item domain.ContentItem
	var hood, rawID sql.NullString
	var approved, rejected, published sql.NullTime
	var meta []byte

	err := scan(&item.ID, &item.Title, &item.Body, &item.Category, &hood, &item.Status, &item.Confidence,
		&item.Origin, &item.CreatedAt, &approved, &rejected, &published,
		&rawID, &item.AdminNotes, &item.ManualOverride, &item.RetryCount, &meta)
	if err != nil {
		return domain.ContentItem{}, err
	}

	item.NeighborhoodID = hood.String
	item.RawItemID = rawID.String
	if approved.Valid {
		t := approved.Time
		item.ApprovedAt = &t
	}
	if rejected.Valid {
		t := rejected.Time
		item.RejectedAt = &t
	}
	if published.Valid {
		t := published.Time
		item.PublishedAt = &t
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &item.Metadata); err != nil {
			return domain.ContentItem{}, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return item, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
