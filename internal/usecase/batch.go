package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

// Action enumerates the explicit batch operations an administrator can
// apply to a set of content items.
type Action string

const (
	ActionApprove   Action = "approve"
	ActionReject    Action = "reject"
	ActionArchive   Action = "archive"
	ActionRepublish Action = "republish"
)

// ItemResult reports the outcome for one item of a batch. A batch always
// returns one result per item; a skipped item never aborts its siblings.
type ItemResult struct {
	ID        string
	OldStatus domain.Status
	NewStatus domain.Status
	Success   bool
	Reason    string
}

// ThresholdOptions configure threshold-mode auto-approval.
type ThresholdOptions struct {
	Threshold float64
	Limit     int
	// DryRun performs selection and reporting without mutation.
	DryRun bool
	Actor  string
}

// ActionOptions configure explicit-ID batch actions.
type ActionOptions struct {
	// MinConfidence, when set, blocks approve/republish below it.
	MinConfidence        float64
	Actor                string
	Notes                string
	OverrideNeighborhood string
}

// Batch applies bulk transitions with per-item partial-failure semantics.
type Batch struct {
	repo      ports.Repository
	publisher *Publisher
	clock     ports.Clock
	logger    *slog.Logger
}

// NewBatch wires the batch engine.
func NewBatch(repo ports.Repository, publisher *Publisher, clock ports.Clock, logger *slog.Logger) *Batch {
	if clock == nil {
		clock = time.Now
	}
	return &Batch{repo: repo, publisher: publisher, clock: clock, logger: logger}
}

// RunThreshold selects pending items at or above the confidence threshold,
// highest confidence first, and publishes each through the fan-out. Items
// below the threshold are never selected.
func (b *Batch) RunThreshold(ctx context.Context, opts ThresholdOptions) ([]ItemResult, error) {
	if opts.Threshold <= 0 {
		return nil, fmt.Errorf("threshold mode requires a positive threshold")
	}

	candidates, err := b.repo.ListContent(ctx, ports.ContentFilter{
		Statuses:          []domain.Status{domain.StatusReview, domain.StatusGenerated},
		MinConfidence:     opts.Threshold,
		OrderByConfidence: true,
		Limit:             opts.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("select candidates: %w", err)
	}

	results := make([]ItemResult, 0, len(candidates))
	for _, item := range candidates {
		res := ItemResult{ID: item.ID, OldStatus: item.Status}

		if opts.DryRun {
			// Selection only: the fan-out itself may still fail, e.g.
			// when no active target neighborhood resolves.
			res.NewStatus = domain.StatusPublished
			res.Success = true
			res.Reason = "dry run, fan-out not verified"
			results = append(results, res)
			continue
		}

		results = append(results, b.promoteAndPublish(ctx, item, res, opts.Actor, "", true))
	}
	return results, nil
}

// RunAction applies one action to each listed id independently. Every
// item's error lands in its own result; the batch itself succeeds.
func (b *Batch) RunAction(ctx context.Context, action Action, ids []string, opts ActionOptions) ([]ItemResult, error) {
	results := make([]ItemResult, 0, len(ids))
	for _, id := range ids {
		results = append(results, b.applyAction(ctx, action, id, opts))
	}
	return results, nil
}

func (b *Batch) applyAction(ctx context.Context, action Action, id string, opts ActionOptions) ItemResult {
	res := ItemResult{ID: id}

	item, err := b.repo.GetContent(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		res.Reason = "not found"
		return res
	}
	if err != nil {
		res.Reason = err.Error()
		return res
	}
	res.OldStatus = item.Status

	switch action {
	case ActionApprove:
		if opts.MinConfidence > 0 && item.Confidence < opts.MinConfidence {
			res.Reason = "low confidence"
			return res
		}
		return b.promoteAndPublish(ctx, item, res, opts.Actor, opts.OverrideNeighborhood, false)

	case ActionRepublish:
		if opts.MinConfidence > 0 && item.Confidence < opts.MinConfidence {
			res.Reason = "low confidence"
			return res
		}
		return b.publish(ctx, item, res, opts.OverrideNeighborhood, false)

	case ActionReject:
		return b.transition(ctx, item, res, domain.StatusRejected, opts)

	case ActionArchive:
		return b.transition(ctx, item, res, domain.StatusArchived, opts)

	default:
		res.Reason = fmt.Sprintf("unknown action %q", action)
		return res
	}
}

// promoteAndPublish moves a pending item through approved into published,
// running the fan-out in between.
func (b *Batch) promoteAndPublish(ctx context.Context, item domain.ContentItem, res ItemResult, actor, overrideHood string, auto bool) ItemResult {
	if item.Status != domain.StatusApproved {
		if !domain.CanTransition(item.Status, domain.StatusApproved) {
			res.Reason = fmt.Sprintf("cannot approve from %s", item.Status)
			return res
		}

		now := b.clock()
		fields := ports.ContentFields{ApprovedAt: &now}
		if actor != "" {
			notes := appendNote(item.AdminNotes, fmt.Sprintf("approved by %s", actor))
			fields.AdminNotes = &notes
		}
		applied, err := b.repo.UpdateStatus(ctx, item.ID, item.Status, domain.StatusApproved, fields)
		if err != nil {
			res.Reason = err.Error()
			return res
		}
		if !applied {
			res.Reason = "status conflict"
			return res
		}
		item.Status = domain.StatusApproved
	}

	return b.publish(ctx, item, res, overrideHood, auto)
}

func (b *Batch) publish(ctx context.Context, item domain.ContentItem, res ItemResult, overrideHood string, auto bool) ItemResult {
	if _, err := b.publisher.Publish(ctx, item, PublishOptions{Auto: auto, OverrideNeighborhood: overrideHood}); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			res.Reason = "status conflict"
		} else {
			res.Reason = err.Error()
		}
		return res
	}
	res.NewStatus = domain.StatusPublished
	res.Success = true
	return res
}

func (b *Batch) transition(ctx context.Context, item domain.ContentItem, res ItemResult, target domain.Status, opts ActionOptions) ItemResult {
	if !domain.CanTransition(item.Status, target) {
		res.Reason = fmt.Sprintf("cannot %s from %s", target, item.Status)
		return res
	}

	now := b.clock()
	fields := ports.ContentFields{}
	if target == domain.StatusRejected {
		fields.RejectedAt = &now
	}
	if opts.Notes != "" {
		notes := appendNote(item.AdminNotes, opts.Notes)
		fields.AdminNotes = &notes
	}

	applied, err := b.repo.UpdateStatus(ctx, item.ID, item.Status, target, fields)
	if err != nil {
		res.Reason = err.Error()
		return res
	}
	if !applied {
		res.Reason = "status conflict"
		return res
	}

	res.NewStatus = target
	res.Success = true
	return res
}

func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + "; " + note
}

// Succeeded counts successful results, for log lines and summaries.
func Succeeded(results []ItemResult) int {
	n := 0
	for _, r := range results {
		if r.Success {
			n++
		}
	}
	return n
}
