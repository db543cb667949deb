package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

// Publisher resolves the neighborhood targets of one content item, writes
// the publication records idempotently, and transitions the item to
// published.
type Publisher struct {
	repo            ports.Repository
	clock           ports.Clock
	logger          *slog.Logger
	fallbackTargets int
}

// NewPublisher wires the fan-out component. fallbackTargets bounds the
// default target set for unclassified categories.
func NewPublisher(repo ports.Repository, clock ports.Clock, fallbackTargets int, logger *slog.Logger) *Publisher {
	if clock == nil {
		clock = time.Now
	}
	if fallbackTargets < 1 {
		fallbackTargets = 3
	}
	return &Publisher{repo: repo, clock: clock, logger: logger, fallbackTargets: fallbackTargets}
}

// PublishOptions tweak one fan-out call.
type PublishOptions struct {
	// Auto marks records created without human review.
	Auto bool
	// OverrideNeighborhood replaces the item's own neighborhood for
	// locally targeted categories.
	OverrideNeighborhood string
}

// Publish fans the item out to its resolved neighborhoods and stamps it
// published. The state machine gate and the compare-and-swap on the
// item's status keep concurrent publishers from double-transitioning;
// re-publishing an already fanned-out item creates no duplicate records.
// It returns the number of publication records created.
func (p *Publisher) Publish(ctx context.Context, item domain.ContentItem, opts PublishOptions) (int, error) {
	if !domain.CanTransition(item.Status, domain.StatusPublished) {
		return 0, fmt.Errorf("publish %s from %s: %w", item.ID, item.Status, domain.ErrConflict)
	}

	targets, err := p.resolveTargets(ctx, item, opts.OverrideNeighborhood)
	if err != nil {
		return 0, fmt.Errorf("resolve targets for %s: %w", item.ID, err)
	}
	if len(targets) == 0 {
		return 0, fmt.Errorf("publish %s: no active target neighborhoods", item.ID)
	}

	now := p.clock()
	created := 0
	for _, hoodID := range targets {
		ok, err := p.repo.CreatePublication(ctx, domain.PublicationRecord{
			ID:             uuid.NewString(),
			ContentID:      item.ID,
			NeighborhoodID: hoodID,
			Category:       item.Category,
			PublishedAt:    now,
			Auto:           opts.Auto,
		})
		if err != nil {
			return created, fmt.Errorf("record publication %s/%s: %w", item.ID, hoodID, err)
		}
		if ok {
			created++
		}
	}

	fields := ports.ContentFields{PublishedAt: &now}
	if item.NeighborhoodID == "" && len(targets) == 1 {
		fields.NeighborhoodID = &targets[0]
	}
	applied, err := p.repo.UpdateStatus(ctx, item.ID, item.Status, domain.StatusPublished, fields)
	if err != nil {
		return created, fmt.Errorf("transition %s to published: %w", item.ID, err)
	}
	if !applied {
		return created, fmt.Errorf("publish %s: %w", item.ID, domain.ErrConflict)
	}

	p.debug("published", "content", item.ID, "category", item.Category, "targets", len(targets), "new_records", created)
	return created, nil
}

// resolveTargets applies the category targeting rules: city-wide
// categories reach every active neighborhood, local categories the item's
// own (or an explicit override), everything else a small set of the most
// subscribed neighborhoods.
func (p *Publisher) resolveTargets(ctx context.Context, item domain.ContentItem, override string) ([]string, error) {
	switch {
	case item.Category.CityWide():
		hoods, err := p.repo.ListNeighborhoods(ctx, ports.NeighborhoodFilter{ActiveOnly: true})
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(hoods))
		for _, hood := range hoods {
			ids = append(ids, hood.ID)
		}
		return ids, nil

	case item.Category.LocalOnly():
		if override != "" {
			return []string{override}, nil
		}
		if item.NeighborhoodID != "" {
			return []string{item.NeighborhoodID}, nil
		}
		return p.topTargets(ctx)

	default:
		if override != "" {
			return []string{override}, nil
		}
		if item.NeighborhoodID != "" {
			return []string{item.NeighborhoodID}, nil
		}
		return p.topTargets(ctx)
	}
}

func (p *Publisher) topTargets(ctx context.Context) ([]string, error) {
	hoods, err := p.repo.ListNeighborhoods(ctx, ports.NeighborhoodFilter{ActiveOnly: true, TopBySubscribers: p.fallbackTargets})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(hoods))
	for _, hood := range hoods {
		ids = append(ids, hood.ID)
	}
	return ids, nil
}

func (p *Publisher) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
