package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsPipeline/internal/config"
	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

// ConfigSource implements ports.RawSource over the config-defined sites.
// One failing site does not abort collection from the rest.
type ConfigSource struct {
	registry *Registry
	sources  []config.SourceConfig
	logger   *slog.Logger
}

var _ ports.RawSource = (*ConfigSource)(nil)

// NewConfigSource wires the collector registry with config-defined sites.
func NewConfigSource(reg *Registry, sources []config.SourceConfig, log *slog.Logger) *ConfigSource {
	return &ConfigSource{
		registry: reg,
		sources:  sources,
		logger:   log,
	}
}

// Collect iterates over configured sources and executes their collectors.
func (s *ConfigSource) Collect(ctx context.Context, since time.Time) ([]domain.RawItem, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("collector registry is not configured")
	}

	s.debug("collect", "sources", len(s.sources), "since", since.Format(time.RFC3339))

	var aggregated []domain.RawItem
	for _, src := range s.sources {
		strategy, err := s.registry.Resolve("html")
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.Name, err)
		}

		category := domain.Category(src.Category)
		if !category.Valid() {
			category = domain.CategoryGeneral
		}

		req := Request{
			Since:          since,
			SourceName:     src.Name,
			URL:            src.URL,
			Category:       category,
			NeighborhoodID: src.NeighborhoodID,
			BaseRelevance:  src.BaseRelevance,
			Selectors: Selectors{
				Item:  src.ItemSelector,
				Title: src.TitleSelector,
				Body:  src.BodySelector,
				Link:  src.LinkSelector,
			},
		}

		results, err := strategy.Collect(ctx, req)
		if err != nil {
			s.warn("source collection failed", "source", src.Name, "error", err)
			continue
		}

		s.debug("source produced items", "source", src.Name, "count", len(results))
		aggregated = append(aggregated, results...)
	}

	s.debug("collection done", "total_items", len(aggregated))
	return aggregated, nil
}

func (s *ConfigSource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *ConfigSource) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
