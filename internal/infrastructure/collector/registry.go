// Package collector gathers raw items from configured upstream sites and
// feeds them to the pipeline's collect stage.
package collector

import (
	"context"
	"fmt"
	"time"

	"NewsPipeline/internal/domain"
)

// Request carries all parameters required to execute one site collection.
type Request struct {
	Since          time.Time
	SourceName     string
	URL            string
	Category       domain.Category
	NeighborhoodID string
	BaseRelevance  float64
	Selectors      Selectors
}

// Selectors address list items inside a scraped page.
type Selectors struct {
	Item  string
	Title string
	Body  string
	Link  string
}

// Collector captures a single scraping strategy implementation.
type Collector interface {
	Name() string
	Collect(ctx context.Context, req Request) ([]domain.RawItem, error)
}

// Registry keeps a mapping from collector names to their implementations.
type Registry struct {
	collectors map[string]Collector
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{collectors: map[string]Collector{}}
}

// Register adds or replaces a collector implementation.
func (r *Registry) Register(c Collector) {
	if r.collectors == nil {
		r.collectors = map[string]Collector{}
	}
	r.collectors[c.Name()] = c
}

// Resolve returns a collector by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Collector, error) {
	if c, ok := r.collectors[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("collector %s is not registered", name)
}
