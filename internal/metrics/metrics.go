// Package metrics exposes Prometheus counters for the moderation pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline holds the stage counters one orchestrator instance reports to.
// A nil *Pipeline is a valid no-op sink.
type Pipeline struct {
	runsStarted    prometheus.Counter
	runsCompleted  prometheus.Counter
	runsFailed     prometheus.Counter
	itemsCollected prometheus.Counter
	itemsGenerated prometheus.Counter
	itemsPublished prometheus.Counter
	itemFailures   prometheus.Counter
}

// NewPipeline registers the counters with the given registerer.
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	factory := promauto.With(reg)
	return &Pipeline{
		runsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "newspipeline_runs_started_total",
			Help: "Pipeline runs started.",
		}),
		runsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "newspipeline_runs_completed_total",
			Help: "Pipeline runs completed successfully.",
		}),
		runsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "newspipeline_runs_failed_total",
			Help: "Pipeline runs that ended in failure.",
		}),
		itemsCollected: factory.NewCounter(prometheus.CounterOpts{
			Name: "newspipeline_items_collected_total",
			Help: "Raw items accepted into runs.",
		}),
		itemsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "newspipeline_items_generated_total",
			Help: "Content items produced by generation.",
		}),
		itemsPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "newspipeline_items_published_total",
			Help: "Content items published by runs.",
		}),
		itemFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "newspipeline_item_failures_total",
			Help: "Per-item failures isolated within runs.",
		}),
	}
}

func (m *Pipeline) RunStarted() {
	if m != nil {
		m.runsStarted.Inc()
	}
}

func (m *Pipeline) RunCompleted() {
	if m != nil {
		m.runsCompleted.Inc()
	}
}

func (m *Pipeline) RunFailed() {
	if m != nil {
		m.runsFailed.Inc()
	}
}

func (m *Pipeline) ItemsCollected(n int) {
	if m != nil && n > 0 {
		m.itemsCollected.Add(float64(n))
	}
}

func (m *Pipeline) ItemGenerated() {
	if m != nil {
		m.itemsGenerated.Inc()
	}
}

func (m *Pipeline) ItemPublished() {
	if m != nil {
		m.itemsPublished.Inc()
	}
}

func (m *Pipeline) ItemFailed() {
	if m != nil {
		m.itemFailures.Inc()
	}
}
