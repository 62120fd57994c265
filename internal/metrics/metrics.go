// Package metrics instruments the coordinator with real Prometheus
// collectors, replacing the teacher's hand-rolled text exporter with the
// ecosystem library the rest of the retrieval pack reaches for.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	secidxerrors "github.com/kartikbazzad/secidx/internal/errors"
)

// Coordinator groups the metrics a single scan coordinator instance emits.
// Callers register it against a prometheus.Registerer of their choosing
// (prometheus.DefaultRegisterer for the default registry) via MustRegister.
type Coordinator struct {
	OutstandingScanners prometheus.Gauge
	TerminalEmissions   prometheus.Counter
	CandidatesAccepted  prometheus.Counter
	MalformedEntries    *prometheus.CounterVec
	ReadaheadQueueDepth prometheus.Gauge
	StagingPromotions   prometheus.Counter
}

// NewCoordinator builds the per-coordinator metric set, labeled by scan ID
// so a process running many concurrent coordinators can distinguish them.
func NewCoordinator(scanID string) *Coordinator {
	labels := prometheus.Labels{"scan_id": scanID}
	return &Coordinator{
		OutstandingScanners: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "secidx",
			Name:        "outstanding_scanners",
			Help:        "Child scanners registered but not yet at end-of-stream.",
			ConstLabels: labels,
		}),
		TerminalEmissions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "secidx",
			Name:        "terminal_emissions_total",
			Help:        "Terminal batches emitted to the user sink; must never exceed 1 per scan.",
			ConstLabels: labels,
		}),
		CandidatesAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "secidx",
			Name:        "candidates_accepted_total",
			Help:        "Unique primary row keys accepted into the candidate set.",
			ConstLabels: labels,
		}),
		MalformedEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "secidx",
			Name:        "malformed_index_entries_total",
			Help:        "Index-table row keys skipped as malformed, by reason.",
			ConstLabels: labels,
		}, []string{"reason"}),
		ReadaheadQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "secidx",
			Name:        "readahead_queue_depth",
			Help:        "Scan specs currently queued for readahead.",
			ConstLabels: labels,
		}),
		StagingPromotions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "secidx",
			Name:        "staging_promotions_total",
			Help:        "Times the candidate set switched from buffered to staging mode.",
			ConstLabels: labels,
		}),
	}
}

// MustRegister registers every collector against reg.
func (c *Coordinator) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		c.OutstandingScanners,
		c.TerminalEmissions,
		c.CandidatesAccepted,
		c.MalformedEntries,
		c.ReadaheadQueueDepth,
		c.StagingPromotions,
	)
}

// RecordMalformed increments the malformed-entry counter for category c.
func (c *Coordinator) RecordMalformed(cat secidxerrors.Category) {
	c.MalformedEntries.WithLabelValues(cat.String()).Inc()
}
