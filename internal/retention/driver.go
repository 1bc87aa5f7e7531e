package retention

import (
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments one retention driver run.
type Metrics struct {
	candidatesTotal *prometheus.CounterVec
	deletedTotal    *prometheus.CounterVec
	deleteErrors    *prometheus.CounterVec
}

// NewMetrics constructs and registers the retention driver's Prometheus
// instrumentation against reg. Pass prometheus.NewRegistry() in tests to
// avoid colliding with the global default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		candidatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "patrol",
				Subsystem: "retention",
				Name:      "candidates_total",
				Help:      "Total artifacts considered by the retention engine, by class",
			},
			[]string{"class"},
		),
		deletedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "patrol",
				Subsystem: "retention",
				Name:      "deleted_total",
				Help:      "Total artifacts deleted by the retention engine, by class",
			},
			[]string{"class"},
		),
		deleteErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "patrol",
				Subsystem: "retention",
				Name:      "delete_errors_total",
				Help:      "Total artifact deletions that failed, by class",
			},
			[]string{"class"},
		),
	}
	reg.MustRegister(m.candidatesTotal, m.deletedTotal, m.deleteErrors)
	return m
}

// Driver runs one retention pass: select candidates for deletion and
// remove them from disk, recording metrics as it goes.
type Driver struct {
	Limits  map[Class]Limits
	Metrics *Metrics
}

// Run deletes every candidate SelectForDeletion marks, returning the
// paths actually removed. A per-artifact removal failure is recorded in
// metrics and skipped rather than aborting the pass.
func (d *Driver) Run(candidates []Candidate, now time.Time) []string {
	for _, c := range candidates {
		if d.Metrics != nil {
			d.Metrics.candidatesTotal.WithLabelValues(string(c.Class)).Inc()
		}
	}

	toDelete := SelectForDeletion(candidates, d.Limits, now)

	var removed []string
	for _, c := range toDelete {
		if err := os.RemoveAll(c.Path); err != nil {
			if d.Metrics != nil {
				d.Metrics.deleteErrors.WithLabelValues(string(c.Class)).Inc()
			}
			continue
		}
		if d.Metrics != nil {
			d.Metrics.deletedTotal.WithLabelValues(string(c.Class)).Inc()
		}
		removed = append(removed, c.Path)
	}
	return removed
}
