package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	autoFillRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "staffing",
		Subsystem: "autofill",
		Name:      "runs_total",
		Help:      "Total number of auto-fill runs broken down by outcome.",
	}, []string{"result"})

	autoFillShifts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "staffing",
		Subsystem: "autofill",
		Name:      "shifts_total",
		Help:      "Open shifts seen by auto-fill broken down by filled/unmatched.",
	}, []string{"outcome"})

	schemaMode = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "staffing",
		Subsystem: "planning",
		Name:      "schema_mode",
		Help:      "Planning status schema mode in use (value is always 1 for the active mode).",
	}, []string{"mode"})

	coverageGaps = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "staffing",
		Subsystem: "coverage",
		Name:      "gaps",
		Help:      "Coverage gaps found by the most recent coverage request.",
	})
)

// RecordAutoFill counts one run and its filled and unmatched shifts.
func RecordAutoFill(open, filled int, failed bool) {
	result := "ok"
	if failed {
		result = "error"
	}
	autoFillRuns.WithLabelValues(result).Inc()
	autoFillShifts.WithLabelValues("filled").Add(float64(filled))
	if open > filled {
		autoFillShifts.WithLabelValues("unmatched").Add(float64(open - filled))
	}
}

// RecordSchemaMode marks mode as the active planning schema.
func RecordSchemaMode(mode string) {
	schemaMode.Reset()
	schemaMode.WithLabelValues(mode).Set(1)
}

// RecordCoverageGaps publishes the gap count of the last coverage projection.
func RecordCoverageGaps(n int) {
	coverageGaps.Set(float64(n))
}
