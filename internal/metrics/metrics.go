// Package metrics exposes Prometheus instruments for the edit thread.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EditsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "canvasgroup_edits_total",
		Help: "Total number of edits submitted to the editor, labelled by operation and outcome.",
	}, []string{"op", "outcome"})

	CyclesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "canvasgroup_cycles_rejected_total",
		Help: "Total number of edits refused because they would make a group its own descendant.",
	})

	WiresRehomed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "canvasgroup_wires_rehomed_total",
		Help: "Total number of wires moved to a new nearest common ancestor.",
	})

	EditDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "canvasgroup_edit_duration_ms",
		Help:    "Time spent applying one edit, including snapshot derivation, in milliseconds.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50},
	})

	TreeElements = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "canvasgroup_tree_elements",
		Help: "Number of elements in the edited tree, labelled by kind.",
	}, []string{"kind"})
)

// SetTreeCounts updates the element gauges
func SetTreeCounts(items, wires, groups int) {
	TreeElements.WithLabelValues("item").Set(float64(items))
	TreeElements.WithLabelValues("wire").Set(float64(wires))
	TreeElements.WithLabelValues("group").Set(float64(groups))
}
