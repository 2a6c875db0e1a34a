package controller

import "github.com/prometheus/client_golang/prometheus"

var (
	pollsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "craftui",
		Subsystem: "controller",
		Name:      "polls_total",
		Help:      "Total status polls by result.",
	}, []string{"result"})

	pollDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "craftui",
		Subsystem: "controller",
		Name:      "poll_duration_seconds",
		Help:      "Status poll duration in seconds, including rendering.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2, 5},
	})

	submitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "craftui",
		Subsystem: "controller",
		Name:      "submits_total",
		Help:      "Total config submissions by mode and result.",
	}, []string{"mode", "result"})

	unhandledFields = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "craftui",
		Subsystem: "controller",
		Name:      "unhandled_fields",
		Help:      "Fields of the last snapshot that had no element to render into.",
	})

	connectedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "craftui",
		Subsystem: "controller",
		Name:      "connected",
		Help:      "1 if the last poll succeeded, 0 otherwise.",
	})
)

func init() {
	prometheus.MustRegister(pollsTotal, pollDuration, submitsTotal, unhandledFields, connectedGauge)
}
