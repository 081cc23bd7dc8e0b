package inference

import "github.com/prometheus/client_golang/prometheus"

var (
	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skinsrv",
			Subsystem: "inference",
			Name:      "predictions_total",
			Help:      "Predictions served, by top class",
		},
		[]string{"class"},
	)

	uncertainTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "skinsrv",
			Subsystem: "inference",
			Name:      "uncertain_total",
			Help:      "Predictions flagged as uncertain",
		},
	)

	fallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skinsrv",
			Subsystem: "inference",
			Name:      "fallbacks_total",
			Help:      "Predictions answered with the uniform fallback, by backend",
		},
		[]string{"backend"},
	)

	rejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "skinsrv",
			Subsystem: "inference",
			Name:      "rejected_total",
			Help:      "Predictions rejected because every model slot stayed busy",
		},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skinsrv",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Result cache lookups by outcome (hit, miss, error)",
		},
		[]string{"result"},
	)

	modelLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "skinsrv",
			Subsystem: "model",
			Name:      "latency_seconds",
			Help:      "Model call latency in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"backend", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(predictionsTotal, uncertainTotal, fallbacksTotal, rejectedTotal, cacheLookups, modelLatency)
}
