package fraud

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	modelAvailableGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fraud_model_available",
		Help: "Whether the remote fraud model is currently reachable (1) or not (0)",
	})

	verdictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraud_verdicts_total",
		Help: "Total fraud verdicts issued, by scoring source and outcome",
	}, []string{"source", "fraudulent"})

	patternComparisonsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraud_pattern_comparisons_total",
		Help: "Total hotel pattern comparisons, by serving source",
	}, []string{"source"})
)
