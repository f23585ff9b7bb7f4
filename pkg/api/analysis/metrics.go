package analysis

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insight_uploads_total",
		Help: "Statement uploads by result (ok, structural, error).",
	}, []string{"result"})

	modelRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insight_model_requests_total",
		Help: "Narrative and chat requests by kind and result (ok, failed).",
	}, []string{"kind", "result"})

	analyzeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "insight_analyze_duration_seconds",
		Help:    "Time to read and derive an uploaded statement.",
		Buckets: prometheus.DefBuckets,
	})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "insight_sessions",
		Help: "Analysis sessions held in memory.",
	})
)

func resultLabel(failed bool) string {
	if failed {
		return "failed"
	}
	return "ok"
}
