package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ppiankov/clausewise/internal/model"
)

var (
	analyzeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clausewise_analyze_requests_total",
		Help: "Analyze requests by outcome",
	}, []string{"outcome"})

	analyzeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "clausewise_analyze_duration_seconds",
		Help:    "Analyze request latency, including fetch and AI assessment",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30},
	})

	riskLevels = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clausewise_risk_level_total",
		Help: "Analyzed documents by final risk level",
	}, []string{"level"})

	cacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clausewise_cache_results_total",
		Help: "Result cache lookups by result (hit or miss)",
	}, []string{"result"})

	aiAssessments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clausewise_ai_assessments_total",
		Help: "External AI assessments by outcome (merged, neutral, unavailable)",
	}, []string{"outcome"})
)

// observeReport records the metrics of one successful analysis
func observeReport(report *model.Report) {
	riskLevels.WithLabelValues(string(report.Result.RiskLevel)).Inc()

	if report.Cached {
		cacheResults.WithLabelValues("hit").Inc()
	} else {
		cacheResults.WithLabelValues("miss").Inc()
	}

	if ai := report.AI; ai != nil {
		switch {
		case !ai.Enabled:
			aiAssessments.WithLabelValues("unavailable").Inc()
		case ai.Merged:
			aiAssessments.WithLabelValues("merged").Inc()
		default:
			aiAssessments.WithLabelValues("neutral").Inc()
		}
	}
}
