package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	scoresTotal  *prometheus.CounterVec
	scoreValue   prometheus.Histogram
	probability  prometheus.Histogram
	explanations *prometheus.CounterVec
	firedFactors prometheus.Histogram
	fallbacks    *prometheus.CounterVec
	auditTotal   *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New creates a recorder registered on reg. A nil reg means the default
// registry, which is what /metrics serves.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		scoresTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_scores_total",
				Help: "Total number of scored applications by risk level",
			},
			[]string{"risk_level"},
		),
		scoreValue: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "credit_score_value",
				Help:    "Distribution of issued scores",
				Buckets: prometheus.LinearBuckets(300, 50, 12),
			},
		),
		probability: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "credit_probability_bad",
				Help:    "Distribution of P(bad) returned by the classifier",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
		),
		explanations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_explanations_total",
				Help: "Total number of rule-based explanations by risk level",
			},
			[]string{"risk_level"},
		),
		firedFactors: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "credit_explanation_fired_factors",
				Help:    "Number of risk rules that fired per explanation",
				Buckets: []float64{0, 1, 2, 3, 4, 5, 6},
			},
		),
		fallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_encoding_fallbacks_total",
				Help: "Unknown categorical labels replaced by the fallback code",
			},
			[]string{"field"},
		),
		auditTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_audit_records_total",
				Help: "Audit records handed to a backend",
			},
			[]string{"backend", "status"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "credit_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordScore records one issued score.
func (r *Recorder) RecordScore(score int, probabilityBad float64, riskLevel string) {
	r.scoresTotal.WithLabelValues(riskLevel).Inc()
	r.scoreValue.Observe(float64(score))
	r.probability.Observe(probabilityBad)
}

// RecordExplanation records one explanation and how many rules fired.
func (r *Recorder) RecordExplanation(riskLevel string, fired int) {
	r.explanations.WithLabelValues(riskLevel).Inc()
	r.firedFactors.Observe(float64(fired))
}

// RecordFallback counts an unknown categorical label.
func (r *Recorder) RecordFallback(field string) {
	r.fallbacks.WithLabelValues(field).Inc()
}

// RecordAudit counts audit records by backend and outcome.
func (r *Recorder) RecordAudit(backend, status string, n int) {
	r.auditTotal.WithLabelValues(backend, status).Add(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
