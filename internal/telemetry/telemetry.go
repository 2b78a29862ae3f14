// Package telemetry provides Prometheus metrics and OpenTelemetry tracing
// for the evaluation pipeline.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/jonesrussell/storetrust/infrastructure/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName = "storetrust"
	namespace   = "storetrust"
)

// Metrics holds all storetrust Prometheus metrics
type Metrics struct {
	EvaluationsTotal   *prometheus.CounterVec
	EvaluationErrors   prometheus.Counter
	EvaluationDuration *prometheus.HistogramVec

	SignalChecks        *prometheus.CounterVec
	SignalCheckDuration *prometheus.HistogramVec

	CacheOperations *prometheus.CounterVec
}

// Provider wraps telemetry providers
type Provider struct {
	Tracer   trace.Tracer
	Metrics  *Metrics
	HTTP     *metrics.HTTPMetrics
	gatherer prometheus.Gatherer
}

// NewProvider registers metrics on reg. Pass a *prometheus.Registry in tests
// to keep registrations isolated.
func NewProvider(reg *prometheus.Registry) *Provider {
	return &Provider{
		Tracer:   otel.Tracer(serviceName),
		Metrics:  initMetrics(promauto.With(reg)),
		HTTP:     metrics.NewHTTPMetrics(reg, namespace),
		gatherer: reg,
	}
}

// Handler returns the Prometheus HTTP handler for /metrics endpoint
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}

func initMetrics(f promauto.Factory) *Metrics {
	return &Metrics{
		EvaluationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Completed evaluations by verdict level and source (fresh or cached)",
		}, []string{"level", "source"}),
		EvaluationErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluation_errors_total",
			Help:      "Evaluations that failed with a configuration error",
		}),
		EvaluationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Time to produce an aggregate result",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		SignalChecks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signal_checks_total",
			Help:      "Signal check outcomes (ok, failed, timeout, panic)",
		}, []string{"signal", "outcome"}),
		SignalCheckDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "signal_check_duration_seconds",
			Help:      "Time spent in a single signal check",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"signal"}),
		CacheOperations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache lookups and writes by tier (signal, aggregate) and outcome",
		}, []string{"tier", "outcome"}),
	}
}

// RecordCache counts a cache hit, miss or store.
func (p *Provider) RecordCache(tier, outcome string) {
	p.Metrics.CacheOperations.WithLabelValues(tier, outcome).Inc()
}

// RecordCheck records one signal check.
func (p *Provider) RecordCheck(signal, outcome string, duration time.Duration) {
	p.Metrics.SignalChecks.WithLabelValues(signal, outcome).Inc()
	p.Metrics.SignalCheckDuration.WithLabelValues(signal).Observe(duration.Seconds())
}

// RecordEvaluation records a completed evaluation.
func (p *Provider) RecordEvaluation(level string, cached bool, duration time.Duration) {
	source := "fresh"
	if cached {
		source = "cache"
	}
	p.Metrics.EvaluationsTotal.WithLabelValues(level, source).Inc()
	p.Metrics.EvaluationDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordEvaluationError counts an evaluation that returned an error.
func (p *Provider) RecordEvaluationError() {
	p.Metrics.EvaluationErrors.Inc()
}

// StartSpan starts a new trace span.
// The caller is responsible for ending the span with span.End().
//
//nolint:spancheck // Caller is responsible for ending the span
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return p.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
