// Package prometheus records docsight's operational counters as
// Prometheus metrics and serves them for scraping.
package prometheus

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

// Ensure Metrics implements the interface.
var _ driven.Metrics = (*Metrics)(nil)

const namespace = "docsight"

// Metrics is a driven.Metrics on its own Prometheus registry.
type Metrics struct {
	registry *prometheus.Registry

	documents       *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	keyPoints       *prometheus.CounterVec
	chatTurns       *prometheus.CounterVec
	turnDuration    *prometheus.HistogramVec
	retrievalHits   prometheus.Histogram
	providerCalls   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
}

// New creates the metrics and registers them with a fresh registry, along
// with the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_processed_total",
			Help:      "Documents that finished processing, by terminal status.",
		}, []string{"status"}),
		processDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_processing_seconds",
			Help:      "Time from submission to terminal status.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"status"}),
		keyPoints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "key_points_extracted_total",
			Help:      "Key points committed, by type.",
		}, []string{"type"}),
		chatTurns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_turn_states_total",
			Help:      "Chat turn state transitions.",
		}, []string{"state"}),
		turnDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_turn_seconds",
			Help:      "Time from receiving a question to each state.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"state"}),
		retrievalHits: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_hits",
			Help:      "Chunks returned per retrieval.",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20},
		}),
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "Embedding and generation calls, by outcome.",
		}, []string{"provider", "op", "outcome"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_call_seconds",
			Help:      "Embedding and generation call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "op"}),
	}

	m.registry.MustRegister(
		m.documents, m.processDuration, m.keyPoints, m.chatTurns, m.turnDuration,
		m.retrievalHits, m.providerCalls, m.providerLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// DocumentProcessed records a finished processing task.
func (m *Metrics) DocumentProcessed(status domain.DocumentStatus, elapsed time.Duration) {
	m.documents.WithLabelValues(string(status)).Inc()
	m.processDuration.WithLabelValues(string(status)).Observe(elapsed.Seconds())
}

// KeyPointsExtracted records key points committed per type.
func (m *Metrics) KeyPointsExtracted(kind domain.KeyPointType, n int) {
	if n > 0 {
		m.keyPoints.WithLabelValues(string(kind)).Add(float64(n))
	}
}

// ChatTurn records a chat turn entering state.
func (m *Metrics) ChatTurn(state domain.TurnState, elapsed time.Duration) {
	m.chatTurns.WithLabelValues(string(state)).Inc()
	m.turnDuration.WithLabelValues(string(state)).Observe(elapsed.Seconds())
}

// RetrievalHits records how many chunks a search returned.
func (m *Metrics) RetrievalHits(n int) {
	m.retrievalHits.Observe(float64(n))
}

// ProviderCall records an embedding or generation call.
func (m *Metrics) ProviderCall(provider, op string, err error, elapsed time.Duration) {
	m.providerCalls.WithLabelValues(provider, op, outcome(err)).Inc()
	m.providerLatency.WithLabelValues(provider, op).Observe(elapsed.Seconds())
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrTimeout):
		return "timeout"
	default:
		return "error"
	}
}
