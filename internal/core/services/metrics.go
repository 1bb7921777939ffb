package services

import (
	"time"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

// Ensure NopMetrics implements the interface.
var _ driven.Metrics = NopMetrics{}

// NopMetrics discards every measurement.
type NopMetrics struct{}

// DocumentProcessed does nothing.
func (NopMetrics) DocumentProcessed(domain.DocumentStatus, time.Duration) {}

// KeyPointsExtracted does nothing.
func (NopMetrics) KeyPointsExtracted(domain.KeyPointType, int) {}

// ChatTurn does nothing.
func (NopMetrics) ChatTurn(domain.TurnState, time.Duration) {}

// RetrievalHits does nothing.
func (NopMetrics) RetrievalHits(int) {}

// ProviderCall does nothing.
func (NopMetrics) ProviderCall(string, string, error, time.Duration) {}

func metricsOrNop(m driven.Metrics) driven.Metrics {
	if m == nil {
		return NopMetrics{}
	}
	return m
}
