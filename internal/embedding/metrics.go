package embedding

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const embeddingInstrumentationName = "github.com/fyrsmithlabs/decisiond/internal/embedding"

// Metrics holds all embedding-related metrics.
type Metrics struct {
	meter       metric.Meter
	logger      *zap.Logger
	genDuration metric.Float64Histogram
	confidence  metric.Float64Histogram
	clusterDur  metric.Float64Histogram
}

// NewMetrics creates a new Metrics instance for embeddings.
func NewMetrics(logger *zap.Logger) *Metrics {
	m := &Metrics{
		meter:  otel.Meter(embeddingInstrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error

	m.genDuration, err = m.meter.Float64Histogram(
		"decisiond.embedding.generation_duration_seconds",
		metric.WithDescription("Duration of user embedding generation, including the feature fetch. The fetch is the only I/O; computation itself is sub-millisecond."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0),
	)
	if err != nil {
		m.logger.Warn("failed to create generation duration histogram", zap.Error(err))
	}

	m.confidence, err = m.meter.Float64Histogram(
		"decisiond.embedding.confidence",
		metric.WithDescription("Embedding confidence (fraction of source signals present). A population stuck below 0.5 means the feature store is starving the personalization core."),
		metric.WithUnit("1"),
		metric.WithExplicitBucketBoundaries(0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0),
	)
	if err != nil {
		m.logger.Warn("failed to create confidence histogram", zap.Error(err))
	}

	m.clusterDur, err = m.meter.Float64Histogram(
		"decisiond.embedding.clustering_duration_seconds",
		metric.WithDescription("Duration of a full k-means recompute, labeled by k and population size bucket."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0),
	)
	if err != nil {
		m.logger.Warn("failed to create clustering duration histogram", zap.Error(err))
	}
}

// RecordGeneration records one embedding generation.
func (m *Metrics) RecordGeneration(ctx context.Context, d time.Duration, confidence float64) {
	if m.genDuration != nil {
		m.genDuration.Record(ctx, d.Seconds())
	}
	if m.confidence != nil {
		m.confidence.Record(ctx, confidence)
	}
}

// RecordClustering records one full clustering pass.
func (m *Metrics) RecordClustering(ctx context.Context, k, users, iterations int, d time.Duration) {
	if m.clusterDur != nil {
		m.clusterDur.Record(ctx, d.Seconds(), metric.WithAttributes(
			attribute.Int("k", k),
			attribute.Int("users", users),
			attribute.Int("iterations", iterations),
		))
	}
}
