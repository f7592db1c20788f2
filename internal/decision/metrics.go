package decision

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const decisionInstrumentationName = "github.com/fyrsmithlabs/decisiond/internal/decision"

// Metrics holds all decision-related metrics.
type Metrics struct {
	meter     metric.Meter
	logger    *zap.Logger
	decisions metric.Int64Counter
	latency   metric.Float64Histogram
	outcomes  metric.Float64Histogram
}

// NewMetrics creates a new Metrics instance for the decision engine.
func NewMetrics(logger *zap.Logger) *Metrics {
	m := &Metrics{
		meter:  otel.Meter(decisionInstrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error

	m.decisions, err = m.meter.Int64Counter(
		"decisiond.decision.requests_total",
		metric.WithDescription("Decision requests, labeled by decision type, strategy (bandit_blend, feature_only, cold_start), and cache hit."),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		m.logger.Warn("failed to create decisions counter", zap.Error(err))
	}

	m.latency, err = m.meter.Float64Histogram(
		"decisiond.decision.latency_seconds",
		metric.WithDescription("End-to-end decision latency including the feature fetch. Cache hits record zero and are excluded via the cached label."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0),
	)
	if err != nil {
		m.logger.Warn("failed to create latency histogram", zap.Error(err))
	}

	m.outcomes, err = m.meter.Float64Histogram(
		"decisiond.decision.outcome_reward",
		metric.WithDescription("Rewards attached to outcome reports, labeled by decision type. This is the ground truth the bandit learns from."),
		metric.WithUnit("1"),
		metric.WithExplicitBucketBoundaries(0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0),
	)
	if err != nil {
		m.logger.Warn("failed to create outcome histogram", zap.Error(err))
	}
}

// RecordDecision records one decision request.
func (m *Metrics) RecordDecision(ctx context.Context, decisionType, strategy string, cached bool, latency time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("type", decisionType),
		attribute.String("strategy", strategy),
		attribute.Bool("cached", cached),
	)
	if m.decisions != nil {
		m.decisions.Add(ctx, 1, attrs)
	}
	if m.latency != nil && !cached {
		m.latency.Record(ctx, latency.Seconds(), attrs)
	}
}

// RecordOutcome records one outcome report.
func (m *Metrics) RecordOutcome(ctx context.Context, decisionType string, reward float64) {
	if m.outcomes != nil {
		m.outcomes.Record(ctx, reward, metric.WithAttributes(attribute.String("type", decisionType)))
	}
}
