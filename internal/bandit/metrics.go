package bandit

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const banditInstrumentationName = "github.com/fyrsmithlabs/decisiond/internal/bandit"

// Metrics holds all bandit-related metrics.
type Metrics struct {
	meter      metric.Meter
	logger     *zap.Logger
	selections metric.Int64Counter
	selectDur  metric.Float64Histogram
	rewards    metric.Float64Histogram
	regret     metric.Float64Counter
}

// NewMetrics creates a new Metrics instance for the bandit.
func NewMetrics(logger *zap.Logger) *Metrics {
	m := &Metrics{
		meter:  otel.Meter(banditInstrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error

	m.selections, err = m.meter.Int64Counter(
		"decisiond.bandit.selections_total",
		metric.WithDescription("Arm selections, labeled by algorithm (epsilon_greedy, ucb, thompson, exp3) and whether the pick was exploratory."),
		metric.WithUnit("{selection}"),
	)
	if err != nil {
		m.logger.Warn("failed to create selections counter", zap.Error(err))
	}

	m.selectDur, err = m.meter.Float64Histogram(
		"decisiond.bandit.selection_duration_seconds",
		metric.WithDescription("Duration of a single arm selection. Selection is CPU-bound; anything above a millisecond indicates an oversized arm set."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05),
	)
	if err != nil {
		m.logger.Warn("failed to create selection duration histogram", zap.Error(err))
	}

	m.rewards, err = m.meter.Float64Histogram(
		"decisiond.bandit.reward",
		metric.WithDescription("Reported reward values in [0,1], labeled by algorithm. A distribution stuck near 0 means the option set is not resonating."),
		metric.WithUnit("1"),
		metric.WithExplicitBucketBoundaries(0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0),
	)
	if err != nil {
		m.logger.Warn("failed to create reward histogram", zap.Error(err))
	}

	m.regret, err = m.meter.Float64Counter(
		"decisiond.bandit.regret_total",
		metric.WithDescription("Cumulative regret: the gap between the best known arm's average and each observed reward. Slope should flatten as the bandit converges."),
		metric.WithUnit("1"),
	)
	if err != nil {
		m.logger.Warn("failed to create regret counter", zap.Error(err))
	}
}

// RecordSelection records one arm selection.
func (m *Metrics) RecordSelection(ctx context.Context, algorithm string, explored bool, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("algorithm", algorithm),
		attribute.Bool("explored", explored),
	)
	if m.selections != nil {
		m.selections.Add(ctx, 1, attrs)
	}
	if m.selectDur != nil {
		m.selectDur.Record(ctx, d.Seconds(), attrs)
	}
}

// RecordReward records one reward report.
func (m *Metrics) RecordReward(ctx context.Context, algorithm string, reward float64) {
	if m.rewards != nil {
		m.rewards.Record(ctx, reward, metric.WithAttributes(attribute.String("algorithm", algorithm)))
	}
}

// RecordRegretDelta adds one regret increment.
func (m *Metrics) RecordRegretDelta(ctx context.Context, algorithm string, delta float64) {
	if m.regret != nil && delta > 0 {
		m.regret.Add(ctx, delta, metric.WithAttributes(attribute.String("algorithm", algorithm)))
	}
}
