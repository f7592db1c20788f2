package decisiond

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/decisiond/internal/bandit"
	"github.com/fyrsmithlabs/decisiond/internal/decision"
	"github.com/fyrsmithlabs/decisiond/internal/events"
	"github.com/fyrsmithlabs/decisiond/internal/feature"
)

func newTestCore(t *testing.T) *Core {
	t.Helper()

	provider := feature.NewStaticProvider()
	provider.Set("alice", feature.FromValues(map[string]float64{
		"sessions_per_week": 10,
		"completion_rate":   0.8,
		"streak_length":     7,
	}))

	core, err := New(Config{
		Seed: 42,
		Decision: decision.Config{
			EnableBandit:    true,
			EnableEmbedding: true,
		},
	}, provider)
	require.NoError(t, err)
	return core
}

func TestNew_WiresEverySubsystem(t *testing.T) {
	core := newTestCore(t)

	assert.NotNil(t, core.Features)
	assert.NotNil(t, core.Embeddings)
	assert.NotNil(t, core.Engine)
	assert.NotNil(t, core.Styles)
	assert.NotNil(t, core.Content)
	assert.NotNil(t, core.Bus)
}

func TestNew_InvalidConfig(t *testing.T) {
	provider := feature.NewStaticProvider()
	_, err := New(Config{
		Bandit:   bandit.Config{Algorithm: "nonsense"},
		Decision: decision.Config{EnableBandit: true},
	}, provider)
	require.Error(t, err)
}

func TestCore_DecideAndReportOutcome(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	result, err := core.Decide(ctx, Request{
		UserID: "alice",
		Type:   "content",
		Options: []Option{
			{ID: "a", Features: map[string]float64{"completion_rate": 0.8}},
			{ID: "b", Features: map[string]float64{"completion_rate": 0.2}},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.RequestID)
	require.Len(t, result.Recommendations, 2)

	core.ReportOutcome(ctx, result.RequestID, "alice", result.Recommendations[0].OptionID, 0.9)

	metrics, ok := core.Engine.BanditMetrics("content")
	require.True(t, ok)
	assert.Equal(t, 1, metrics.TotalPulls)
}

func TestCore_SharedBusCarriesDecisionEvents(t *testing.T) {
	core := newTestCore(t)

	id, ch := core.Bus.Subscribe(events.DecisionMade)
	defer core.Bus.Unsubscribe(id)

	_, err := core.Decide(context.Background(), Request{
		UserID:  "alice",
		Type:    "content",
		Options: []Option{{ID: "a"}},
	})
	require.NoError(t, err)

	select {
	case ev := <-ch:
		assert.Equal(t, events.DecisionMade, ev.Type)
		assert.Equal(t, "alice", ev.Data["user_id"])
	default:
		t.Fatal("expected a decision event on the bus")
	}
}
