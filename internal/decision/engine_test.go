package decision

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/decisiond/internal/bandit"
	"github.com/fyrsmithlabs/decisiond/internal/embedding"
	"github.com/fyrsmithlabs/decisiond/internal/feature"
	"github.com/fyrsmithlabs/decisiond/internal/numeric"
)

func richSnapshot() feature.Snapshot {
	return feature.FromValues(map[string]float64{
		"sessions_per_week":       10,
		"check_ins_total":         250,
		"streak_length":           14,
		"completion_rate":         0.9,
		"habit_age_weeks":         30,
		"preferred_hour":          8,
		"weekday_rate":            0.7,
		"weekend_rate":            0.3,
		"morning_rate":            0.8,
		"evening_rate":            0.1,
		"open_rate":               0.85,
		"response_rate":           0.6,
		"dwell_seconds":           90,
		"rebound_rate":            0.5,
		"friend_count":            6,
		"shared_goals":            2,
		"encouragements_sent":     10,
		"encouragements_received": 12,
		"hour_of_day":             9,
		"day_of_week":             3,
		"days_since_last_seen":    0,
	})
}

// newFeatureOnlyEngine builds an engine with bandit, embedding, and
// caching all off, isolating the feature-similarity path.
func newFeatureOnlyEngine(t *testing.T, provider feature.Provider) *Engine {
	t.Helper()
	e, err := NewEngine(Config{}, provider, nil, WithSource(numeric.NewSource(1)))
	require.NoError(t, err)
	return e
}

// newFullEngine builds an engine with every subsystem enabled and no
// cache.
func newFullEngine(t *testing.T, provider feature.Provider) *Engine {
	t.Helper()
	emb, err := embedding.NewEngine(embedding.Config{}, provider,
		embedding.WithSource(numeric.NewSource(42)))
	require.NoError(t, err)

	e, err := NewEngine(Config{EnableBandit: true, EnableEmbedding: true}, provider, emb,
		WithSource(numeric.NewSource(42)))
	require.NoError(t, err)
	return e
}

func TestNewEngine_Validation(t *testing.T) {
	p := feature.NewStaticProvider()

	_, err := NewEngine(Config{}, nil, nil)
	assert.Error(t, err, "provider is required")

	_, err = NewEngine(Config{EnableEmbedding: true}, p, nil)
	assert.Error(t, err, "embedding scoring needs an embedding engine")

	_, err = NewEngine(Config{Bandit: bandit.Config{Algorithm: "bogus"}}, p, nil)
	assert.Error(t, err)
}

func TestDecide_EmptyOptions(t *testing.T) {
	p := feature.NewStaticProvider()
	p.Set("alice", richSnapshot())
	e := newFeatureOnlyEngine(t, p)

	result, err := e.Decide(context.Background(), Request{UserID: "alice", Type: "content"})
	require.NoError(t, err, "an empty candidate set is a valid request")

	assert.Empty(t, result.Recommendations)
	assert.NotEmpty(t, result.RequestID)
	assert.InDelta(t, 1.0, result.Confidence, 1e-9,
		"with no ranking, confidence falls back to signal completeness")
}

func TestDecide_RanksByFeatureSimilarity(t *testing.T) {
	p := feature.NewStaticProvider()
	p.Set("alice", richSnapshot())
	e := newFeatureOnlyEngine(t, p)

	result, err := e.Decide(context.Background(), Request{
		UserID: "alice",
		Type:   "content",
		Options: []Option{
			{ID: "mismatch", Features: map[string]float64{"completion_rate": 0.1, "open_rate": 0.1}},
			{ID: "match", Features: map[string]float64{"completion_rate": 0.9, "open_rate": 0.85}},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Recommendations, 2)

	assert.Equal(t, "match", result.Recommendations[0].OptionID)
	assert.Equal(t, 1, result.Recommendations[0].Rank)
	assert.Equal(t, 2, result.Recommendations[1].Rank)
	assert.Greater(t, result.Recommendations[0].Score, result.Recommendations[1].Score)

	for _, rec := range result.Recommendations {
		assert.GreaterOrEqual(t, rec.Score, 0.0)
		assert.LessOrEqual(t, rec.Score, 1.0)
		assert.NotEmpty(t, rec.Reasoning)
		require.Len(t, rec.Factors, 4)
	}

	assert.Equal(t, StrategyFeatureOnly, result.Strategy)
	assert.Equal(t, "alice", result.UserID)
	assert.Equal(t, "content", result.Type)
}

func TestDecide_Constraints(t *testing.T) {
	p := feature.NewStaticProvider()
	p.Set("alice", richSnapshot())
	e := newFeatureOnlyEngine(t, p)

	options := []Option{
		{ID: "a", Features: map[string]float64{"completion_rate": 0.9, "difficulty": 0.3}},
		{ID: "b", Features: map[string]float64{"completion_rate": 0.8}},
		{ID: "c", Features: map[string]float64{"completion_rate": 0.7, "difficulty": 0.5}},
	}

	t.Run("exclude ids", func(t *testing.T) {
		result, err := e.Decide(context.Background(), Request{
			UserID:      "alice",
			Type:        "t1",
			Options:     options,
			Constraints: Constraints{ExcludeIDs: []string{"a"}},
		})
		require.NoError(t, err)
		for _, rec := range result.Recommendations {
			assert.NotEqual(t, "a", rec.OptionID)
		}
	})

	t.Run("required features", func(t *testing.T) {
		result, err := e.Decide(context.Background(), Request{
			UserID:      "alice",
			Type:        "t2",
			Options:     options,
			Constraints: Constraints{RequiredFeatures: []string{"difficulty"}},
		})
		require.NoError(t, err)
		require.Len(t, result.Recommendations, 2)
		for _, rec := range result.Recommendations {
			assert.NotEqual(t, "b", rec.OptionID)
		}
	})

	t.Run("max results", func(t *testing.T) {
		result, err := e.Decide(context.Background(), Request{
			UserID:      "alice",
			Type:        "t3",
			Options:     options,
			Constraints: Constraints{MaxResults: 1},
		})
		require.NoError(t, err)
		require.Len(t, result.Recommendations, 1)
		assert.Equal(t, 1, result.Recommendations[0].Rank)
	})

	t.Run("min score filters everything", func(t *testing.T) {
		result, err := e.Decide(context.Background(), Request{
			UserID:      "alice",
			Type:        "t4",
			Options:     options,
			Constraints: Constraints{MinScore: 0.99},
		})
		require.NoError(t, err)
		assert.Empty(t, result.Recommendations)
	})
}

func TestDecide_ColdStartStrategy(t *testing.T) {
	p := feature.NewStaticProvider()
	sparse := feature.Empty()
	sparse.CompletionRate = feature.Present(0.5)
	p.Set("newbie", sparse)
	e := newFeatureOnlyEngine(t, p)

	result, err := e.Decide(context.Background(), Request{
		UserID:  "newbie",
		Type:    "content",
		Options: []Option{{ID: "a", Features: map[string]float64{"completion_rate": 0.5}}},
	})
	require.NoError(t, err)
	assert.Equal(t, StrategyColdStart, result.Strategy)
}

func TestDecide_UnknownUserDegrades(t *testing.T) {
	e := newFeatureOnlyEngine(t, feature.NewStaticProvider())

	result, err := e.Decide(context.Background(), Request{
		UserID:  "stranger",
		Type:    "content",
		Options: []Option{{ID: "a", Features: map[string]float64{"completion_rate": 0.5}}},
	})
	require.NoError(t, err, "unknown users get generic recommendations, not errors")
	require.Len(t, result.Recommendations, 1)
	assert.Equal(t, StrategyColdStart, result.Strategy)
}

func TestDecide_BanditBlendStrategy(t *testing.T) {
	p := feature.NewStaticProvider()
	p.Set("alice", richSnapshot())
	e := newFullEngine(t, p)

	result, err := e.Decide(context.Background(), Request{
		UserID: "alice",
		Type:   "content",
		Options: []Option{
			{ID: "a", Features: map[string]float64{"completion_rate": 0.9}},
			{ID: "b", Features: map[string]float64{"completion_rate": 0.3}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, StrategyBanditBlend, result.Strategy)
	require.Len(t, result.Recommendations, 2)

	// Exactly one option carries the bandit's pick.
	banditScores := 0
	for _, rec := range result.Recommendations {
		for _, f := range rec.Factors {
			if f.Name == "bandit_score" && f.Value > 0 {
				banditScores++
			}
		}
	}
	assert.Equal(t, 1, banditScores)
}

func TestDecide_ContextMatch(t *testing.T) {
	p := feature.NewStaticProvider()
	e := newFeatureOnlyEngine(t, p)

	result, err := e.Decide(context.Background(), Request{
		UserID:  "anyone",
		Type:    "timing",
		Context: map[string]float64{"hour_of_day": 9.0 / 23.0},
		Options: []Option{
			{ID: "morning", Features: map[string]float64{"preferred_hour": 9}},
			{ID: "evening", Features: map[string]float64{"preferred_hour": 21}},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Recommendations, 2)
	assert.Equal(t, "morning", result.Recommendations[0].OptionID,
		"the option preferring the current hour should win on context match")
}

func TestDecide_CacheIdempotence(t *testing.T) {
	p := feature.NewStaticProvider()
	p.Set("alice", richSnapshot())

	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	e, err := NewEngine(Config{CacheTTL: 5 * time.Minute}, p, nil,
		WithSource(numeric.NewSource(1)), WithClock(func() time.Time { return clock }))
	require.NoError(t, err)

	req := Request{
		UserID:  "alice",
		Type:    "content",
		Options: []Option{{ID: "a", Features: map[string]float64{"completion_rate": 0.9}}},
	}

	first, err := e.Decide(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := e.Decide(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.RequestID, second.RequestID, "cached decision is bit-identical")
	assert.Equal(t, first.Recommendations, second.Recommendations)

	// Past the TTL the decision is recomputed.
	clock = clock.Add(6 * time.Minute)
	third, err := e.Decide(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.NotEqual(t, first.RequestID, third.RequestID)
}

func TestReportOutcome_RoutesToTypeBandit(t *testing.T) {
	p := feature.NewStaticProvider()
	p.Set("alice", richSnapshot())
	e := newFullEngine(t, p)

	result, err := e.Decide(context.Background(), Request{
		UserID:  "alice",
		Type:    "content",
		Options: []Option{{ID: "a", Features: map[string]float64{"completion_rate": 0.9}}},
	})
	require.NoError(t, err)

	e.ReportOutcome(context.Background(), result.RequestID, "alice", "a", 0.8)

	snap, ok := e.BanditMetrics("content")
	require.True(t, ok)
	assert.Equal(t, 1, snap.TotalPulls)
	assert.InDelta(t, 0.8, snap.Arms["a"].CumulativeReward, 1e-9)

	// A second type has no bandit until it serves a decision.
	_, ok = e.BanditMetrics("style")
	assert.False(t, ok)
}

func TestReportOutcome_UnknownRequestIgnored(t *testing.T) {
	p := feature.NewStaticProvider()
	e := newFeatureOnlyEngine(t, p)

	// Must not panic or create state.
	e.ReportOutcome(context.Background(), "no-such-request", "alice", "a", 1.0)
	_, ok := e.BanditMetrics("content")
	assert.False(t, ok)
}

func TestResultCache_Expiry(t *testing.T) {
	c := newResultCache(time.Minute)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	c.put("k", Result{RequestID: "r1"}, now)

	got, ok := c.get("k", now.Add(30*time.Second))
	require.True(t, ok)
	assert.Equal(t, "r1", got.RequestID)

	_, ok = c.get("k", now.Add(2*time.Minute))
	assert.False(t, ok)

	_, ok = c.get("missing", now)
	assert.False(t, ok)
}

func TestCacheKey_BucketsByHour(t *testing.T) {
	assert.Equal(t, cacheKey("u", "content", 9), cacheKey("u", "content", 9))
	assert.NotEqual(t, cacheKey("u", "content", 9), cacheKey("u", "content", 10))
	assert.NotEqual(t, cacheKey("u", "content", 9), cacheKey("u", "style", 9))
}

func TestFeatureSimilarity(t *testing.T) {
	tests := []struct {
		name string
		opt  map[string]float64
		user map[string]float64
		want float64
	}{
		{name: "identical", opt: map[string]float64{"a": 0.5}, user: map[string]float64{"a": 0.5}, want: 1},
		{name: "opposite", opt: map[string]float64{"a": 1}, user: map[string]float64{"a": 0}, want: 0},
		{name: "no shared names is neutral", opt: map[string]float64{"a": 1}, user: map[string]float64{"b": 0}, want: 0.5},
		{name: "averaged", opt: map[string]float64{"a": 1, "b": 0}, user: map[string]float64{"a": 1, "b": 1}, want: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, featureSimilarity(tt.opt, tt.user), 1e-9)
		})
	}
}

func TestContextMatch_CircularDistance(t *testing.T) {
	opt := Option{Features: map[string]float64{"preferred_hour": 23}}
	assert.InDelta(t, 1.0, contextMatch(opt, 23), 1e-9)
	// Hour 1 is two hours away across midnight, not 22.
	assert.InDelta(t, 1.0-2.0/12.0, contextMatch(opt, 1), 1e-9)

	neutral := Option{Features: map[string]float64{}}
	assert.InDelta(t, 0.5, contextMatch(neutral, 12), 1e-9)

	// Off-clock preferences wrap instead of escaping [0,1].
	wrapped := Option{Features: map[string]float64{"preferred_hour": 26}}
	assert.InDelta(t, 1.0, contextMatch(wrapped, 2), 1e-9)
}

func TestDecodeHour(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{name: "normalized morning", in: 9.0 / 23.0, want: 9},
		{name: "natural afternoon", in: 14, want: 14},
		{name: "beyond the clock wraps", in: 27, want: 3},
		{name: "negative wraps", in: -3, want: 21},
		{name: "zero", in: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, decodeHour(tt.in), 1e-9)
		})
	}
}

func TestDecide_NaturalHourContextKeepsScoresBounded(t *testing.T) {
	p := feature.NewStaticProvider()
	e := newFeatureOnlyEngine(t, p)

	// Callers on the HTTP surface send natural-unit hours.
	result, err := e.Decide(context.Background(), Request{
		UserID:  "anyone",
		Type:    "timing",
		Context: map[string]float64{"hour_of_day": 14},
		Options: []Option{
			{ID: "afternoon", Features: map[string]float64{"preferred_hour": 14}},
			{ID: "night", Features: map[string]float64{"preferred_hour": 2}},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Recommendations, 2)
	assert.Equal(t, "afternoon", result.Recommendations[0].OptionID)
	for _, rec := range result.Recommendations {
		assert.GreaterOrEqual(t, rec.Score, 0.0)
		assert.LessOrEqual(t, rec.Score, 1.0)
		for _, f := range rec.Factors {
			assert.GreaterOrEqual(t, f.Value, 0.0, f.Name)
			assert.LessOrEqual(t, f.Value, 1.0, f.Name)
		}
	}
}
