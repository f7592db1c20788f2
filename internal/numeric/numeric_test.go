package numeric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_UnitNorm(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
	}{
		{name: "simple", in: []float64{3, 4}},
		{name: "negative components", in: []float64{-1, 2, -3, 4}},
		{name: "tiny values", in: []float64{1e-8, 2e-8}},
		{name: "large values", in: []float64{1e6, 2e6, 3e6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Normalize(tt.in)
			assert.InDelta(t, 1.0, Norm(out), 1e-9, "normalized vector should have unit norm")
		})
	}
}

func TestNormalize_ZeroVector(t *testing.T) {
	out := Normalize([]float64{0, 0, 0})
	assert.Equal(t, []float64{0, 0, 0}, out, "zero vector should pass through unchanged")
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	in := []float64{3, 4}
	_ = Normalize(in)
	assert.Equal(t, []float64{3, 4}, in)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{name: "identical", a: []float64{1, 2, 3}, b: []float64{1, 2, 3}, want: 1},
		{name: "opposite", a: []float64{1, 0}, b: []float64{-1, 0}, want: -1},
		{name: "orthogonal", a: []float64{1, 0}, b: []float64{0, 1}, want: 0},
		{name: "zero vector", a: []float64{0, 0}, b: []float64{1, 1}, want: 0},
		{name: "scaled copies", a: []float64{1, 1}, b: []float64{5, 5}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, -1.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestCosineSimilarity_DimensionMismatchPanics(t *testing.T) {
	assert.Panics(t, func() {
		CosineSimilarity([]float64{1, 2}, []float64{1, 2, 3})
	})
}

func TestDot_DimensionMismatchPanics(t *testing.T) {
	assert.Panics(t, func() {
		Dot([]float64{1}, []float64{1, 2})
	})
}

func TestEuclideanDistance(t *testing.T) {
	assert.InDelta(t, 5.0, EuclideanDistance([]float64{0, 0}, []float64{3, 4}), 1e-9)
	assert.Zero(t, EuclideanDistance([]float64{1, 2}, []float64{1, 2}))
}

func TestSigmoid(t *testing.T) {
	assert.InDelta(t, 0.5, Sigmoid(0), 1e-9)
	assert.Greater(t, Sigmoid(10), 0.999)
	assert.Less(t, Sigmoid(-10), 0.001)
}

func TestMinMax(t *testing.T) {
	tests := []struct {
		name       string
		x, lo, hi  float64
		want       float64
	}{
		{name: "midpoint", x: 5, lo: 0, hi: 10, want: 0.5},
		{name: "below range clamps", x: -1, lo: 0, hi: 10, want: 0},
		{name: "above range clamps", x: 11, lo: 0, hi: 10, want: 1},
		{name: "degenerate range", x: 5, lo: 3, hi: 3, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MinMax(tt.x, tt.lo, tt.hi), 1e-9)
		})
	}
}

func TestSampleGamma_PositiveDraws(t *testing.T) {
	src := NewSource(42)

	for _, shape := range []float64{0.5, 1, 2, 10} {
		for i := 0; i < 100; i++ {
			x := SampleGamma(src, shape)
			require.Greater(t, x, 0.0, "gamma draw should be positive for shape %v", shape)
			require.False(t, math.IsNaN(x))
		}
	}
}

func TestSampleGamma_MeanApproximatesShape(t *testing.T) {
	src := NewSource(7)

	const n = 20000
	var sum float64
	for i := 0; i < n; i++ {
		sum += SampleGamma(src, 5)
	}
	// Gamma(k, 1) has mean k.
	assert.InDelta(t, 5.0, sum/n, 0.1)
}

func TestSampleBeta_Bounds(t *testing.T) {
	src := NewSource(42)

	for i := 0; i < 1000; i++ {
		x := SampleBeta(src, 2, 5)
		require.Greater(t, x, 0.0)
		require.Less(t, x, 1.0)
	}
}

func TestSampleBeta_SkewsTowardHigherAlpha(t *testing.T) {
	src := NewSource(42)

	const n = 5000
	var sum float64
	for i := 0; i < n; i++ {
		sum += SampleBeta(src, 9, 1)
	}
	// Beta(9,1) has mean 0.9.
	assert.InDelta(t, 0.9, sum/n, 0.02)
}

func TestSampleBeta_DegenerateParameters(t *testing.T) {
	src := NewSource(1)
	assert.Equal(t, 0.5, SampleBeta(src, 0, 1))
	assert.Equal(t, 0.5, SampleBeta(src, 1, -2))
}

func TestSource_Deterministic(t *testing.T) {
	a := NewSource(99)
	b := NewSource(99)

	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}
