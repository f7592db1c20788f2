package feature

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignal_Or(t *testing.T) {
	assert.Equal(t, 3.5, Present(3.5).Or(9))
	assert.Equal(t, 9.0, Absent().Or(9))
	assert.Equal(t, 0.0, Present(0).Or(9), "observed zero is not missing")
}

func TestSnapshot_Completeness(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want float64
	}{
		{name: "all missing", snap: Empty(), want: 0},
		{
			name: "one of twenty-one",
			snap: func() Snapshot {
				s := Empty()
				s.CompletionRate = Present(0.8)
				return s
			}(),
			want: 1.0 / 21.0,
		},
		{
			name: "three present",
			snap: func() Snapshot {
				s := Empty()
				s.SessionsPerWeek = Present(5)
				s.OpenRate = Present(0.4)
				s.HourOfDay = Present(14)
				return s
			}(),
			want: 3.0 / 21.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.snap.Completeness(), 1e-9)
		})
	}
}

func TestSnapshot_Values_OmitsMissingAndScales(t *testing.T) {
	s := Empty()
	s.SessionsPerWeek = Present(10.5) // scale 21
	s.CompletionRate = Present(0.75)
	s.DwellSeconds = Present(1200) // above the 600 scale, clamps

	values := s.Values()

	require.Len(t, values, 3)
	assert.InDelta(t, 0.5, values["sessions_per_week"], 1e-9)
	assert.InDelta(t, 0.75, values["completion_rate"], 1e-9)
	assert.InDelta(t, 1.0, values["dwell_seconds"], 1e-9)
	_, present := values["open_rate"]
	assert.False(t, present, "missing signals should be omitted")
}

func TestFromValues_RoundTripsNames(t *testing.T) {
	s := FromValues(map[string]float64{
		"completion_rate": 0.6,
		"preferred_hour":  8,
		"friend_count":    12,
		"not_a_signal":    1,
	})

	assert.Equal(t, Present(0.6), s.CompletionRate)
	assert.Equal(t, Present(8), s.PreferredHour)
	assert.Equal(t, Present(12), s.FriendCount)
	assert.True(t, s.OpenRate.Missing, "unset names stay missing")
	assert.InDelta(t, 3.0/21.0, s.Completeness(), 1e-9, "unknown names are ignored")
}

func TestSnapshot_ContextValues_DefaultsWhenMissing(t *testing.T) {
	ctx := Empty().ContextValues()

	require.Len(t, ctx, 5)
	assert.InDelta(t, 0.0, ctx["completion_rate"], 1e-9)
	assert.InDelta(t, 12.0/23.0, ctx["hour_of_day"], 1e-9)
	assert.InDelta(t, 1.0, ctx["recency"], 1e-9, "a month of silence is the default")
}

func TestSnapshot_ContextValues_FixedShape(t *testing.T) {
	s := Empty()
	s.HourOfDay = Present(0)
	s.StreakLength = Present(15)

	ctx := s.ContextValues()

	require.Len(t, ctx, 5, "context shape must not vary with presence")
	assert.InDelta(t, 0.0, ctx["hour_of_day"], 1e-9)
	assert.InDelta(t, 0.5, ctx["streak"], 1e-9)
}

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider()

	_, err := p.Features(context.Background(), "nobody")
	require.ErrorIs(t, err, ErrUnknownUser)

	s := Empty()
	s.OpenRate = Present(0.9)
	p.Set("alice", s)

	got, err := p.Features(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, Present(0.9), got.OpenRate)
}
