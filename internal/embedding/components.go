package embedding

import (
	"math"

	"github.com/fyrsmithlabs/decisiond/internal/feature"
	"github.com/fyrsmithlabs/decisiond/internal/numeric"
)

// Slice allotments per component within the embedding vector. They sum
// to the default dimension (64); for other dimensions each allotment is
// scaled proportionally at engine construction.
const (
	behaviorSlots   = 16
	preferenceSlots = 16
	engagementSlots = 12
	socialSlots     = 8
	temporalSlots   = 12
)

// componentValues computes the raw (unpadded) values and the presence
// fraction for one family. Transforms are deterministic and
// hand-specified per signal; missing signals contribute their default
// and lower the presence fraction.
func componentValues(c Component, s feature.Snapshot) (values []float64, presence float64) {
	switch c {
	case Behavior:
		sigs := []feature.Signal{s.SessionsPerWeek, s.CheckInsTotal, s.StreakLength, s.CompletionRate, s.HabitAgeWeeks}
		values = []float64{
			numeric.MinMax(s.SessionsPerWeek.Or(0), 0, 21),
			numeric.MinMax(s.CheckInsTotal.Or(0), 0, 1000),
			numeric.MinMax(s.StreakLength.Or(0), 0, 90),
			numeric.Clamp01(s.CompletionRate.Or(0)),
			numeric.MinMax(s.HabitAgeWeeks.Or(0), 0, 104),
		}
		return values, presentFraction(sigs)

	case Preference:
		sigs := []feature.Signal{s.PreferredHour, s.WeekdayRate, s.WeekendRate, s.MorningRate, s.EveningRate}
		// Sine/cosine encoding keeps hour 23 adjacent to hour 0.
		hour := s.PreferredHour.Or(12)
		theta := 2 * math.Pi * hour / 24
		values = []float64{
			(math.Sin(theta) + 1) / 2,
			(math.Cos(theta) + 1) / 2,
			numeric.Clamp01(s.WeekdayRate.Or(0)),
			numeric.Clamp01(s.WeekendRate.Or(0)),
			numeric.Clamp01(s.MorningRate.Or(0)),
			numeric.Clamp01(s.EveningRate.Or(0)),
		}
		return values, presentFraction(sigs)

	case Engagement:
		sigs := []feature.Signal{s.OpenRate, s.ResponseRate, s.DwellSeconds, s.ReboundRate}
		values = []float64{
			numeric.Clamp01(s.OpenRate.Or(0)),
			numeric.Clamp01(s.ResponseRate.Or(0)),
			numeric.MinMax(s.DwellSeconds.Or(0), 0, 600),
			numeric.Clamp01(s.ReboundRate.Or(0)),
		}
		return values, presentFraction(sigs)

	case Social:
		sigs := []feature.Signal{s.FriendCount, s.SharedGoals, s.EncouragementsSent, s.EncouragementsReceived}
		values = []float64{
			numeric.MinMax(s.FriendCount.Or(0), 0, 50),
			numeric.MinMax(s.SharedGoals.Or(0), 0, 10),
			numeric.MinMax(s.EncouragementsSent.Or(0), 0, 100),
			numeric.MinMax(s.EncouragementsReceived.Or(0), 0, 100),
		}
		return values, presentFraction(sigs)

	case Temporal:
		sigs := []feature.Signal{s.HourOfDay, s.DayOfWeek, s.DaysSinceLastSeen}
		hourTheta := 2 * math.Pi * s.HourOfDay.Or(12) / 24
		dayTheta := 2 * math.Pi * s.DayOfWeek.Or(3) / 7
		values = []float64{
			(math.Sin(hourTheta) + 1) / 2,
			(math.Cos(hourTheta) + 1) / 2,
			(math.Sin(dayTheta) + 1) / 2,
			(math.Cos(dayTheta) + 1) / 2,
			// Recency decays over roughly a month of silence.
			math.Exp(-s.DaysSinceLastSeen.Or(30) / 30),
		}
		return values, presentFraction(sigs)
	}
	return nil, 0
}

// presentFraction returns the share of non-missing signals.
func presentFraction(sigs []feature.Signal) float64 {
	if len(sigs) == 0 {
		return 0
	}
	n := 0
	for _, s := range sigs {
		if !s.Missing {
			n++
		}
	}
	return float64(n) / float64(len(sigs))
}

// hasAnySignal reports whether the family has at least one observed
// signal. Families with no signal produce a zero sub-vector so an
// entirely silent user embeds to the zero vector.
func hasAnySignal(presence float64) bool {
	return presence > 0
}

// fitSlots pads with zeros or truncates values to the allotted width.
func fitSlots(values []float64, slots int) []float64 {
	out := make([]float64, slots)
	copy(out, values)
	return out
}

// componentWeights computes the dynamic family weights: a 1/5 base,
// boosted by each family's presence fraction, re-normalized to sum 1.
// With no signal anywhere the weights stay uniform.
func componentWeights(s feature.Snapshot) map[Component]float64 {
	weights := make(map[Component]float64, len(Components))
	var total float64
	for _, c := range Components {
		_, presence := componentValues(c, s)
		w := 1.0/float64(len(Components)) + presence
		weights[c] = w
		total += w
	}
	for c, w := range weights {
		weights[c] = w / total
	}
	return weights
}
