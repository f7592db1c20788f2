package bandit

import (
	"time"
)

// Arm is one selectable option. Immutable once registered.
type Arm struct {
	// ID uniquely identifies the arm.
	ID string

	// Features are named numeric attributes of the option, consumed by
	// the contextual scorer. Keys are iterated in sorted order so the
	// learned weight vector has a stable layout.
	Features map[string]float64

	// Metadata carries opaque caller data (labels, payload refs).
	Metadata map[string]string
}

// Stats is the per-arm learning state. Mutated only by reward reports.
type Stats struct {
	// Pulls counts reward reports for this arm. Only increases.
	Pulls int

	// CumulativeReward is the sum of all reported rewards.
	CumulativeReward float64

	// AvgReward is the running mean reward. Initialized to the
	// optimistic prior 0.5 so unexplored arms are not starved.
	AvgReward float64

	// Variance is the running reward variance (Welford).
	Variance float64

	// LastPulled is the time of the most recent reward report.
	LastPulled time.Time

	// window holds the most recent rewards, bounded by the bandit's
	// configured window size.
	window []float64

	// m2 is Welford's sum of squared deviations.
	m2 float64
}

// optimisticPrior is the assumed average reward of a never-pulled arm.
const optimisticPrior = 0.5

// meanObserved is the mean of actual observations, without the prior.
func (s *Stats) meanObserved() float64 {
	if s.Pulls == 0 {
		return 0
	}
	return s.CumulativeReward / float64(s.Pulls)
}

// RecentRewards returns a copy of the sliding reward window, oldest
// first.
func (s *Stats) RecentRewards() []float64 {
	out := make([]float64, len(s.window))
	copy(out, s.window)
	return out
}

// observe folds one reward into the running statistics.
func (s *Stats) observe(reward float64, windowSize int, now time.Time) {
	prevMean := s.meanObserved()
	s.Pulls++
	s.CumulativeReward += reward
	s.LastPulled = now

	// The 0.5 prior counts as one pseudo-observation, so the average
	// moves strictly toward consistent evidence instead of snapping to
	// the first reward.
	s.AvgReward = (optimisticPrior + s.CumulativeReward) / float64(1+s.Pulls)

	// Welford variance over actual observations only.
	if s.Pulls > 1 {
		delta := reward - prevMean
		s.m2 += delta * (reward - s.meanObserved())
		s.Variance = s.m2 / float64(s.Pulls-1)
	}

	s.window = append(s.window, reward)
	if windowSize > 0 && len(s.window) > windowSize {
		s.window = s.window[len(s.window)-windowSize:]
	}
}

// Decision is the outcome of one arm selection. Ephemeral.
type Decision struct {
	// ArmID is the chosen arm.
	ArmID string

	// Score is the selection score mapped to [0,1].
	Score float64

	// Algorithm names the strategy that produced the pick.
	Algorithm Algorithm

	// Explored is true when the pick was exploratory rather than the
	// current best estimate.
	Explored bool

	// At is the selection time.
	At time.Time
}

// ArmMetrics is the exported view of one arm's statistics.
type ArmMetrics struct {
	Pulls            int
	CumulativeReward float64
	AvgReward        float64
	Variance         float64
	LastPulled       time.Time
}

// Snapshot is the bandit's observable state, returned by GetMetrics.
type Snapshot struct {
	Algorithm        Algorithm
	TotalPulls       int
	CumulativeRegret float64
	Arms             map[string]ArmMetrics
}
