package bandit

import (
	"math"

	"github.com/fyrsmithlabs/decisiond/internal/numeric"
)

// selectEpsilonGreedy explores a uniformly random arm with probability
// ExplorationRate, otherwise exploits the highest expected reward.
// Caller holds at least RLock.
func (b *Bandit) selectEpsilonGreedy(bctx Context) Decision {
	ids := b.armIDsLocked()

	if b.src.Float64() < b.config.ExplorationRate {
		id := ids[b.src.Intn(len(ids))]
		return Decision{
			ArmID:    id,
			Score:    b.expectedRewardLocked(id, bctx),
			Explored: true,
		}
	}

	bestID := ids[0]
	bestScore := math.Inf(-1)
	for _, id := range ids {
		if score := b.expectedRewardLocked(id, bctx); score > bestScore {
			bestScore = score
			bestID = id
		}
	}
	return Decision{ArmID: bestID, Score: bestScore}
}

// selectUCB picks by upper confidence bound. Arms with fewer than
// MinPulls observations get infinite priority, so every arm is
// explored before the bonus term takes over. Caller holds at least
// RLock.
func (b *Bandit) selectUCB(bctx Context) Decision {
	ids := b.armIDsLocked()

	bestID := ""
	bestScore := math.Inf(-1)
	forced := false
	for _, id := range ids {
		st := b.stats[id]
		if st.Pulls < b.config.MinPulls {
			// Forced exploration. First under-pulled arm in sorted
			// order wins; ties among unexplored arms break randomly.
			if !forced {
				forced = true
				bestID = id
				bestScore = math.Inf(1)
			} else if b.src.Float64() < 0.5 {
				bestID = id
			}
			continue
		}
		if forced {
			continue
		}
		bonus := b.config.UCBConstant * math.Sqrt(math.Log(float64(b.totalPulls+1))/float64(st.Pulls))
		score := b.expectedRewardLocked(id, bctx) + bonus
		if score > bestScore {
			bestScore = score
			bestID = id
		}
	}

	if forced {
		return Decision{
			ArmID:    bestID,
			Score:    b.expectedRewardLocked(bestID, bctx),
			Explored: true,
		}
	}
	// Raw UCB scores can exceed 1; the decision score is the clamped
	// expected reward, ranking order is what the bound decided.
	return Decision{ArmID: bestID, Score: b.expectedRewardLocked(bestID, bctx)}
}

// selectThompson draws one Beta sample per arm from its reward
// posterior, adds a small contextual bonus, and picks the maximum.
// Caller holds at least RLock.
func (b *Bandit) selectThompson(bctx Context) Decision {
	ids := b.armIDsLocked()

	bestID := ids[0]
	bestSample := math.Inf(-1)
	bestExplored := false
	for _, id := range ids {
		st := b.stats[id]
		alpha := st.CumulativeReward + 1
		beta := float64(st.Pulls) - st.CumulativeReward + 1
		sample := numeric.SampleBeta(b.src, alpha, beta)
		sample += 0.2 * b.contextualScoreLocked(id, bctx)
		if sample > bestSample {
			bestSample = sample
			bestID = id
			// A pick that disagrees with the posterior mean ordering
			// is an exploratory draw.
			bestExplored = st.Pulls < b.config.MinPulls
		}
	}
	return Decision{
		ArmID:    bestID,
		Score:    numeric.Clamp01(bestSample / 1.2),
		Explored: bestExplored,
	}
}

// selectEXP3 samples from the exponential-weight distribution mixed
// with a uniform floor. Caller holds at least RLock.
func (b *Bandit) selectEXP3(bctx Context) Decision {
	ids := b.armIDsLocked()
	n := float64(len(ids))

	weights := make([]float64, len(ids))
	var total float64
	for i, id := range ids {
		st := b.stats[id]
		exponent := b.config.Gamma * st.CumulativeReward / (n * math.Max(float64(st.Pulls), 1))
		// Cap the exponent so long reward histories cannot overflow.
		weights[i] = math.Exp(math.Min(exponent, 50))
		total += weights[i]
	}

	probs := make([]float64, len(ids))
	for i := range ids {
		probs[i] = (1-b.config.Gamma)*(weights[i]/total) + b.config.Gamma/n
	}

	// Categorical sample.
	r := b.src.Float64()
	var cum float64
	choice := len(ids) - 1
	for i, p := range probs {
		cum += p
		if r < cum {
			choice = i
			break
		}
	}

	id := ids[choice]
	return Decision{
		ArmID: id,
		Score: numeric.Clamp01(probs[choice]),
		// Uniform-floor picks of a below-average arm count as
		// exploration.
		Explored: probs[choice] <= 1.0/n,
	}
}
