package bandit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/decisiond/internal/events"
	"github.com/fyrsmithlabs/decisiond/internal/numeric"
)

var (
	// ErrNoArms indicates selection was attempted with no registered
	// arms. This is a caller precondition, not a data condition.
	ErrNoArms = errors.New("no arms registered")

	// ErrDuplicateArm indicates an arm id is already registered.
	ErrDuplicateArm = errors.New("arm already registered")
)

// Context is the situational input for one selection or reward report.
// Ephemeral; the bandit never retains it.
type Context struct {
	UserID    string
	Features  map[string]float64
	Timestamp time.Time
	SessionID string
}

// Bandit is a contextual multi-armed bandit over a registered arm set.
//
// Selection is read-only with respect to shared state; reward reports
// are the only mutation. State is guarded by a RWMutex so the HTTP
// wrapper's concurrent calls stay safe.
type Bandit struct {
	config  Config
	logger  *zap.Logger
	metrics *Metrics
	bus     *events.Bus
	src     numeric.Source

	mu         sync.RWMutex
	arms       map[string]*Arm
	stats      map[string]*Stats
	weights    map[string][]float64
	totalPulls int
	regret     float64
}

// Option configures a Bandit.
type Option func(*Bandit)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Bandit) { b.logger = logger }
}

// WithBus sets the lifecycle event bus. Events are skipped when nil.
func WithBus(bus *events.Bus) Option {
	return func(b *Bandit) { b.bus = bus }
}

// WithSource sets the random source. Defaults to a time-seeded source.
func WithSource(src numeric.Source) Option {
	return func(b *Bandit) { b.src = src }
}

// New creates a Bandit. An unknown algorithm in config is a fatal
// configuration error.
func New(config Config, opts ...Option) (*Bandit, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	b := &Bandit{
		config:  config,
		arms:    make(map[string]*Arm),
		stats:   make(map[string]*Stats),
		weights: make(map[string][]float64),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	if b.src == nil {
		b.src = numeric.NewTimeSource()
	}
	// Selection draws happen under a read lock, so concurrent
	// selections share the source.
	b.src = numeric.Locked(b.src)
	b.metrics = NewMetrics(b.logger)
	return b, nil
}

// RegisterArm adds an arm with fresh statistics and a randomly
// initialized contextual weight vector. Arms are immutable once
// registered.
func (b *Bandit) RegisterArm(arm Arm) error {
	if arm.ID == "" {
		return fmt.Errorf("%w: arm id required", ErrInvalidConfig)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.arms[arm.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateArm, arm.ID)
	}

	stored := Arm{
		ID:       arm.ID,
		Features: make(map[string]float64, len(arm.Features)),
		Metadata: make(map[string]string, len(arm.Metadata)),
	}
	for k, v := range arm.Features {
		stored.Features[k] = v
	}
	for k, v := range arm.Metadata {
		stored.Metadata[k] = v
	}

	dim := len(stored.Features) + b.config.ContextDim
	w := make([]float64, dim)
	for i := range w {
		w[i] = (b.src.Float64() - 0.5) * 0.1
	}

	b.arms[arm.ID] = &stored
	b.stats[arm.ID] = &Stats{AvgReward: optimisticPrior}
	b.weights[arm.ID] = w

	b.logger.Debug("arm registered",
		zap.String("arm_id", arm.ID),
		zap.Int("feature_count", len(stored.Features)),
		zap.Int("weight_dim", dim),
	)
	return nil
}

// RemoveArm deletes an arm, its statistics, and its weights. Unknown
// ids are a no-op.
func (b *Bandit) RemoveArm(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.arms, id)
	delete(b.stats, id)
	delete(b.weights, id)
}

// HasArm reports whether the arm is registered.
func (b *Bandit) HasArm(id string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.arms[id]
	return ok
}

// Arms returns the registered arm ids in sorted order.
func (b *Bandit) Arms() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.armIDsLocked()
}

// armIDsLocked returns sorted arm ids. Caller holds at least RLock.
func (b *Bandit) armIDsLocked() []string {
	ids := make([]string, 0, len(b.arms))
	for id := range b.arms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SelectArm chooses one arm using the configured algorithm. Selecting
// from an empty arm set is an error.
func (b *Bandit) SelectArm(ctx context.Context, bctx Context) (Decision, error) {
	start := time.Now()

	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.arms) == 0 {
		return Decision{}, ErrNoArms
	}

	var d Decision
	switch b.config.Algorithm {
	case EpsilonGreedy:
		d = b.selectEpsilonGreedy(bctx)
	case UCB:
		d = b.selectUCB(bctx)
	case Thompson:
		d = b.selectThompson(bctx)
	case EXP3:
		d = b.selectEXP3(bctx)
	}
	d.Algorithm = b.config.Algorithm
	d.At = start
	d.Score = numeric.Clamp01(d.Score)

	b.metrics.RecordSelection(ctx, string(b.config.Algorithm), d.Explored, time.Since(start))
	if b.bus != nil {
		b.bus.Emit(events.ArmSelected, map[string]any{
			"arm_id":    d.ArmID,
			"score":     d.Score,
			"algorithm": string(d.Algorithm),
			"explored":  d.Explored,
			"user_id":   bctx.UserID,
		})
	}
	return d, nil
}

// SelectTopArms scores every arm by expected reward, with no
// exploration noise, and returns the top k in descending order.
func (b *Bandit) SelectTopArms(ctx context.Context, bctx Context, k int) ([]Decision, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.arms) == 0 {
		return nil, ErrNoArms
	}
	if k <= 0 {
		return []Decision{}, nil
	}

	now := time.Now()
	decisions := make([]Decision, 0, len(b.arms))
	for _, id := range b.armIDsLocked() {
		decisions = append(decisions, Decision{
			ArmID:     id,
			Score:     numeric.Clamp01(b.expectedRewardLocked(id, bctx)),
			Algorithm: b.config.Algorithm,
			At:        now,
		})
	}
	sort.SliceStable(decisions, func(i, j int) bool {
		return decisions[i].Score > decisions[j].Score
	})
	if k < len(decisions) {
		decisions = decisions[:k]
	}
	b.metrics.RecordSelection(ctx, string(b.config.Algorithm), false, time.Since(now))
	return decisions, nil
}

// ReportReward folds an observed outcome into the arm's statistics and
// takes one gradient step on its contextual weights. Rewards are
// clamped to [0,1]. Unknown arm ids are logged and ignored.
func (b *Bandit) ReportReward(ctx context.Context, armID string, reward float64, bctx Context) {
	reward = numeric.Clamp01(reward)
	now := time.Now()

	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.stats[armID]
	if !ok {
		b.logger.Warn("reward reported for unregistered arm",
			zap.String("arm_id", armID),
			zap.Float64("reward", reward),
		)
		return
	}

	// Regret against the best known arm, accumulated before folding in
	// the new observation.
	best := 0.0
	for _, s := range b.stats {
		if s.AvgReward > best {
			best = s.AvgReward
		}
	}
	if gap := best - reward; gap > 0 {
		b.regret += gap
		b.metrics.RecordRegretDelta(ctx, string(b.config.Algorithm), gap)
	}

	st.observe(reward, b.config.WindowSize, now)
	b.totalPulls++

	// Online linear regression step on the contextual weight vector:
	// w += lr * (reward - predicted) * x.
	x := b.featureVectorLocked(armID, bctx)
	w := b.weights[armID]
	predicted := numeric.Sigmoid(numeric.Dot(x, w))
	errTerm := reward - predicted
	for i := range w {
		w[i] += b.config.LearningRate * errTerm * x[i]
	}

	b.metrics.RecordReward(ctx, string(b.config.Algorithm), reward)
	if b.bus != nil {
		b.bus.Emit(events.RewardReported, map[string]any{
			"arm_id":     armID,
			"reward":     reward,
			"avg_reward": st.AvgReward,
			"pulls":      st.Pulls,
			"user_id":    bctx.UserID,
		})
	}
}

// GetMetrics returns a snapshot of the bandit's observable state.
func (b *Bandit) GetMetrics() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	arms := make(map[string]ArmMetrics, len(b.stats))
	for id, s := range b.stats {
		arms[id] = ArmMetrics{
			Pulls:            s.Pulls,
			CumulativeReward: s.CumulativeReward,
			AvgReward:        s.AvgReward,
			Variance:         s.Variance,
			LastPulled:       s.LastPulled,
		}
	}
	return Snapshot{
		Algorithm:        b.config.Algorithm,
		TotalPulls:       b.totalPulls,
		CumulativeRegret: b.regret,
		Arms:             arms,
	}
}

// featureVectorLocked builds the contextual input [armFeatures,
// contextFeatures], both in sorted key order, with the context slice
// padded or truncated to the configured dimension so the layout always
// matches the learned weight vector.
func (b *Bandit) featureVectorLocked(armID string, bctx Context) []float64 {
	arm := b.arms[armID]

	armKeys := make([]string, 0, len(arm.Features))
	for k := range arm.Features {
		armKeys = append(armKeys, k)
	}
	sort.Strings(armKeys)

	ctxKeys := make([]string, 0, len(bctx.Features))
	for k := range bctx.Features {
		ctxKeys = append(ctxKeys, k)
	}
	sort.Strings(ctxKeys)

	x := make([]float64, len(armKeys)+b.config.ContextDim)
	for i, k := range armKeys {
		x[i] = arm.Features[k]
	}
	for i := 0; i < b.config.ContextDim && i < len(ctxKeys); i++ {
		x[len(armKeys)+i] = bctx.Features[ctxKeys[i]]
	}
	return x
}

// contextualScoreLocked is the learned context fit for an arm, mapped
// to [0,1] through a logistic sigmoid.
func (b *Bandit) contextualScoreLocked(armID string, bctx Context) float64 {
	x := b.featureVectorLocked(armID, bctx)
	return numeric.Sigmoid(numeric.Dot(x, b.weights[armID]))
}

// expectedRewardLocked blends historical average with contextual fit.
func (b *Bandit) expectedRewardLocked(armID string, bctx Context) float64 {
	return 0.7*b.stats[armID].AvgReward + 0.3*b.contextualScoreLocked(armID, bctx)
}
