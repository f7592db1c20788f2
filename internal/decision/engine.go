package decision

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/decisiond/internal/bandit"
	"github.com/fyrsmithlabs/decisiond/internal/embedding"
	"github.com/fyrsmithlabs/decisiond/internal/events"
	"github.com/fyrsmithlabs/decisiond/internal/feature"
	"github.com/fyrsmithlabs/decisiond/internal/numeric"
)

// Scoring blend weights. They sum to 1 and every term is in [0,1], so
// the blended score stays in [0,1] by construction.
const (
	weightFeatureSim   = 0.30
	weightEmbeddingSim = 0.30
	weightBandit       = 0.30
	weightContextMatch = 0.10
)

// Config holds decision engine configuration.
type Config struct {
	// EnableBandit turns bandit-backed scoring on. Note the zero value
	// is false; DefaultConfig enables it.
	EnableBandit bool `koanf:"enable_bandit"`

	// EnableEmbedding turns embedding similarity scoring on. Note the
	// zero value is false; DefaultConfig enables it.
	EnableEmbedding bool `koanf:"enable_embedding"`

	// CacheTTL bounds how long a decision is served from cache.
	// Zero disables caching. Default: 5m.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// Bandit configures the per-decision-type bandit instances.
	Bandit bandit.Config `koanf:"bandit"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		EnableBandit:    true,
		EnableEmbedding: true,
		CacheTTL:        5 * time.Minute,
		Bandit:          bandit.DefaultConfig(),
	}
}

// Engine is the personalization decision engine.
type Engine struct {
	config     Config
	provider   feature.Provider
	embeddings *embedding.Engine
	logger     *zap.Logger
	metrics    *Metrics
	bus        *events.Bus
	src        numeric.Source
	cache      *resultCache
	now        func() time.Time

	mu      sync.Mutex
	bandits map[string]*bandit.Bandit
	routes  map[string]outcomeRoute
}

// outcomeRoute remembers which decision type a request id belongs to,
// so outcome reports reach the right bandit instance.
type outcomeRoute struct {
	decisionType string
	at           time.Time
}

// routeRetention bounds how long outcome routes are kept.
const routeRetention = time.Hour

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// WithBus sets the lifecycle event bus. Events are skipped when nil.
func WithBus(bus *events.Bus) EngineOption {
	return func(e *Engine) { e.bus = bus }
}

// WithSource sets the random source shared by the bandit instances.
func WithSource(src numeric.Source) EngineOption {
	return func(e *Engine) { e.src = src }
}

// WithClock overrides the time source, for cache and hour-bucket
// tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a decision engine. The embedding engine may be nil
// when embedding scoring is disabled.
func NewEngine(config Config, provider feature.Provider, embeddings *embedding.Engine, opts ...EngineOption) (*Engine, error) {
	if provider == nil {
		return nil, fmt.Errorf("feature provider is required")
	}
	if config.EnableEmbedding && embeddings == nil {
		return nil, fmt.Errorf("embedding engine is required when embedding scoring is enabled")
	}
	config.Bandit.ApplyDefaults()
	if err := config.Bandit.Validate(); err != nil {
		return nil, fmt.Errorf("validating bandit config: %w", err)
	}

	e := &Engine{
		config:     config,
		provider:   provider,
		embeddings: embeddings,
		bandits:    make(map[string]*bandit.Bandit),
		routes:     make(map[string]outcomeRoute),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.src == nil {
		e.src = numeric.NewTimeSource()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if config.CacheTTL > 0 {
		e.cache = newResultCache(config.CacheTTL)
	}
	e.metrics = NewMetrics(e.logger)
	return e, nil
}

// Decide scores the request's candidate options and returns ranked,
// explained recommendations. Subsystem failures degrade the decision,
// they never abort it.
func (e *Engine) Decide(ctx context.Context, req Request) (Result, error) {
	start := e.now()

	key := cacheKey(req.UserID, req.Type, start.Hour())
	if e.cache != nil {
		if cached, ok := e.cache.get(key, start); ok {
			cached.Cached = true
			e.metrics.RecordDecision(ctx, req.Type, cached.Strategy, true, 0)
			return cached, nil
		}
	}

	// (1) User signals. A fetch failure degrades to an empty snapshot.
	snap, err := e.provider.Features(ctx, req.UserID)
	if err != nil {
		e.logger.Warn("feature fetch failed, degrading to empty snapshot",
			zap.String("user_id", req.UserID),
			zap.Error(err),
		)
		snap = feature.Empty()
	}
	completeness := snap.Completeness()
	userValues := snap.Values()
	for k, v := range req.Context {
		userValues[k] = v
	}

	var emb embedding.UserEmbedding
	haveEmbedding := false
	if e.config.EnableEmbedding {
		if emb, err = e.embeddings.GetOrGenerate(ctx, req.UserID); err != nil {
			e.logger.Warn("embedding generation failed, degrading to feature scoring",
				zap.String("user_id", req.UserID),
				zap.Error(err),
			)
		} else {
			haveEmbedding = numeric.Norm(emb.Vector) > 0
		}
	}

	// (2) Bandit pick over the candidate set.
	var banditPick bandit.Decision
	haveBandit := false
	if e.config.EnableBandit && len(req.Options) > 0 {
		banditPick, haveBandit = e.banditSelect(ctx, req, snap)
	}

	// (3)-(5) Score, constrain, rank.
	recs := e.scoreOptions(req, userValues, emb, haveEmbedding, banditPick, haveBandit)

	// (6) Overall confidence.
	confidence := e.confidence(completeness, emb, haveEmbedding, recs)

	strategy := StrategyFeatureOnly
	switch {
	case completeness < coldStartCompleteness:
		strategy = StrategyColdStart
	case haveBandit && haveEmbedding:
		strategy = StrategyBanditBlend
	}

	result := Result{
		RequestID:       uuid.NewString(),
		UserID:          req.UserID,
		Type:            req.Type,
		Recommendations: recs,
		Confidence:      confidence,
		Strategy:        strategy,
		At:              start,
		Latency:         e.now().Sub(start),
	}

	e.mu.Lock()
	e.routes[result.RequestID] = outcomeRoute{decisionType: req.Type, at: start}
	e.sweepRoutesLocked(start)
	e.mu.Unlock()

	// (7) Populate the cache.
	if e.cache != nil {
		e.cache.put(key, result, start)
	}

	e.metrics.RecordDecision(ctx, req.Type, strategy, false, result.Latency)
	if e.bus != nil {
		e.bus.Emit(events.DecisionMade, map[string]any{
			"request_id": result.RequestID,
			"user_id":    req.UserID,
			"type":       req.Type,
			"strategy":   strategy,
			"results":    len(recs),
			"confidence": confidence,
			"latency_ms": float64(result.Latency.Microseconds()) / 1000,
		})
	}
	return result, nil
}

// banditSelect registers unseen options as arms and asks the type's
// bandit for a pick.
func (e *Engine) banditSelect(ctx context.Context, req Request, snap feature.Snapshot) (bandit.Decision, bool) {
	b, err := e.banditFor(req.Type)
	if err != nil {
		e.logger.Warn("bandit unavailable, degrading to feature scoring",
			zap.String("type", req.Type),
			zap.Error(err),
		)
		return bandit.Decision{}, false
	}

	for _, opt := range req.Options {
		if b.HasArm(opt.ID) {
			continue
		}
		if err := b.RegisterArm(bandit.Arm{ID: opt.ID, Features: opt.Features, Metadata: opt.Metadata}); err != nil {
			e.logger.Warn("failed to register option as arm",
				zap.String("option_id", opt.ID),
				zap.Error(err),
			)
		}
	}

	pick, err := b.SelectArm(ctx, bandit.Context{
		UserID:    req.UserID,
		Features:  e.banditContext(snap, req.Context),
		Timestamp: e.now(),
		SessionID: req.SessionID,
	})
	if err != nil {
		return bandit.Decision{}, false
	}
	return pick, true
}

// banditContext merges the snapshot-derived context with the request's
// situational features.
func (e *Engine) banditContext(snap feature.Snapshot, reqCtx map[string]float64) map[string]float64 {
	merged := snap.ContextValues()
	for k, v := range reqCtx {
		merged[k] = v
	}
	return merged
}

// banditFor returns the lazily created bandit for a decision type.
func (e *Engine) banditFor(decisionType string) (*bandit.Bandit, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if b, ok := e.bandits[decisionType]; ok {
		return b, nil
	}
	b, err := bandit.New(e.config.Bandit,
		bandit.WithLogger(e.logger.Named("bandit."+decisionType)),
		bandit.WithBus(e.bus),
		bandit.WithSource(e.src),
	)
	if err != nil {
		return nil, err
	}
	e.bandits[decisionType] = b
	return b, nil
}

// scoreOptions applies the weighted blend and the request constraints,
// returning ranked recommendations.
func (e *Engine) scoreOptions(req Request, userValues map[string]float64, emb embedding.UserEmbedding, haveEmbedding bool, banditPick bandit.Decision, haveBandit bool) []Recommendation {
	excluded := make(map[string]bool, len(req.Constraints.ExcludeIDs))
	for _, id := range req.Constraints.ExcludeIDs {
		excluded[id] = true
	}

	hour := float64(e.now().Hour())
	if h, ok := userValues["hour_of_day"]; ok {
		hour = decodeHour(h)
	}

	recs := make([]Recommendation, 0, len(req.Options))
	for _, opt := range req.Options {
		if excluded[opt.ID] {
			continue
		}
		if !hasRequiredFeatures(opt, req.Constraints.RequiredFeatures) {
			continue
		}

		featureSim := featureSimilarity(opt.Features, userValues)

		embeddingSim := 0.0
		if haveEmbedding {
			optVector := e.embeddings.Project(feature.FromValues(opt.Features))
			// Rescale dot of unit vectors from [-1,1] to [0,1].
			embeddingSim = (numeric.Dot(emb.Vector, optVector) + 1) / 2
		}

		banditScore := 0.0
		if haveBandit && banditPick.ArmID == opt.ID {
			banditScore = banditPick.Score
		}

		contextMatch := contextMatch(opt, hour)

		score := weightFeatureSim*featureSim +
			weightEmbeddingSim*embeddingSim +
			weightBandit*banditScore +
			weightContextMatch*contextMatch
		score = numeric.Clamp01(score)

		if score < req.Constraints.MinScore {
			continue
		}

		factors := []Factor{
			{Name: "feature_similarity", Value: featureSim, Weight: weightFeatureSim},
			{Name: "embedding_similarity", Value: embeddingSim, Weight: weightEmbeddingSim},
			{Name: "bandit_score", Value: banditScore, Weight: weightBandit},
			{Name: "context_match", Value: contextMatch, Weight: weightContextMatch},
		}
		recs = append(recs, Recommendation{
			OptionID:  opt.ID,
			Score:     score,
			Reasoning: reasoning(opt.ID, factors),
			Factors:   factors,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	if limit := req.Constraints.MaxResults; limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	for i := range recs {
		recs[i].Rank = i + 1
	}
	return recs
}

// featureSimilarity averages per-feature closeness over the names both
// sides share. No shared names is neutral, not zero.
func featureSimilarity(optFeatures, userValues map[string]float64) float64 {
	var sum float64
	n := 0
	for name, optVal := range optFeatures {
		userVal, ok := userValues[name]
		if !ok {
			continue
		}
		sum += 1 - math.Abs(numeric.Clamp01(optVal)-numeric.Clamp01(userVal))
		n++
	}
	if n == 0 {
		return 0.5
	}
	return sum / float64(n)
}

// decodeHour maps an hour_of_day context value onto [0,24). Values in
// [0,1] are read as the normalized encoding (h/23) the feature layer
// produces; anything larger is a natural-unit hour from the request
// context, wrapped onto the clock so out-of-range caller input cannot
// distort scoring.
func decodeHour(h float64) float64 {
	if h >= 0 && h <= 1 {
		return h * 23
	}
	return math.Mod(math.Mod(h, 24)+24, 24)
}

// contextMatch scores how close the option's preferred hour is to the
// current hour on the 24h circle. Options without a preference are
// neutral. preferred_hour is natural units (0-23); off-clock values
// wrap.
func contextMatch(opt Option, hour float64) float64 {
	preferred, ok := opt.Features["preferred_hour"]
	if !ok {
		return 0.5
	}
	preferred = math.Mod(math.Mod(preferred, 24)+24, 24)
	dist := math.Abs(preferred - hour)
	if dist > 12 {
		dist = 24 - dist
	}
	return numeric.Clamp01(1 - dist/12)
}

// hasRequiredFeatures reports whether the option declares every
// required feature name.
func hasRequiredFeatures(opt Option, required []string) bool {
	for _, name := range required {
		if _, ok := opt.Features[name]; !ok {
			return false
		}
	}
	return true
}

// reasoning builds the one-line explanation from the dominant factor.
func reasoning(optionID string, factors []Factor) string {
	best := factors[0]
	for _, f := range factors[1:] {
		if f.Value*f.Weight > best.Value*best.Weight {
			best = f
		}
	}
	switch best.Name {
	case "feature_similarity":
		return fmt.Sprintf("%s matches this user's behavioral profile", optionID)
	case "embedding_similarity":
		return fmt.Sprintf("%s resembles what similar users respond to", optionID)
	case "bandit_score":
		return fmt.Sprintf("%s has performed well for this decision type", optionID)
	default:
		return fmt.Sprintf("%s fits the current time of day", optionID)
	}
}

// confidence blends feature completeness, embedding confidence, and
// ranking spread. With no recommendations only completeness remains.
func (e *Engine) confidence(completeness float64, emb embedding.UserEmbedding, haveEmbedding bool, recs []Recommendation) float64 {
	if len(recs) == 0 {
		return numeric.Clamp01(completeness)
	}

	spread := 0.5
	if len(recs) >= 2 {
		gap := recs[0].Score - recs[len(recs)-1].Score
		// A wide spread means the ranking discriminates clearly.
		spread = numeric.Clamp01(gap * 2)
	}

	if !haveEmbedding {
		return numeric.Clamp01(0.8*completeness + 0.2*spread)
	}
	return numeric.Clamp01(0.4*completeness + 0.4*emb.Confidence + 0.2*spread)
}

// ReportOutcome forwards an observed outcome to the bandit that served
// the request, so future decisions improve. The reward must already be
// normalized to [0,1]; out-of-range values are clamped. Unknown
// request ids are logged and ignored.
func (e *Engine) ReportOutcome(ctx context.Context, requestID, userID, optionID string, reward float64) {
	e.mu.Lock()
	route, ok := e.routes[requestID]
	e.mu.Unlock()

	if !ok {
		e.logger.Warn("outcome reported for unknown request",
			zap.String("request_id", requestID),
			zap.String("option_id", optionID),
		)
		return
	}

	b, err := e.banditFor(route.decisionType)
	if err != nil {
		e.logger.Warn("bandit unavailable for outcome report",
			zap.String("type", route.decisionType),
			zap.Error(err),
		)
		return
	}

	b.ReportReward(ctx, optionID, reward, bandit.Context{
		UserID:    userID,
		Timestamp: e.now(),
	})

	e.metrics.RecordOutcome(ctx, route.decisionType, reward)
	if e.bus != nil {
		e.bus.Emit(events.OutcomeReported, map[string]any{
			"request_id": requestID,
			"user_id":    userID,
			"option_id":  optionID,
			"reward":     numeric.Clamp01(reward),
			"type":       route.decisionType,
		})
	}
}

// sweepRoutesLocked drops outcome routes older than the retention
// window. Caller holds the mutex.
func (e *Engine) sweepRoutesLocked(now time.Time) {
	if len(e.routes) < 1024 {
		return
	}
	for id, r := range e.routes {
		if now.Sub(r.at) > routeRetention {
			delete(e.routes, id)
		}
	}
}

// BanditMetrics returns the metrics snapshot for one decision type's
// bandit, or false when that type has no bandit yet.
func (e *Engine) BanditMetrics(decisionType string) (bandit.Snapshot, bool) {
	e.mu.Lock()
	b, ok := e.bandits[decisionType]
	e.mu.Unlock()
	if !ok {
		return bandit.Snapshot{}, false
	}
	return b.GetMetrics(), true
}
