package embedding

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/decisiond/internal/events"
	"github.com/fyrsmithlabs/decisiond/internal/feature"
	"github.com/fyrsmithlabs/decisiond/internal/numeric"
)

// Staleness controls when a cached embedding is regenerated.
type Staleness string

const (
	// Realtime always regenerates.
	Realtime Staleness = "realtime"

	// Hourly regenerates embeddings older than one hour. Default.
	Hourly Staleness = "hourly"

	// Daily regenerates embeddings older than 24 hours.
	Daily Staleness = "daily"
)

// maxAge returns the staleness threshold, or 0 for always-refresh.
func (s Staleness) maxAge() time.Duration {
	switch s {
	case Hourly:
		return time.Hour
	case Daily:
		return 24 * time.Hour
	default:
		return 0
	}
}

// Config holds embedding engine configuration.
type Config struct {
	// Dim is the embedding dimensionality. All vectors share it
	// regardless of input richness. Default: 64.
	Dim int `koanf:"dim"`

	// Staleness is the cache refresh policy. Default: hourly.
	Staleness Staleness `koanf:"staleness"`

	// KMeansMaxIterations caps clustering rounds. Default: 100.
	KMeansMaxIterations int `koanf:"kmeans_max_iterations"`

	// TraitThreshold is the component weight above which a family
	// becomes a trait label. Default: 0.25.
	TraitThreshold float64 `koanf:"trait_threshold"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Dim == 0 {
		c.Dim = 64
	}
	if c.Staleness == "" {
		c.Staleness = Hourly
	}
	if c.KMeansMaxIterations == 0 {
		c.KMeansMaxIterations = 100
	}
	if c.TraitThreshold == 0 {
		c.TraitThreshold = 0.25
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Dim < len(Components) {
		return fmt.Errorf("dim must be at least %d, got %d", len(Components), c.Dim)
	}
	switch c.Staleness {
	case Realtime, Hourly, Daily:
	default:
		return fmt.Errorf("unknown staleness policy %q", c.Staleness)
	}
	return nil
}

// Engine generates and caches user embeddings.
type Engine struct {
	config   Config
	provider feature.Provider
	store    Store
	logger   *zap.Logger
	metrics  *Metrics
	bus      *events.Bus
	src      numeric.Source

	// slots maps each component to its slice width, scaled so the five
	// allotments always sum to config.Dim.
	slots map[Component]int

	mu       sync.Mutex
	versions map[string]int
	clusters []UserCluster
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithStore sets the embedding store. Defaults to an in-memory store.
func WithStore(store Store) Option {
	return func(e *Engine) { e.store = store }
}

// WithBus sets the lifecycle event bus. Events are skipped when nil.
func WithBus(bus *events.Bus) Option {
	return func(e *Engine) { e.bus = bus }
}

// WithSource sets the random source used by k-means initialization.
func WithSource(src numeric.Source) Option {
	return func(e *Engine) { e.src = src }
}

// NewEngine creates an Engine over the given feature provider.
func NewEngine(config Config, provider feature.Provider, opts ...Option) (*Engine, error) {
	if provider == nil {
		return nil, fmt.Errorf("feature provider is required")
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	e := &Engine{
		config:   config,
		provider: provider,
		versions: make(map[string]int),
		slots:    scaleSlots(config.Dim),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.store == nil {
		e.store = NewMemoryStore()
	}
	if e.src == nil {
		e.src = numeric.NewTimeSource()
	}
	e.metrics = NewMetrics(e.logger)
	return e, nil
}

// scaleSlots distributes dim across the five families proportionally
// to the default 64-dim allotments, handing remainders to the earlier
// families.
func scaleSlots(dim int) map[Component]int {
	base := map[Component]int{
		Behavior:   behaviorSlots,
		Preference: preferenceSlots,
		Engagement: engagementSlots,
		Social:     socialSlots,
		Temporal:   temporalSlots,
	}
	defaultDim := behaviorSlots + preferenceSlots + engagementSlots + socialSlots + temporalSlots
	if dim == defaultDim {
		return base
	}

	out := make(map[Component]int, len(Components))
	used := 0
	for _, c := range Components {
		out[c] = base[c] * dim / defaultDim
		used += out[c]
	}
	for i := 0; used < dim; i++ {
		out[Components[i%len(Components)]]++
		used++
	}
	return out
}

// Generate builds a fresh embedding for the user and replaces any
// cached version. Missing features degrade confidence, never fail; a
// feature fetch error degrades to an empty snapshot with a warning.
func (e *Engine) Generate(ctx context.Context, userID string) (UserEmbedding, error) {
	start := time.Now()

	snap, err := e.provider.Features(ctx, userID)
	if err != nil {
		e.logger.Warn("feature fetch failed, using empty snapshot",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		snap = feature.Empty()
	}

	weights := componentWeights(snap)
	vector := e.vectorize(snap, weights)

	e.mu.Lock()
	e.versions[userID]++
	version := e.versions[userID]
	e.mu.Unlock()

	emb := UserEmbedding{
		UserID:           userID,
		Vector:           vector,
		GeneratedAt:      start,
		Version:          version,
		Confidence:       snap.Completeness(),
		ComponentWeights: weights,
	}
	if err := e.store.Put(emb); err != nil {
		e.logger.Warn("failed to cache embedding", zap.String("user_id", userID), zap.Error(err))
	}

	e.metrics.RecordGeneration(ctx, time.Since(start), emb.Confidence)
	if e.bus != nil {
		e.bus.Emit(events.EmbeddingGenerated, map[string]any{
			"user_id":    userID,
			"version":    version,
			"confidence": emb.Confidence,
			"latency_ms": float64(time.Since(start).Microseconds()) / 1000,
		})
	}
	return emb, nil
}

// vectorize builds the weighted, normalized embedding vector for a
// snapshot.
func (e *Engine) vectorize(snap feature.Snapshot, weights map[Component]float64) []float64 {
	vector := make([]float64, 0, e.config.Dim)
	for _, c := range Components {
		values, presence := componentValues(c, snap)
		sub := fitSlots(values, e.slots[c])
		if !hasAnySignal(presence) {
			// No observed signal in this family: zero sub-vector so
			// defaults do not masquerade as behavior.
			sub = make([]float64, e.slots[c])
		}
		w := weights[c]
		for i := range sub {
			sub[i] *= w
		}
		vector = append(vector, sub...)
	}
	return numeric.Normalize(vector)
}

// Project embeds an arbitrary snapshot into the same vector space
// without touching the cache or version counters. The decision layer
// uses it to place option profiles alongside user embeddings.
func (e *Engine) Project(snap feature.Snapshot) []float64 {
	return e.vectorize(snap, componentWeights(snap))
}

// GetOrGenerate returns the cached embedding unless it exceeds the
// configured staleness threshold.
func (e *Engine) GetOrGenerate(ctx context.Context, userID string) (UserEmbedding, error) {
	if cached, ok := e.store.Get(userID); ok {
		maxAge := e.config.Staleness.maxAge()
		if maxAge > 0 && time.Since(cached.GeneratedAt) <= maxAge {
			return cached, nil
		}
	}
	return e.Generate(ctx, userID)
}

// Invalidate drops the user's cached embedding.
func (e *Engine) Invalidate(userID string) {
	e.store.Delete(userID)
}

// CachedCount returns the number of cached embeddings.
func (e *Engine) CachedCount() int {
	return e.store.Len()
}

// FindSimilarUsers returns up to topK cached users whose embeddings
// have cosine similarity to the target of at least minSimilarity,
// sorted descending, each annotated with shared-trait labels.
func (e *Engine) FindSimilarUsers(ctx context.Context, userID string, topK int, minSimilarity float64) ([]SimilarUser, error) {
	target, err := e.GetOrGenerate(ctx, userID)
	if err != nil {
		return nil, err
	}

	similar := make([]SimilarUser, 0, topK)
	for _, other := range e.store.All() {
		if other.UserID == userID {
			continue
		}
		sim := numeric.CosineSimilarity(target.Vector, other.Vector)
		if sim < minSimilarity {
			continue
		}
		similar = append(similar, SimilarUser{
			UserID:       other.UserID,
			Similarity:   sim,
			SharedTraits: sharedTraits(target.ComponentWeights, other.ComponentWeights),
		})
	}

	sort.SliceStable(similar, func(i, j int) bool {
		return similar[i].Similarity > similar[j].Similarity
	})
	if topK > 0 && len(similar) > topK {
		similar = similar[:topK]
	}
	return similar, nil
}

// sharedTraits tags families whose weights are within 0.1 of each
// other in both profiles.
func sharedTraits(a, b map[Component]float64) []string {
	traits := make([]string, 0, len(Components))
	for _, c := range Components {
		if math.Abs(a[c]-b[c]) <= 0.1 {
			traits = append(traits, string(c)+"_aligned")
		}
	}
	return traits
}
