// Package decisiond is the public facade over the personalization
// decision core: it wires the feature provider, embedding engine,
// decision engine, and adapters into one Core with a single
// constructor, and re-exports the request/response types callers need.
//
// The Core owns no goroutines and no hidden globals; it is created
// once at process start and torn down at shutdown.
package decisiond

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/decisiond/internal/adapter"
	"github.com/fyrsmithlabs/decisiond/internal/bandit"
	"github.com/fyrsmithlabs/decisiond/internal/decision"
	"github.com/fyrsmithlabs/decisiond/internal/embedding"
	"github.com/fyrsmithlabs/decisiond/internal/events"
	"github.com/fyrsmithlabs/decisiond/internal/feature"
	"github.com/fyrsmithlabs/decisiond/internal/numeric"
)

// Re-exported request/response types.
type (
	Request         = decision.Request
	Result          = decision.Result
	Option          = decision.Option
	Constraints     = decision.Constraints
	Recommendation  = decision.Recommendation
	Factor          = decision.Factor
	UserEmbedding   = embedding.UserEmbedding
	UserCluster     = embedding.UserCluster
	SimilarUser     = embedding.SimilarUser
	StyleProfile    = adapter.StyleProfile
	StyleSelection  = adapter.StyleSelection
	ContentItem     = adapter.ContentItem
	AdaptedContent  = adapter.AdaptedContent
	FeatureSnapshot = feature.Snapshot
	Event           = events.Event
	EventType       = events.Type
)

// Config assembles the per-subsystem configurations.
type Config struct {
	Bandit    bandit.Config
	Embedding embedding.Config
	Decision  decision.Config

	// Seed pins the random source when non-zero, for reproducible
	// runs. Zero seeds from the wall clock.
	Seed int64
}

// Core bundles the wired decision subsystem.
type Core struct {
	Features   feature.Provider
	Embeddings *embedding.Engine
	Engine     *decision.Engine
	Styles     *adapter.StyleAdapter
	Content    *adapter.ContentAdapter
	Bus        *events.Bus
}

// CoreOption configures New.
type CoreOption func(*coreOptions)

type coreOptions struct {
	logger *zap.Logger
	store  embedding.Store
}

// WithLogger sets the logger shared by every subsystem.
func WithLogger(logger *zap.Logger) CoreOption {
	return func(o *coreOptions) { o.logger = logger }
}

// WithEmbeddingStore overrides the embedding store (for persistence).
func WithEmbeddingStore(store embedding.Store) CoreOption {
	return func(o *coreOptions) { o.store = store }
}

// New wires a complete Core over the given feature provider.
func New(cfg Config, provider feature.Provider, opts ...CoreOption) (*Core, error) {
	var o coreOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	src := numeric.NewTimeSource()
	if cfg.Seed != 0 {
		src = numeric.NewSource(cfg.Seed)
	}

	bus := events.NewBus()

	embOpts := []embedding.Option{
		embedding.WithLogger(o.logger.Named("embedding")),
		embedding.WithBus(bus),
		embedding.WithSource(src),
	}
	if o.store != nil {
		embOpts = append(embOpts, embedding.WithStore(o.store))
	}
	embeddings, err := embedding.NewEngine(cfg.Embedding, provider, embOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating embedding engine: %w", err)
	}

	cfg.Decision.Bandit = cfg.Bandit
	engine, err := decision.NewEngine(cfg.Decision, provider, embeddings,
		decision.WithLogger(o.logger.Named("decision")),
		decision.WithBus(bus),
		decision.WithSource(src),
	)
	if err != nil {
		return nil, fmt.Errorf("creating decision engine: %w", err)
	}

	styles, err := adapter.NewStyleAdapter(engine, nil, o.logger.Named("style"))
	if err != nil {
		return nil, fmt.Errorf("creating style adapter: %w", err)
	}
	content, err := adapter.NewContentAdapter(engine, styles, o.logger.Named("content"))
	if err != nil {
		return nil, fmt.Errorf("creating content adapter: %w", err)
	}

	return &Core{
		Features:   provider,
		Embeddings: embeddings,
		Engine:     engine,
		Styles:     styles,
		Content:    content,
		Bus:        bus,
	}, nil
}

// Decide runs one personalization decision.
func (c *Core) Decide(ctx context.Context, req Request) (Result, error) {
	return c.Engine.Decide(ctx, req)
}

// ReportOutcome feeds an observed reward back into the core.
func (c *Core) ReportOutcome(ctx context.Context, requestID, userID, optionID string, reward float64) {
	c.Engine.ReportOutcome(ctx, requestID, userID, optionID, reward)
}
