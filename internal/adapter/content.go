package adapter

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/decisiond/internal/decision"
	"github.com/fyrsmithlabs/decisiond/internal/numeric"
)

// ContentAdapter selects a content item through the decision engine
// and renders it in the user's selected coaching style.
type ContentAdapter struct {
	engine *decision.Engine
	styles *StyleAdapter
	logger *zap.Logger

	mu    sync.RWMutex
	items map[string]ContentItem
}

// AdaptedContent is the adapter's output: a ranked pick already
// rendered in the selected style.
type AdaptedContent struct {
	Item      ContentItem
	Style     StyleProfile
	Rendered  string
	RequestID string
	Score     float64
}

// NewContentAdapter creates a ContentAdapter.
func NewContentAdapter(engine *decision.Engine, styles *StyleAdapter, logger *zap.Logger) (*ContentAdapter, error) {
	if engine == nil {
		return nil, fmt.Errorf("decision engine is required")
	}
	if styles == nil {
		return nil, fmt.Errorf("style adapter is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentAdapter{
		engine: engine,
		styles: styles,
		logger: logger,
		items:  make(map[string]ContentItem),
	}, nil
}

// RegisterContent adds or replaces a selectable content item.
func (a *ContentAdapter) RegisterContent(item ContentItem) error {
	if item.ID == "" {
		return fmt.Errorf("content id required")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items[item.ID] = item
	return nil
}

// RemoveContent deletes a content item. Unknown ids are a no-op.
func (a *ContentAdapter) RemoveContent(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.items, id)
}

// SelectContent picks the best content item for the user, selects
// their coaching style, and returns the item rendered in that style.
func (a *ContentAdapter) SelectContent(ctx context.Context, userID string, sctx map[string]float64, constraints decision.Constraints) (AdaptedContent, error) {
	a.mu.RLock()
	options := make([]decision.Option, 0, len(a.items))
	for _, item := range a.items {
		options = append(options, decision.Option{ID: item.ID, Features: item.Features, Metadata: item.Metadata})
	}
	a.mu.RUnlock()

	if len(options) == 0 {
		return AdaptedContent{}, fmt.Errorf("no content registered")
	}

	result, err := a.engine.Decide(ctx, decision.Request{
		UserID:      userID,
		Type:        "content",
		Context:     sctx,
		Options:     options,
		Constraints: constraints,
	})
	if err != nil {
		return AdaptedContent{}, fmt.Errorf("deciding content: %w", err)
	}
	if len(result.Recommendations) == 0 {
		return AdaptedContent{}, fmt.Errorf("no content passed constraints")
	}

	style, err := a.styles.SelectStyle(ctx, userID, sctx)
	if err != nil {
		return AdaptedContent{}, fmt.Errorf("selecting style: %w", err)
	}

	top := result.Recommendations[0]
	a.mu.RLock()
	item := a.items[top.OptionID]
	a.mu.RUnlock()

	rendered := ApplyStyle(style.Style, RenderTemplate(style.Style, item.Body))
	return AdaptedContent{
		Item:      item,
		Style:     style.Style,
		Rendered:  rendered,
		RequestID: result.RequestID,
		Score:     top.Score,
	}, nil
}

// RecordFeedback reports content effectiveness in [0,1] back to the
// engine's bandit and into the style weights.
func (a *ContentAdapter) RecordFeedback(ctx context.Context, requestID, userID, contentID, styleID string, effectiveness float64) {
	effectiveness = numeric.Clamp01(effectiveness)
	a.engine.ReportOutcome(ctx, requestID, userID, contentID, effectiveness)
	if styleID != "" {
		a.styles.RecordFeedback(ctx, userID, styleID, effectiveness)
	}
}
