package adapter

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/decisiond/internal/decision"
	"github.com/fyrsmithlabs/decisiond/internal/numeric"
)

// EMA blend for per-user style weights: new weight =
// emaKeep*old + emaLearn*feedback.
const (
	emaKeep  = 0.8
	emaLearn = 0.2
)

// Promotion hysteresis: a style becomes primary only when at least
// promoteMin of the last historyDepth adaptation events toward it
// average above promoteThreshold. One lucky interaction cannot flip
// the primary style. A primary whose recent window falls below
// demoteThreshold loses the slot again, so selection goes back through
// the engine; the gap between the two thresholds keeps a borderline
// style from flapping.
const (
	historyDepth     = 5
	promoteMin       = 3
	promoteThreshold = 0.75
	demoteThreshold  = 0.5
)

// StyleAdapter selects a coaching style per user through the decision
// engine and learns per-user style weights from feedback.
type StyleAdapter struct {
	engine *decision.Engine
	styles []StyleProfile
	logger *zap.Logger

	mu    sync.Mutex
	users map[string]*userStyleState
}

type userStyleState struct {
	// weights are per-style EMA weights, seeded at 0.5.
	weights map[string]float64

	// history holds the recent effectiveness values per style, bounded
	// to historyDepth.
	history map[string][]float64

	// primary is the currently promoted style, empty before any
	// promotion.
	primary string

	// lastRequestID routes feedback to the bandit behind the engine.
	lastRequestID string
}

// StyleSelection is the adapter's output for one user interaction.
type StyleSelection struct {
	Style     StyleProfile
	RequestID string
	Score     float64
	Primary   bool
}

// NewStyleAdapter creates a StyleAdapter over the given styles, or the
// builtin set when styles is empty.
func NewStyleAdapter(engine *decision.Engine, styles []StyleProfile, logger *zap.Logger) (*StyleAdapter, error) {
	if engine == nil {
		return nil, fmt.Errorf("decision engine is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(styles) == 0 {
		styles = BuiltinStyles()
	}
	return &StyleAdapter{
		engine: engine,
		styles: styles,
		logger: logger,
		users:  make(map[string]*userStyleState),
	}, nil
}

// SelectStyle picks the style for this user and situation. The
// promoted primary style, when present, short-circuits selection so a
// converged user gets a stable voice.
func (a *StyleAdapter) SelectStyle(ctx context.Context, userID string, sctx map[string]float64) (StyleSelection, error) {
	st := a.stateFor(userID)

	a.mu.Lock()
	primary := st.primary
	weights := make(map[string]float64, len(st.weights))
	for k, v := range st.weights {
		weights[k] = v
	}
	a.mu.Unlock()

	if primary != "" {
		if profile, ok := a.profile(primary); ok {
			return StyleSelection{Style: profile, Score: weights[primary], Primary: true}, nil
		}
	}

	options := make([]decision.Option, len(a.styles))
	for i, s := range a.styles {
		features := make(map[string]float64, len(s.Traits)+1)
		for k, v := range s.Traits {
			features[k] = v
		}
		// The learned per-user weight rides along as a feature so
		// historically effective styles score closer to the user.
		features["style_weight"] = weights[s.ID]
		options[i] = decision.Option{ID: s.ID, Features: features, Metadata: map[string]string{"tone": s.Tone}}
	}

	result, err := a.engine.Decide(ctx, decision.Request{
		UserID:  userID,
		Type:    "style",
		Context: sctx,
		Options: options,
	})
	if err != nil {
		return StyleSelection{}, fmt.Errorf("deciding style: %w", err)
	}
	if len(result.Recommendations) == 0 {
		// Constraint-free style decisions always have candidates; an
		// empty ranking means the engine degraded hard. Fall back to
		// the first configured style.
		a.logger.Warn("style decision returned no ranking, using fallback",
			zap.String("user_id", userID),
		)
		return StyleSelection{Style: a.styles[0], RequestID: result.RequestID}, nil
	}

	top := result.Recommendations[0]
	profile, _ := a.profile(top.OptionID)

	a.mu.Lock()
	st.lastRequestID = result.RequestID
	a.mu.Unlock()

	return StyleSelection{Style: profile, RequestID: result.RequestID, Score: top.Score}, nil
}

// RecordFeedback folds an effectiveness observation in [0,1] into the
// user's style weights, reports it to the engine's bandit, and runs
// the promotion check.
func (a *StyleAdapter) RecordFeedback(ctx context.Context, userID, styleID string, effectiveness float64) {
	effectiveness = numeric.Clamp01(effectiveness)
	st := a.stateFor(userID)

	a.mu.Lock()
	old := st.weights[styleID]
	st.weights[styleID] = emaKeep*old + emaLearn*effectiveness

	hist := append(st.history[styleID], effectiveness)
	if len(hist) > historyDepth {
		hist = hist[len(hist)-historyDepth:]
	}
	st.history[styleID] = hist

	promoted := a.promoteLocked(st, styleID)
	demoted := a.demoteLocked(st, styleID)
	requestID := st.lastRequestID
	a.mu.Unlock()

	if promoted {
		a.logger.Info("style promoted to primary",
			zap.String("user_id", userID),
			zap.String("style", styleID),
		)
	}
	if demoted {
		a.logger.Info("style demoted from primary",
			zap.String("user_id", userID),
			zap.String("style", styleID),
		)
	}

	if requestID != "" {
		a.engine.ReportOutcome(ctx, requestID, userID, styleID, effectiveness)
	}
}

// promoteLocked applies the 3-of-5 hysteresis. Caller holds the mutex.
func (a *StyleAdapter) promoteLocked(st *userStyleState, styleID string) bool {
	hist := st.history[styleID]
	if len(hist) < promoteMin {
		return false
	}
	var sum float64
	for _, v := range hist {
		sum += v
	}
	if sum/float64(len(hist)) > promoteThreshold && st.primary != styleID {
		st.primary = styleID
		return true
	}
	return false
}

// demoteLocked clears the primary slot when its own recent window has
// collapsed. Caller holds the mutex.
func (a *StyleAdapter) demoteLocked(st *userStyleState, styleID string) bool {
	if st.primary != styleID {
		return false
	}
	hist := st.history[styleID]
	if len(hist) < promoteMin {
		return false
	}
	var sum float64
	for _, v := range hist {
		sum += v
	}
	if sum/float64(len(hist)) < demoteThreshold {
		st.primary = ""
		return true
	}
	return false
}

// PrimaryStyle returns the user's promoted style id, or empty.
func (a *StyleAdapter) PrimaryStyle(userID string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if st, ok := a.users[userID]; ok {
		return st.primary
	}
	return ""
}

// Weights returns a copy of the user's current style weights.
func (a *StyleAdapter) Weights(userID string) map[string]float64 {
	st := a.stateFor(userID)
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]float64, len(st.weights))
	for k, v := range st.weights {
		out[k] = v
	}
	return out
}

func (a *StyleAdapter) stateFor(userID string) *userStyleState {
	a.mu.Lock()
	defer a.mu.Unlock()
	st, ok := a.users[userID]
	if !ok {
		st = &userStyleState{
			weights: make(map[string]float64, len(a.styles)),
			history: make(map[string][]float64, len(a.styles)),
		}
		for _, s := range a.styles {
			st.weights[s.ID] = 0.5
		}
		a.users[userID] = st
	}
	return st
}

func (a *StyleAdapter) profile(id string) (StyleProfile, bool) {
	for _, s := range a.styles {
		if s.ID == id {
			return s, true
		}
	}
	return StyleProfile{}, false
}
