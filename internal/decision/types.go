package decision

import "time"

// Option is one candidate the engine can recommend: a content item, a
// coaching style, a message variant, or a delivery slot.
type Option struct {
	// ID uniquely identifies the option within its decision type.
	ID string

	// Features are named numeric attributes in [0,1] scale, compared
	// against the user's signals. The reserved name "preferred_hour"
	// (in hours, 0-23) feeds the context-match term.
	Features map[string]float64

	// Metadata carries opaque caller data.
	Metadata map[string]string
}

// Constraints narrow the candidate set before ranking.
type Constraints struct {
	// MaxResults caps the recommendation list, keeping the
	// highest-scoring subset. Zero means no cap.
	MaxResults int

	// ExcludeIDs removes specific options before scoring.
	ExcludeIDs []string

	// MinScore drops recommendations scoring below the floor.
	MinScore float64

	// RequiredFeatures drops options missing any of these feature
	// names.
	RequiredFeatures []string
}

// Request is one personalization decision request.
type Request struct {
	// UserID identifies the user being personalized for.
	UserID string

	// Type tags the decision category (e.g. "content", "style",
	// "timing"). Bandit state is segregated per type.
	Type string

	// Context holds situational numeric features for this request.
	Context map[string]float64

	// Options are the candidates to rank.
	Options []Option

	// Constraints optionally narrow and cap the result.
	Constraints Constraints

	// SessionID optionally correlates decisions within a session.
	SessionID string
}

// Factor itemizes one scoring component's contribution.
type Factor struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Weight float64 `json:"weight"`
}

// Recommendation is one ranked option.
type Recommendation struct {
	OptionID string `json:"option_id"`

	// Score is the blended score in [0,1].
	Score float64 `json:"score"`

	// Rank is 1-based position in the result.
	Rank int `json:"rank"`

	// Reasoning is a one-line human-readable explanation built from
	// the dominant factor.
	Reasoning string `json:"reasoning"`

	// Factors itemizes the scoring components.
	Factors []Factor `json:"factors"`
}

// Result is the engine's response to one Request.
type Result struct {
	// RequestID is generated per decision and echoed in outcome
	// reports.
	RequestID string `json:"request_id"`

	// UserID echoes the request.
	UserID string `json:"user_id"`

	// Type echoes the request.
	Type string `json:"type"`

	// Recommendations are ranked best-first.
	Recommendations []Recommendation `json:"recommendations"`

	// Confidence is the engine's overall confidence in [0,1], blending
	// feature completeness, embedding confidence, and ranking spread.
	Confidence float64 `json:"confidence"`

	// Strategy labels how the decision was produced: bandit_blend,
	// feature_only, or cold_start.
	Strategy string `json:"strategy"`

	// Cached is true when served from the decision cache.
	Cached bool `json:"cached"`

	// At is the decision time.
	At time.Time `json:"at"`

	// Latency is the end-to-end computation time.
	Latency time.Duration `json:"latency"`
}

// Strategy labels.
const (
	StrategyBanditBlend = "bandit_blend"
	StrategyFeatureOnly = "feature_only"
	StrategyColdStart   = "cold_start"
)

// coldStartCompleteness is the signal completeness below which a
// decision is labeled cold_start.
const coldStartCompleteness = 0.2
