package embedding

import "time"

// Component names the five embedding sub-vector families.
type Component string

const (
	Behavior   Component = "behavior"
	Preference Component = "preference"
	Engagement Component = "engagement"
	Social     Component = "social"
	Temporal   Component = "temporal"
)

// Components lists the families in their slice-allotment order.
var Components = []Component{Behavior, Preference, Engagement, Social, Temporal}

// UserEmbedding is a user's vector representation at a point in time.
type UserEmbedding struct {
	// UserID identifies the user.
	UserID string

	// Vector is the fixed-length, L2-normalized embedding. A user with
	// no signal at all keeps the zero vector.
	Vector []float64

	// GeneratedAt is the generation time, driving staleness checks.
	GeneratedAt time.Time

	// Version increases monotonically per user; superseded versions
	// are discarded, not retained.
	Version int

	// Confidence is the fraction of source signals that were present,
	// in [0,1].
	Confidence float64

	// ComponentWeights are the five family weights, normalized to sum
	// to 1.
	ComponentWeights map[Component]float64
}

// SimilarUser is one entry of a similarity search result.
type SimilarUser struct {
	UserID     string
	Similarity float64

	// SharedTraits are coarse labels for component-weight profiles the
	// two users have in common.
	SharedTraits []string
}

// UserCluster is one k-means cluster over the cached embeddings.
type UserCluster struct {
	// ID is the cluster index, 0-based.
	ID int

	// Centroid is the cluster center in embedding space.
	Centroid []float64

	// Members lists the user ids assigned to this cluster.
	Members []string

	// Traits are inferred labels from member-averaged component
	// weights.
	Traits []string

	// Size is len(Members).
	Size int
}
