package embedding

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/decisiond/internal/events"
	"github.com/fyrsmithlabs/decisiond/internal/numeric"
)

// ClusterUsers partitions all cached embeddings into k clusters with
// k-means (random initialization without replacement, Euclidean
// distance, centroid recompute each round, iteration cap).
//
// Fewer cached users than requested clusters is a data-quality
// condition, not an error: the result is empty and a warning is
// logged. Each call is a full recompute; the previous clustering is
// replaced wholesale.
func (e *Engine) ClusterUsers(ctx context.Context, k int) ([]UserCluster, error) {
	start := time.Now()

	all := e.store.All()
	if k <= 0 || len(all) < k {
		e.logger.Warn("not enough users to cluster",
			zap.Int("users", len(all)),
			zap.Int("k", k),
		)
		return []UserCluster{}, nil
	}

	// Stable input order regardless of store iteration.
	sort.Slice(all, func(i, j int) bool { return all[i].UserID < all[j].UserID })

	vectors := make([][]float64, len(all))
	for i, emb := range all {
		vectors[i] = emb.Vector
	}

	// Initialize centroids from k distinct members.
	perm := e.src.Perm(len(all))
	centroids := make([][]float64, k)
	for i := 0; i < k; i++ {
		centroids[i] = append([]float64(nil), vectors[perm[i]]...)
	}

	assignments := make([]int, len(all))
	iterations := 0
	for ; iterations < e.config.KMeansMaxIterations; iterations++ {
		changed := false
		for i, v := range vectors {
			best := 0
			bestDist := math.Inf(1)
			for c, centroid := range centroids {
				if d := numeric.EuclideanDistance(v, centroid); d < bestDist {
					bestDist = d
					best = c
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if !changed && iterations > 0 {
			break
		}

		// Recompute centroids as member means. An emptied cluster
		// keeps its previous centroid.
		counts := make([]int, k)
		sums := make([][]float64, k)
		for c := range sums {
			sums[c] = make([]float64, e.config.Dim)
		}
		for i, v := range vectors {
			c := assignments[i]
			counts[c]++
			for d := range v {
				sums[c][d] += v[d]
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			for d := range centroids[c] {
				centroids[c][d] = sums[c][d] / float64(counts[c])
			}
		}
	}

	clusters := make([]UserCluster, k)
	for c := range clusters {
		clusters[c] = UserCluster{
			ID:       c,
			Centroid: centroids[c],
			Members:  []string{},
		}
	}
	for i, emb := range all {
		c := assignments[i]
		clusters[c].Members = append(clusters[c].Members, emb.UserID)
	}
	for c := range clusters {
		clusters[c].Size = len(clusters[c].Members)
		clusters[c].Traits = e.clusterTraits(all, assignments, c)
	}

	// Swap in the new clustering atomically; readers see old or new,
	// never partial.
	e.mu.Lock()
	e.clusters = clusters
	e.mu.Unlock()

	e.metrics.RecordClustering(ctx, k, len(all), iterations, time.Since(start))
	if e.bus != nil {
		e.bus.Emit(events.ClusteringCompleted, map[string]any{
			"k":          k,
			"users":      len(all),
			"iterations": iterations,
			"latency_ms": float64(time.Since(start).Microseconds()) / 1000,
		})
	}
	return clusters, nil
}

// Clusters returns the most recent clustering, or nil before the first
// ClusterUsers call.
func (e *Engine) Clusters() []UserCluster {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clusters
}

// clusterTraits labels a cluster from member-averaged component
// weights, thresholded by config.
func (e *Engine) clusterTraits(all []UserEmbedding, assignments []int, cluster int) []string {
	sums := make(map[Component]float64, len(Components))
	n := 0
	for i, emb := range all {
		if assignments[i] != cluster {
			continue
		}
		n++
		for _, c := range Components {
			sums[c] += emb.ComponentWeights[c]
		}
	}
	if n == 0 {
		return []string{}
	}

	traits := make([]string, 0, len(Components))
	for _, c := range Components {
		if sums[c]/float64(n) >= e.config.TraitThreshold {
			traits = append(traits, string(c)+"_driven")
		}
	}
	return traits
}
