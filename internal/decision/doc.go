// Package decision orchestrates the personalization pipeline: it
// combines feature similarity, embedding similarity, bandit scores,
// and context match into ranked, explainable recommendations, and
// routes outcome feedback back into the bandit layer.
//
// The engine is stateless per call; the stateful pieces (bandit arm
// statistics, the embedding cache, the short-TTL decision cache) live
// behind it. A failing subsystem never aborts a request: the decision
// degrades to whatever scoring evidence remains, with a lower
// confidence.
package decision
