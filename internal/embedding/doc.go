// Package embedding builds fixed-length, unit-normalized user vectors
// from behavioral signals and provides similarity search and k-means
// clustering over the cached vector set.
//
// A user embedding is the weighted concatenation of five component
// sub-vectors (behavior, preference, engagement, social, temporal),
// each a deterministic transform of particular signals. Component
// weights are dynamic: families with more observed signal earn
// proportionally more trust. Missing signals degrade confidence, never
// fail generation.
package embedding
