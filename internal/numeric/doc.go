// Package numeric provides the shared math used by the bandit and
// embedding layers: vector operations, scaling helpers, and seedable
// statistical sampling (Gamma/Beta) for Thompson-style selection.
//
// All stochastic code in decisiond draws from an injected Source so
// tests can pin a seed and assert deterministic outcomes.
package numeric
