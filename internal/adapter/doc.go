// Package adapter holds the downstream consumers of the decision
// engine: the style adapter, which picks a coaching style and tracks
// per-user style weights, and the content adapter, which picks a
// content item and applies the selected style's deterministic text
// transformations.
package adapter
