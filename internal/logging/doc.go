// Package logging wraps Zap with decisiond's logging conventions:
// structured JSON by default, context-aware correlation fields, and a
// trace level below debug for per-selection verbosity.
package logging
