// Package feature defines the closed behavioral-signal schema consumed
// by the embedding and decision layers, and the Provider port that
// supplies it.
//
// The schema is a typed record rather than an open string-keyed map so
// that a misspelled signal name is a compile error, not a silently
// missing feature. Missing values are explicit: every Signal carries a
// Missing flag and callers substitute documented defaults.
package feature
