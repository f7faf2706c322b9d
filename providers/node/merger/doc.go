// Package merger implements the "merger" node, which accumulates every input
// it receives during a run and emits a running snapshot of everything seen so
// far, either as a list (array strategy) or as a map keyed by a field of the
// inputs (object strategy).
package merger
