// Package index provides the per-field value frequency index built while
// publications are generated and consumed while subscriptions are generated.
//
// Ownership rules:
//   - a publication worker owns the partial index it builds
//   - Merge produces a new index and never mutates its inputs
//   - each subscription worker owns a Clone of the merged index; Take decrements
//     counts on that clone only
//
// Values are kept in first-seen order so that "most frequent, ties broken by
// encounter order" is deterministic.
package index
