// Package engine generates publications and subscriptions from a compiled rule set.
//
// A run has two phases separated by a merge barrier:
//
//  1. Publication phase: the requested count is split into near-equal chunks, each
//     chunk is generated by its own worker with its own random stream, and every
//     worker returns its records plus a partial frequency index.
//  2. Subscription phase: the partial indices are merged into one, every worker gets
//     its own clone of the merged index, and subscriptions are drawn so that the
//     configured field quotas are met and city predicates follow the observed
//     city frequencies.
//
// Results are concatenated in chunk order, so a run is a pure function of the
// rules, cities, counts, worker count, seed and clock. With one worker the output
// equals a direct call to Publications followed by Subscriptions.
//
// City decrements are local to a subscription chunk. With several workers two
// chunks may both consume the same city occurrence.
package engine
