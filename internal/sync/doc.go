// Package sync implements the orchestrating engine over the symbol
// universe, the two exchange clients, and the classification store.
//
// A run is a fixed sequence of named passes. Each pass enumerates one
// symbol list and walks the shared per-candidate loop: symbols already
// populated in the store are skipped, so the first pass to write a symbol
// wins and re-running against a partially completed store is safe. The
// loop checkpoints the store every 50 processed symbols, bounding loss on
// abrupt termination.
//
// Processing is intentionally sequential with a pacing delay before each
// network call: both upstreams are rate-limit-sensitive scraped endpoints,
// and a single slow predictable request stream is the backpressure
// mechanism.
package sync
