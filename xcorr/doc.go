// Package xcorr drives first-order cross-correlation of one timestamp.
//
// The [Driver] enumerates the upper-triangular set of station pairs,
// validates each station's raw record through the quality gate, computes
// each station's frequency-domain record exactly once through an explicit
// per-timestamp cache, correlates every requested pair, and writes results
// plus the timestamp's error list to the output container.
//
// Failure isolation is per station and per pair: a station that fails the
// gate, the read, or the transform is recorded in the error list and never
// revisited within the timestamp; a pair that fails to correlate or write
// is recorded and skipped without affecting its stations. Nothing below the
// timestamp boundary aborts the run.
//
// All state is confined to one Run invocation, so distinct timestamps can
// be processed concurrently without locks.
package xcorr
