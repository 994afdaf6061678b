// Package highorder synthesizes third-order (C3) correlation functions
// from pairs of first-order correlations that share exactly one station,
// the virtual source.
//
// For every candidate pair-of-pairs the [Driver] walks a fixed decision
// sequence: the two pairs must share exactly one station, the two remaining
// receivers must classify as a cross-station pair, and both the virtual
// source and the receiver pair must be on their allow-lists. Surviving
// candidates are processed by loading each first-order correlation, folding
// its lag axis to a consistent source-to-receiver convention, splitting it
// into negative- and positive-lag windows, and correlating the matching
// windows of the two pairs.
//
// Partitioned window transforms are cached per (virtual source, receiver)
// key and evicted once a pair's row of candidates is exhausted, mirroring
// the bounded-memory discipline of the first-order driver.
package highorder
