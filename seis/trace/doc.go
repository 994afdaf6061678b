// Package trace holds raw channel records and the time-domain preparation
// stages that run before a record enters the frequency domain.
//
// A [Trace] is one station's samples for one processing unit (typically one
// day or one hour), together with its sampling rate, a validity table of
// contiguous sample spans, and quality flags set by the downloader.
//
// # Quality gate
//
// [Check] validates a record against the expected sample count before any
// transform touches it. Over-long records are truncated in place (a repair,
// not a failure); records with a download-error flag, a majority of
// exactly-zero samples, or more than one contiguous valid span are rejected
// with a reason-carrying error:
//
//	if err := trace.Check(tr, expected); err != nil {
//		// station is dropped for the rest of the unit
//	}
//
// # Preparation
//
// [Demean], [Detrend], and [Taper] operate in place on a sample window.
// [Normalize] applies the configured time-domain amplitude normalization:
// one-bit keeps only the sign of each sample, phase divides each sample by
// its Hilbert envelope so all samples carry equal weight while phase
// information is preserved.
package trace
