// Package spectral implements the frequency-domain side of the correlation
// pipeline: windowed forward transforms of prepared traces, spectral
// whitening, the three correlation strategies, and stacking.
//
// # Records
//
// [Forward] cuts a validated trace into overlapping correlation windows,
// prepares each window in the time domain (detrend, taper, amplitude
// normalization), and transforms it, producing a [Spectrum] — the matrix of
// window spectra plus the parameters they were computed with. A Spectrum is
// computed once per station and reused across every pair that station
// appears in; the correlation strategies therefore never modify their
// inputs.
//
// # Strategies
//
// [Correlate] combines two records into a [Correlation] using one of three
// methods:
//
//   - [MethodXCorr]: plain cross-spectral product.
//   - [MethodCoherence]: both spectra are divided by their smoothed
//     amplitude before the product, equalizing all frequencies.
//   - [MethodDeconv]: the source spectrum is divided by the smoothed
//     squared receiver amplitude, deconvolving the receiver response.
//
// The smoothing half-window and the water level that floors the divisor are
// part of [CorrConfig].
//
// # Stacking
//
// [Stack] collapses the window dimension of a Correlation to a single
// trace, either by arithmetic mean or by per-lag median. Stacking an
// already single-window correlation with the mean rule is a no-op.
package spectral
