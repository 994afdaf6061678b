package spectral

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"
)

// Method selects the correlation strategy.
type Method int

const (
	// MethodXCorr correlates the two spectra directly.
	MethodXCorr Method = iota

	// MethodCoherence divides both spectra by their smoothed amplitude
	// before correlating.
	MethodCoherence

	// MethodDeconv divides the source spectrum by the smoothed squared
	// receiver amplitude before correlating against the unmodified
	// receiver.
	MethodDeconv
)

// String returns the configuration name of the method.
func (m Method) String() string {
	switch m {
	case MethodXCorr:
		return "cross-correlation"
	case MethodCoherence:
		return "coherence"
	case MethodDeconv:
		return "deconv"
	default:
		return "unknown"
	}
}

// ParseMethod maps a configuration name to its Method.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "cross-correlation":
		return MethodXCorr, nil
	case "coherence":
		return MethodCoherence, nil
	case "deconv":
		return MethodDeconv, nil
	default:
		return 0, fmt.Errorf("spectral: unknown correlation method %q", s)
	}
}

// coherenceTransform divides each bin by the smoothed spectral amplitude,
// floored at waterLevel times its mean. Operates in place on a window the
// caller owns.
func coherenceTransform(freq []complex128, halfWin int, waterLevel float64) {
	sm := smoothedAmplitude(freq, halfWin)
	floorDivisor(sm, waterLevel)
	for i := range freq {
		freq[i] /= complex(sm[i], 0)
	}
}

// deconvTransform divides each source bin by the smoothed squared receiver
// amplitude, floored at waterLevel times its mean. Operates in place on a
// source window the caller owns; recv is read-only.
func deconvTransform(src, recv []complex128, halfWin int, waterLevel float64) {
	sm := smoothedAmplitude(recv, halfWin)
	for i := range sm {
		sm[i] *= sm[i]
	}
	floorDivisor(sm, waterLevel)
	for i := range src {
		src[i] /= complex(sm[i], 0)
	}
}

// smoothedAmplitude returns the centered running mean of |freq| with the
// given half window. The window shrinks at the edges.
func smoothedAmplitude(freq []complex128, halfWin int) []float64 {
	n := len(freq)
	re := make([]float64, n)
	im := make([]float64, n)
	for i, c := range freq {
		re[i] = real(c)
		im[i] = imag(c)
	}
	mag := make([]float64, n)
	vecmath.Magnitude(mag, re, im)

	if halfWin <= 0 {
		return mag
	}

	// Prefix sums give O(n) smoothing regardless of window size.
	prefix := make([]float64, n+1)
	for i, v := range mag {
		prefix[i+1] = prefix[i] + v
	}

	sm := make([]float64, n)
	for i := range sm {
		lo := i - halfWin
		if lo < 0 {
			lo = 0
		}
		hi := i + halfWin + 1
		if hi > n {
			hi = n
		}
		sm[i] = (prefix[hi] - prefix[lo]) / float64(hi-lo)
	}
	return sm
}

// floorDivisor clamps sm from below at waterLevel times its mean so near-
// zero bins do not blow up the division.
func floorDivisor(sm []float64, waterLevel float64) {
	var sum float64
	for _, v := range sm {
		sum += v
	}
	floor := waterLevel * sum / float64(len(sm))
	if floor <= 0 {
		floor = whitenEps
	}
	for i, v := range sm {
		if v < floor {
			sm[i] = floor
		}
	}
}
