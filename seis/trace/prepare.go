package trace

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// NormMode selects the time-domain amplitude normalization applied before
// the forward transform.
type NormMode int

const (
	// NormNone leaves amplitudes untouched.
	NormNone NormMode = iota

	// NormOneBit keeps only the sign of each sample.
	NormOneBit

	// NormPhase divides each sample by its Hilbert envelope.
	NormPhase
)

// String returns the configuration name of the mode.
func (m NormMode) String() string {
	switch m {
	case NormNone:
		return "none"
	case NormOneBit:
		return "one-bit"
	case NormPhase:
		return "phase"
	default:
		return "unknown"
	}
}

// ParseNormMode maps a configuration name to its NormMode.
func ParseNormMode(s string) (NormMode, error) {
	switch s {
	case "none":
		return NormNone, nil
	case "one-bit":
		return NormOneBit, nil
	case "phase":
		return NormPhase, nil
	default:
		return 0, fmt.Errorf("trace: unknown normalization mode %q", s)
	}
}

// ErrInvalidTaper is returned when the taper width is outside (0, 0.5].
var ErrInvalidTaper = errors.New("trace: taper width must be in (0, 0.5]")

// Demean removes the arithmetic mean from buf in place.
func Demean(buf []float64) {
	if len(buf) == 0 {
		return
	}
	var sum float64
	for _, v := range buf {
		sum += v
	}
	mean := sum / float64(len(buf))
	for i := range buf {
		buf[i] -= mean
	}
}

// Detrend removes the least-squares linear trend from buf in place.
// The fit uses a centered abscissa so the normal equations stay
// well-conditioned for long records.
func Detrend(buf []float64) {
	n := len(buf)
	if n < 2 {
		Demean(buf)
		return
	}

	// x runs over -(n-1)/2 .. (n-1)/2 so sum(x) == 0 and the slope and
	// intercept decouple.
	mid := float64(n-1) / 2
	var sy, sxy, sxx float64
	for i, v := range buf {
		x := float64(i) - mid
		sy += v
		sxy += x * v
		sxx += x * x
	}

	mean := sy / float64(n)
	slope := 0.0
	if sxx > 0 {
		slope = sxy / sxx
	}

	for i := range buf {
		buf[i] -= mean + slope*(float64(i)-mid)
	}
}

// Taper applies a raised-cosine taper over width*len(buf) samples at each
// end of buf, in place. Width is a fraction of the buffer length in
// (0, 0.5].
func Taper(buf []float64, width float64) error {
	if width <= 0 || width > 0.5 {
		return ErrInvalidTaper
	}

	n := len(buf)
	m := int(width * float64(n))
	if m < 1 {
		return nil
	}

	for i := 0; i < m; i++ {
		w := 0.5 * (1 - math.Cos(math.Pi*float64(i)/float64(m)))
		buf[i] *= w
		buf[n-1-i] *= w
	}
	return nil
}

// Normalize applies the selected time-domain normalization to buf in place.
func Normalize(buf []float64, mode NormMode) error {
	switch mode {
	case NormNone:
		return nil
	case NormOneBit:
		oneBit(buf)
		return nil
	case NormPhase:
		return phaseNorm(buf)
	default:
		return fmt.Errorf("trace: unknown normalization mode %d", int(mode))
	}
}

func oneBit(buf []float64) {
	for i, v := range buf {
		switch {
		case v > 0:
			buf[i] = 1
		case v < 0:
			buf[i] = -1
		default:
			buf[i] = 0
		}
	}
}

// phaseNorm divides each sample by its Hilbert envelope, flattening the
// amplitude while keeping the instantaneous phase.
func phaseNorm(buf []float64) error {
	env, err := Envelope(buf)
	if err != nil {
		return err
	}

	for i := range buf {
		if env[i] > 0 {
			buf[i] /= env[i]
		}
	}
	return nil
}

// Envelope returns the Hilbert envelope of buf, computed by zeroing the
// negative-frequency half of the spectrum and doubling the positive half.
func Envelope(buf []float64) ([]float64, error) {
	n := len(buf)
	if n == 0 {
		return nil, ErrEmptyTrace
	}

	size := nextPowerOf2(n)
	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("trace: failed to create FFT plan: %w", err)
	}

	padded := make([]complex128, size)
	for i, v := range buf {
		padded[i] = complex(v, 0)
	}

	freq := make([]complex128, size)
	if err := plan.Forward(freq, padded); err != nil {
		return nil, fmt.Errorf("trace: forward FFT failed: %w", err)
	}

	// Analytic signal: keep DC and Nyquist, double positive frequencies,
	// zero negative frequencies.
	half := size / 2
	for i := 1; i < half; i++ {
		freq[i] *= 2
	}
	for i := half + 1; i < size; i++ {
		freq[i] = 0
	}

	analytic := make([]complex128, size)
	if err := plan.Inverse(analytic, freq); err != nil {
		return nil, fmt.Errorf("trace: inverse FFT failed: %w", err)
	}

	re := make([]float64, n)
	im := make([]float64, n)
	for i := 0; i < n; i++ {
		re[i] = real(analytic[i])
		im[i] = imag(analytic[i])
	}

	env := make([]float64, n)
	vecmath.Magnitude(env, re, im)
	return env, nil
}

// nextPowerOf2 returns the smallest power of two >= n.
func nextPowerOf2(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}
