package spectral

import (
	"errors"
	"fmt"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-seis/seis/geo"
	"github.com/cwbudde/algo-seis/seis/trace"
)

// Errors returned by spectrum construction.
var (
	ErrShortRecord   = errors.New("spectral: record shorter than one correlation window")
	ErrInvalidWindow = errors.New("spectral: correlation window and step must be positive")
	ErrInvalidBand   = errors.New("spectral: frequency band must satisfy 0 <= min < max")
)

// whitenEps regularizes the amplitude division during whitening.
const whitenEps = 1e-12

// Band is a frequency band in Hz.
type Band struct {
	Min float64
	Max float64
}

// Config holds the parameters of the forward transform.
type Config struct {
	// Band is the frequency band of interest. Whitening is confined to it.
	Band Band

	// CorrWindow is the correlation window length in seconds.
	CorrWindow float64

	// CorrStep is the window advance in seconds.
	CorrStep float64

	// Whiten enables spectral amplitude normalization inside Band.
	Whiten bool

	// TimeNorm selects the time-domain amplitude normalization.
	TimeNorm trace.NormMode

	// TaperWidth is the cosine taper fraction applied to each window.
	TaperWidth float64
}

// Spectrum is one station's frequency-domain record: the spectra of its
// correlation windows plus the parameters they were computed with.
type Spectrum struct {
	Station    string
	SampleRate float64

	// WindowLen is the correlation window length in samples.
	WindowLen int

	// FFTSize is the transform size; at least twice WindowLen so linear
	// correlation does not wrap.
	FFTSize int

	// Windows holds one spectrum of length FFTSize per correlation window.
	Windows [][]complex128

	Band     Band
	Whitened bool
	TimeNorm trace.NormMode

	// Loc is the station location, carried into correlation metadata.
	Loc geo.Point
}

// Forward cuts tr into correlation windows, prepares each window in the
// time domain, and transforms it. The caller is expected to have run the
// quality gate first.
func Forward(tr *trace.Trace, cfg Config) (*Spectrum, error) {
	if cfg.CorrWindow <= 0 || cfg.CorrStep <= 0 {
		return nil, ErrInvalidWindow
	}
	if cfg.Band.Min < 0 || cfg.Band.Min >= cfg.Band.Max {
		return nil, ErrInvalidBand
	}

	winLen := int(cfg.CorrWindow * tr.SampleRate)
	step := int(cfg.CorrStep * tr.SampleRate)
	if winLen <= 0 || step <= 0 {
		return nil, ErrInvalidWindow
	}
	if len(tr.Data) < winLen {
		return nil, fmt.Errorf("%w: %d samples, window %d", ErrShortRecord, len(tr.Data), winLen)
	}

	fftSize := nextPowerOf2(2 * winLen)
	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("spectral: failed to create FFT plan: %w", err)
	}

	s := &Spectrum{
		Station:    tr.Station,
		SampleRate: tr.SampleRate,
		WindowLen:  winLen,
		FFTSize:    fftSize,
		Band:       cfg.Band,
		Whitened:   cfg.Whiten,
		TimeNorm:   cfg.TimeNorm,
		Loc:        tr.Loc,
	}

	buf := make([]float64, winLen)
	padded := make([]complex128, fftSize)

	for start := 0; start+winLen <= len(tr.Data); start += step {
		copy(buf, tr.Data[start:start+winLen])

		trace.Detrend(buf)
		if cfg.TaperWidth > 0 {
			if err := trace.Taper(buf, cfg.TaperWidth); err != nil {
				return nil, err
			}
		}
		if err := trace.Normalize(buf, cfg.TimeNorm); err != nil {
			return nil, err
		}

		for i := range padded {
			padded[i] = 0
		}
		for i, v := range buf {
			padded[i] = complex(v, 0)
		}

		freq := make([]complex128, fftSize)
		if err := plan.Forward(freq, padded); err != nil {
			return nil, fmt.Errorf("spectral: forward FFT failed: %w", err)
		}

		if cfg.Whiten {
			whiten(freq, cfg.Band, tr.SampleRate)
		}

		s.Windows = append(s.Windows, freq)
	}

	return s, nil
}

// whiten flattens the spectral amplitude inside band and zeroes everything
// outside it, preserving conjugate symmetry so the inverse transform stays
// real.
func whiten(freq []complex128, band Band, sampleRate float64) {
	size := len(freq)
	half := size / 2
	binHz := sampleRate / float64(size)

	re := make([]float64, half+1)
	im := make([]float64, half+1)
	for k := 0; k <= half; k++ {
		re[k] = real(freq[k])
		im[k] = imag(freq[k])
	}
	mag := make([]float64, half+1)
	vecmath.Magnitude(mag, re, im)

	for k := 0; k <= half; k++ {
		f := float64(k) * binHz
		if f < band.Min || f > band.Max {
			freq[k] = 0
			continue
		}
		freq[k] /= complex(mag[k]+whitenEps, 0)
	}

	// Mirror into the negative-frequency half.
	for k := 1; k < half; k++ {
		c := freq[k]
		freq[size-k] = complex(real(c), -imag(c))
	}
}

// FromSamples builds a single-window Spectrum from an arbitrary sample
// slice, bypassing the window cutting and time-domain preparation of
// [Forward]. It transforms the pseudo-raw lag windows of high-order
// correlation.
func FromSamples(stn string, loc geo.Point, sampleRate float64, data []float64) (*Spectrum, error) {
	if len(data) == 0 {
		return nil, ErrShortRecord
	}

	fftSize := nextPowerOf2(2 * len(data))
	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("spectral: failed to create FFT plan: %w", err)
	}

	padded := make([]complex128, fftSize)
	for i, v := range data {
		padded[i] = complex(v, 0)
	}

	freq := make([]complex128, fftSize)
	if err := plan.Forward(freq, padded); err != nil {
		return nil, fmt.Errorf("spectral: forward FFT failed: %w", err)
	}

	return &Spectrum{
		Station:    stn,
		SampleRate: sampleRate,
		WindowLen:  len(data),
		FFTSize:    fftSize,
		Windows:    [][]complex128{freq},
		Loc:        loc,
	}, nil
}

// clone deep-copies the spectrum so a strategy pre-transform never touches
// the cached instance.
func (s *Spectrum) clone() *Spectrum {
	dup := *s
	dup.Windows = make([][]complex128, len(s.Windows))
	for i, w := range s.Windows {
		dup.Windows[i] = append([]complex128(nil), w...)
	}
	return &dup
}

// nextPowerOf2 returns the smallest power of two >= n.
func nextPowerOf2(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}
