package spectral

import (
	"errors"
	"fmt"

	algofft "github.com/cwbudde/algo-fft"

	"github.com/cwbudde/algo-seis/seis/geo"
	"github.com/cwbudde/algo-seis/seis/station"
)

// Errors returned by correlation.
var (
	ErrNoOverlap    = errors.New("spectral: no overlapping correlation windows")
	ErrSizeMismatch = errors.New("spectral: FFT size mismatch between records")
	ErrInvalidLag   = errors.New("spectral: maximum lag out of range")
)

// CorrConfig holds the parameters of one correlation.
type CorrConfig struct {
	// Method selects the correlation strategy.
	Method Method

	// MaxLag bounds the output to ±MaxLag seconds around zero lag.
	MaxLag float64

	// SmoothHalfWin is the half window, in bins, of the amplitude
	// smoothing used by coherence and deconvolution.
	SmoothHalfWin int

	// WaterLevel floors the smoothed divisor at this fraction of its
	// mean.
	WaterLevel float64
}

// Correlation is the result of correlating two frequency-domain records.
type Correlation struct {
	// Pair is the conventional name stn1.stn2 (source first).
	Pair string

	SampleRate float64

	// MaxLag is the lag bound in seconds; each data row spans
	// [-MaxLag, +MaxLag].
	MaxLag float64

	// Data holds one row per correlation window, each of odd length with
	// zero lag at the center sample. Stacking collapses it to one row.
	Data [][]float64

	// Dist is the inter-station distance in kilometers.
	Dist float64

	// Locs maps each station identifier to its location.
	Locs map[string]geo.Point
}

// Correlate combines src and rcv into a Correlation using cfg.Method. The
// method pre-transforms operate on private copies; the inputs are never
// modified, so cached records can serve many pairs.
func Correlate(src, rcv *Spectrum, cfg CorrConfig) (*Correlation, error) {
	if src.FFTSize != rcv.FFTSize {
		return nil, fmt.Errorf("%w: %d vs %d", ErrSizeMismatch, src.FFTSize, rcv.FFTSize)
	}

	nw := len(src.Windows)
	if len(rcv.Windows) < nw {
		nw = len(rcv.Windows)
	}
	if nw == 0 {
		return nil, fmt.Errorf("%w: %s vs %s", ErrNoOverlap, src.Station, rcv.Station)
	}

	lagSamples := int(cfg.MaxLag * src.SampleRate)
	if lagSamples <= 0 || 2*lagSamples+1 > src.FFTSize {
		return nil, fmt.Errorf("%w: %v s at %v Hz", ErrInvalidLag, cfg.MaxLag, src.SampleRate)
	}

	s, r := src, rcv
	switch cfg.Method {
	case MethodXCorr:
		// Direct product, no pre-transform.
	case MethodCoherence:
		s = src.clone()
		r = rcv.clone()
		for _, w := range s.Windows {
			coherenceTransform(w, cfg.SmoothHalfWin, cfg.WaterLevel)
		}
		for _, w := range r.Windows {
			coherenceTransform(w, cfg.SmoothHalfWin, cfg.WaterLevel)
		}
	case MethodDeconv:
		s = src.clone()
		for i, w := range s.Windows {
			if i >= len(r.Windows) {
				break
			}
			deconvTransform(w, r.Windows[i], cfg.SmoothHalfWin, cfg.WaterLevel)
		}
	default:
		return nil, fmt.Errorf("spectral: unknown correlation method %d", int(cfg.Method))
	}

	plan, err := algofft.NewPlan64(src.FFTSize)
	if err != nil {
		return nil, fmt.Errorf("spectral: failed to create FFT plan: %w", err)
	}

	cross := make([]complex128, src.FFTSize)
	lags := make([]complex128, src.FFTSize)

	c := &Correlation{
		Pair:       station.JoinPair(src.Station, rcv.Station),
		SampleRate: src.SampleRate,
		MaxLag:     float64(lagSamples) / src.SampleRate,
		Dist:       geo.Distance(src.Loc, rcv.Loc),
		Locs: map[string]geo.Point{
			src.Station: src.Loc,
			rcv.Station: rcv.Loc,
		},
	}

	for w := 0; w < nw; w++ {
		sw, rw := s.Windows[w], r.Windows[w]
		for k := range cross {
			cs := sw[k]
			cross[k] = complex(real(cs), -imag(cs)) * rw[k]
		}

		if err := plan.Inverse(lags, cross); err != nil {
			return nil, fmt.Errorf("spectral: inverse FFT failed: %w", err)
		}

		// The inverse transform places lag l at index l and lag -l at
		// index size-l; refold into a centered row.
		row := make([]float64, 2*lagSamples+1)
		for l := -lagSamples; l <= lagSamples; l++ {
			idx := l
			if idx < 0 {
				idx += src.FFTSize
			}
			row[l+lagSamples] = real(lags[idx])
		}
		c.Data = append(c.Data, row)
	}

	return c, nil
}

// ZeroLagIndex returns the center sample index of a correlation row.
func (c *Correlation) ZeroLagIndex() int {
	if len(c.Data) == 0 {
		return 0
	}
	return (len(c.Data[0]) - 1) / 2
}

// ReverseLags flips the lag axis of every row in place, swapping causal and
// acausal sides. Used when a stored pair is consumed with the opposite
// source/receiver convention.
func (c *Correlation) ReverseLags() {
	for _, row := range c.Data {
		for i, j := 0, len(row)-1; i < j; i, j = i+1, j-1 {
			row[i], row[j] = row[j], row[i]
		}
	}
}
