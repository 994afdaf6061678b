// Package partition splits a stacked correlation function into its
// negative-lag and positive-lag sub-windows, which serve as pseudo-raw
// input to higher-order correlation.
package partition

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-seis/seis/spectral"
)

// Errors returned by Split.
var (
	ErrMultiWindow   = errors.New("partition: correlation must be stacked to a single window")
	ErrWindowBounds  = errors.New("partition: lag window exceeds correlation bounds")
	ErrInvalidParams = errors.New("partition: start lag and window length must be positive")
)

// Split extracts two equal-length sub-windows from a single-window
// correlation around its zero-lag sample: the negative-lag window
// [center-startLag-winLen, center-startLag) and the positive-lag window
// [center+startLag, center+startLag+winLen). Both arguments are in samples.
// Out-of-range windows are a configuration error, never clamped.
func Split(c *spectral.Correlation, startLag, winLen int) (neg, pos []float64, err error) {
	if startLag <= 0 || winLen <= 0 {
		return nil, nil, ErrInvalidParams
	}
	if len(c.Data) != 1 {
		return nil, nil, fmt.Errorf("%w: %d windows", ErrMultiWindow, len(c.Data))
	}

	row := c.Data[0]
	center := c.ZeroLagIndex()

	negStart := center - startLag - winLen
	posEnd := center + startLag + winLen
	if negStart < 0 || posEnd > len(row) {
		return nil, nil, fmt.Errorf("%w: [%d, %d) outside %d samples",
			ErrWindowBounds, negStart, posEnd, len(row))
	}

	neg = append([]float64(nil), row[negStart:center-startLag]...)
	pos = append([]float64(nil), row[center+startLag:posEnd]...)
	return neg, pos, nil
}
