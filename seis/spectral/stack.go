package spectral

import (
	"errors"
	"fmt"
	"sort"
)

// ErrEmptyCorrelation is returned when stacking a correlation with no data.
var ErrEmptyCorrelation = errors.New("spectral: empty correlation")

// StackRule selects how the window dimension collapses.
type StackRule int

const (
	// StackMean averages windows per lag.
	StackMean StackRule = iota

	// StackRobust takes the per-lag median, suppressing outlier windows.
	StackRobust
)

// String returns the configuration name of the rule.
func (r StackRule) String() string {
	switch r {
	case StackMean:
		return "mean"
	case StackRobust:
		return "robust"
	default:
		return "unknown"
	}
}

// ParseStackRule maps a configuration name to its StackRule.
func ParseStackRule(s string) (StackRule, error) {
	switch s {
	case "mean":
		return StackMean, nil
	case "robust":
		return StackRobust, nil
	default:
		return 0, fmt.Errorf("spectral: unknown stacking rule %q", s)
	}
}

// Stack collapses the window dimension of c to a single row using rule.
// A single-window correlation is returned unchanged.
func Stack(c *Correlation, rule StackRule) error {
	switch {
	case len(c.Data) == 0:
		return ErrEmptyCorrelation
	case len(c.Data) == 1:
		return nil
	}

	n := len(c.Data[0])
	stacked := make([]float64, n)

	switch rule {
	case StackMean:
		for _, row := range c.Data {
			for i, v := range row {
				stacked[i] += v
			}
		}
		scale := 1 / float64(len(c.Data))
		for i := range stacked {
			stacked[i] *= scale
		}
	case StackRobust:
		col := make([]float64, len(c.Data))
		for i := 0; i < n; i++ {
			for w, row := range c.Data {
				col[w] = row[i]
			}
			stacked[i] = median(col)
		}
	default:
		return fmt.Errorf("spectral: unknown stacking rule %d", int(rule))
	}

	c.Data = [][]float64{stacked}
	return nil
}

// median sorts buf in place and returns its median.
func median(buf []float64) float64 {
	sort.Float64s(buf)
	n := len(buf)
	if n%2 == 1 {
		return buf[n/2]
	}
	return 0.5 * (buf[n/2-1] + buf[n/2])
}
