package partition

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-seis/seis/spectral"
)

// rampCorrelation builds a single-window correlation whose sample values
// equal their indices, so window positions are directly observable.
func rampCorrelation(n int) *spectral.Correlation {
	row := make([]float64, n)
	for i := range row {
		row[i] = float64(i)
	}
	return &spectral.Correlation{Data: [][]float64{row}}
}

func TestSplit(t *testing.T) {
	// 201 samples puts zero lag at index 100; startLag=10, winLen=50
	// must yield samples [40,90) and [110,160).
	c := rampCorrelation(201)

	neg, pos, err := Split(c, 10, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(neg) != 50 || len(pos) != 50 {
		t.Fatalf("window lengths = %d, %d, want 50, 50", len(neg), len(pos))
	}
	if neg[0] != 40 || neg[49] != 89 {
		t.Errorf("negative window spans [%v, %v], want [40, 89]", neg[0], neg[49])
	}
	if pos[0] != 110 || pos[49] != 159 {
		t.Errorf("positive window spans [%v, %v], want [110, 159]", pos[0], pos[49])
	}
}

func TestSplitDisjoint(t *testing.T) {
	c := rampCorrelation(201)

	neg, pos, err := Split(c, 1, 80)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The windows must never overlap, even with the smallest start lag.
	if neg[len(neg)-1] >= pos[0] {
		t.Errorf("windows overlap: neg ends at %v, pos starts at %v", neg[len(neg)-1], pos[0])
	}
}

func TestSplitCopies(t *testing.T) {
	c := rampCorrelation(201)

	neg, _, err := Split(c, 10, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	neg[0] = -999
	if c.Data[0][40] == -999 {
		t.Error("Split returned a view into the correlation, want a copy")
	}
}

func TestSplitErrors(t *testing.T) {
	tests := []struct {
		name     string
		corr     *spectral.Correlation
		startLag int
		winLen   int
		want     error
	}{
		{"window past end", rampCorrelation(201), 10, 100, ErrWindowBounds},
		{"start lag past end", rampCorrelation(201), 200, 10, ErrWindowBounds},
		{"zero start lag", rampCorrelation(201), 0, 50, ErrInvalidParams},
		{"zero window", rampCorrelation(201), 10, 0, ErrInvalidParams},
		{
			"multi window",
			&spectral.Correlation{Data: [][]float64{make([]float64, 201), make([]float64, 201)}},
			10, 50, ErrMultiWindow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Split(tt.corr, tt.startLag, tt.winLen)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}
