package trace

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-seis/seis/geo"
)

// FlagDownloadError marks a record whose download failed upstream. Absence
// of the flag is equivalent to false.
const FlagDownloadError = "download_error"

// Errors returned by trace validation.
var (
	ErrDownloadError = errors.New("trace: download error")
	ErrExcessZeros   = errors.New("trace: excess zeros")
	ErrEmptyTrace    = errors.New("trace: empty trace")
)

// GapError reports a record with more than one contiguous valid span.
type GapError struct {
	// Gaps is the number of breaks between valid spans.
	Gaps int
}

func (e *GapError) Error() string {
	return fmt.Sprintf("trace: %d gap(s) in record", e.Gaps)
}

// Span is a [start, end] sample-index range of valid data.
type Span struct {
	Start int
	End   int
}

// Trace is one station's raw time series for one processing unit.
type Trace struct {
	// Station is the dotted station identifier.
	Station string

	// Data holds the samples.
	Data []float64

	// SampleRate is the sampling rate in Hz.
	SampleRate float64

	// Valid lists the contiguous valid sample spans. More than two rows
	// means the record has gaps.
	Valid []Span

	// Flags carries quality indicators set upstream, e.g.
	// [FlagDownloadError].
	Flags map[string]bool

	// Loc is the station location.
	Loc geo.Point
}

// Check validates tr against the expected sample count, repairing length
// overruns and rejecting records unfit for correlation. Steps run in order
// and the first failure wins:
//
//  1. Truncate over-long records to expected samples and drop validity
//     spans beyond the new length (repair, not failure).
//  2. Reject if the download-error flag is set.
//  3. Reject if more than half of the samples are exactly zero.
//  4. Reject if the validity table has more than two rows (gaps).
func Check(tr *Trace, expected int) error {
	if len(tr.Data) == 0 {
		return ErrEmptyTrace
	}

	if len(tr.Data) > expected {
		tr.Data = tr.Data[:expected]
		tr.Valid = clampSpans(tr.Valid, expected)
	}

	if tr.Flags[FlagDownloadError] {
		return ErrDownloadError
	}

	zeros := 0
	for _, v := range tr.Data {
		if v == 0 {
			zeros++
		}
	}
	if float64(zeros) > 0.5*float64(len(tr.Data)) {
		return ErrExcessZeros
	}

	if len(tr.Valid) > 2 {
		return &GapError{Gaps: len(tr.Valid) - 2}
	}

	return nil
}

// clampSpans drops validity rows past n and clips a row straddling the
// boundary.
func clampSpans(spans []Span, n int) []Span {
	out := spans[:0]
	for _, s := range spans {
		if s.Start >= n {
			continue
		}
		if s.End >= n {
			s.End = n - 1
		}
		out = append(out, s)
	}
	return out
}
