package xcorr

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/cwbudde/algo-seis/seis/spectral"
	"github.com/cwbudde/algo-seis/seis/station"
	"github.com/cwbudde/algo-seis/seis/trace"
	"github.com/cwbudde/algo-seis/store"
)

// Errors returned by driver construction and runs.
var (
	ErrNoKinds       = errors.New("xcorr: no correlation types requested")
	ErrInvalidConfig = errors.New("xcorr: invalid configuration")
)

// Config holds the parameters of a first-order correlation run.
type Config struct {
	// TimeUnit is the record length in seconds.
	TimeUnit float64

	// SampleRate is the sampling rate in Hz.
	SampleRate float64

	// Spectral configures the per-window forward transform.
	Spectral spectral.Config

	// Corr configures the correlation strategy and lag bound.
	Corr spectral.CorrConfig

	// Kinds selects which pair classifications are correlated.
	Kinds map[station.PairKind]bool

	// Stack collapses multi-window correlations before writing.
	Stack bool

	// StackRule selects the stacking reduction.
	StackRule spectral.StackRule
}

// TraceSource reads raw channel records keyed by timestamp and station.
type TraceSource interface {
	Trace(tstamp, stn string) (*trace.Trace, error)
}

// Sink receives the outputs of one timestamp.
type Sink interface {
	PutStationList(stations []string) error
	PutTimeUnit(seconds float64) error
	PutCorrelation(tstamp string, corr *spectral.Correlation) error
	PutErrors(list *store.ErrorList) error
}

// Driver runs first-order correlation for one timestamp at a time.
type Driver struct {
	cfg Config
	log *slog.Logger
}

// New validates cfg and returns a Driver. A nil logger discards progress
// output.
func New(cfg Config, log *slog.Logger) (*Driver, error) {
	if cfg.TimeUnit <= 0 || cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: time unit and sample rate must be positive", ErrInvalidConfig)
	}
	if len(cfg.Kinds) == 0 {
		return nil, ErrNoKinds
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Driver{cfg: cfg, log: log}, nil
}

// Run correlates every requested station pair of one timestamp. Stations
// are visited in sorted order over the upper triangle (including self
// pairs), so no unordered pair is processed twice. Station- and pair-level
// failures are recorded in the returned error list; only container-level
// writes of the info keys are fatal.
//
// Malformed station identifiers are a caller precondition violation and
// fail the run before any pair is processed.
func (d *Driver) Run(tstamp string, stations []string, src TraceSource, out Sink) (*store.ErrorList, error) {
	sorted := append([]string(nil), stations...)
	sort.Strings(sorted)

	ids := make(map[string]station.ID, len(sorted))
	for _, stn := range sorted {
		id, err := station.Parse(stn)
		if err != nil {
			return nil, err
		}
		ids[stn] = id
	}

	if err := out.PutStationList(sorted); err != nil {
		return nil, err
	}
	if err := out.PutTimeUnit(d.cfg.TimeUnit); err != nil {
		return nil, err
	}

	errs := store.NewErrorList()
	cache := newFFTCache()
	dropped := make(map[string]bool)
	expected := int(d.cfg.TimeUnit*d.cfg.SampleRate + 0.5)

	written := 0
	for i, stn1 := range sorted {
		if dropped[stn1] {
			continue
		}

		s1, ok := d.getOrCompute(tstamp, stn1, src, cache, errs, dropped, expected)
		if !ok {
			continue
		}

		for _, stn2 := range sorted[i:] {
			if dropped[stn2] {
				continue
			}
			if !d.cfg.Kinds[station.Classify(ids[stn1], ids[stn2])] {
				continue
			}

			s2, ok := d.getOrCompute(tstamp, stn2, src, cache, errs, dropped, expected)
			if !ok {
				continue
			}

			pairKey := tstamp + "/" + station.JoinPair(stn1, stn2)

			corr, err := spectral.Correlate(s1, s2, d.cfg.Corr)
			if err != nil {
				d.log.Warn("pair skipped", "pair", pairKey, "reason", err)
				errs.Append(pairKey)
				continue
			}

			if d.cfg.Stack {
				if err := spectral.Stack(corr, d.cfg.StackRule); err != nil {
					d.log.Warn("stacking failed", "pair", pairKey, "reason", err)
					errs.Append(pairKey)
					continue
				}
			}

			if err := out.PutCorrelation(tstamp, corr); err != nil {
				d.log.Warn("write failed", "pair", pairKey, "reason", err)
				errs.Append(pairKey)
				continue
			}
			written++
		}

		// stn1 has served as the row station for every remaining partner;
		// its spectrum is never needed again.
		cache.evict(stn1)
	}

	if err := out.PutErrors(errs); err != nil {
		return errs, err
	}

	d.log.Info("timestamp complete",
		"tstamp", tstamp, "pairs", written, "failures", errs.Len())
	return errs, nil
}

// getOrCompute returns the cached frequency-domain record of stn, computing
// it on first use. On any failure the station is recorded in the error list
// and dropped for the remainder of the timestamp, including as a future row
// station.
func (d *Driver) getOrCompute(tstamp, stn string, src TraceSource, cache *fftCache,
	errs *store.ErrorList, dropped map[string]bool, expected int) (*spectral.Spectrum, bool) {

	if s, ok := cache.get(stn); ok {
		return s, true
	}

	drop := func(stage string, err error) {
		d.log.Warn("station dropped", "tstamp", tstamp, "station", stn,
			"stage", stage, "reason", err)
		errs.Append(tstamp + "/" + stn)
		dropped[stn] = true
	}

	tr, err := src.Trace(tstamp, stn)
	if err != nil {
		drop("read", err)
		return nil, false
	}

	if err := trace.Check(tr, expected); err != nil {
		drop("quality", err)
		return nil, false
	}

	s, err := spectral.Forward(tr, d.cfg.Spectral)
	if err != nil {
		drop("transform", err)
		return nil, false
	}

	cache.put(stn, s)
	return s, true
}
