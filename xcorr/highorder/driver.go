package highorder

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/cwbudde/algo-seis/seis/partition"
	"github.com/cwbudde/algo-seis/seis/spectral"
	"github.com/cwbudde/algo-seis/seis/station"
	"github.com/cwbudde/algo-seis/store"
)

// Errors returned by driver construction.
var (
	ErrInvalidConfig = errors.New("highorder: invalid configuration")
	ErrEmptyAllow    = errors.New("highorder: empty allow-list")
)

// Config holds the parameters of a C3 run.
type Config struct {
	// StartLag is the lag offset of the partition windows, in samples.
	StartLag int

	// WinLen is the partition window length in samples.
	WinLen int

	// VirtualSources lists the stations allowed to act as virtual source.
	VirtualSources []string

	// ReceiverPairs lists the allowed receiver pairs, order-insensitive.
	ReceiverPairs [][2]string

	// MaxLag bounds the C3 output, in seconds.
	MaxLag float64

	// Stack collapses the results before writing.
	Stack bool

	// StackRule selects the stacking reduction.
	StackRule spectral.StackRule
}

// CorrSource reads first-order correlation functions by pair name.
type CorrSource interface {
	Correlation(tstamp, pair string) (*spectral.Correlation, error)
}

// Sink receives the C3 outputs of one timestamp.
type Sink interface {
	PutC3(tstamp, pair, vsrc string, neg, pos *spectral.Correlation) error
	PutErrors(list *store.ErrorList) error
}

// cacheEntry holds the partitioned window transforms of one first-order
// correlation, keyed by virtualSource/receiver.
type cacheEntry struct {
	neg *spectral.Spectrum
	pos *spectral.Spectrum
}

// Driver runs high-order correlation for one timestamp at a time.
type Driver struct {
	cfg     Config
	log     *slog.Logger
	allowVS map[string]bool
	allowRP map[string]bool
}

// New validates cfg and returns a Driver. A nil logger discards progress
// output.
func New(cfg Config, log *slog.Logger) (*Driver, error) {
	if cfg.StartLag <= 0 || cfg.WinLen <= 0 {
		return nil, fmt.Errorf("%w: start lag and window length must be positive", ErrInvalidConfig)
	}
	if cfg.MaxLag <= 0 {
		return nil, fmt.Errorf("%w: max lag must be positive", ErrInvalidConfig)
	}
	if len(cfg.VirtualSources) == 0 {
		return nil, fmt.Errorf("%w: virtual sources", ErrEmptyAllow)
	}
	if len(cfg.ReceiverPairs) == 0 {
		return nil, fmt.Errorf("%w: receiver pairs", ErrEmptyAllow)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	d := &Driver{
		cfg:     cfg,
		log:     log,
		allowVS: make(map[string]bool, len(cfg.VirtualSources)),
		allowRP: make(map[string]bool, 2*len(cfg.ReceiverPairs)),
	}
	for _, vs := range cfg.VirtualSources {
		d.allowVS[vs] = true
	}
	for _, rp := range cfg.ReceiverPairs {
		d.allowRP[station.JoinPair(rp[0], rp[1])] = true
		d.allowRP[station.JoinPair(rp[1], rp[0])] = true
	}
	return d, nil
}

// Run synthesizes C3 functions from every allowed pair-of-pairs among the
// given first-order pair names. Candidates are enumerated over the upper
// triangle so no unordered combination is visited twice. Load, partition,
// and write failures are recorded in the returned error list and never
// abort the timestamp.
func (d *Driver) Run(tstamp string, pairs []string, src CorrSource, out Sink) (*store.ErrorList, error) {
	errs := store.NewErrorList()
	cache := make(map[string]*cacheEntry)
	failed := make(map[string]bool)

	written := 0
	for i, pair1 := range pairs {
		a1, b1, err := station.SplitPair(pair1)
		if err != nil {
			return nil, err
		}

		for _, pair2 := range pairs[i:] {
			a2, b2, err := station.SplitPair(pair2)
			if err != nil {
				return nil, err
			}

			vs, r1, r2, ok := resolveTriple(a1, b1, a2, b2)
			if !ok {
				continue
			}

			id1, err := station.Parse(r1)
			if err != nil {
				return nil, err
			}
			id2, err := station.Parse(r2)
			if err != nil {
				return nil, err
			}
			if station.Classify(id1, id2) != station.Cross {
				continue
			}

			if !d.allowVS[vs] || !d.allowRP[station.JoinPair(r1, r2)] {
				continue
			}

			e1, ok := d.getOrCompute(tstamp, vs, r1, src, cache, failed, errs)
			if !ok {
				continue
			}
			e2, ok := d.getOrCompute(tstamp, vs, r2, src, cache, failed, errs)
			if !ok {
				continue
			}

			d.emit(tstamp, vs, r1, r2, e1, e2, out, errs, &written)
		}

		// pair1 has been the outer pair for every remaining candidate;
		// both orientations of its partitioned transforms can go.
		delete(cache, a1+"/"+b1)
		delete(cache, b1+"/"+a1)
	}

	if err := out.PutErrors(errs); err != nil {
		return errs, err
	}

	d.log.Info("timestamp complete",
		"tstamp", tstamp, "c3", written, "failures", errs.Len())
	return errs, nil
}

// resolveTriple reports the virtual source and the two receivers when the
// pairs (a1,b1) and (a2,b2) share exactly one station.
func resolveTriple(a1, b1, a2, b2 string) (vs, r1, r2 string, ok bool) {
	if a1 == b1 || a2 == b2 {
		return "", "", "", false
	}

	shared1 := a1 == a2 || a1 == b2
	shared2 := b1 == a2 || b1 == b2
	if shared1 == shared2 {
		// Zero or two stations in common.
		return "", "", "", false
	}

	if shared1 {
		vs, r1 = a1, b1
	} else {
		vs, r1 = b1, a1
	}
	if a2 == vs {
		r2 = b2
	} else {
		r2 = a2
	}
	return vs, r1, r2, true
}

// getOrCompute returns the partitioned window transforms for the
// first-order pair (vs, rcv), loading and partitioning on first use. On
// failure the pair is recorded in the error list and never probed again
// within the timestamp.
func (d *Driver) getOrCompute(tstamp, vs, rcv string, src CorrSource,
	cache map[string]*cacheEntry, failed map[string]bool, errs *store.ErrorList) (*cacheEntry, bool) {

	key := vs + "/" + rcv
	if e, ok := cache[key]; ok {
		return e, true
	}
	if failed[key] {
		return nil, false
	}

	e, pairName, err := d.load(tstamp, vs, rcv, src)
	if err != nil {
		d.log.Warn("pair dropped", "tstamp", tstamp, "pair", pairName, "reason", err)
		errs.Append(tstamp + "/" + pairName)
		failed[key] = true
		return nil, false
	}

	cache[key] = e
	return e, true
}

func (d *Driver) load(tstamp, vs, rcv string, src CorrSource) (*cacheEntry, string, error) {
	// The stored pair name may carry the stations in either order.
	pairName := station.JoinPair(vs, rcv)
	reversed := false

	corr, err := src.Correlation(tstamp, pairName)
	if err != nil {
		alt := station.JoinPair(rcv, vs)
		altCorr, altErr := src.Correlation(tstamp, alt)
		if altErr != nil {
			return nil, pairName, err
		}
		corr, pairName, reversed = altCorr, alt, true
	}

	if len(corr.Data) > 1 {
		if err := spectral.Stack(corr, spectral.StackMean); err != nil {
			return nil, pairName, err
		}
	}

	// Fold the lag axis so positive lags always run from the virtual
	// source toward the receiver.
	if reversed {
		corr.ReverseLags()
	}

	neg, pos, err := partition.Split(corr, d.cfg.StartLag, d.cfg.WinLen)
	if err != nil {
		return nil, pairName, err
	}

	rcvLoc := corr.Locs[rcv]
	negFFT, err := spectral.FromSamples(rcv, rcvLoc, corr.SampleRate, neg)
	if err != nil {
		return nil, pairName, err
	}
	posFFT, err := spectral.FromSamples(rcv, rcvLoc, corr.SampleRate, pos)
	if err != nil {
		return nil, pairName, err
	}

	return &cacheEntry{neg: negFFT, pos: posFFT}, pairName, nil
}

// emit correlates the matching partition windows of the two cache entries
// and writes the C3 result.
func (d *Driver) emit(tstamp, vs, r1, r2 string, e1, e2 *cacheEntry,
	out Sink, errs *store.ErrorList, written *int) {

	pair := station.JoinPair(r1, r2)
	outKey := tstamp + "/" + pair + "/" + vs

	corrCfg := spectral.CorrConfig{Method: spectral.MethodXCorr, MaxLag: d.cfg.MaxLag}

	c3neg, err := spectral.Correlate(e1.neg, e2.neg, corrCfg)
	if err != nil {
		d.log.Warn("c3 failed", "key", outKey, "side", "neg", "reason", err)
		errs.Append(outKey)
		return
	}
	c3pos, err := spectral.Correlate(e1.pos, e2.pos, corrCfg)
	if err != nil {
		d.log.Warn("c3 failed", "key", outKey, "side", "pos", "reason", err)
		errs.Append(outKey)
		return
	}

	c3neg.Pair = pair + "." + vs + "_neg"
	c3pos.Pair = pair + "." + vs + "_pos"

	if d.cfg.Stack {
		if err := spectral.Stack(c3neg, d.cfg.StackRule); err != nil {
			d.log.Warn("stacking failed", "key", outKey, "reason", err)
			errs.Append(outKey)
			return
		}
		if err := spectral.Stack(c3pos, d.cfg.StackRule); err != nil {
			d.log.Warn("stacking failed", "key", outKey, "reason", err)
			errs.Append(outKey)
			return
		}
	}

	if err := out.PutC3(tstamp, pair, vs, c3neg, c3pos); err != nil {
		d.log.Warn("write failed", "key", outKey, "reason", err)
		errs.Append(outKey)
		return
	}
	*written++
}
