// Package station parses seismic station identifiers and classifies
// correlation pairs.
//
// Identifiers follow the SEED convention NETWORK.STATION.LOCATION.CHANNEL,
// e.g. "BP.CCRB.40.SP1". Two identifiers form one of three pair kinds:
//
//   - acorr: identical identifiers (auto-correlation)
//   - xchancorr: same site, different channel
//   - xcorr: different stations
package station

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedID is returned when an identifier does not have the
// four-component dotted form.
var ErrMalformedID = errors.New("station: malformed identifier")

// ID is a parsed station identifier.
type ID struct {
	Network  string
	Station  string
	Location string
	Channel  string
}

// Parse splits a NETWORK.STATION.LOCATION.CHANNEL key into an ID.
func Parse(s string) (ID, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return ID{}, fmt.Errorf("%w: %q", ErrMalformedID, s)
	}
	return ID{
		Network:  parts[0],
		Station:  parts[1],
		Location: parts[2],
		Channel:  parts[3],
	}, nil
}

// String returns the dotted identifier.
func (id ID) String() string {
	return id.Network + "." + id.Station + "." + id.Location + "." + id.Channel
}

// Site returns the channel-independent part of the identifier.
func (id ID) Site() string {
	return id.Network + "." + id.Station + "." + id.Location
}

// PairKind classifies a pair of station identifiers.
type PairKind int

const (
	// Auto is an auto-correlation pair (identical identifiers).
	Auto PairKind = iota

	// CrossChannel is a same-site pair with different channels.
	CrossChannel

	// Cross is a pair of distinct stations.
	Cross
)

// String returns the conventional short name of the pair kind.
func (k PairKind) String() string {
	switch k {
	case Auto:
		return "acorr"
	case CrossChannel:
		return "xchancorr"
	case Cross:
		return "xcorr"
	default:
		return "unknown"
	}
}

// ParseKind maps a short pair-kind name back to its PairKind.
func ParseKind(s string) (PairKind, error) {
	switch s {
	case "acorr":
		return Auto, nil
	case "xchancorr":
		return CrossChannel, nil
	case "xcorr":
		return Cross, nil
	default:
		return 0, fmt.Errorf("station: unknown pair kind %q", s)
	}
}

// Classify reports the pair kind of a and b. It is symmetric in its
// arguments.
func Classify(a, b ID) PairKind {
	switch {
	case a == b:
		return Auto
	case a.Site() == b.Site():
		return CrossChannel
	default:
		return Cross
	}
}

// JoinPair builds the conventional pair name stn1.stn2.
func JoinPair(stn1, stn2 string) string {
	return stn1 + "." + stn2
}

// SplitPair splits a pair name built by JoinPair back into its two
// identifiers. Both identifiers have exactly four components, so the split
// point is fixed at the fourth dot.
func SplitPair(name string) (string, string, error) {
	parts := strings.Split(name, ".")
	if len(parts) != 8 {
		return "", "", fmt.Errorf("%w: pair %q", ErrMalformedID, name)
	}
	return strings.Join(parts[:4], "."), strings.Join(parts[4:], "."), nil
}
