// Package store persists correlation inputs and outputs in per-timestamp
// containers.
//
// A container is a small pebble database holding one timestamp's worth of
// data under hierarchical keys:
//
//	info/stationlist            ordered station identifiers
//	info/timeunit               seconds per record
//	info/errors                 the timestamp's error list
//	<tstamp>/<station>          raw channel record (input containers)
//	<tstamp>/<stn1>.<stn2>      first-order correlation function
//	<tstamp>/<pair>/<vsrc>      high-order correlation pair [neg, pos]
//
// Values are gob-encoded. Writes are per-key and synchronous; a failed
// write surfaces to the caller, which records it in the error list and
// moves on.
package store

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"strings"

	"github.com/cockroachdb/pebble/v2"

	"github.com/cwbudde/algo-seis/seis/spectral"
	"github.com/cwbudde/algo-seis/seis/trace"
)

// ErrNotFound is returned when a key is absent from the container.
var ErrNotFound = errors.New("store: key not found")

// Reserved info keys.
const (
	keyStationList = "info/stationlist"
	keyTimeUnit    = "info/timeunit"
	keyErrors      = "info/errors"
)

// Container is one timestamp's persistent key-value store.
type Container struct {
	db *pebble.DB
}

// Open opens or creates the container at path.
func Open(path string) (*Container, error) {
	return open(path, false)
}

// OpenReadOnly opens an existing container for reading.
func OpenReadOnly(path string) (*Container, error) {
	return open(path, true)
}

// quietLogger drops pebble's internal event chatter; store errors surface
// through return values instead.
type quietLogger struct{}

func (quietLogger) Infof(string, ...interface{})  {}
func (quietLogger) Errorf(string, ...interface{}) {}
func (quietLogger) Fatalf(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}

func open(path string, readOnly bool) (*Container, error) {
	opts := &pebble.Options{
		ReadOnly: readOnly,
		Logger:   quietLogger{},
	}
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("store: failed to open %s: %w", path, err)
	}
	return &Container{db: db}, nil
}

// Close releases the container.
func (c *Container) Close() error {
	return c.db.Close()
}

func (c *Container) put(key string, value any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return fmt.Errorf("store: failed to encode %s: %w", key, err)
	}
	if err := c.db.Set([]byte(key), buf.Bytes(), pebble.Sync); err != nil {
		return fmt.Errorf("store: failed to write %s: %w", key, err)
	}
	return nil
}

func (c *Container) get(key string, value any) error {
	raw, closer, err := c.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fmt.Errorf("store: failed to read %s: %w", key, err)
	}
	defer closer.Close()

	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(value); err != nil {
		return fmt.Errorf("store: failed to decode %s: %w", key, err)
	}
	return nil
}

// PutStationList writes the ordered station list.
func (c *Container) PutStationList(stations []string) error {
	return c.put(keyStationList, stations)
}

// StationList reads the ordered station list.
func (c *Container) StationList() ([]string, error) {
	var stations []string
	if err := c.get(keyStationList, &stations); err != nil {
		return nil, err
	}
	return stations, nil
}

// PutTimeUnit writes the record length in seconds.
func (c *Container) PutTimeUnit(seconds float64) error {
	return c.put(keyTimeUnit, seconds)
}

// TimeUnit reads the record length in seconds.
func (c *Container) TimeUnit() (float64, error) {
	var seconds float64
	if err := c.get(keyTimeUnit, &seconds); err != nil {
		return 0, err
	}
	return seconds, nil
}

// PutErrors writes the timestamp's error list.
func (c *Container) PutErrors(list *ErrorList) error {
	return c.put(keyErrors, list.Keys())
}

// Errors reads the timestamp's error list.
func (c *Container) Errors() (*ErrorList, error) {
	var keys []string
	if err := c.get(keyErrors, &keys); err != nil {
		return nil, err
	}
	list := NewErrorList()
	for _, k := range keys {
		list.Append(k)
	}
	return list, nil
}

// PutTrace writes a raw channel record under <tstamp>/<station>.
func (c *Container) PutTrace(tstamp string, tr *trace.Trace) error {
	return c.put(tstamp+"/"+tr.Station, tr)
}

// Trace reads the raw channel record of one station.
func (c *Container) Trace(tstamp, stn string) (*trace.Trace, error) {
	var tr trace.Trace
	if err := c.get(tstamp+"/"+stn, &tr); err != nil {
		return nil, err
	}
	return &tr, nil
}

// PutCorrelation writes a first-order correlation under <tstamp>/<pair>.
func (c *Container) PutCorrelation(tstamp string, corr *spectral.Correlation) error {
	return c.put(tstamp+"/"+corr.Pair, corr)
}

// Correlation reads a first-order correlation function by pair name.
func (c *Container) Correlation(tstamp, pair string) (*spectral.Correlation, error) {
	var corr spectral.Correlation
	if err := c.get(tstamp+"/"+pair, &corr); err != nil {
		return nil, err
	}
	return &corr, nil
}

// PutC3 writes a high-order correlation pair [neg, pos] under
// <tstamp>/<pair>/<vsrc>.
func (c *Container) PutC3(tstamp, pair, vsrc string, neg, pos *spectral.Correlation) error {
	return c.put(tstamp+"/"+pair+"/"+vsrc, [2]*spectral.Correlation{neg, pos})
}

// C3 reads a high-order correlation pair.
func (c *Container) C3(tstamp, pair, vsrc string) (neg, pos *spectral.Correlation, err error) {
	var both [2]*spectral.Correlation
	if err := c.get(tstamp+"/"+pair+"/"+vsrc, &both); err != nil {
		return nil, nil, err
	}
	return both[0], both[1], nil
}

// Keys returns the first-level names stored under <tstamp>/, in key order.
// Names containing a further slash (high-order entries) are excluded.
func (c *Container) Keys(tstamp string) ([]string, error) {
	prefix := tstamp + "/"
	iter, err := c.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: keyUpperBound([]byte(prefix)),
	})
	if err != nil {
		return nil, fmt.Errorf("store: failed to iterate %s: %w", prefix, err)
	}
	defer iter.Close()

	var names []string
	for iter.First(); iter.Valid(); iter.Next() {
		name := strings.TrimPrefix(string(iter.Key()), prefix)
		if strings.Contains(name, "/") {
			continue
		}
		names = append(names, name)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("store: iteration over %s failed: %w", prefix, err)
	}
	return names, nil
}

// keyUpperBound returns the smallest key greater than every key with the
// given prefix.
func keyUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil // prefix is all 0xff
}
