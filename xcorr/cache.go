package xcorr

import "github.com/cwbudde/algo-seis/seis/spectral"

// fftCache maps station identifiers to their frequency-domain records for
// one timestamp. Entries are evicted as soon as a station's row of the pair
// loop completes, bounding the working set to the not-yet-fully-processed
// stations.
type fftCache struct {
	entries map[string]*spectral.Spectrum
}

func newFFTCache() *fftCache {
	return &fftCache{entries: make(map[string]*spectral.Spectrum)}
}

func (c *fftCache) get(stn string) (*spectral.Spectrum, bool) {
	s, ok := c.entries[stn]
	return s, ok
}

func (c *fftCache) put(stn string, s *spectral.Spectrum) {
	c.entries[stn] = s
}

func (c *fftCache) evict(stn string) {
	delete(c.entries, stn)
}

func (c *fftCache) len() int {
	return len(c.entries)
}
