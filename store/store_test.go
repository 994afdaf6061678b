package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-seis/seis/geo"
	"github.com/cwbudde/algo-seis/seis/spectral"
	"github.com/cwbudde/algo-seis/seis/trace"
)

func openTemp(t *testing.T) *Container {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "2016-01-01"))
	if err != nil {
		t.Fatalf("failed to open container: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestInfoRoundTrip(t *testing.T) {
	c := openTemp(t)

	stations := []string{"BP.CCRB.40.SP1", "BP.EADB.40.SP1", "BP.FROB.40.SP1"}
	if err := c.PutStationList(stations); err != nil {
		t.Fatalf("PutStationList: %v", err)
	}
	if err := c.PutTimeUnit(3600); err != nil {
		t.Fatalf("PutTimeUnit: %v", err)
	}

	got, err := c.StationList()
	if err != nil {
		t.Fatalf("StationList: %v", err)
	}
	if len(got) != 3 || got[0] != stations[0] || got[2] != stations[2] {
		t.Errorf("station list round trip: %v", got)
	}

	unit, err := c.TimeUnit()
	if err != nil {
		t.Fatalf("TimeUnit: %v", err)
	}
	if unit != 3600 {
		t.Errorf("time unit = %v, want 3600", unit)
	}
}

func TestTraceRoundTrip(t *testing.T) {
	c := openTemp(t)

	tr := &trace.Trace{
		Station:    "BP.CCRB.40.SP1",
		Data:       []float64{1, 2, 3, 4},
		SampleRate: 20,
		Valid:      []trace.Span{{Start: 0, End: 3}},
		Flags:      map[string]bool{trace.FlagDownloadError: false},
		Loc:        geo.Point{Lat: 35.95, Lon: -120.55},
	}

	if err := c.PutTrace("2016.1.T00:00:00", tr); err != nil {
		t.Fatalf("PutTrace: %v", err)
	}

	got, err := c.Trace("2016.1.T00:00:00", tr.Station)
	if err != nil {
		t.Fatalf("Trace: %v", err)
	}
	if got.Station != tr.Station || got.SampleRate != 20 || len(got.Data) != 4 {
		t.Errorf("trace round trip: %+v", got)
	}
	if got.Loc != tr.Loc {
		t.Errorf("location round trip: %+v", got.Loc)
	}
}

func TestCorrelationRoundTrip(t *testing.T) {
	c := openTemp(t)

	corr := &spectral.Correlation{
		Pair:       "BP.CCRB.40.SP1.BP.EADB.40.SP1",
		SampleRate: 20,
		MaxLag:     100,
		Data:       [][]float64{{0.1, 0.5, 0.1}},
		Dist:       9.3,
		Locs: map[string]geo.Point{
			"BP.CCRB.40.SP1": {Lat: 35.95, Lon: -120.55},
			"BP.EADB.40.SP1": {Lat: 35.89, Lon: -120.42},
		},
	}

	if err := c.PutCorrelation("ts", corr); err != nil {
		t.Fatalf("PutCorrelation: %v", err)
	}

	got, err := c.Correlation("ts", corr.Pair)
	if err != nil {
		t.Fatalf("Correlation: %v", err)
	}
	if got.Pair != corr.Pair || got.Dist != corr.Dist {
		t.Errorf("correlation round trip: %+v", got)
	}
	if len(got.Data) != 1 || got.Data[0][1] != 0.5 {
		t.Errorf("data round trip: %v", got.Data)
	}
	if len(got.Locs) != 2 {
		t.Errorf("locations round trip: %v", got.Locs)
	}
}

func TestC3RoundTrip(t *testing.T) {
	c := openTemp(t)

	neg := &spectral.Correlation{Pair: "p", Data: [][]float64{{1, 2, 3}}}
	pos := &spectral.Correlation{Pair: "p", Data: [][]float64{{4, 5, 6}}}

	if err := c.PutC3("ts", "A.B", "V", neg, pos); err != nil {
		t.Fatalf("PutC3: %v", err)
	}

	gotNeg, gotPos, err := c.C3("ts", "A.B", "V")
	if err != nil {
		t.Fatalf("C3: %v", err)
	}
	if gotNeg.Data[0][0] != 1 || gotPos.Data[0][0] != 4 {
		t.Errorf("C3 round trip: %v / %v", gotNeg.Data, gotPos.Data)
	}
}

func TestNotFound(t *testing.T) {
	c := openTemp(t)

	if _, err := c.Correlation("ts", "A.B"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := c.StationList(); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestKeysExcludesHighOrder(t *testing.T) {
	c := openTemp(t)

	pairs := []string{"N.A..C.N.B..C", "N.A..C.N.D..C", "N.B..C.N.D..C"}
	for _, p := range pairs {
		if err := c.PutCorrelation("ts", &spectral.Correlation{Pair: p, Data: [][]float64{{1}}}); err != nil {
			t.Fatalf("PutCorrelation(%s): %v", p, err)
		}
	}
	if err := c.PutC3("ts", "N.A..C.N.B..C", "N.D..C",
		&spectral.Correlation{Data: [][]float64{{1}}},
		&spectral.Correlation{Data: [][]float64{{1}}}); err != nil {
		t.Fatalf("PutC3: %v", err)
	}

	got, err := c.Keys("ts")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(got) != len(pairs) {
		t.Fatalf("Keys = %v, want the %d first-order pairs only", got, len(pairs))
	}
	for i, p := range pairs {
		if got[i] != p {
			t.Errorf("key %d = %q, want %q", i, got[i], p)
		}
	}
}

func TestErrorsRoundTrip(t *testing.T) {
	c := openTemp(t)

	list := NewErrorList()
	list.Append("ts/BP.CCRB.40.SP1")
	list.Append("ts/BP.EADB.40.SP1.BP.FROB.40.SP1")
	list.Append("ts/BP.CCRB.40.SP1") // duplicate, must be ignored

	if err := c.PutErrors(list); err != nil {
		t.Fatalf("PutErrors: %v", err)
	}

	got, err := c.Errors()
	if err != nil {
		t.Fatalf("Errors: %v", err)
	}
	if got.Len() != 2 {
		t.Fatalf("error list length = %d, want 2", got.Len())
	}
	if !got.Contains("ts/BP.CCRB.40.SP1") {
		t.Error("membership lost in round trip")
	}
	if got.Keys()[0] != "ts/BP.CCRB.40.SP1" {
		t.Errorf("order lost in round trip: %v", got.Keys())
	}
}

func TestErrorList(t *testing.T) {
	list := NewErrorList()
	if list.Contains("x") {
		t.Error("empty list claims membership")
	}
	list.Append("a")
	list.Append("b")
	list.Append("a")

	if list.Len() != 2 {
		t.Errorf("Len = %d, want 2", list.Len())
	}
	keys := list.Keys()
	if keys[0] != "a" || keys[1] != "b" {
		t.Errorf("Keys = %v", keys)
	}
}

func TestOverwriteByKey(t *testing.T) {
	c := openTemp(t)

	first := &spectral.Correlation{Pair: "A.B", Data: [][]float64{{1}}}
	second := &spectral.Correlation{Pair: "A.B", Data: [][]float64{{2}}}

	if err := c.PutCorrelation("ts", first); err != nil {
		t.Fatal(err)
	}
	if err := c.PutCorrelation("ts", second); err != nil {
		t.Fatal(err)
	}

	got, err := c.Correlation("ts", "A.B")
	if err != nil {
		t.Fatal(err)
	}
	if got.Data[0][0] != 2 {
		t.Errorf("overwrite by key failed: %v", got.Data)
	}
}
