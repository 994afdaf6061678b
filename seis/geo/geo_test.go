package geo

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want float64 // km
		tol  float64
	}{
		{
			name: "zero distance",
			a:    Point{Lat: 35.0, Lon: -120.0},
			b:    Point{Lat: 35.0, Lon: -120.0},
			want: 0,
			tol:  1e-9,
		},
		{
			name: "one degree of latitude",
			a:    Point{Lat: 0, Lon: 0},
			b:    Point{Lat: 1, Lon: 0},
			want: 111.19,
			tol:  0.2,
		},
		{
			name: "antipodal",
			a:    Point{Lat: 0, Lon: 0},
			b:    Point{Lat: 0, Lon: 180},
			want: math.Pi * 6371.0,
			tol:  0.1,
		},
		{
			name: "parkfield array span",
			a:    Point{Lat: 35.9573, Lon: -120.5510},
			b:    Point{Lat: 35.8946, Lon: -120.4244},
			want: 13.36,
			tol:  0.2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			if math.Abs(got-tt.want) > tt.tol {
				t.Errorf("Distance = %v, want %v ± %v", got, tt.want, tt.tol)
			}

			// Symmetry.
			if rev := Distance(tt.b, tt.a); math.Abs(rev-got) > 1e-9 {
				t.Errorf("Distance not symmetric: %v vs %v", got, rev)
			}
		})
	}
}
