package crs

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebMercatorForward(t *testing.T) {
	tests := []struct {
		name     string
		lon, lat float64
		x, y     float64
	}{
		{
			name: "origin",
			lon:  0, lat: 0,
			x: 0, y: 0,
		},
		{
			name: "antimeridian",
			lon:  180, lat: 0,
			x: 20037508.342789244, y: 0,
		},
		{
			name: "top of the square world",
			lon:  0, lat: 85.05112878,
			x: 0, y: 20037508.342789244,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := webMercator{}.forward(tt.lon, tt.lat)
			assert.InDelta(t, tt.x, x, 0.01)
			assert.InDelta(t, tt.y, y, 0.01)
		})
	}
}

func TestWebMercatorClampsLatitude(t *testing.T) {
	_, yMax := webMercator{}.forward(0, 89.9)
	_, yEdge := webMercator{}.forward(0, webMercatorMaxLat)
	assert.InDelta(t, yEdge, yMax, 1e-6)
}

func TestWebMercatorRoundTrip(t *testing.T) {
	p := webMercator{}
	x, y := p.forward(-118.2437, 34.0522)
	lon, lat := p.inverse(x, y)
	assert.InDelta(t, -118.2437, lon, 1e-9)
	assert.InDelta(t, 34.0522, lat, 1e-9)
}

func TestCaliforniaAlbersOrigin(t *testing.T) {
	p := projections[CaliforniaAlbers]
	// the projection origin lands exactly on the false easting/northing
	x, y := p.forward(-120, 0)
	assert.InDelta(t, 0, x, 1e-6)
	assert.InDelta(t, -4000000, y, 1e-6)
}

func TestCaliforniaAlbersLosAngeles(t *testing.T) {
	p := projections[CaliforniaAlbers]
	x, y := p.forward(-118.2437, 34.0522)
	// downtown LA sits roughly 160 km east of the central meridian and
	// 430 km south of the 4000 km northing offset
	assert.Greater(t, x, 120000.0)
	assert.Less(t, x, 200000.0)
	assert.Greater(t, y, -480000.0)
	assert.Less(t, y, -390000.0)
}

func TestAlbersRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		epsg     int
		lon, lat float64
	}{
		{name: "california los angeles", epsg: CaliforniaAlbers, lon: -118.2437, lat: 34.0522},
		{name: "california north", epsg: CaliforniaAlbers, lon: -122.4194, lat: 37.7749},
		{name: "conus kansas", epsg: ConusAlbers, lon: -98.0, lat: 39.0},
		{name: "conus florida", epsg: ConusAlbers, lon: -81.65, lat: 30.33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := projections[tt.epsg]
			x, y := p.forward(tt.lon, tt.lat)
			lon, lat := p.inverse(x, y)
			assert.InDelta(t, tt.lon, lon, 1e-9)
			assert.InDelta(t, tt.lat, lat, 1e-9)
		})
	}
}

func TestAlbersStandardParallelScale(t *testing.T) {
	// along a standard parallel the projection is true to scale: one degree
	// of longitude at 34N spans cos(34°)·(π/180)·a meters on the sphere of
	// the ellipsoid's local parallel radius, and the projected arc must be
	// within a small fraction of a percent of it
	p := projections[CaliforniaAlbers]
	x1, y1 := p.forward(-120.0, 34.0)
	x2, y2 := p.forward(-119.0, 34.0)
	got := math.Hypot(x2-x1, y2-y1)

	phi := 34.0 * math.Pi / 180
	n := semiMajorM / math.Sqrt(1-eccSq*math.Sin(phi)*math.Sin(phi))
	want := n * math.Cos(phi) * math.Pi / 180

	require.Greater(t, got, 0.0)
	assert.InEpsilon(t, want, got, 1e-4)
}
