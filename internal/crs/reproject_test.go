package crs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	geom "github.com/twpayne/go-geom"

	"github.com/cityecology/redline/internal/model"
)

func laSquare4326() *geom.Polygon {
	return geom.NewPolygonFlat(geom.XY, []float64{
		-118.5, 33.8,
		-118.0, 33.8,
		-118.0, 34.2,
		-118.5, 34.2,
		-118.5, 33.8,
	}, []int{10}).SetSRID(WGS84)
}

func laSquare3310() *geom.Polygon {
	return geom.NewPolygonFlat(geom.XY, []float64{
		140000, -450000,
		160000, -450000,
		160000, -430000,
		140000, -430000,
		140000, -450000,
	}, []int{10}).SetSRID(CaliforniaAlbers)
}

func TestReprojectSameCRSIsIdempotent(t *testing.T) {
	src := laSquare3310()
	got, err := Reproject(src, CaliforniaAlbers, CaliforniaAlbers)
	require.NoError(t, err)

	poly, ok := got.(*geom.Polygon)
	require.True(t, ok)
	assert.Equal(t, CaliforniaAlbers, poly.SRID())
	require.Len(t, poly.FlatCoords(), len(src.FlatCoords()))
	for i, want := range src.FlatCoords() {
		assert.InDelta(t, want, poly.FlatCoords()[i], 1e-6)
	}
}

func TestReprojectRoundTrip(t *testing.T) {
	src := laSquare4326()
	projected, err := Reproject(src, WGS84, CaliforniaAlbers)
	require.NoError(t, err)
	back, err := Reproject(projected, CaliforniaAlbers, WGS84)
	require.NoError(t, err)

	got := back.(*geom.Polygon).FlatCoords()
	for i, want := range src.FlatCoords() {
		assert.InDelta(t, want, got[i], 1e-9)
	}
}

func TestReprojectDoesNotMutateInput(t *testing.T) {
	src := laSquare4326()
	before := make([]float64, len(src.FlatCoords()))
	copy(before, src.FlatCoords())

	got, err := Reproject(src, WGS84, WebMercator)
	require.NoError(t, err)
	require.NotSame(t, src, got)

	assert.Equal(t, before, src.FlatCoords())
	assert.Equal(t, WGS84, src.SRID())
	assert.Equal(t, WebMercator, got.SRID())
}

func TestReprojectPoint(t *testing.T) {
	pt := geom.NewPointFlat(geom.XY, []float64{-118.2437, 34.0522}).SetSRID(WGS84)
	got, err := Reproject(pt, WGS84, WebMercator)
	require.NoError(t, err)

	p := got.(*geom.Point)
	assert.InDelta(t, -13162790.0, p.X(), 2000.0)
	assert.InDelta(t, 4035850.0, p.Y(), 2000.0)
}

func TestReprojectUnknownEPSG(t *testing.T) {
	src := laSquare4326()

	_, err := Reproject(src, WGS84, 9999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "epsg:9999")

	_, err = Reproject(src, 27700, WGS84)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "epsg:27700")
}

func TestReprojectBlocks(t *testing.T) {
	layer := model.BlockLayer{
		Blocks: []model.Block{{FID: 1, County: "Los Angeles", Geom: laSquare4326()}},
		SRID:   WGS84,
	}

	out, err := ReprojectBlocks(layer, WGS84, CaliforniaAlbers)
	require.NoError(t, err)
	assert.Equal(t, CaliforniaAlbers, out.SRID)
	require.Len(t, out.Blocks, 1)
	assert.Equal(t, CaliforniaAlbers, out.Blocks[0].Geom.SRID())
	// input layer untouched
	assert.Equal(t, WGS84, layer.Blocks[0].Geom.SRID())
}

func TestReprojectBlocksDeclaredCRSMismatch(t *testing.T) {
	layer := model.BlockLayer{
		Blocks: []model.Block{{FID: 1, Geom: laSquare4326()}},
		SRID:   WGS84,
	}

	_, err := ReprojectBlocks(layer, CaliforniaAlbers, WebMercator)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "epsg:4326")
	assert.Contains(t, err.Error(), "epsg:3310")
}

func TestReprojectObservations(t *testing.T) {
	layer := model.ObservationLayer{
		Observations: []model.Observation{
			{Year: 2022, Species: "AMRO", Geom: geom.NewPointFlat(geom.XY, []float64{-118.25, 34.05}).SetSRID(WGS84)},
		},
		SRID: WGS84,
	}

	out, err := ReprojectObservations(layer, WGS84, CaliforniaAlbers)
	require.NoError(t, err)
	require.Len(t, out.Observations, 1)
	assert.Equal(t, CaliforniaAlbers, out.Observations[0].Geom.SRID())
	assert.Equal(t, 2022, out.Observations[0].Year)
}

func TestSupportedAndName(t *testing.T) {
	assert.True(t, Supported(WGS84))
	assert.True(t, Supported(CaliforniaAlbers))
	assert.False(t, Supported(27700))

	assert.Equal(t, "NAD83 / California Albers", Name(CaliforniaAlbers))
	assert.Equal(t, "unknown", Name(27700))

	assert.False(t, Projected(WGS84))
	assert.True(t, Projected(CaliforniaAlbers))
	assert.False(t, Projected(27700))
}
