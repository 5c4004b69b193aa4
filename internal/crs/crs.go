// Package crs holds the coordinate reference systems the pipeline may
// operate in and reprojects geometries between them. Every function takes
// explicit EPSG codes; nothing in this package infers a CRS from data.
package crs

import (
	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
)

// EPSG codes of the supported coordinate reference systems.
const (
	WGS84            = 4326
	WebMercator      = 3857
	CaliforniaAlbers = 3310
	ConusAlbers      = 5070
)

var projections = map[int]projection{
	WGS84:            geographic{},
	WebMercator:      webMercator{},
	CaliforniaAlbers: newAlbers(0, -120, 34, 40.5, 0, -4000000),
	ConusAlbers:      newAlbers(23, -96, 29.5, 45.5, 0, 0),
}

var names = map[int]string{
	WGS84:            "WGS 84",
	WebMercator:      "WGS 84 / Pseudo-Mercator",
	CaliforniaAlbers: "NAD83 / California Albers",
	ConusAlbers:      "NAD83 / Conus Albers",
}

// Supported reports whether the EPSG code has a registered projection.
func Supported(epsg int) bool {
	_, ok := projections[epsg]
	return ok
}

// Name returns the well-known name of a supported EPSG code, or "unknown".
func Name(epsg int) string {
	if n, ok := names[epsg]; ok {
		return n
	}
	return "unknown"
}

// Projected reports whether the EPSG code is a planar (projected) CRS.
// Geographic CRSs are fine for loading but not for area/containment work.
func Projected(epsg int) bool {
	if !Supported(epsg) {
		return false
	}
	return epsg != WGS84
}

// Reproject returns a copy of g with every vertex transformed from the
// source CRS to the target CRS and the target SRID set. The input is never
// mutated. When from == to the full transform chain still runs, so numeric
// drift surfaces instead of hiding behind a skipped no-op.
func Reproject(g geom.T, from, to int) (geom.T, error) {
	src, ok := projections[from]
	if !ok {
		return nil, eris.Errorf("crs: unknown source epsg:%d", from)
	}
	dst, ok := projections[to]
	if !ok {
		return nil, eris.Errorf("crs: unknown target epsg:%d", to)
	}

	switch t := g.(type) {
	case *geom.Point:
		return geom.NewPointFlat(t.Layout(), transformFlat(src, dst, t.FlatCoords(), t.Stride())).SetSRID(to), nil
	case *geom.MultiPoint:
		return geom.NewMultiPointFlat(t.Layout(), transformFlat(src, dst, t.FlatCoords(), t.Stride())).SetSRID(to), nil
	case *geom.LineString:
		return geom.NewLineStringFlat(t.Layout(), transformFlat(src, dst, t.FlatCoords(), t.Stride())).SetSRID(to), nil
	case *geom.MultiLineString:
		return geom.NewMultiLineStringFlat(t.Layout(), transformFlat(src, dst, t.FlatCoords(), t.Stride()), copyInts(t.Ends())).SetSRID(to), nil
	case *geom.Polygon:
		return geom.NewPolygonFlat(t.Layout(), transformFlat(src, dst, t.FlatCoords(), t.Stride()), copyInts(t.Ends())).SetSRID(to), nil
	case *geom.MultiPolygon:
		return geom.NewMultiPolygonFlat(t.Layout(), transformFlat(src, dst, t.FlatCoords(), t.Stride()), copyIntss(t.Endss())).SetSRID(to), nil
	default:
		return nil, eris.Errorf("crs: unsupported geometry type %T", g)
	}
}

// transformFlat maps each vertex through source-inverse then target-forward.
// Dimensions past X and Y (Z, M) are copied through untouched.
func transformFlat(src, dst projection, flat []float64, stride int) []float64 {
	out := make([]float64, len(flat))
	for i := 0; i+1 < len(flat); i += stride {
		lon, lat := src.inverse(flat[i], flat[i+1])
		x, y := dst.forward(lon, lat)
		out[i] = x
		out[i+1] = y
		for j := 2; j < stride; j++ {
			out[i+j] = flat[i+j]
		}
	}
	return out
}

func copyInts(src []int) []int {
	out := make([]int, len(src))
	copy(out, src)
	return out
}

func copyIntss(src [][]int) [][]int {
	out := make([][]int, len(src))
	for i, s := range src {
		out[i] = copyInts(s)
	}
	return out
}
