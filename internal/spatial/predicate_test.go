package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	geom "github.com/twpayne/go-geom"
)

// square returns a closed CCW square with the given lower-left corner.
func square(minX, minY, size float64) *geom.Polygon {
	return geom.NewPolygonFlat(geom.XY, []float64{
		minX, minY,
		minX + size, minY,
		minX + size, minY + size,
		minX, minY + size,
		minX, minY,
	}, []int{10})
}

// donut returns a 10x10 square at the origin with a 2x2 hole in the middle.
func donut() *geom.Polygon {
	return geom.NewPolygonFlat(geom.XY, []float64{
		0, 0, 10, 0, 10, 10, 0, 10, 0, 0,
		4, 4, 6, 4, 6, 6, 4, 6, 4, 4,
	}, []int{10, 20})
}

func point(x, y float64) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{x, y})
}

func TestIntersectsPointPolygon(t *testing.T) {
	tests := []struct {
		name string
		pt   *geom.Point
		poly *geom.Polygon
		want bool
	}{
		{name: "inside", pt: point(5, 5), poly: square(0, 0, 10), want: true},
		{name: "outside", pt: point(15, 5), poly: square(0, 0, 10), want: false},
		{name: "on edge", pt: point(10, 5), poly: square(0, 0, 10), want: true},
		{name: "on vertex", pt: point(0, 0), poly: square(0, 0, 10), want: true},
		{name: "inside hole", pt: point(5, 5), poly: donut(), want: false},
		{name: "on hole boundary", pt: point(4, 5), poly: donut(), want: true},
		{name: "between hole and shell", pt: point(2, 2), poly: donut(), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Intersects(tt.pt, tt.poly))
			assert.Equal(t, tt.want, Intersects(tt.poly, tt.pt), "predicate must be symmetric")
		})
	}
}

func TestIntersectsPolygonPolygon(t *testing.T) {
	tests := []struct {
		name string
		a, b geom.T
		want bool
	}{
		{name: "overlapping", a: square(0, 0, 10), b: square(5, 5, 10), want: true},
		{name: "disjoint", a: square(0, 0, 10), b: square(20, 20, 5), want: false},
		{name: "shared edge", a: square(0, 0, 10), b: square(10, 0, 10), want: true},
		{name: "shared corner", a: square(0, 0, 10), b: square(10, 10, 10), want: true},
		{name: "contained", a: square(0, 0, 10), b: square(2, 2, 3), want: true},
		{name: "containing", a: square(2, 2, 3), b: square(0, 0, 10), want: true},
		{name: "inside the hole", a: donut(), b: square(4.5, 4.5, 1), want: false},
		{name: "spanning the hole", a: donut(), b: square(3, 3, 4), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Intersects(tt.a, tt.b))
			assert.Equal(t, tt.want, Intersects(tt.b, tt.a), "predicate must be symmetric")
		})
	}
}

func TestIntersectsMultiPolygon(t *testing.T) {
	mp := geom.NewMultiPolygonFlat(geom.XY, []float64{
		0, 0, 4, 0, 4, 4, 0, 4, 0, 0,
		20, 20, 24, 20, 24, 24, 20, 24, 20, 20,
	}, [][]int{{10}, {20}})

	assert.True(t, Intersects(point(22, 22), mp))
	assert.True(t, Intersects(point(1, 1), mp))
	assert.False(t, Intersects(point(10, 10), mp))
	assert.True(t, Intersects(mp, square(3, 3, 2)))
}

func TestIntersectsUnsupported(t *testing.T) {
	line := geom.NewLineStringFlat(geom.XY, []float64{0, 0, 10, 10})
	assert.False(t, Intersects(line, square(0, 0, 10)))
	assert.False(t, Intersects(nil, square(0, 0, 10)))
	assert.False(t, Intersects(square(0, 0, 10), nil))
}

func TestSegmentsIntersect(t *testing.T) {
	tests := []struct {
		name                           string
		x1, y1, x2, y2, x3, y3, x4, y4 float64
		want                           bool
	}{
		{name: "proper cross", x1: 0, y1: 0, x2: 2, y2: 2, x3: 0, y3: 2, x4: 2, y4: 0, want: true},
		{name: "parallel apart", x1: 0, y1: 0, x2: 2, y2: 0, x3: 0, y3: 1, x4: 2, y4: 1, want: false},
		{name: "endpoint touch", x1: 0, y1: 0, x2: 2, y2: 0, x3: 2, y3: 0, x4: 4, y4: 2, want: true},
		{name: "collinear overlap", x1: 0, y1: 0, x2: 4, y2: 0, x3: 2, y3: 0, x4: 6, y4: 0, want: true},
		{name: "collinear apart", x1: 0, y1: 0, x2: 1, y2: 0, x3: 2, y3: 0, x4: 3, y4: 0, want: false},
		{name: "t touch", x1: 0, y1: 0, x2: 4, y2: 0, x3: 2, y3: -1, x4: 2, y4: 0, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := segmentsIntersect(tt.x1, tt.y1, tt.x2, tt.y2, tt.x3, tt.y3, tt.x4, tt.y4)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPointOnSegment(t *testing.T) {
	assert.True(t, pointOnSegment(1, 1, 0, 0, 2, 2))
	assert.True(t, pointOnSegment(0, 0, 0, 0, 2, 2))
	assert.False(t, pointOnSegment(3, 3, 0, 0, 2, 2))
	assert.False(t, pointOnSegment(1, 1.1, 0, 0, 2, 2))
}
