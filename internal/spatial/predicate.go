package spatial

import (
	"math"

	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// onSegmentTol is the perpendicular distance under which a point counts as
// lying on a segment. Coordinates here are projected meters (or degrees
// before reprojection), so a nanometer-scale tolerance only absorbs float
// noise, never real geometry.
const onSegmentTol = 1e-9

// Intersects reports whether two geometries share at least one point,
// boundary contact included. Point and polygonal geometries are supported,
// which covers every join this pipeline performs; any other combination
// reports false.
func Intersects(a, b geom.T) bool {
	if a == nil || b == nil {
		return false
	}
	if !boundsOverlap(a.Bounds(), b.Bounds()) {
		return false
	}
	ap, aIsPoint := a.(*geom.Point)
	bp, bIsPoint := b.(*geom.Point)
	switch {
	case aIsPoint && bIsPoint:
		return ap.X() == bp.X() && ap.Y() == bp.Y()
	case aIsPoint:
		return pointIntersectsPolygonal(ap.X(), ap.Y(), b)
	case bIsPoint:
		return pointIntersectsPolygonal(bp.X(), bp.Y(), a)
	default:
		return polygonalsIntersect(a, b)
	}
}

// ring is one linear ring of a polygonal geometry in flat-coordinate form.
type ring struct {
	layout geom.Layout
	stride int
	flat   []float64
}

// polyRings groups a polygon's shell with its holes.
type polyRings struct {
	shell ring
	holes []ring
}

func polygonToRings(p *geom.Polygon) polyRings {
	pr := polyRings{}
	for i := 0; i < p.NumLinearRings(); i++ {
		lr := p.LinearRing(i)
		r := ring{layout: lr.Layout(), stride: lr.Stride(), flat: lr.FlatCoords()}
		if i == 0 {
			pr.shell = r
		} else {
			pr.holes = append(pr.holes, r)
		}
	}
	return pr
}

// polygonalRings returns the member polygons of g as ring groups; ok is
// false when g is not polygonal.
func polygonalRings(g geom.T) ([]polyRings, bool) {
	switch t := g.(type) {
	case *geom.Polygon:
		return []polyRings{polygonToRings(t)}, true
	case *geom.MultiPolygon:
		polys := make([]polyRings, 0, t.NumPolygons())
		for i := 0; i < t.NumPolygons(); i++ {
			polys = append(polys, polygonToRings(t.Polygon(i)))
		}
		return polys, true
	default:
		return nil, false
	}
}

func pointIntersectsPolygonal(x, y float64, g geom.T) bool {
	polys, ok := polygonalRings(g)
	if !ok {
		return false
	}
	coord := geom.Coord{x, y}
	for _, p := range polys {
		if len(p.shell.flat) == 0 {
			continue
		}
		if pointOnRing(x, y, p.shell) {
			return true
		}
		if !xy.IsPointInRing(p.shell.layout, coord, p.shell.flat) {
			continue
		}
		inHole := false
		for _, h := range p.holes {
			if pointOnRing(x, y, h) {
				return true
			}
			if xy.IsPointInRing(h.layout, coord, h.flat) {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}

func polygonalsIntersect(a, b geom.T) bool {
	pa, ok := polygonalRings(a)
	if !ok {
		return false
	}
	pb, ok := polygonalRings(b)
	if !ok {
		return false
	}
	for _, ra := range allRings(pa) {
		for _, rb := range allRings(pb) {
			if ringEdgesIntersect(ra, rb) {
				return true
			}
		}
	}
	// no boundary contact: one may still contain the other outright
	for _, p := range pa {
		if len(p.shell.flat) >= p.shell.stride {
			if pointIntersectsPolygonal(p.shell.flat[0], p.shell.flat[1], b) {
				return true
			}
		}
	}
	for _, p := range pb {
		if len(p.shell.flat) >= p.shell.stride {
			if pointIntersectsPolygonal(p.shell.flat[0], p.shell.flat[1], a) {
				return true
			}
		}
	}
	return false
}

func allRings(polys []polyRings) []ring {
	rings := make([]ring, 0, len(polys))
	for _, p := range polys {
		rings = append(rings, p.shell)
		rings = append(rings, p.holes...)
	}
	return rings
}

// ringEdgesIntersect tests every segment pair of two rings with a bbox
// reject per outer segment.
func ringEdgesIntersect(ra, rb ring) bool {
	bMinX, bMinY, bMaxX, bMaxY := ringBBox(rb)
	for i := 0; i+ra.stride < len(ra.flat); i += ra.stride {
		ax1, ay1 := ra.flat[i], ra.flat[i+1]
		ax2, ay2 := ra.flat[i+ra.stride], ra.flat[i+ra.stride+1]
		if math.Max(ax1, ax2) < bMinX || math.Min(ax1, ax2) > bMaxX ||
			math.Max(ay1, ay2) < bMinY || math.Min(ay1, ay2) > bMaxY {
			continue
		}
		for j := 0; j+rb.stride < len(rb.flat); j += rb.stride {
			if segmentsIntersect(ax1, ay1, ax2, ay2,
				rb.flat[j], rb.flat[j+1], rb.flat[j+rb.stride], rb.flat[j+rb.stride+1]) {
				return true
			}
		}
	}
	return false
}

func ringBBox(r ring) (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for i := 0; i+1 < len(r.flat); i += r.stride {
		minX = math.Min(minX, r.flat[i])
		maxX = math.Max(maxX, r.flat[i])
		minY = math.Min(minY, r.flat[i+1])
		maxY = math.Max(maxY, r.flat[i+1])
	}
	return
}

// pointOnRing reports whether (x, y) lies on any segment of the ring.
func pointOnRing(x, y float64, r ring) bool {
	for i := 0; i+r.stride < len(r.flat); i += r.stride {
		if pointOnSegment(x, y, r.flat[i], r.flat[i+1], r.flat[i+r.stride], r.flat[i+r.stride+1]) {
			return true
		}
	}
	return false
}

func pointOnSegment(px, py, x1, y1, x2, y2 float64) bool {
	dx, dy := x2-x1, y2-y1
	segLen := math.Hypot(dx, dy)
	if segLen == 0 {
		return math.Hypot(px-x1, py-y1) <= onSegmentTol
	}
	// perpendicular distance from the segment's carrier line
	cross := dx*(py-y1) - dy*(px-x1)
	if math.Abs(cross)/segLen > onSegmentTol {
		return false
	}
	// projection parameter must land within the segment
	t := (dx*(px-x1) + dy*(py-y1)) / (segLen * segLen)
	return t >= 0 && t <= 1
}

// segmentsIntersect reports whether closed segments (p1,p2) and (p3,p4)
// share at least one point, endpoint and collinear contact included.
func segmentsIntersect(x1, y1, x2, y2, x3, y3, x4, y4 float64) bool {
	d1 := cross(x3, y3, x4, y4, x1, y1)
	d2 := cross(x3, y3, x4, y4, x2, y2)
	d3 := cross(x1, y1, x2, y2, x3, y3)
	d4 := cross(x1, y1, x2, y2, x4, y4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	if d1 == 0 && inBox(x1, y1, x3, y3, x4, y4) {
		return true
	}
	if d2 == 0 && inBox(x2, y2, x3, y3, x4, y4) {
		return true
	}
	if d3 == 0 && inBox(x3, y3, x1, y1, x2, y2) {
		return true
	}
	if d4 == 0 && inBox(x4, y4, x1, y1, x2, y2) {
		return true
	}
	return false
}

// cross is the orientation of point (px, py) relative to segment (ax, ay)→(bx, by).
func cross(ax, ay, bx, by, px, py float64) float64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// inBox reports whether (px, py) lies inside the bounding box of a segment.
func inBox(px, py, x1, y1, x2, y2 float64) bool {
	return px >= math.Min(x1, x2) && px <= math.Max(x1, x2) &&
		py >= math.Min(y1, y2) && py <= math.Max(y1, y2)
}

func boundsOverlap(a, b *geom.Bounds) bool {
	return a.Min(0) <= b.Max(0) && a.Max(0) >= b.Min(0) &&
		a.Min(1) <= b.Max(1) && a.Max(1) >= b.Min(1)
}
