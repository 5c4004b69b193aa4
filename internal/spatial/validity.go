package spatial

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
)

// Validity is the aggregate result of a simple-features validity check over
// a polygon collection. Valid is true only when every polygon passed.
type Validity struct {
	Valid    bool     `json:"valid"`
	Checked  int      `json:"checked"`
	Invalid  int      `json:"invalid"`
	Failures []string `json:"failures,omitempty"`
	Message  string   `json:"message"`
}

// CheckValidity validates each polygonal geometry and aggregates the result.
// ids, when non-nil, labels failures (ids[i] names geoms[i]); otherwise the
// positional index is used. Geometries are never repaired here: the caller
// decides whether to proceed on invalid input, and the message records what
// it proceeded on.
func CheckValidity(geoms []geom.T, ids []string) Validity {
	v := Validity{Checked: len(geoms)}
	for i, g := range geoms {
		if err := ValidatePolygon(g); err != nil {
			v.Invalid++
			label := fmt.Sprintf("polygon %d", i)
			if ids != nil && i < len(ids) && ids[i] != "" {
				label = ids[i]
			}
			v.Failures = append(v.Failures, fmt.Sprintf("%s: %s", label, err.Error()))
		}
	}
	v.Valid = v.Invalid == 0
	if v.Valid {
		v.Message = fmt.Sprintf("all %d polygons valid", v.Checked)
	} else {
		v.Message = fmt.Sprintf("%d of %d polygons invalid; first: %s", v.Invalid, v.Checked, v.Failures[0])
	}
	return v
}

// ValidatePolygon reports the first simple-features violation of a polygon
// or multipolygon: ring too short, unclosed, non-finite coordinates, spikes,
// or ring self-intersection. Inter-ring containment ordering is not checked.
// A nil error means the geometry passed.
func ValidatePolygon(g geom.T) error {
	if g == nil {
		return eris.New("spatial: nil geometry")
	}
	polys, ok := polygonalRings(g)
	if !ok {
		return eris.Errorf("spatial: not a polygonal geometry: %T", g)
	}
	ringIdx := 0
	for _, p := range polys {
		for _, r := range append([]ring{p.shell}, p.holes...) {
			if err := validateRing(r, ringIdx); err != nil {
				return err
			}
			ringIdx++
		}
	}
	return nil
}

func validateRing(r ring, idx int) error {
	n := len(r.flat) / r.stride
	if n < 4 {
		return eris.Errorf("spatial: ring %d has %d points, need at least 4", idx, n)
	}
	for v := 0; v < n; v++ {
		x, y := r.flat[v*r.stride], r.flat[v*r.stride+1]
		if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
			return eris.Errorf("spatial: ring %d has a non-finite coordinate at vertex %d", idx, v)
		}
	}
	last := (n - 1) * r.stride
	if r.flat[0] != r.flat[last] || r.flat[1] != r.flat[last+1] {
		return eris.Errorf("spatial: ring %d is not closed", idx)
	}
	return ringSelfIntersection(r, idx)
}

// ringSelfIntersection scans every non-adjacent segment pair, plus adjacent
// pairs for collinear spikes. All-pairs is fine at this scale: district
// rings run to a few hundred vertices.
func ringSelfIntersection(r ring, idx int) error {
	nSeg := len(r.flat)/r.stride - 1
	seg := func(i int) (x1, y1, x2, y2 float64) {
		return r.flat[i*r.stride], r.flat[i*r.stride+1],
			r.flat[(i+1)*r.stride], r.flat[(i+1)*r.stride+1]
	}
	for i := 0; i < nSeg; i++ {
		x1, y1, x2, y2 := seg(i)
		for j := i + 1; j < nSeg; j++ {
			x3, y3, x4, y4 := seg(j)
			adjacent := j == i+1 || (i == 0 && j == nSeg-1)
			if adjacent {
				// shared endpoints are legal; a doubling-back spike is not
				if spikes(x1, y1, x2, y2, x3, y3, x4, y4, i == 0 && j == nSeg-1) {
					return eris.Errorf("spatial: ring %d has a spike at vertex %d", idx, j)
				}
				continue
			}
			if segmentsIntersect(x1, y1, x2, y2, x3, y3, x4, y4) {
				px, py := intersectionNear(x1, y1, x2, y2, x3, y3, x4, y4)
				return eris.Errorf("spatial: ring %d self-intersects near (%.6f, %.6f)", idx, px, py)
			}
		}
	}
	return nil
}

// spikes reports whether two segments that share an endpoint double back
// over each other.
func spikes(x1, y1, x2, y2, x3, y3, x4, y4 float64, wrap bool) bool {
	// orient so the shared vertex is (sx, sy) with arms (ax, ay), (bx, by)
	sx, sy, ax, ay, bx, by := x2, y2, x1, y1, x4, y4
	if wrap {
		sx, sy, ax, ay, bx, by = x1, y1, x2, y2, x3, y3
	}
	if cross(ax, ay, bx, by, sx, sy) != 0 {
		return false
	}
	// collinear arms spike when both point the same way from the vertex
	return (ax-sx)*(bx-sx)+(ay-sy)*(by-sy) > 0
}

// intersectionNear locates the crossing of two segments for error messages;
// for collinear overlap it falls back to the second segment's start.
func intersectionNear(x1, y1, x2, y2, x3, y3, x4, y4 float64) (float64, float64) {
	denom := (x2-x1)*(y4-y3) - (y2-y1)*(x4-x3)
	if denom == 0 {
		return x3, y3
	}
	t := ((x3-x1)*(y4-y3) - (y3-y1)*(x4-x3)) / denom
	return x1 + t*(x2-x1), y1 + t*(y2-y1)
}
