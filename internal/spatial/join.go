// Package spatial implements the geometric core of the pipeline: the
// intersects predicate, polygon validity checking, and R-tree indexed
// left outer joins. All functions are pure; CRS agreement is asserted,
// never assumed.
package spatial

import (
	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
)

// Pair is one output row of a spatial left join: Left indexes the left
// collection and Right indexes the right collection, or is -1 when no right
// geometry intersected (the null-attribute row of a left outer join).
type Pair struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

// Matched reports whether the pair carries a right-side match.
func (p Pair) Matched() bool { return p.Right >= 0 }

// RequireSameCRS returns a descriptive error when two collections declare
// different CRSs. Joining across CRSs produces silently wrong or empty
// results, so every join entry point calls this first.
func RequireSameCRS(leftSRID, rightSRID int) error {
	if leftSRID != rightSRID {
		return eris.Errorf("spatial: crs mismatch: left epsg:%d, right epsg:%d", leftSRID, rightSRID)
	}
	return nil
}

// LeftJoin joins every left geometry against the right collection with the
// intersects predicate. Each match emits one pair (fan-out when several
// right polygons intersect the same left geometry); a left geometry with no
// match emits exactly one pair with Right == -1. Right candidates come from
// an R-tree over the right collection, so the join is sub-quadratic in
// collection sizes. Output is ordered by left index, then right index.
func LeftJoin(left []geom.T, leftSRID int, right []geom.T, rightSRID int) ([]Pair, error) {
	if err := RequireSameCRS(leftSRID, rightSRID); err != nil {
		return nil, err
	}
	ix := NewIndex(right)
	pairs := make([]Pair, 0, len(left))
	for i, g := range left {
		matched := false
		for _, j := range ix.Candidates(g) {
			if Intersects(g, ix.Geom(j)) {
				pairs = append(pairs, Pair{Left: i, Right: j})
				matched = true
			}
		}
		if !matched {
			pairs = append(pairs, Pair{Left: i, Right: -1})
		}
	}
	return pairs, nil
}

// CountMatches tallies join rows per right-collection member. The result is
// index-aligned with the right collection the pairs were produced against.
func CountMatches(pairs []Pair, rightLen int) []int {
	counts := make([]int, rightLen)
	for _, p := range pairs {
		if p.Matched() && p.Right < rightLen {
			counts[p.Right]++
		}
	}
	return counts
}
