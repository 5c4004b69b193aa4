package spatial

import (
	"sort"

	cgeom "github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/geom/proj"
	geom "github.com/twpayne/go-geom"
)

// Index is an R-tree over a geometry collection's bounding boxes. Exact
// predicate work still happens per candidate; the tree only prunes the
// candidate set to make joins sub-quadratic.
type Index struct {
	tree  *rtree.Rtree
	geoms []geom.T
}

type indexEntry struct {
	bounds *cgeom.Bounds
	idx    int
}

func (e *indexEntry) Bounds() *cgeom.Bounds { return e.bounds }

// The remaining cgeom.Geom methods exist only to satisfy rtree.Insert's
// parameter type; the tree calls nothing but Bounds on stored entries.
func (e *indexEntry) Similar(cgeom.Geom, float64) bool { return false }

func (e *indexEntry) Transform(proj.Transformer) (cgeom.Geom, error) { return e, nil }

func (e *indexEntry) Len() int { return 0 }

func (e *indexEntry) Points() func() cgeom.Point { return func() cgeom.Point { return cgeom.Point{} } }

// NewIndex builds an R-tree over the collection. The slice is retained, not
// copied; callers must not mutate it while the index is in use.
func NewIndex(geoms []geom.T) *Index {
	tree := rtree.NewTree(25, 50)
	for i, g := range geoms {
		if g == nil {
			continue
		}
		tree.Insert(&indexEntry{bounds: toBounds(g.Bounds()), idx: i})
	}
	return &Index{tree: tree, geoms: geoms}
}

// Len returns the size of the indexed collection.
func (ix *Index) Len() int { return len(ix.geoms) }

// Geom returns the indexed geometry at i.
func (ix *Index) Geom(i int) geom.T { return ix.geoms[i] }

// Candidates returns the indices whose bounding boxes intersect g's
// bounding box, in ascending order.
func (ix *Index) Candidates(g geom.T) []int {
	if g == nil {
		return nil
	}
	hits := ix.tree.SearchIntersect(toBounds(g.Bounds()))
	out := make([]int, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.(*indexEntry).idx)
	}
	sort.Ints(out)
	return out
}

func toBounds(b *geom.Bounds) *cgeom.Bounds {
	return &cgeom.Bounds{
		Min: cgeom.Point{X: b.Min(0), Y: b.Min(1)},
		Max: cgeom.Point{X: b.Max(0), Y: b.Max(1)},
	}
}
