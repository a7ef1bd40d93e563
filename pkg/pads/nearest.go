package pads

import (
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/sparse"

	"github.com/OpenTraceLab/irmap/pkg/def"
	"github.com/OpenTraceLab/irmap/pkg/grid"
	"github.com/OpenTraceLab/irmap/pkg/layout"
)

// Finder returns the distance from p to the closest pad. ok is false when
// there are no pads.
type Finder interface {
	Nearest(p layout.Position) (dist float64, ok bool)
}

// Naive scans every pad.
type Naive []Pad

// Nearest implements Finder.
func (n Naive) Nearest(p layout.Position) (float64, bool) {
	if len(n) == 0 {
		return 0, false
	}
	best := math.Inf(1)
	for _, pad := range n {
		if d := layout.Distance(p, pad.Position); d < best {
			best = d
		}
	}
	return best, true
}

type padItem struct {
	geom.Point
	pad *Pad
}

// Index answers nearest-pad queries with an R-tree.
type Index struct {
	tree   *rtree.Rtree
	n      int
	radius float64 // initial search half-width
}

// NewIndex builds an index over pads.
func NewIndex(pads []Pad) *Index {
	ix := &Index{tree: rtree.NewTree(25, 50), n: len(pads)}
	extent := layout.NewBoundingBox()
	for i := range pads {
		p := &pads[i]
		ix.tree.Insert(&padItem{Point: geom.Point{X: p.Position.X, Y: p.Position.Y}, pad: p})
		extent.Expand(p.Position)
	}
	ix.radius = 1
	if ix.n > 0 {
		if r := math.Max(extent.Width(), extent.Height()) / math.Sqrt(float64(ix.n)); r > ix.radius {
			ix.radius = r
		}
	}
	return ix
}

// Len returns the number of indexed pads.
func (ix *Index) Len() int { return ix.n }

// Nearest implements Finder. The search box grows until it holds a pad; a
// final query with the best distance as half-width catches closer pads that
// sit in the box corners.
func (ix *Index) Nearest(p layout.Position) (float64, bool) {
	if ix.n == 0 {
		return 0, false
	}
	r := ix.radius
	for {
		best, found := ix.search(p, r)
		if found {
			if best <= r {
				return best, true
			}
			if closer, ok := ix.search(p, best*(1+1e-9)); ok && closer < best {
				best = closer
			}
			return best, true
		}
		r *= 2
	}
}

func (ix *Index) search(p layout.Position, r float64) (float64, bool) {
	box := &geom.Bounds{
		Min: geom.Point{X: p.X - r, Y: p.Y - r},
		Max: geom.Point{X: p.X + r, Y: p.Y + r},
	}
	hits := ix.tree.SearchIntersect(box)
	if len(hits) == 0 {
		return 0, false
	}
	best := math.Inf(1)
	for _, h := range hits {
		item := h.(*padItem)
		if d := layout.Distance(p, item.pad.Position); d < best {
			best = d
		}
	}
	return best, true
}

// DistanceMap writes, for every instance in order, the distance from its
// origin to the nearest pad into the cell holding the origin. Later
// instances overwrite earlier ones in the same cell. The map stays zero when
// there are no pads.
func DistanceMap(g *grid.Grid, instances []*def.Instance, f Finder) *sparse.DenseArray {
	m := g.NewMap()
	for _, inst := range instances {
		d, ok := f.Nearest(inst.Origin)
		if !ok {
			return m
		}
		g.SetAt(m, inst.Origin, d)
	}
	return m
}
