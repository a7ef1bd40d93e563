// Package grid implements the non-uniform cell grid that every feature map is
// aligned to, and the area-weighted rasterization of instance footprints
// onto it.
package grid

import (
	"errors"
	"fmt"
	"sort"

	"github.com/OpenTraceLab/irmap/pkg/layout"
)

// DefaultDieEdge is the coordinate used as the lower edge of the first cell
// on each axis.
const DefaultDieEdge = -10.0

var (
	ErrEmptyAxis        = errors.New("grid: axis has no boundaries")
	ErrNotIncreasing    = errors.New("grid: boundaries not strictly increasing")
	ErrBadNormalization = errors.New("grid: unknown normalization")
)

// Grid is a rectilinear grid with arbitrary cell widths. X and Y hold the
// upper boundary of every cell; cell (i, j) spans
// [X[i-1], X[i]) x [Y[j-1], Y[j]) with DieEdge standing in for X[-1] and
// Y[-1].
type Grid struct {
	X       []float64
	Y       []float64
	DieEdge float64
}

// New validates the boundary sequences and builds a Grid.
func New(x, y []float64, dieEdge float64) (*Grid, error) {
	for _, axis := range []struct {
		name string
		b    []float64
	}{{"x", x}, {"y", y}} {
		if len(axis.b) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyAxis, axis.name)
		}
		for i := 1; i < len(axis.b); i++ {
			if axis.b[i] <= axis.b[i-1] {
				return nil, fmt.Errorf("%w: %s[%d]=%v after %v", ErrNotIncreasing, axis.name, i, axis.b[i], axis.b[i-1])
			}
		}
	}
	return &Grid{X: x, Y: y, DieEdge: dieEdge}, nil
}

// NX returns the number of cells along x.
func (g *Grid) NX() int { return len(g.X) }

// NY returns the number of cells along y.
func (g *Grid) NY() int { return len(g.Y) }

// Lookup returns the cell containing p. Coordinates outside the grid clamp
// to the border cells.
func (g *Grid) Lookup(p layout.Position) (int, int) {
	return lookup(g.X, p.X), lookup(g.Y, p.Y)
}

// lookup finds the half-open cell [b[i-1], b[i]) holding v. The leftmost
// insertion point lands on the cell whose upper boundary equals v, which
// belongs to the next cell.
func lookup(b []float64, v float64) int {
	i := sort.SearchFloat64s(b, v)
	if i < len(b) && b[i] == v {
		i++
	}
	if i >= len(b) {
		i = len(b) - 1
	}
	return i
}

// leftmost returns the leftmost insertion point of v, clamped to the last
// cell.
func leftmost(b []float64, v float64) int {
	i := sort.SearchFloat64s(b, v)
	if i >= len(b) {
		i = len(b) - 1
	}
	return i
}

// span returns the inclusive cell range touched by [lo, hi] on one axis.
func span(b []float64, lo, hi float64) (int, int) {
	first := lookup(b, lo)
	last := leftmost(b, hi)
	if last < first {
		last = first
	}
	return first, last
}

// Span returns the inclusive cell index ranges touched by rect.
func (g *Grid) Span(rect layout.BoundingBox) (i0, i1, j0, j1 int) {
	i0, i1 = span(g.X, rect.Min.X, rect.Max.X)
	j0, j1 = span(g.Y, rect.Min.Y, rect.Max.Y)
	return i0, i1, j0, j1
}

// CellBounds returns the physical extent of cell (i, j).
func (g *Grid) CellBounds(i, j int) layout.BoundingBox {
	left, lower := g.DieEdge, g.DieEdge
	if i > 0 {
		left = g.X[i-1]
	}
	if j > 0 {
		lower = g.Y[j-1]
	}
	return layout.Rect(left, lower, g.X[i], g.Y[j])
}
