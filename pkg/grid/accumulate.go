package grid

import (
	"github.com/ctessum/sparse"

	"github.com/OpenTraceLab/irmap/pkg/layout"
)

// NewMap allocates a zeroed nx x ny array.
func (g *Grid) NewMap() *sparse.DenseArray {
	return sparse.ZerosDense(g.NX(), g.NY())
}

// NewSeries allocates a zeroed t x nx x ny array.
func (g *Grid) NewSeries(t int) *sparse.DenseArray {
	return sparse.ZerosDense(t, g.NX(), g.NY())
}

// Accumulate adds scale*w into dst for every weight.
func Accumulate(dst *sparse.DenseArray, weights []Weight, scale float64) {
	if scale == 0 {
		return
	}
	for _, w := range weights {
		dst.AddVal(w.W*scale, w.I, w.J)
	}
}

// AccumulateRange adds scale*w into slices t0..t1 of a time series. The
// range is clamped to the series length.
func AccumulateRange(dst *sparse.DenseArray, weights []Weight, t0, t1 int, scale float64) {
	if scale == 0 {
		return
	}
	last := dst.Shape[0] - 1
	if t0 < 0 {
		t0 = 0
	}
	if t1 > last {
		t1 = last
	}
	for t := t0; t <= t1; t++ {
		for _, w := range weights {
			dst.AddVal(w.W*scale, t, w.I, w.J)
		}
	}
}

// MaxAt raises the cell holding p to v if v is larger than its current value.
func (g *Grid) MaxAt(dst *sparse.DenseArray, p layout.Position, v float64) {
	i, j := g.Lookup(p)
	if v > dst.Get(i, j) {
		dst.Set(v, i, j)
	}
}

// SetAt overwrites the cell holding p with v.
func (g *Grid) SetAt(dst *sparse.DenseArray, p layout.Position, v float64) {
	i, j := g.Lookup(p)
	dst.Set(v, i, j)
}
