package grid

import (
	"fmt"

	"github.com/OpenTraceLab/irmap/pkg/layout"
)

// Normalization selects the denominator of a coverage weight.
type Normalization int

const (
	// Footprint divides the overlap by the footprint area, so an instance
	// fully inside the grid spreads a total weight of 1.
	Footprint Normalization = iota
	// Cell divides the overlap by the cell area, giving a density.
	Cell
)

func (n Normalization) String() string {
	switch n {
	case Footprint:
		return "footprint"
	case Cell:
		return "cell"
	}
	return fmt.Sprintf("Normalization(%d)", int(n))
}

// ParseNormalization converts "footprint" or "cell".
func ParseNormalization(s string) (Normalization, error) {
	switch s {
	case "footprint", "":
		return Footprint, nil
	case "cell":
		return Cell, nil
	}
	return 0, fmt.Errorf("%w %q", ErrBadNormalization, s)
}

// Weight is the share of an instance falling into cell (I, J).
type Weight struct {
	I, J int
	W    float64
}

// Coverage distributes rect over the cells it overlaps. A footprint with no
// area puts weight 1 into the cell holding its lower-left corner.
func (g *Grid) Coverage(rect layout.BoundingBox, norm Normalization) []Weight {
	area := rect.Area()
	if area <= 0 {
		i, j := g.Lookup(rect.Min)
		return []Weight{{I: i, J: j, W: 1}}
	}

	i0, i1, j0, j1 := g.Span(rect)
	weights := make([]Weight, 0, (i1-i0+1)*(j1-j0+1))
	for i := i0; i <= i1; i++ {
		for j := j0; j <= j1; j++ {
			cell := g.CellBounds(i, j)
			overlap := rect.Overlap(cell)
			if overlap == 0 {
				continue
			}
			w := overlap / area
			if norm == Cell {
				w = overlap / cell.Area()
			}
			weights = append(weights, Weight{I: i, J: j, W: w})
		}
	}
	return weights
}
