// Package layout provides the physical geometry shared by the library,
// placement and grid packages: positions, sizes, axis-aligned bounding boxes
// and the eight placement orientations.
package layout

import "math"

// Position is a 2D coordinate in design units (DEF database units).
type Position struct {
	X float64
	Y float64
}

// Size holds macro dimensions in design units.
type Size struct {
	Width  float64
	Height float64
}

// BoundingBox is an axis-aligned rectangle
type BoundingBox struct {
	Min Position // lower-left corner
	Max Position // upper-right corner
}

// Rect builds a bounding box from left, lower, right, upper coordinates.
func Rect(left, lower, right, upper float64) BoundingBox {
	return BoundingBox{
		Min: Position{X: left, Y: lower},
		Max: Position{X: right, Y: upper},
	}
}

// NewBoundingBox creates an empty bounding box ready to be expanded.
func NewBoundingBox() BoundingBox {
	return BoundingBox{
		Min: Position{X: math.Inf(1), Y: math.Inf(1)},
		Max: Position{X: math.Inf(-1), Y: math.Inf(-1)},
	}
}

// IsEmpty reports whether nothing has been added to the box.
func (bb BoundingBox) IsEmpty() bool {
	return bb.Min.X > bb.Max.X || bb.Min.Y > bb.Max.Y
}

// Expand grows the box to include pos.
func (bb *BoundingBox) Expand(pos Position) {
	if pos.X < bb.Min.X {
		bb.Min.X = pos.X
	}
	if pos.Y < bb.Min.Y {
		bb.Min.Y = pos.Y
	}
	if pos.X > bb.Max.X {
		bb.Max.X = pos.X
	}
	if pos.Y > bb.Max.Y {
		bb.Max.Y = pos.Y
	}
}

// ExpandBox grows the box to include other.
func (bb *BoundingBox) ExpandBox(other BoundingBox) {
	if !other.IsEmpty() {
		bb.Expand(other.Min)
		bb.Expand(other.Max)
	}
}

// Width returns the x extent.
func (bb BoundingBox) Width() float64 {
	return bb.Max.X - bb.Min.X
}

// Height returns the y extent.
func (bb BoundingBox) Height() float64 {
	return bb.Max.Y - bb.Min.Y
}

// Area returns Width*Height, or 0 for an empty box.
func (bb BoundingBox) Area() float64 {
	if bb.IsEmpty() {
		return 0
	}
	return bb.Width() * bb.Height()
}

// Overlap returns the area shared by the two boxes, 0 when disjoint.
func (bb BoundingBox) Overlap(other BoundingBox) float64 {
	w := math.Min(bb.Max.X, other.Max.X) - math.Max(bb.Min.X, other.Min.X)
	h := math.Min(bb.Max.Y, other.Max.Y) - math.Max(bb.Min.Y, other.Min.Y)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Distance returns the Euclidean distance between two positions.
func Distance(a, b Position) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}
