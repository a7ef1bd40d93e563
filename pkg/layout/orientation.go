package layout

import (
	"errors"
	"fmt"
)

// ErrInvalidOrientation is returned for codes outside the eight DEF
// orientations.
var ErrInvalidOrientation = errors.New("layout: invalid orientation")

// Orientation is one of the eight DEF/LEF placement orientations.
type Orientation uint8

const (
	N  Orientation = iota // R0
	S                     // R180
	W                     // R90
	E                     // R270
	FN                    // MY
	FS                    // MX
	FW                    // MX90
	FE                    // MY90
)

var orientationNames = [...]string{"N", "S", "W", "E", "FN", "FS", "FW", "FE"}

// Orientations lists every valid orientation.
var Orientations = []Orientation{N, S, W, E, FN, FS, FW, FE}

func (o Orientation) String() string {
	if int(o) < len(orientationNames) {
		return orientationNames[o]
	}
	return fmt.Sprintf("Orientation(%d)", uint8(o))
}

// ParseOrientation converts a DEF orientation token.
func ParseOrientation(code string) (Orientation, error) {
	for i, name := range orientationNames {
		if code == name {
			return Orientation(i), nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrInvalidOrientation, code)
}

// BoxTransform selects which macro dimension maps to each placed extent:
// placed width = A*w + B*h, placed height = C*w + D*h.
type BoxTransform struct {
	A, B, C, D float64
}

var (
	keepAxes = BoxTransform{A: 1, B: 0, C: 0, D: 1}
	swapAxes = BoxTransform{A: 0, B: 1, C: 1, D: 0}
)

// BoxTransform returns the bounding-box transform for o. Rotations by 90 or
// 270 degrees (and their mirrors) swap width and height.
func (o Orientation) BoxTransform() BoxTransform {
	switch o {
	case W, E, FW, FE:
		return swapAxes
	default:
		return keepAxes
	}
}

// Tuple returns the transform as (A, B, C, D).
func (t BoxTransform) Tuple() [4]float64 {
	return [4]float64{t.A, t.B, t.C, t.D}
}

// Apply maps a macro size to the placed extent.
func (t BoxTransform) Apply(size Size) Size {
	return Size{
		Width:  size.Width*t.A + size.Height*t.B,
		Height: size.Width*t.C + size.Height*t.D,
	}
}

// Matrix is a row-major 2x2 matrix.
type Matrix [4]float64

func (m Matrix) apply(x, y float64) (float64, float64) {
	return m[0]*x + m[1]*y, m[2]*x + m[3]*y
}

// Affine maps macro-local geometry into placed coordinates. For a local
// rectangle (l,b,r,t) and macro size (w,h):
//
//	lower-left  = origin + A*(r,t) + B*(l,b) + C*(w,h)
//	upper-right = origin + A*(l,b) + B*(r,t) + C*(w,h)
type Affine struct {
	A, B, C Matrix
}

var affineTable = [...]Affine{
	N:  {A: Matrix{0, 0, 0, 0}, B: Matrix{1, 0, 0, 1}, C: Matrix{0, 0, 0, 0}},
	S:  {A: Matrix{-1, 0, 0, -1}, B: Matrix{0, 0, 0, 0}, C: Matrix{1, 0, 0, 1}},
	W:  {A: Matrix{0, -1, 0, 0}, B: Matrix{0, 0, 1, 0}, C: Matrix{0, 1, 0, 0}},
	E:  {A: Matrix{0, 0, -1, 0}, B: Matrix{0, 1, 0, 0}, C: Matrix{0, 0, 1, 0}},
	FN: {A: Matrix{-1, 0, 0, 0}, B: Matrix{0, 0, 0, 1}, C: Matrix{1, 0, 0, 0}},
	FS: {A: Matrix{0, 0, 0, -1}, B: Matrix{1, 0, 0, 0}, C: Matrix{0, 0, 0, 1}},
	FW: {A: Matrix{0, 0, 0, 0}, B: Matrix{0, 1, 1, 0}, C: Matrix{0, 0, 0, 0}},
	FE: {A: Matrix{0, -1, -1, 0}, B: Matrix{0, 0, 0, 0}, C: Matrix{0, 1, 1, 0}},
}

// Affine returns the full pin transform for o.
func (o Orientation) Affine() Affine {
	return affineTable[o]
}

// Coefficients returns the 12 coefficients A, B, C in order.
func (a Affine) Coefficients() [12]float64 {
	var c [12]float64
	copy(c[0:4], a.A[:])
	copy(c[4:8], a.B[:])
	copy(c[8:12], a.C[:])
	return c
}

// ApplyRect places a macro-local rectangle.
func (a Affine) ApplyRect(origin Position, size Size, local BoundingBox) BoundingBox {
	cx, cy := a.C.apply(size.Width, size.Height)

	ax, ay := a.A.apply(local.Max.X, local.Max.Y)
	bx, by := a.B.apply(local.Min.X, local.Min.Y)
	lower := Position{X: origin.X + ax + bx + cx, Y: origin.Y + ay + by + cy}

	ax, ay = a.A.apply(local.Min.X, local.Min.Y)
	bx, by = a.B.apply(local.Max.X, local.Max.Y)
	upper := Position{X: origin.X + ax + bx + cx, Y: origin.Y + ay + by + cy}

	return BoundingBox{Min: lower, Max: upper}
}

// ApplyPoint places a macro-local point.
func (a Affine) ApplyPoint(origin Position, size Size, p Position) Position {
	ax, ay := a.A.apply(p.X, p.Y)
	bx, by := a.B.apply(p.X, p.Y)
	cx, cy := a.C.apply(size.Width, size.Height)
	return Position{X: origin.X + ax + bx + cx, Y: origin.Y + ay + by + cy}
}

// PlaceBox returns the bounding box of a macro of the given size placed at
// origin with orientation o.
func PlaceBox(origin Position, size Size, o Orientation) BoundingBox {
	placed := o.BoxTransform().Apply(size)
	return BoundingBox{
		Min: origin,
		Max: Position{X: origin.X + placed.Width, Y: origin.Y + placed.Height},
	}
}
