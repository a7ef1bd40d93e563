package layout

import (
	"errors"
	"math"
	"testing"
)

func TestParseOrientation(t *testing.T) {
	for _, o := range Orientations {
		got, err := ParseOrientation(o.String())
		if err != nil {
			t.Fatalf("ParseOrientation(%q) unexpected error: %v", o, err)
		}
		if got != o {
			t.Errorf("ParseOrientation(%q) = %v", o, got)
		}
	}

	for _, bad := range []string{"", "R0", "n", "NF", "MX"} {
		if _, err := ParseOrientation(bad); !errors.Is(err, ErrInvalidOrientation) {
			t.Errorf("ParseOrientation(%q) error = %v, want ErrInvalidOrientation", bad, err)
		}
	}
}

func TestBoxTransformUnitSquare(t *testing.T) {
	want := map[Orientation][4]float64{
		N:  {1, 0, 0, 1},
		S:  {1, 0, 0, 1},
		FN: {1, 0, 0, 1},
		FS: {1, 0, 0, 1},
		W:  {0, 1, 1, 0},
		E:  {0, 1, 1, 0},
		FW: {0, 1, 1, 0},
		FE: {0, 1, 1, 0},
	}

	for o, tuple := range want {
		tr := o.BoxTransform()
		if tr.Tuple() != tuple {
			t.Errorf("%v.BoxTransform() = %v, want %v", o, tr.Tuple(), tuple)
		}
		if got := tr.Apply(Size{Width: 1, Height: 1}); got != (Size{Width: 1, Height: 1}) {
			t.Errorf("%v unit square placed as %+v", o, got)
		}
	}
}

// Placing the four macro corners through the affine map must give the same
// box as the cheaper bounding-box transform.
func TestAffineCornersMatchPlaceBox(t *testing.T) {
	origin := Position{X: 10, Y: 20}
	size := Size{Width: 2, Height: 3}
	corners := []Position{{0, 0}, {size.Width, 0}, {0, size.Height}, {size.Width, size.Height}}

	for _, o := range Orientations {
		want := PlaceBox(origin, size, o)

		got := NewBoundingBox()
		for _, c := range corners {
			got.Expand(o.Affine().ApplyPoint(origin, size, c))
		}
		if !boxesEqual(got, want) {
			t.Errorf("%v: affine corners = %+v, PlaceBox = %+v", o, got, want)
		}

		rect := o.Affine().ApplyRect(origin, size, Rect(0, 0, size.Width, size.Height))
		if !boxesEqual(rect, want) {
			t.Errorf("%v: ApplyRect(macro) = %+v, want %+v", o, rect, want)
		}
	}
}

func TestAffinePinRect(t *testing.T) {
	size := Size{Width: 2, Height: 3}
	pin := Rect(0.5, 1, 1, 2)

	tests := []struct {
		o    Orientation
		want BoundingBox
	}{
		{N, Rect(0.5, 1, 1, 2)},
		{S, Rect(1, 1, 1.5, 2)},
		{W, Rect(1, 0.5, 2, 1)},
		{FN, Rect(1, 1, 1.5, 2)},
		{FW, Rect(1, 0.5, 2, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.o.String(), func(t *testing.T) {
			got := tt.o.Affine().ApplyRect(Position{}, size, pin)
			if !boxesEqual(got, tt.want) {
				t.Errorf("ApplyRect() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAffineCoefficients(t *testing.T) {
	want := [12]float64{0, -1, 0, 0, 0, 0, 1, 0, 0, 1, 0, 0}
	if got := W.Affine().Coefficients(); got != want {
		t.Errorf("W coefficients = %v, want %v", got, want)
	}
}

func TestBoundingBoxOverlap(t *testing.T) {
	a := Rect(5, 5, 15, 15)
	tests := []struct {
		name string
		b    BoundingBox
		want float64
	}{
		{"inside", Rect(0, 0, 20, 20), 100},
		{"quarter", Rect(10, 10, 20, 20), 25},
		{"touching edge", Rect(15, 0, 20, 20), 0},
		{"disjoint", Rect(30, 30, 40, 40), 0},
	}
	for _, tt := range tests {
		if got := a.Overlap(tt.b); got != tt.want {
			t.Errorf("%s: Overlap() = %v, want %v", tt.name, got, tt.want)
		}
	}

	bb := NewBoundingBox()
	if !bb.IsEmpty() || bb.Area() != 0 {
		t.Errorf("new box should be empty with zero area")
	}
	bb.ExpandBox(a)
	if bb.Area() != 100 {
		t.Errorf("Area() = %v, want 100", bb.Area())
	}
}

func boxesEqual(a, b BoundingBox) bool {
	const eps = 1e-9
	return math.Abs(a.Min.X-b.Min.X) < eps && math.Abs(a.Min.Y-b.Min.Y) < eps &&
		math.Abs(a.Max.X-b.Max.X) < eps && math.Abs(a.Max.Y-b.Max.Y) < eps
}
