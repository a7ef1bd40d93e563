package lef

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OpenTraceLab/irmap/pkg/layout"
	"github.com/OpenTraceLab/irmap/pkg/parse"
)

const sampleLEF = `VERSION 5.8 ;
UNITS
  DATABASE MICRONS 2000 ;
END UNITS

SITE core
  SIZE 0.2 BY 1.4 ;
END core

MACRO INVX1
  CLASS CORE ;
  FOREIGN INVX1 0 0 ;
  ORIGIN 0 0 ;
  SIZE 0.6 BY 1.4 ;
  SYMMETRY X Y ;
  PIN A
    DIRECTION INPUT ;
    USE SIGNAL ;
    PORT
      LAYER M1 ;
        RECT 0.1 0.2 0.2 0.6 ;
        RECT MASK 1 0.05 0.5 0.15 0.9 ;
    END
  END A
  PIN Y
    DIRECTION OUTPUT ;
    PORT
      LAYER M1 ;
        POLYGON 0.4 0.1 0.5 0.1
                0.5 1.2 0.4 1.2 ;
      LAYER M2 ;
        POLYGON 0.3 0.3 0.35 0.3 0.35 0.4 ;
    END
  END Y
  OBS
    LAYER M1 ;
      RECT 0 0 0.6 0.05 ;
    LAYER V1 ;
      RECT 0.1 0.1 0.12 0.12 ;
  END
END INVX1

MACRO RAM64
  CLASS BLOCK ;
  SIZE 100 BY 50 ;
END RAM64

MACRO TAPCELL
  # no CLASS statement
  SIZE 0.2 BY 1.4 ;
END TAPCELL

END LIBRARY
`

func approx(a, b float64) bool {
	d := a - b
	return d < 1e-6 && d > -1e-6
}

func boxApprox(a, b layout.BoundingBox) bool {
	return approx(a.Min.X, b.Min.X) && approx(a.Min.Y, b.Min.Y) &&
		approx(a.Max.X, b.Max.X) && approx(a.Max.Y, b.Max.Y)
}

func TestParseMacros(t *testing.T) {
	lib, err := Parse(strings.NewReader(sampleLEF), "sample.lef", 2000)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if lib.Len() != 3 {
		t.Fatalf("Parse() macros = %v, want 3", lib.Names())
	}

	inv, ok := lib.Lookup("INVX1")
	if !ok {
		t.Fatal("INVX1 not found")
	}
	if inv.Size != (layout.Size{Width: 1200, Height: 2800}) {
		t.Errorf("INVX1 size = %+v, want 1200x2800", inv.Size)
	}
	if inv.Foreign != "INVX1" || inv.ForeignOrigin == nil || inv.ForeignOrientation != nil {
		t.Errorf("INVX1 foreign = %q %v %v", inv.Foreign, inv.ForeignOrigin, inv.ForeignOrientation)
	}

	tests := []struct {
		name string
		want string
		got  string
	}{
		{"pin A direction", "INPUT", inv.Pins["A"].Direction},
		{"pin A use", "SIGNAL", inv.Pins["A"].Use},
		{"pin Y direction", "OUTPUT", inv.Pins["Y"].Direction},
		{"pins", "A,Y", strings.Join(inv.PinNames(), ",")},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestPinShapes(t *testing.T) {
	lib, err := Parse(strings.NewReader(sampleLEF), "sample.lef", 2000)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	inv, _ := lib.Lookup("INVX1")

	// Rectangles collapse into one union box.
	a := inv.Pins["A"].Shapes
	if len(a) != 1 || !boxApprox(a[0], layout.Rect(100, 400, 400, 1800)) {
		t.Errorf("pin A shapes = %+v", a)
	}

	// Without rectangles every polygon keeps its own box.
	y := inv.Pins["Y"].Shapes
	if len(y) != 2 {
		t.Fatalf("pin Y shapes = %d, want 2", len(y))
	}
	if !boxApprox(y[0], layout.Rect(800, 200, 1000, 2400)) {
		t.Errorf("pin Y polygon 0 = %+v", y[0])
	}
	if !boxApprox(y[1], layout.Rect(600, 600, 700, 800)) {
		t.Errorf("pin Y polygon 1 = %+v", y[1])
	}
}

func TestStdCellClassification(t *testing.T) {
	lib, err := Parse(strings.NewReader(sampleLEF), "sample.lef", 2000)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	tests := []struct {
		name string
		want bool
	}{
		{"INVX1", true},
		{"RAM64", false},
		{"TAPCELL", true},
		{"UNKNOWN", false},
	}
	for _, tt := range tests {
		if got := lib.IsStdCell(tt.name); got != tt.want {
			t.Errorf("IsStdCell(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}

	for class, want := range map[string]bool{"": true, "CORE WELLTAP": true, "ENDCAP PRE": false, "PAD INOUT": false, "BLOCK": false} {
		m := &Macro{Name: "M", Class: class}
		if got := m.IsStdCell(); got != want {
			t.Errorf("Macro{Class: %q}.IsStdCell() = %v, want %v", class, got, want)
		}
	}
}

func TestParsePinMap(t *testing.T) {
	maps, err := ParsePinMap(strings.NewReader(sampleLEF), "sample.lef", 1)
	if err != nil {
		t.Fatalf("ParsePinMap() error = %v", err)
	}
	inv := maps["INVX1"]
	if inv == nil {
		t.Fatal("INVX1 missing from pin map")
	}
	if got := len(inv.Pins["A"]["M1"]); got != 2 {
		t.Errorf("pin A M1 rects = %d, want 2", got)
	}
	if got := inv.Pins["Y"].Layers(); strings.Join(got, ",") != "M1,M2" {
		t.Errorf("pin Y layers = %v", got)
	}
	obs, ok := inv.Pins[ObstructionKey]
	if !ok {
		t.Fatal("obstructions missing from pin map")
	}
	if len(obs["M1"]) != 1 || len(obs["V1"]) != 1 {
		t.Errorf("obstruction layers = %v", obs)
	}
	if _, ok := maps["RAM64"].Pins[ObstructionKey]; ok {
		t.Errorf("RAM64 should have no obstruction entry")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{
			name:    "invalid foreign orientation",
			input:   "MACRO X\n FOREIGN X 0 0 R90 ;\nEND X\n",
			wantErr: layout.ErrInvalidOrientation,
		},
		{
			name:    "invalid foreign orientation is a format error",
			input:   "MACRO X\n FOREIGN X 0 0 Q ;\nEND X\n",
			wantErr: parse.ErrFormat,
		},
		{
			name:    "bad size number",
			input:   "MACRO X\n SIZE 1.2x BY 3 ;\nEND X\n",
			wantErr: parse.ErrNumber,
		},
		{
			name:    "size without BY",
			input:   "MACRO X\n SIZE 1 3 ;\nEND X\n",
			wantErr: parse.ErrFormat,
		},
		{
			name:    "short rect",
			input:   "MACRO X\n PIN A\n RECT 0 0 1 ;\n END A\nEND X\n",
			wantErr: parse.ErrFormat,
		},
		{
			name:    "truncated macro",
			input:   "MACRO X\n SIZE 1 BY 1 ;\n",
			wantErr: parse.ErrFormat,
		},
		{
			name:    "unterminated polygon",
			input:   "MACRO X\n PIN A\n POLYGON 0 0 1 0\n",
			wantErr: parse.ErrFormat,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input), "bad.lef", 1)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestForeignOrientation(t *testing.T) {
	lib, err := Parse(strings.NewReader("MACRO X\n FOREIGN X 0.5 0.5 FS ;\nEND X\n"), "x.lef", 10)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	m, _ := lib.Lookup("X")
	if m.ForeignOrientation == nil || *m.ForeignOrientation != layout.FS {
		t.Errorf("ForeignOrientation = %v, want FS", m.ForeignOrientation)
	}
	if m.ForeignOrigin == nil || *m.ForeignOrigin != (layout.Position{X: 5, Y: 5}) {
		t.Errorf("ForeignOrigin = %v, want (5,5)", m.ForeignOrigin)
	}
}

func TestLoadFilesOverrides(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.lef")
	second := filepath.Join(dir, "b.lef")
	if err := os.WriteFile(first, []byte("MACRO BUF\n SIZE 1 BY 1 ;\nEND BUF\nMACRO NAND\n SIZE 2 BY 1 ;\nEND NAND\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(second, []byte("MACRO BUF\n SIZE 3 BY 1 ;\nEND BUF\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	lib := NewLibrary(1)
	if err := lib.LoadFiles(first, second); err != nil {
		t.Fatalf("LoadFiles() error = %v", err)
	}
	if lib.Len() != 2 {
		t.Errorf("LoadFiles() macros = %v", lib.Names())
	}
	if m, _ := lib.Lookup("BUF"); m.Size.Width != 3 {
		t.Errorf("BUF width = %v, want 3 from the later file", m.Size.Width)
	}

	if err := lib.LoadFiles(filepath.Join(dir, "missing.lef")); err == nil {
		t.Error("LoadFiles() with missing file should fail")
	}
}
