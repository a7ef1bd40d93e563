// Package lef reads cell-library geometry (LEF) into typed macro records.
package lef

import (
	"sort"
	"strings"

	"github.com/OpenTraceLab/irmap/pkg/layout"
)

// ObstructionKey is the pin-map key used for OBS geometry.
const ObstructionKey = "OBS"

// LayerShapes maps a metal layer name to the rectangles drawn on it.
type LayerShapes map[string][]layout.BoundingBox

// Add appends a rectangle on layer.
func (ls LayerShapes) Add(layer string, bb layout.BoundingBox) {
	ls[layer] = append(ls[layer], bb)
}

// Layers returns the layer names in sorted order.
func (ls LayerShapes) Layers() []string {
	names := make([]string, 0, len(ls))
	for name := range ls {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Pin is a macro pin.
type Pin struct {
	Name      string
	Direction string
	Use       string

	// Shapes is the aggregated geometry: the union box of all rectangles,
	// or one box per polygon when the pin has no rectangles.
	Shapes []layout.BoundingBox

	// Layers keeps the individual rectangles per metal layer.
	Layers LayerShapes
}

// Macro is a library cell definition. All dimensions are in design units.
type Macro struct {
	Name    string
	Class   string // e.g. "CORE", "CORE WELLTAP", "BLOCK"; empty if absent
	Size    layout.Size
	Foreign string

	// ForeignOrigin and ForeignOrientation are set only when FOREIGN
	// carries them.
	ForeignOrigin      *layout.Position
	ForeignOrientation *layout.Orientation

	Pins         map[string]*Pin
	Obstructions LayerShapes
}

func newMacro(name string) *Macro {
	return &Macro{
		Name:         name,
		Pins:         make(map[string]*Pin),
		Obstructions: make(LayerShapes),
	}
}

// IsStdCell reports whether the macro is a standard cell: class CORE (any
// subclass) or no class at all.
func (m *Macro) IsStdCell() bool {
	fields := strings.Fields(m.Class)
	return len(fields) == 0 || fields[0] == "CORE"
}

// PinNames returns the pin names in sorted order.
func (m *Macro) PinNames() []string {
	names := make([]string, 0, len(m.Pins))
	for name := range m.Pins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PinMap holds the per-layer geometry of one macro, pins and obstructions
// together. Obstructions are stored under ObstructionKey.
type PinMap struct {
	Macro string
	Size  layout.Size
	Pins  map[string]LayerShapes
}
