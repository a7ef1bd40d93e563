// Package def reads placed-and-routed design files (DEF): the routing grid,
// placed components, net connectivity and primary I/O pins.
package def

import (
	"fmt"

	"github.com/OpenTraceLab/irmap/pkg/grid"
	"github.com/OpenTraceLab/irmap/pkg/layout"
	"github.com/OpenTraceLab/irmap/pkg/lef"
)

// Instance is a placed component.
type Instance struct {
	Name        string
	Macro       string
	Origin      layout.Position
	Orientation layout.Orientation
	Status      string // PLACED, FIXED or COVER
}

// Box returns the placed footprint of the instance for macro m.
func (inst *Instance) Box(m *lef.Macro) layout.BoundingBox {
	return layout.PlaceBox(inst.Origin, m.Size, inst.Orientation)
}

// Net lists the component instances a net connects, in file order. Primary
// I/O pin connections are kept separately in Pins.
type Net struct {
	Name      string
	Terminals []string
	Pins      []string
}

// IOPin is a primary I/O pin of the design.
type IOPin struct {
	Name        string
	Net         string
	Direction   string
	Use         string
	Layer       string
	Rect        layout.BoundingBox // relative to Location
	HasRect     bool
	Location    layout.Position
	Orientation layout.Orientation
	Status      string // empty when the pin is not placed
}

// GCellRow is one GCELLGRID statement.
type GCellRow struct {
	Axis  string `"GCELLGRID" @("X" | "Y")`
	Start int    `@Int`
	Count int    `"DO" @Int`
	Step  int    `"STEP" @Int ";"?`
}

// Design is the parsed content of one DEF file.
type Design struct {
	Name    string
	Units   int                // database units per micron, 0 if absent
	DieArea layout.BoundingBox // empty if absent

	// GCellX and GCellY are the upper cell boundaries expanded from the
	// GCELLGRID rows.
	GCellX []float64
	GCellY []float64

	Instances []*Instance
	Nets      map[string]*Net
	Pins      map[string]*IOPin

	index map[string]int
}

func newDesign() *Design {
	return &Design{
		DieArea: layout.NewBoundingBox(),
		Nets:    make(map[string]*Net),
		Pins:    make(map[string]*IOPin),
		index:   make(map[string]int),
	}
}

func (d *Design) addInstance(inst *Instance) {
	if i, ok := d.index[inst.Name]; ok {
		d.Instances[i] = inst
		return
	}
	d.index[inst.Name] = len(d.Instances)
	d.Instances = append(d.Instances, inst)
}

// Instance returns the placed instance with the given name.
func (d *Design) Instance(name string) (*Instance, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.Instances[i], true
}

// Grid builds the routing grid of the design.
func (d *Design) Grid(dieEdge float64) (*grid.Grid, error) {
	if len(d.GCellX) == 0 && len(d.GCellY) == 0 {
		return nil, fmt.Errorf("def: design %s has no GCELLGRID", d.Name)
	}
	g, err := grid.New(d.GCellX, d.GCellY, dieEdge)
	if err != nil {
		return nil, fmt.Errorf("def: design %s: %w", d.Name, err)
	}
	return g, nil
}
