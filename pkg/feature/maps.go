// Package feature assembles the per-design feature grids from the parsed
// reports and writes them to disk.
package feature

import (
	"fmt"
	"strings"

	"github.com/ctessum/sparse"

	"github.com/OpenTraceLab/irmap/pkg/def"
	"github.com/OpenTraceLab/irmap/pkg/grid"
	"github.com/OpenTraceLab/irmap/pkg/irdrop"
	"github.com/OpenTraceLab/irmap/pkg/lef"
	"github.com/OpenTraceLab/irmap/pkg/pads"
	"github.com/OpenTraceLab/irmap/pkg/parse"
	"github.com/OpenTraceLab/irmap/pkg/power"
)

// Inputs are the parsed artifacts of one design.
type Inputs struct {
	Name    string
	Library *lef.Library
	Design  *def.Design
	Grid    *grid.Grid
	Power   *power.Result
	IR      []irdrop.Sample

	VDD pads.Finder
	VSS pads.Finder // nil when the design has no VSS pads

	TimeWindows   int
	Normalization grid.Normalization
	Decap         DecapTable
	Missing       parse.MissingPolicy
}

// Maps holds every feature grid of a design. Two-dimensional maps are
// nx x ny, PowerT is time windows x nx x ny.
type Maps struct {
	Name string
	Grid *grid.Grid

	PowerT   *sparse.DenseArray
	PowerI   *sparse.DenseArray
	PowerS   *sparse.DenseArray
	PowerSCA *sparse.DenseArray
	PowerAll *sparse.DenseArray
	Decap    *sparse.DenseArray
	VDD      *sparse.DenseArray
	VSS      *sparse.DenseArray // nil without VSS pads
	IR       *sparse.DenseArray

	// Skipped lists the references ignored under parse.ZeroMissing.
	Skipped []*parse.MissingReferenceError
}

// Build rasterizes the inputs onto the grid.
func Build(in Inputs) (*Maps, error) {
	if in.Grid == nil || in.Design == nil || in.Library == nil || in.Power == nil || in.VDD == nil {
		return nil, fmt.Errorf("feature: %s: incomplete inputs", in.Name)
	}
	if in.TimeWindows < 1 {
		return nil, fmt.Errorf("feature: %s: time windows must be positive, got %d", in.Name, in.TimeWindows)
	}
	g := in.Grid
	m := &Maps{
		Name:     in.Name,
		Grid:     g,
		PowerT:   g.NewSeries(in.TimeWindows),
		PowerI:   g.NewMap(),
		PowerS:   g.NewMap(),
		PowerSCA: g.NewMap(),
		PowerAll: g.NewMap(),
		Decap:    g.NewMap(),
	}

	if err := m.power(in); err != nil {
		return nil, err
	}
	if err := m.decap(in); err != nil {
		return nil, err
	}
	m.VDD = pads.DistanceMap(g, in.Design.Instances, in.VDD)
	if in.VSS != nil {
		m.VSS = pads.DistanceMap(g, in.Design.Instances, in.VSS)
	}
	m.IR = irdrop.Map(g, in.IR)
	return m, nil
}

// footprint resolves the placed box of an instance.
func (m *Maps) footprint(in Inputs, name, kind string) (*def.Instance, *lef.Macro, error) {
	inst, ok := in.Design.Instance(name)
	if !ok {
		return nil, nil, in.Missing.Missing(parse.MissingRef(in.Name, kind, name), &m.Skipped)
	}
	macro, ok := in.Library.Lookup(inst.Macro)
	if !ok {
		return nil, nil, in.Missing.Missing(parse.MissingRef(in.Name, "macro", inst.Macro), &m.Skipped)
	}
	return inst, macro, nil
}

func (m *Maps) power(in Inputs) error {
	for _, rec := range in.Power.Records {
		inst, macro, err := m.footprint(in, rec.Instance, "instance")
		if err != nil {
			return fmt.Errorf("feature: power map: %w", err)
		}
		if inst == nil {
			continue
		}
		weights := m.Grid.Coverage(inst.Box(macro), in.Normalization)

		n := rec.WindowCount()
		grid.Accumulate(m.PowerI, weights, rec.Internal*n)
		grid.Accumulate(m.PowerS, weights, rec.Switching*n)
		grid.Accumulate(m.PowerSCA, weights, rec.Scaled()*n)
		grid.Accumulate(m.PowerAll, weights, rec.Total()*n)
		for _, w := range rec.Windows {
			if w.Unknown {
				continue
			}
			grid.AccumulateRange(m.PowerT, weights, w.Start, w.End, rec.Scaled())
		}
	}
	return nil
}

const decapMarker = "DECAP"

func (m *Maps) decap(in Inputs) error {
	for _, inst := range in.Design.Instances {
		if !strings.Contains(inst.Macro, decapMarker) {
			continue
		}
		capacitance, ok := in.Decap[inst.Macro]
		if !ok {
			continue
		}
		macro, ok := in.Library.Lookup(inst.Macro)
		if !ok {
			if err := in.Missing.Missing(parse.MissingRef(in.Name, "macro", inst.Macro), &m.Skipped); err != nil {
				return fmt.Errorf("feature: decap map: %w", err)
			}
			continue
		}
		grid.Accumulate(m.Decap, m.Grid.Coverage(inst.Box(macro), in.Normalization), capacitance)
	}
	return nil
}
