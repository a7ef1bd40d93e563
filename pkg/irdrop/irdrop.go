// Package irdrop reads dynamic IR-drop reports and reduces them onto a grid.
package irdrop

import (
	"fmt"
	"io"
	"strings"

	"github.com/ctessum/sparse"

	"github.com/OpenTraceLab/irmap/pkg/grid"
	"github.com/OpenTraceLab/irmap/pkg/layout"
	"github.com/OpenTraceLab/irmap/pkg/parse"
)

// Sample is one IR-drop measurement.
type Sample struct {
	Value    float64
	Layer    string
	Position layout.Position
}

// Parse reads the rows between a line starting with "ir" and a line starting
// with "Range". Rows need at least value, layer, x, y and one more column.
// Coordinates are multiplied by unit.
func Parse(r io.Reader, source string, unit float64) ([]Sample, error) {
	sc := parse.NewScanner(r, source)
	var (
		samples []Sample
		reading bool
	)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "Range") {
			reading = false
		}
		if reading {
			fields := strings.Fields(line)
			if len(fields) >= 5 {
				s, err := sample(sc, fields, unit)
				if err != nil {
					return nil, err
				}
				samples = append(samples, s)
			}
		}
		if strings.HasPrefix(line, "ir") {
			reading = true
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("irdrop: read %s: %w", source, err)
	}
	return samples, nil
}

// ParseFile reads an IR-drop report from path.
func ParseFile(path string, unit float64) ([]Sample, error) {
	f, err := parse.Open(path)
	if err != nil {
		return nil, fmt.Errorf("irdrop: %w", err)
	}
	defer f.Close()
	return Parse(f, path, unit)
}

func sample(sc *parse.Scanner, fields []string, unit float64) (Sample, error) {
	v, err := sc.Float(fields[0])
	if err != nil {
		return Sample{}, err
	}
	x, err := sc.Float(fields[2])
	if err != nil {
		return Sample{}, err
	}
	y, err := sc.Float(fields[3])
	if err != nil {
		return Sample{}, err
	}
	return Sample{
		Value:    v,
		Layer:    fields[1],
		Position: layout.Position{X: x * unit, Y: y * unit},
	}, nil
}

// Map keeps, per grid cell, the largest sample value.
func Map(g *grid.Grid, samples []Sample) *sparse.DenseArray {
	m := g.NewMap()
	for _, s := range samples {
		g.MaxAt(m, s.Position, s.Value)
	}
	return m
}
