// Package pads reads power-pad locations and maps the distance from placed
// instances to the nearest pad.
package pads

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/OpenTraceLab/irmap/pkg/layout"
	"github.com/OpenTraceLab/irmap/pkg/parse"
)

// Net classes of a power pad.
const (
	VDD = "VDD"
	VSS = "VSS"
)

// Pad is a power pad.
type Pad struct {
	Name     string
	Position layout.Position
	Layer    string
	Net      string
}

// Read parses a tab-separated pad file: a header line, then name, x, y and
// layer per row. Coordinates are multiplied by unit.
func Read(r io.Reader, source string, unit float64, net string) ([]Pad, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var out []Pad
	header := true
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("pads: read %s: %w", source, err)
		}
		line, _ := cr.FieldPos(0)
		if header {
			header = false
			continue
		}
		if len(row) < 4 {
			return nil, parse.Formatf(source, line, "pad row has %d columns, want 4", len(row))
		}
		x, err := parse.Float(source, line, row[1])
		if err != nil {
			return nil, err
		}
		y, err := parse.Float(source, line, row[2])
		if err != nil {
			return nil, err
		}
		out = append(out, Pad{
			Name:     row[0],
			Position: layout.Position{X: x * unit, Y: y * unit},
			Layer:    row[3],
			Net:      net,
		})
	}
	return out, nil
}

// ReadFiles reads every file matching pattern, in name order.
func ReadFiles(pattern string, unit float64, net string) ([]Pad, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("pads: %w", err)
	}
	sort.Strings(paths)

	var out []Pad
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("pads: %w", err)
		}
		pads, err := Read(f, path, unit, net)
		f.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, pads...)
	}
	return out, nil
}
