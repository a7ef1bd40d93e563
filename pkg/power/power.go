// Package power reads per-instance power reports.
package power

import (
	"fmt"
	"io"
	"strings"

	"github.com/OpenTraceLab/irmap/pkg/parse"
	"github.com/OpenTraceLab/irmap/pkg/twf"
)

// Record is the power of one standard-cell instance.
type Record struct {
	Instance  string
	Cell      string
	Duty      float64 // switching count over toggle count
	Internal  float64
	Switching float64
	Leakage   float64
	Windows   []twf.Window
	Filler    bool
}

// Total returns internal + switching + leakage.
func (r *Record) Total() float64 {
	return r.Internal + r.Switching + r.Leakage
}

// Scaled returns the duty-scaled dynamic power plus leakage.
func (r *Record) Scaled() float64 {
	return (r.Internal+r.Switching)*r.Duty + r.Leakage
}

// WindowCount is the multiplier applied to the aggregate maps: the number of
// timing windows, or 1 for a filler.
func (r *Record) WindowCount() float64 {
	if r.Filler {
		return 1
	}
	return float64(len(r.Windows))
}

// CellLibrary classifies cell names.
type CellLibrary interface {
	IsStdCell(name string) bool
}

// Options controls Parse.
type Options struct {
	Missing parse.MissingPolicy
}

// Result holds the records in report order.
type Result struct {
	Records []*Record

	// Skipped lists the instances without timing windows read under
	// parse.ZeroMissing.
	Skipped []*parse.MissingReferenceError

	index map[string]int
}

// Lookup returns the record of an instance.
func (res *Result) Lookup(name string) (*Record, bool) {
	i, ok := res.index[name]
	if !ok {
		return nil, false
	}
	return res.Records[i], true
}

func (res *Result) add(rec *Record) {
	if i, ok := res.index[rec.Instance]; ok {
		res.Records[i] = rec
		return
	}
	res.index[rec.Instance] = len(res.Records)
	res.Records = append(res.Records, rec)
}

const fillerMarker = "FILLER"

// Parse reads a power report. Rows for cells that are not standard cells of
// lib are skipped. windows are the timing windows of the same design.
func Parse(r io.Reader, source string, lib CellLibrary, windows twf.Windows, opts Options) (*Result, error) {
	res := &Result{index: make(map[string]int)}
	sc := parse.NewScanner(r, source)

	var (
		started bool
		reading bool
		pending string
	)
	for sc.Scan() {
		line := sc.Text()
		if !started {
			started = strings.Contains(line, "Instance")
			continue
		}
		if strings.HasPrefix(line, "Total") {
			break
		}
		if strings.HasPrefix(line, "-") {
			reading = true
			continue
		}
		if !reading {
			continue
		}

		fields := strings.Fields(line)
		var name string
		var values []string
		switch len(fields) {
		case 1:
			pending = parse.Unescape(fields[0])
			continue
		case 8:
			if pending == "" {
				return nil, sc.Formatf("power row without an instance name")
			}
			name, values = pending, fields
		case 9:
			name, values = parse.Unescape(fields[0]), fields[1:]
		default:
			continue
		}

		cell := values[len(values)-1]
		if !lib.IsStdCell(cell) {
			continue
		}
		rec, err := record(sc, name, cell, values)
		if err != nil {
			return nil, err
		}
		if !rec.Filler {
			w, ok := windows[name]
			if !ok {
				if err := opts.Missing.Missing(parse.MissingRef(source, "timing window", name), &res.Skipped); err != nil {
					return nil, err
				}
			}
			rec.Windows = w
		}
		res.add(rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("power: read %s: %w", source, err)
	}
	return res, nil
}

// ParseFile reads a power report from path.
func ParseFile(path string, lib CellLibrary, windows twf.Windows, opts Options) (*Result, error) {
	f, err := parse.Open(path)
	if err != nil {
		return nil, fmt.Errorf("power: %w", err)
	}
	defer f.Close()
	return Parse(f, path, lib, windows, opts)
}

// record decodes "toggles switches internal switching leakage ... cell".
func record(sc *parse.Scanner, name, cell string, values []string) (*Record, error) {
	var v [5]float64
	for i := range v {
		f, err := sc.Float(values[i])
		if err != nil {
			return nil, err
		}
		v[i] = f
	}
	rec := &Record{
		Instance:  name,
		Cell:      cell,
		Internal:  v[2],
		Switching: v[3],
		Leakage:   v[4],
	}
	if v[0] != 0 {
		rec.Duty = v[1] / v[0]
	} else {
		rec.Filler = strings.Contains(name, fillerMarker)
	}
	return rec, nil
}
