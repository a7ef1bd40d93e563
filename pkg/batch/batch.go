// Package batch runs the feature extraction over a set of design folders.
package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/OpenTraceLab/irmap/pkg/feature"
	"github.com/OpenTraceLab/irmap/pkg/grid"
	"github.com/OpenTraceLab/irmap/pkg/parse"
	"github.com/OpenTraceLab/irmap/pkg/twf"
)

// ErrMissingFile is matched by every MissingFileError.
var ErrMissingFile = errors.New("batch: missing input file")

// MissingFileError reports a required input that is absent from a design
// folder.
type MissingFileError struct {
	Design string
	Path   string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("batch: %s: missing input file %s", e.Design, e.Path)
}

// Unwrap returns ErrMissingFile.
func (e *MissingFileError) Unwrap() error { return ErrMissingFile }

// Files names the inputs inside a design folder. The pad entries are glob
// patterns.
type Files struct {
	RouteDEF string
	Timing   string
	Power    string
	IR       string
	VDDPads  string
	VSSPads  string // optional
}

// DefaultFiles returns the file names produced by the reference flow.
func DefaultFiles() Files {
	return Files{
		RouteDEF: "detailed_route.def.gz",
		Timing:   "cts.twf",
		Power:    "dyn_power.rpt",
		IR:       "route_dynamic_ir.rpt",
		VDDPads:  "VDD*.pp",
		VSSPads:  "VSS*.pp",
	}
}

// Options controls a batch run.
type Options struct {
	LEF           []string // cell libraries, later files override earlier ones
	Out           string
	Unit          float64 // database units per micron
	DieEdge       float64
	Workers       int
	TimeWindows   int
	Format        feature.Format
	Missing       parse.MissingPolicy
	Normalization grid.Normalization
	Decap         feature.DecapTable
	Files         Files
}

// DefaultOptions returns Options with the reference flow defaults.
func DefaultOptions() Options {
	return Options{
		Out:         "out",
		Unit:        2000,
		DieEdge:     grid.DefaultDieEdge,
		Workers:     runtime.GOMAXPROCS(0),
		TimeWindows: twf.DefaultTimeWindows,
		Format:      feature.NetCDF,
		Missing:     parse.FailMissing,
		Decap:       feature.DefaultDecapTable(),
		Files:       DefaultFiles(),
	}
}

// Validate checks the options and fills zero values with defaults.
func (o *Options) Validate() error {
	if len(o.LEF) == 0 {
		return errors.New("batch: no LEF library given")
	}
	if o.Out == "" {
		return errors.New("batch: no output directory given")
	}
	if o.Unit <= 0 {
		return fmt.Errorf("batch: unit must be positive, got %v", o.Unit)
	}
	if o.TimeWindows < 1 {
		return fmt.Errorf("batch: time windows must be positive, got %d", o.TimeWindows)
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.Decap == nil {
		o.Decap = feature.DefaultDecapTable()
	}
	std := DefaultFiles()
	for _, f := range []struct {
		v    *string
		dflt string
	}{
		{&o.Files.RouteDEF, std.RouteDEF},
		{&o.Files.Timing, std.Timing},
		{&o.Files.Power, std.Power},
		{&o.Files.IR, std.IR},
		{&o.Files.VDDPads, std.VDDPads},
	} {
		if *f.v == "" {
			*f.v = f.dflt
		}
	}
	return nil
}

// Result is the outcome of one design.
type Result struct {
	Design   string
	Dir      string
	Output   string // written file or directory, empty on failure
	Err      error
	Duration time.Duration
}

// Discover returns the sub-directories of root in name order.
func Discover(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}
