package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/OpenTraceLab/irmap/internal/ctxlog"
	"github.com/OpenTraceLab/irmap/pkg/def"
	"github.com/OpenTraceLab/irmap/pkg/feature"
	"github.com/OpenTraceLab/irmap/pkg/irdrop"
	"github.com/OpenTraceLab/irmap/pkg/lef"
	"github.com/OpenTraceLab/irmap/pkg/pads"
	"github.com/OpenTraceLab/irmap/pkg/parse"
	"github.com/OpenTraceLab/irmap/pkg/power"
	"github.com/OpenTraceLab/irmap/pkg/twf"
)

// Runner processes design folders with a shared cell library.
type Runner struct {
	opts    Options
	library func() (*lef.Library, error)
}

// New validates opts and returns a Runner. The cell library is loaded on
// first use and shared by every design.
func New(opts Options) (*Runner, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{opts: opts}
	r.library = sync.OnceValues(func() (*lef.Library, error) {
		lib := lef.NewLibrary(opts.Unit)
		if err := lib.LoadFiles(opts.LEF...); err != nil {
			return nil, fmt.Errorf("batch: %w", err)
		}
		return lib, nil
	})
	return r, nil
}

// Options returns the validated options.
func (r *Runner) Options() Options { return r.opts }

// inputs are the resolved paths of one design folder.
type inputs struct {
	routeDEF, timing, power, ir string
	vdd, vss                    string
}

// check resolves the inputs of dir and reports the first one missing.
func (r *Runner) check(design, dir string) (inputs, error) {
	f := r.opts.Files
	in := inputs{
		routeDEF: filepath.Join(dir, f.RouteDEF),
		timing:   filepath.Join(dir, f.Timing),
		power:    filepath.Join(dir, f.Power),
		ir:       filepath.Join(dir, f.IR),
		vdd:      filepath.Join(dir, f.VDDPads),
	}
	if f.VSSPads != "" {
		in.vss = filepath.Join(dir, f.VSSPads)
	}
	for _, path := range r.opts.LEF {
		if _, err := os.Stat(path); err != nil {
			return in, &MissingFileError{Design: design, Path: path}
		}
	}
	for _, path := range []string{in.routeDEF, in.timing, in.power, in.ir} {
		if _, err := os.Stat(path); err != nil {
			return in, &MissingFileError{Design: design, Path: path}
		}
	}
	if matches, _ := filepath.Glob(in.vdd); len(matches) == 0 {
		return in, &MissingFileError{Design: design, Path: in.vdd}
	}
	return in, nil
}

// Process extracts the features of one design folder and returns the path
// written. The design is named after the folder.
func (r *Runner) Process(ctx context.Context, dir string) (string, error) {
	design := filepath.Base(dir)
	logger := ctxlog.FromContext(ctx).With("design", design)

	in, err := r.check(design, dir)
	if err != nil {
		return "", err
	}
	lib, err := r.library()
	if err != nil {
		return "", err
	}

	d, err := def.ParseFile(in.routeDEF)
	if err != nil {
		return "", err
	}
	g, err := d.Grid(r.opts.DieEdge)
	if err != nil {
		return "", err
	}
	logger.Debug("placement read", "instances", len(d.Instances), "nets", len(d.Nets), "nx", g.NX(), "ny", g.NY())

	tw, err := twf.ParseFile(in.timing, d.Nets, twf.Options{TimeWindows: r.opts.TimeWindows, Missing: r.opts.Missing})
	if err != nil {
		return "", err
	}
	warnSkipped(logger, tw.Skipped)

	pw, err := power.ParseFile(in.power, lib, tw.Windows, power.Options{Missing: r.opts.Missing})
	if err != nil {
		return "", err
	}
	warnSkipped(logger, pw.Skipped)

	vdd, err := pads.ReadFiles(in.vdd, r.opts.Unit, pads.VDD)
	if err != nil {
		return "", err
	}
	var vss pads.Finder
	if in.vss != "" {
		vssPads, err := pads.ReadFiles(in.vss, r.opts.Unit, pads.VSS)
		if err != nil {
			return "", err
		}
		if len(vssPads) > 0 {
			vss = pads.NewIndex(vssPads)
		}
	}

	ir, err := irdrop.ParseFile(in.ir, r.opts.Unit)
	if err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	maps, err := feature.Build(feature.Inputs{
		Name:          design,
		Library:       lib,
		Design:        d,
		Grid:          g,
		Power:         pw,
		IR:            ir,
		VDD:           pads.NewIndex(vdd),
		VSS:           vss,
		TimeWindows:   r.opts.TimeWindows,
		Normalization: r.opts.Normalization,
		Decap:         r.opts.Decap,
		Missing:       r.opts.Missing,
	})
	if err != nil {
		return "", err
	}
	warnSkipped(logger, maps.Skipped)

	out, err := feature.Write(r.opts.Out, maps, r.opts.Format)
	if err != nil {
		return "", err
	}
	logger.Debug("features written", "path", out, "records", len(pw.Records))
	return out, nil
}

func warnSkipped(logger *slog.Logger, skipped []*parse.MissingReferenceError) {
	for _, s := range skipped {
		logger.Warn("missing reference ignored", "kind", s.Kind, "key", s.Key, "source", s.Source)
	}
}
