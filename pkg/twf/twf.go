// Package twf extracts per-instance switching windows from a timing window
// report and discretizes them into clock-period buckets.
package twf

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/OpenTraceLab/irmap/pkg/def"
	"github.com/OpenTraceLab/irmap/pkg/parse"
)

// DefaultTimeWindows is the number of buckets a clock period is split into.
const DefaultTimeWindows = 20

// Window is one activity interval of an instance. Unknown windows come from
// constant or unconstrained nets and span no particular bucket.
type Window struct {
	Start   int
	End     int
	Unknown bool
}

// UnknownWindow is the window recorded for constant and wildcard nets.
var UnknownWindow = Window{Unknown: true}

func (w Window) String() string {
	if w.Unknown {
		return "unknown"
	}
	return fmt.Sprintf("[%d,%d]", w.Start, w.End)
}

// Windows maps an instance name to its windows in report order.
type Windows map[string][]Window

// Options controls Parse.
type Options struct {
	TimeWindows int
	Missing     parse.MissingPolicy
}

// Result is the parsed timing window report.
type Result struct {
	Period     float64
	Boundaries []float64
	Windows    Windows

	// Skipped lists the nets that were ignored under parse.ZeroMissing.
	Skipped []*parse.MissingReferenceError
}

// Boundaries returns the n upper bucket boundaries of a clock period: n+1
// evenly spaced points from -1 to period, without the first.
func Boundaries(period float64, n int) []float64 {
	pts := make([]float64, n+1)
	floats.Span(pts, -1, period)
	return pts[1:]
}

// Bucket returns the leftmost insertion point of t in boundaries. A time past
// the last boundary yields len(boundaries).
func Bucket(boundaries []float64, t float64) int {
	return sort.SearchFloat64s(boundaries, t)
}

// Parse reads a timing window report. nets is the net connectivity of the
// design the report belongs to.
func Parse(r io.Reader, source string, nets map[string]*def.Net, opts Options) (*Result, error) {
	if opts.TimeWindows < 1 {
		return nil, fmt.Errorf("twf: time windows must be positive, got %d", opts.TimeWindows)
	}
	res := &Result{Windows: make(Windows)}
	sc := parse.NewScanner(r, source)

	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "WAVEFORM":
			if len(fields) < 3 {
				return nil, sc.Formatf("WAVEFORM without a period")
			}
			period, err := sc.Float(fields[2])
			if err != nil {
				return nil, err
			}
			res.Period = period
			res.Boundaries = Boundaries(period, opts.TimeWindows)
		case "NET":
			if res.Boundaries == nil {
				return nil, sc.Formatf("NET before any WAVEFORM")
			}
			if err := res.net(sc, fields, nets, opts.Missing); err != nil {
				return nil, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("twf: read %s: %w", source, err)
	}
	return res, nil
}

// ParseFile reads a timing window report from path.
func ParseFile(path string, nets map[string]*def.Net, opts Options) (*Result, error) {
	f, err := parse.Open(path)
	if err != nil {
		return nil, fmt.Errorf("twf: %w", err)
	}
	defer f.Close()
	return Parse(f, path, nets, opts)
}

func (res *Result) net(sc *parse.Scanner, fields []string, nets map[string]*def.Net, policy parse.MissingPolicy) error {
	var (
		name   string
		window Window
	)
	switch {
	case slices.Contains(fields, "CONSTANT"):
		if len(fields) < 3 {
			return sc.Formatf("CONSTANT net without a name")
		}
		name = parse.Unescape(fields[2])
		window = UnknownWindow
	case len(fields) < 7:
		return sc.Formatf("NET line has %d fields, want at least 7", len(fields))
	case fields[2] == "*" || fields[6] == "*":
		name = parse.Unescape(fields[1])
		window = UnknownWindow
	default:
		name = parse.Unescape(fields[1])
		lo, hi, err := arrival(sc, fields[2], fields[6])
		if err != nil {
			return err
		}
		window = Window{Start: Bucket(res.Boundaries, lo), End: Bucket(res.Boundaries, hi)}
	}

	net, ok := nets[name]
	if !ok {
		return policy.Missing(parse.MissingRef(sc.Source(), "net", name), &res.Skipped)
	}
	for _, inst := range net.Terminals {
		res.Windows[inst] = append(res.Windows[inst], window)
	}
	return nil
}

// arrival returns the earliest and latest time among the colon-separated
// rise and fall timestamps.
func arrival(sc *parse.Scanner, rise, fall string) (float64, float64, error) {
	var times []float64
	for _, group := range []string{rise, fall} {
		for _, tok := range strings.Split(group, ":") {
			v, err := sc.Float(tok)
			if err != nil {
				return 0, 0, err
			}
			times = append(times, v)
		}
	}
	return floats.Min(times), floats.Max(times), nil
}
