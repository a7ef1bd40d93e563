// Package config loads the HCL job file of an extraction run.
//
// A job file looks like:
//
//	data_root = "${env.IRMAP_DATA}/designs"
//	lef       = ["/pdk/tech.lef", "/pdk/cells.lef"]
//	out       = "features"
//	unit      = 2000
//	workers   = 8
//
//	files {
//	  route_def = "route.def"
//	}
//
// Every attribute is optional; absent ones keep their DefaultConfig value.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/OpenTraceLab/irmap/pkg/batch"
	"github.com/OpenTraceLab/irmap/pkg/feature"
	"github.com/OpenTraceLab/irmap/pkg/grid"
	"github.com/OpenTraceLab/irmap/pkg/parse"
	"github.com/OpenTraceLab/irmap/pkg/twf"
)

// Config is the decoded job file.
type Config struct {
	DataRoot          string             `hcl:"data_root,optional"`
	Designs           []string           `hcl:"designs,optional"` // explicit design folders, overrides discovery
	LEF               []string           `hcl:"lef,optional"`
	Out               string             `hcl:"out,optional"`
	Unit              float64            `hcl:"unit,optional"`
	DieEdge           float64            `hcl:"die_edge,optional"`
	Workers           int                `hcl:"workers,optional"` // 0 means GOMAXPROCS
	TimeWindows       int                `hcl:"time_windows,optional"`
	Format            string             `hcl:"format,optional"`
	MissingReferences string             `hcl:"missing_references,optional"`
	Normalization     string             `hcl:"normalization,optional"`
	Decap             map[string]float64 `hcl:"decap,optional"`
	Files             *Files             `hcl:"files,block"`
}

// Files names the inputs inside each design folder.
type Files struct {
	RouteDEF string `hcl:"route_def,optional"`
	Timing   string `hcl:"timing,optional"`
	Power    string `hcl:"power,optional"`
	IR       string `hcl:"ir,optional"`
	VDDPads  string `hcl:"vdd_pads,optional"`
	VSSPads  string `hcl:"vss_pads,optional"`
}

// DefaultConfig returns the reference flow settings.
func DefaultConfig() *Config {
	f := batch.DefaultFiles()
	return &Config{
		DataRoot:          "data",
		Out:               "out",
		Unit:              2000,
		DieEdge:           grid.DefaultDieEdge,
		TimeWindows:       twf.DefaultTimeWindows,
		Format:            feature.NetCDF.String(),
		MissingReferences: parse.FailMissing.String(),
		Normalization:     grid.Footprint.String(),
		Decap:             feature.DefaultDecapTable(),
		Files: &Files{
			RouteDEF: f.RouteDEF,
			Timing:   f.Timing,
			Power:    f.Power,
			IR:       f.IR,
			VDDPads:  f.VDDPads,
			VSSPads:  f.VSSPads,
		},
	}
}

// Load reads the job file at path on top of DefaultConfig. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	file, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, diags)
	}
	if err := cfg.decode(file.Body); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes job file source on top of DefaultConfig.
func Parse(src []byte, filename string) (*Config, error) {
	cfg := DefaultConfig()
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("config: failed to parse %s: %w", filename, diags)
	}
	if err := cfg.decode(file.Body); err != nil {
		return nil, fmt.Errorf("config: %s: %w", filename, err)
	}
	return cfg, nil
}

func (c *Config) decode(body hcl.Body) error {
	defaults := *c.Files
	c.Files = nil
	if diags := gohcl.DecodeBody(body, EvalContext(), c); diags.HasErrors() {
		return diags
	}
	if c.Files == nil {
		c.Files = &defaults
		return nil
	}
	for _, f := range []struct {
		v    *string
		dflt string
	}{
		{&c.Files.RouteDEF, defaults.RouteDEF},
		{&c.Files.Timing, defaults.Timing},
		{&c.Files.Power, defaults.Power},
		{&c.Files.IR, defaults.IR},
		{&c.Files.VDDPads, defaults.VDDPads},
		{&c.Files.VSSPads, defaults.VSSPads},
	} {
		if *f.v == "" {
			*f.v = f.dflt
		}
	}
	return nil
}

// EvalContext exposes the process environment as env.NAME and a few string
// functions to job files.
func EvalContext() *hcl.EvalContext {
	env := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !hclName(name) {
			continue
		}
		env[name] = cty.StringVal(value)
	}
	envVal := cty.EmptyObjectVal
	if len(env) > 0 {
		envVal = cty.ObjectVal(env)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": envVal},
		Functions: map[string]function.Function{
			"lower":  stdlib.LowerFunc,
			"upper":  stdlib.UpperFunc,
			"format": stdlib.FormatFunc,
			"join":   stdlib.JoinFunc,
			"concat": stdlib.ConcatFunc,
		},
	}
}

// hclName reports whether s can be used as an attribute name after "env.".
func hclName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r == '-' || r >= '0' && r <= '9'):
		default:
			return false
		}
	}
	return true
}

// Validate checks the settings that Options converts.
func (c *Config) Validate() error {
	var errs []error
	if c.Unit <= 0 {
		errs = append(errs, fmt.Errorf("unit must be positive, got %v", c.Unit))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.TimeWindows < 1 {
		errs = append(errs, fmt.Errorf("time_windows must be positive, got %d", c.TimeWindows))
	}
	if _, err := feature.ParseFormat(c.Format); err != nil {
		errs = append(errs, err)
	}
	if _, err := parse.ParseMissingPolicy(c.MissingReferences); err != nil {
		errs = append(errs, err)
	}
	if _, err := grid.ParseNormalization(c.Normalization); err != nil {
		errs = append(errs, err)
	}
	for name, v := range c.Decap {
		if v < 0 {
			errs = append(errs, fmt.Errorf("decap %s: negative capacitance %v", name, v))
		}
	}
	if c.Files == nil || c.Files.RouteDEF == "" || c.Files.VDDPads == "" {
		errs = append(errs, errors.New("files: route_def and vdd_pads are required"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Options converts a valid Config into batch options.
func (c *Config) Options() (batch.Options, error) {
	if err := c.Validate(); err != nil {
		return batch.Options{}, err
	}
	opts := batch.DefaultOptions()
	opts.LEF = c.LEF
	opts.Out = c.Out
	opts.Unit = c.Unit
	opts.DieEdge = c.DieEdge
	if c.Workers > 0 {
		opts.Workers = c.Workers
	}
	opts.TimeWindows = c.TimeWindows
	opts.Format, _ = feature.ParseFormat(c.Format)
	opts.Missing, _ = parse.ParseMissingPolicy(c.MissingReferences)
	opts.Normalization, _ = grid.ParseNormalization(c.Normalization)
	opts.Decap = feature.DecapTable(c.Decap)
	opts.Files = batch.Files{
		RouteDEF: c.Files.RouteDEF,
		Timing:   c.Files.Timing,
		Power:    c.Files.Power,
		IR:       c.Files.IR,
		VDDPads:  c.Files.VDDPads,
		VSSPads:  c.Files.VSSPads,
	}
	return opts, nil
}

// DesignDirs returns the explicit design folders, or the sub-directories of
// DataRoot when none are listed.
func (c *Config) DesignDirs() ([]string, error) {
	if len(c.Designs) > 0 {
		return c.Designs, nil
	}
	return batch.Discover(c.DataRoot)
}
