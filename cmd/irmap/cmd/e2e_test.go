package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const e2eLEF = `MACRO INV
  CLASS CORE ;
  SIZE 10 BY 10 ;
  PIN A
    DIRECTION INPUT ;
    PORT
      LAYER M1 ;
        RECT 1 1 2 2 ;
    END
  END A
END INV

MACRO DECAP4
  CLASS CORE SPACER ;
  SIZE 4 BY 4 ;
END DECAP4
`

const e2eDEF = `DESIGN top ;
UNITS DISTANCE MICRONS 1 ;
DIEAREA ( 0 0 ) ( 20 20 ) ;
GCELLGRID X 0 DO 2 STEP 10 ;
GCELLGRID X 10 DO 1 STEP 10 ;
GCELLGRID Y 0 DO 2 STEP 10 ;
GCELLGRID Y 10 DO 1 STEP 10 ;
VIAS 0 ;
END VIAS
COMPONENTS 2 ;
- u1 INV + PLACED ( 5 5 ) N ;
- d1 DECAP4 + PLACED ( 12 12 ) N ;
END COMPONENTS
NETS 2 ;
- n1 ( u1 A ) ;
- n2 ( ghost A ) ;
END NETS
END DESIGN
`

const e2eTWF = `WAVEFORM "clk" 1.0 0.0 0.5
NET n1 0.1:0.2 r 0 0 0.6:0.3 f
NET n9 0.1:0.2 r 0 0 0.6:0.3 f
`

const e2ePower = `Power report
Instance Toggles Switches Internal Switching Leakage Total Rank Cell
--------------------------------------------------------------------
u1       2       1        0.1      0.2       0.01    0.31  1    INV
Total    2       1        0.1      0.2       0.01    0.31
`

const e2eIR = `ir layer x y net
0.05 M1 15 3 VDD
Range 0 0.05
`

// setupData writes a LEF library and a data root with one complete design
// (good) and one without a power report (partial).
func setupData(t *testing.T) (lefPath, dataRoot string) {
	t.Helper()
	root := t.TempDir()
	lefPath = filepath.Join(root, "cells.lef")
	if err := os.WriteFile(lefPath, []byte(e2eLEF), 0o644); err != nil {
		t.Fatal(err)
	}
	dataRoot = filepath.Join(root, "data")
	files := map[string]string{
		"detailed_route.def.gz": e2eDEF,
		"cts.twf":               e2eTWF,
		"dyn_power.rpt":         e2ePower,
		"route_dynamic_ir.rpt":  e2eIR,
		"VDD_1.pp":              "name\tx\ty\tlayer\nVDD_1\t0\t0\tM9\n",
	}
	for _, design := range []string{"good", "partial"} {
		dir := filepath.Join(dataRoot, design)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		for name, content := range files {
			if design == "partial" && name == "dyn_power.rpt" {
				continue
			}
			if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
		}
	}
	return lefPath, dataRoot
}

// resetFlags restores every flag to its default so tests do not leak
// values into each other.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command and returns what it printed to stdout.
func execute(t *testing.T, args []string) (string, error) {
	t.Helper()

	// Capture stdout
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	// Read in background to prevent pipe buffer from blocking
	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		buf.ReadFrom(r)
		close(done)
	}()

	resetFlags(rootCmd)
	rootCmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := rootCmd.Execute()

	w.Close()
	os.Stdout = old
	<-done
	return buf.String(), err
}

func TestCommandsE2E(t *testing.T) {
	lefPath, dataRoot := setupData(t)
	out := filepath.Join(t.TempDir(), "features")

	tests := []struct {
		name        string
		args        []string
		wantErr     bool
		wantContain []string
	}{
		{
			name:        "lef listing",
			args:        []string{"lef", "--unit", "1", lefPath},
			wantContain: []string{"Macros: 2", "INV", "CORE SPACER"},
		},
		{
			name:        "lef layers",
			args:        []string{"lef", "--layers", lefPath},
			wantContain: []string{"A                M1       1 shape(s)"},
		},
		{
			name:    "lef missing file",
			args:    []string{"lef", filepath.Join(dataRoot, "absent.lef")},
			wantErr: true,
		},
		{
			name: "inspect",
			args: []string{"inspect", "--unit", "1", "--lef", lefPath, filepath.Join(dataRoot, "good")},
			wantContain: []string{
				"Design: top",
				"Instances: 2",
				"Grid: 2 x 2 cells",
				"Clock period: 1",
				"1 missing reference(s)",
				"Power records: 1",
			},
		},
		{
			name:        "inspect verbose lists missing references",
			args:        []string{"inspect", "-v", filepath.Join(dataRoot, "good")},
			wantContain: []string{"net n9"},
		},
		{
			name: "extract isolates failures",
			args: []string{"extract", "--unit", "1", "--lef", lefPath, "--data-root", dataRoot, "--out", out, "-j", "2", "--missing-refs", "zero"},
			wantContain: []string{
				"✓ good",
				filepath.Join(out, "good", "features.nc"),
				"✗ partial",
				"missing input file",
				"1 succeeded, 1 failed",
			},
		},
		{
			name:        "extract explicit folder as npy",
			args:        []string{"extract", "--unit", "1", "--lef", lefPath, "--out", out, "--format", "npy", "--missing-refs", "zero", filepath.Join(dataRoot, "good")},
			wantContain: []string{"✓ good", "1 succeeded, 0 failed"},
		},
		{
			name:        "extract fails on unknown net by default",
			args:        []string{"extract", "--unit", "1", "--lef", lefPath, "--out", out, filepath.Join(dataRoot, "good")},
			wantContain: []string{"✗ good", "0 succeeded, 1 failed"},
		},
		{
			name:    "extract without library",
			args:    []string{"extract", "--data-root", dataRoot, "--out", out},
			wantErr: true,
		},
		{
			name:    "extract bad format",
			args:    []string{"extract", "--lef", lefPath, "--data-root", dataRoot, "--format", "hdf5"},
			wantErr: true,
		},
		{
			name:    "bad log format",
			args:    []string{"--log-format", "xml", "lef", lefPath},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := execute(t, tt.args)

			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error but got none\nOutput: %s", output)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v\nOutput: %s", err, output)
				return
			}
			for _, want := range tt.wantContain {
				if !strings.Contains(output, want) {
					t.Errorf("Output missing %q\nGot:\n%s", want, output)
				}
			}
		})
	}

	if _, err := os.Stat(filepath.Join(out, "good", "power_t", "power_t.npy")); err != nil {
		t.Errorf("npy output missing: %v", err)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	lefPath, dataRoot := setupData(t)
	out := filepath.Join(t.TempDir(), "features")
	job := filepath.Join(t.TempDir(), "job.hcl")
	src := `data_root = "` + dataRoot + `"
lef = ["` + lefPath + `"]
out = "` + out + `"
unit = 1
missing_references = "zero"
designs = ["` + filepath.Join(dataRoot, "good") + `"]
`
	if err := os.WriteFile(job, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	output, err := execute(t, []string{"extract", "--config", job})
	if err != nil {
		t.Fatalf("extract --config: %v\nOutput: %s", err, output)
	}
	if !strings.Contains(output, "1 succeeded, 0 failed") {
		t.Errorf("unexpected output:\n%s", output)
	}
	if _, err := os.Stat(filepath.Join(out, "good", "features.nc")); err != nil {
		t.Errorf("netcdf output missing: %v", err)
	}
}
