package power

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/OpenTraceLab/irmap/pkg/lef"
	"github.com/OpenTraceLab/irmap/pkg/parse"
	"github.com/OpenTraceLab/irmap/pkg/twf"
)

const sampleReport = `Power report for design top
Instance          Toggles Switches Internal Switching Leakage Total   Rank Cell
----------------------------------------------------------------------------------
u1                10      5        0.1      0.2       0.01    0.31    1    INVX1
u_core\/long_name\[0\]
                  0       0        0.3      0.0       0.02    0.32    2    NAND2
FILLER_1          0       0        0        0         0.001   0.001   3    FILL1
ram0              4       1        5        5         5       15      4    RAM64
u2                2       1        0.5      0.5       0       1       5    UNKNOWN_CELL
Total             16      6        5.9      5.7       5.031   16.631
u9                1       1        1        1         1       3       6    INVX1
`

func sampleLibrary() *lef.Library {
	lib := lef.NewLibrary(1)
	for name, class := range map[string]string{"INVX1": "CORE", "NAND2": "", "FILL1": "CORE SPACER", "RAM64": "BLOCK"} {
		lib.Add(&lef.Macro{Name: name, Class: class})
	}
	return lib
}

var sampleWindows = twf.Windows{
	"u1":                  {{Start: 2, End: 3}},
	"u_core/long_name[0]": {twf.UnknownWindow, {Start: 0, End: 1}},
}

func TestParse(t *testing.T) {
	res, err := Parse(strings.NewReader(sampleReport), "power.rpt", sampleLibrary(), sampleWindows, Options{})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []*Record{
		{Instance: "u1", Cell: "INVX1", Duty: 0.5, Internal: 0.1, Switching: 0.2, Leakage: 0.01, Windows: sampleWindows["u1"]},
		{Instance: "u_core/long_name[0]", Cell: "NAND2", Internal: 0.3, Leakage: 0.02, Windows: sampleWindows["u_core/long_name[0]"]},
		{Instance: "FILLER_1", Cell: "FILL1", Leakage: 0.001, Filler: true},
	}
	if diff := cmp.Diff(want, res.Records, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Records mismatch (-want +got):\n%s", diff)
	}
	if _, ok := res.Lookup("ram0"); ok {
		t.Error("non standard cell row should be skipped")
	}
	if _, ok := res.Lookup("u9"); ok {
		t.Error("rows after Total should be ignored")
	}
}

func TestRecordDerived(t *testing.T) {
	tests := []struct {
		name        string
		rec         Record
		wantTotal   float64
		wantScaled  float64
		wantWindows float64
	}{
		{
			name:        "active",
			rec:         Record{Duty: 0.5, Internal: 2, Switching: 2, Leakage: 1, Windows: []twf.Window{{Start: 1, End: 2}, twf.UnknownWindow}},
			wantTotal:   5,
			wantScaled:  3,
			wantWindows: 2,
		},
		{
			name:        "filler",
			rec:         Record{Leakage: 0.5, Filler: true},
			wantTotal:   0.5,
			wantScaled:  0.5,
			wantWindows: 1,
		},
		{
			name:        "no windows",
			rec:         Record{Internal: 1},
			wantTotal:   1,
			wantScaled:  0,
			wantWindows: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.Total(); got != tt.wantTotal {
				t.Errorf("Total() = %v, want %v", got, tt.wantTotal)
			}
			if got := tt.rec.Scaled(); got != tt.wantScaled {
				t.Errorf("Scaled() = %v, want %v", got, tt.wantScaled)
			}
			if got := tt.rec.WindowCount(); got != tt.wantWindows {
				t.Errorf("WindowCount() = %v, want %v", got, tt.wantWindows)
			}
		})
	}
}

func TestParseMissingWindows(t *testing.T) {
	windows := twf.Windows{"u1": {{Start: 0, End: 0}}}

	_, err := Parse(strings.NewReader(sampleReport), "power.rpt", sampleLibrary(), windows, Options{})
	if !errors.Is(err, parse.ErrMissingReference) {
		t.Fatalf("Parse() error = %v, want ErrMissingReference", err)
	}

	res, err := Parse(strings.NewReader(sampleReport), "power.rpt", sampleLibrary(), windows, Options{Missing: parse.ZeroMissing})
	if err != nil {
		t.Fatalf("Parse() with zero policy error = %v", err)
	}
	rec, ok := res.Lookup("u_core/long_name[0]")
	if !ok {
		t.Fatal("record dropped under zero policy")
	}
	if rec.WindowCount() != 0 {
		t.Errorf("WindowCount() = %v, want 0", rec.WindowCount())
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Kind != "timing window" {
		t.Errorf("Skipped = %v", res.Skipped)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{
			name:    "row without pending name",
			input:   "Instance\n----\n0 0 1 1 1 3 1 INVX1\n",
			wantErr: parse.ErrFormat,
		},
		{
			name:    "bad number",
			input:   "Instance\n----\nu1 ten 5 1 1 1 3 1 INVX1\n",
			wantErr: parse.ErrNumber,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input), "bad.rpt", sampleLibrary(), sampleWindows, Options{})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
