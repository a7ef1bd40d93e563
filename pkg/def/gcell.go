package def

import (
	"fmt"
	"sort"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// gcellLexer tokenizes a single GCELLGRID statement.
var gcellLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Int", Pattern: `[-+]?\d+`},
	{Name: "Punct", Pattern: `;`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var gcellParser = participle.MustBuild[GCellRow](
	participle.Lexer(gcellLexer),
	participle.Elide("Whitespace"),
)

// ParseGCellRow parses "GCELLGRID X|Y start DO count STEP step ;".
func ParseGCellRow(line string) (*GCellRow, error) {
	row, err := gcellParser.ParseString("", line)
	if err != nil {
		return nil, fmt.Errorf("def: malformed GCELLGRID row: %w", err)
	}
	if row.Count < 1 {
		return nil, fmt.Errorf("def: GCELLGRID %s count %d", row.Axis, row.Count)
	}
	return row, nil
}

// minGCellRows is the least number of GCELLGRID rows, over both axes, that
// can describe a 2D grid.
const minGCellRows = 3

// expandAxis turns the rows of one axis into upper cell boundaries. Rows are
// taken in ascending start order. The first row yields its lines after the
// origin, every later row extends the sequence by count steps.
func expandAxis(rows []*GCellRow) []float64 {
	sorted := append([]*GCellRow(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	first := sorted[0]
	total := first.Count - 1
	for _, r := range sorted[1:] {
		total += r.Count
	}
	out := make([]float64, 0, total)

	for k := 1; k < first.Count; k++ {
		out = append(out, float64(first.Start+k*first.Step))
	}
	last := float64(first.Start + (first.Count-1)*first.Step)
	for _, r := range sorted[1:] {
		for k := 0; k < r.Count; k++ {
			last += float64(r.Step)
			out = append(out, last)
		}
	}
	return out
}

func strictlyIncreasing(b []float64) bool {
	for i := 1; i < len(b); i++ {
		if b[i] <= b[i-1] {
			return false
		}
	}
	return true
}
