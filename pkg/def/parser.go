package def

import (
	"fmt"
	"io"
	"strings"

	"github.com/OpenTraceLab/irmap/pkg/layout"
	"github.com/OpenTraceLab/irmap/pkg/parse"
)

type section int

const (
	sectionIdle section = iota
	sectionComponents
	sectionNets
	sectionPins
	sectionGCellGrid
)

func (s section) String() string {
	switch s {
	case sectionIdle:
		return "idle"
	case sectionComponents:
		return "COMPONENTS"
	case sectionNets:
		return "NETS"
	case sectionPins:
		return "PINS"
	case sectionGCellGrid:
		return "GCELLGRID"
	}
	return fmt.Sprintf("section(%d)", int(s))
}

type parser struct {
	sc      *parse.Scanner
	d       *Design
	section section

	gcells   []*GCellRow
	gridDone bool

	// record buffers a component statement until its semicolon.
	record []string
	net    *Net
	pin    *IOPin
}

// Parse reads a DEF stream, decompressing it first when it is gzip.
func Parse(r io.Reader, source string) (*Design, error) {
	rd, err := parse.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("def: %s: %w", source, err)
	}
	p := &parser{sc: parse.NewScanner(rd, source), d: newDesign()}
	for p.sc.Scan() {
		if err := p.line(p.sc.Text()); err != nil {
			return nil, err
		}
	}
	if err := p.sc.Err(); err != nil {
		return nil, fmt.Errorf("def: read %s: %w", source, err)
	}
	if p.section == sectionGCellGrid {
		return nil, p.sc.Formatf("GCELLGRID rows without a VIAS terminator")
	}
	if p.section != sectionIdle {
		return nil, p.sc.Formatf("unterminated %s section", p.section)
	}
	return p.d, nil
}

// ParseFile reads a DEF file, gzip compressed or not.
func ParseFile(path string) (*Design, error) {
	f, err := parse.Open(path)
	if err != nil {
		return nil, fmt.Errorf("def: %w", err)
	}
	defer f.Close()
	return Parse(f, path)
}

func (p *parser) line(text string) error {
	fields := strings.Fields(text)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}

	switch fields[0] {
	case "DESIGN":
		if len(fields) > 1 {
			p.d.Name = fields[1]
		}
		return nil
	case "UNITS":
		if len(fields) < 4 {
			return p.sc.Formatf("malformed UNITS statement")
		}
		units, err := p.sc.Int(fields[3])
		if err != nil {
			return err
		}
		p.d.Units = units
		return nil
	case "DIEAREA":
		pts, err := p.points(fields[1:])
		if err != nil {
			return err
		}
		for _, pt := range pts {
			p.d.DieArea.Expand(pt)
		}
		return nil
	case "GCELLGRID":
		return p.gcellRow(text)
	case "VIAS":
		if p.section == sectionGCellGrid {
			return p.finishGrid()
		}
		return nil
	case "COMPONENTS":
		return p.enter(sectionComponents)
	case "NETS":
		return p.enter(sectionNets)
	case "PINS":
		return p.enter(sectionPins)
	case "SPECIALNETS":
		if p.section == sectionNets {
			p.section = sectionIdle
			p.net = nil
		}
		return nil
	case "END":
		if len(fields) > 1 {
			return p.end(fields[1])
		}
		return nil
	}

	switch p.section {
	case sectionComponents:
		return p.componentLine(fields)
	case sectionNets:
		return p.netLine(fields)
	case sectionPins:
		return p.pinLine(fields)
	}
	return nil
}

func (p *parser) enter(s section) error {
	if p.section == sectionGCellGrid {
		return p.sc.Formatf("%s section before the VIAS terminator of GCELLGRID", s)
	}
	p.section = s
	return nil
}

func (p *parser) end(name string) error {
	var s section
	switch name {
	case "COMPONENTS":
		s = sectionComponents
	case "NETS":
		s = sectionNets
	case "PINS":
		s = sectionPins
	default:
		return nil
	}
	if p.section != s {
		return nil
	}
	if p.record != nil {
		return p.unterminated()
	}
	p.section = sectionIdle
	p.net = nil
	p.pin = nil
	return nil
}

func (p *parser) gcellRow(text string) error {
	if p.gridDone {
		return p.sc.Formatf("GCELLGRID after the VIAS terminator")
	}
	row, err := ParseGCellRow(strings.TrimSpace(text))
	if err != nil {
		return p.sc.WrapFormat(err)
	}
	p.gcells = append(p.gcells, row)
	p.section = sectionGCellGrid
	return nil
}

func (p *parser) finishGrid() error {
	p.section = sectionIdle
	p.gridDone = true
	if len(p.gcells) < minGCellRows {
		return p.sc.Formatf("insufficient GCELLGRID rows: %d, need at least %d", len(p.gcells), minGCellRows)
	}
	var xs, ys []*GCellRow
	for _, r := range p.gcells {
		if r.Axis == "X" {
			xs = append(xs, r)
		} else {
			ys = append(ys, r)
		}
	}
	if len(xs) == 0 || len(ys) == 0 {
		return p.sc.Formatf("GCELLGRID needs rows for both axes (X: %d, Y: %d)", len(xs), len(ys))
	}
	p.d.GCellX = expandAxis(xs)
	p.d.GCellY = expandAxis(ys)
	if len(p.d.GCellX) == 0 || len(p.d.GCellY) == 0 {
		return p.sc.Formatf("GCELLGRID yields an empty axis")
	}
	if !strictlyIncreasing(p.d.GCellX) || !strictlyIncreasing(p.d.GCellY) {
		return p.sc.Formatf("GCELLGRID boundaries are not strictly increasing")
	}
	return nil
}

func (p *parser) componentLine(fields []string) error {
	switch {
	case fields[0] == "-":
		if p.record != nil {
			return p.unterminated()
		}
		p.record = append([]string(nil), fields...)
	case p.record != nil:
		p.record = append(p.record, fields...)
	default:
		return nil
	}
	if !endsStatement(fields) {
		return nil
	}
	record := p.record
	p.record = nil
	return p.component(record)
}

// unterminated reports the buffered component record that never reached its
// semicolon.
func (p *parser) unterminated() error {
	if len(p.record) < 2 {
		return p.sc.Formatf("malformed component statement")
	}
	return p.sc.Formatf("component %s not terminated by ';'", p.record[1])
}

// component handles "- name macro ... + PLACED|FIXED|COVER ( x y ) orient ;".
// Unplaced components are skipped.
func (p *parser) component(tokens []string) error {
	if len(tokens) < 3 {
		return p.sc.Formatf("malformed component statement")
	}
	inst := &Instance{Name: parse.Unescape(tokens[1]), Macro: tokens[2]}

	status := -1
	for i, tok := range tokens[3:] {
		if tok == "PLACED" || tok == "FIXED" || tok == "COVER" {
			status = i + 3
			break
		}
	}
	if status < 0 {
		return nil
	}
	inst.Status = tokens[status]

	loc, orient, err := p.placement(tokens[status+1:])
	if err != nil {
		return fmt.Errorf("%w (component %s)", err, inst.Name)
	}
	inst.Origin = loc
	inst.Orientation = orient
	p.d.addInstance(inst)
	return nil
}

// placement parses "( x y ) orient".
func (p *parser) placement(tokens []string) (layout.Position, layout.Orientation, error) {
	open := indexOf(tokens, "(")
	if open < 0 || open+4 >= len(tokens) {
		return layout.Position{}, 0, p.sc.Formatf("placement without a location")
	}
	x, err := p.sc.Float(tokens[open+1])
	if err != nil {
		return layout.Position{}, 0, err
	}
	y, err := p.sc.Float(tokens[open+2])
	if err != nil {
		return layout.Position{}, 0, err
	}
	o, err := layout.ParseOrientation(strings.TrimSuffix(tokens[open+4], ";"))
	if err != nil {
		return layout.Position{}, 0, p.sc.WrapFormat(err)
	}
	return layout.Position{X: x, Y: y}, o, nil
}

func (p *parser) netLine(fields []string) error {
	switch fields[0] {
	case "-":
		if len(fields) < 2 {
			return p.sc.Formatf("net without a name")
		}
		name := parse.Unescape(fields[1])
		p.net = &Net{Name: name}
		p.d.Nets[name] = p.net
		return p.terminals(fields[2:])
	case "(":
		return p.terminals(fields)
	}
	return nil
}

// terminals records the "( inst pin )" groups of a connection list. Routing
// attributes start at the first "+".
func (p *parser) terminals(tokens []string) error {
	for k, tok := range tokens {
		if tok == "+" {
			break
		}
		if tok != "(" || k+1 >= len(tokens) {
			continue
		}
		if p.net == nil {
			return p.sc.Formatf("net terminal outside a net")
		}
		id := tokens[k+1]
		if id == "PIN" && k+2 < len(tokens) {
			p.net.Pins = append(p.net.Pins, parse.Unescape(tokens[k+2]))
			continue
		}
		p.net.Terminals = append(p.net.Terminals, parse.Unescape(id))
	}
	return nil
}

func (p *parser) pinLine(fields []string) error {
	switch fields[0] {
	case "-":
		if len(fields) < 2 {
			return p.sc.Formatf("pin without a name")
		}
		p.pin = &IOPin{Name: fields[1]}
		p.d.Pins[p.pin.Name] = p.pin
		return p.pinClauses(fields[2:])
	case "+":
		if p.pin == nil {
			return p.sc.Formatf("pin attribute outside a pin")
		}
		return p.pinClauses(fields)
	}
	return nil
}

func (p *parser) pinClauses(tokens []string) error {
	for _, clause := range splitClauses(tokens) {
		switch clause[0] {
		case "NET":
			if len(clause) > 1 {
				p.pin.Net = parse.Unescape(clause[1])
			}
		case "DIRECTION":
			if len(clause) > 1 {
				p.pin.Direction = clause[1]
			}
		case "USE":
			if len(clause) > 1 {
				p.pin.Use = clause[1]
			}
		case "LAYER":
			if len(clause) < 2 {
				return p.sc.Formatf("pin %s LAYER without a name", p.pin.Name)
			}
			p.pin.Layer = clause[1]
			pts, err := p.points(clause[2:])
			if err != nil {
				return err
			}
			if len(pts) != 2 {
				return p.sc.Formatf("pin %s LAYER needs two corners, got %d", p.pin.Name, len(pts))
			}
			rect := layout.NewBoundingBox()
			rect.Expand(pts[0])
			rect.Expand(pts[1])
			p.pin.Rect = rect
			p.pin.HasRect = true
		case "PLACED", "FIXED", "COVER":
			loc, orient, err := p.placement(clause[1:])
			if err != nil {
				return err
			}
			p.pin.Status = clause[0]
			p.pin.Location = loc
			p.pin.Orientation = orient
		}
	}
	return nil
}

// points parses every "( x y )" group in tokens.
func (p *parser) points(tokens []string) ([]layout.Position, error) {
	var pts []layout.Position
	for k := 0; k < len(tokens); k++ {
		if tokens[k] != "(" {
			continue
		}
		if k+3 >= len(tokens) || tokens[k+3] != ")" {
			return nil, p.sc.Formatf("malformed point")
		}
		x, err := p.sc.Float(tokens[k+1])
		if err != nil {
			return nil, err
		}
		y, err := p.sc.Float(tokens[k+2])
		if err != nil {
			return nil, err
		}
		pts = append(pts, layout.Position{X: x, Y: y})
		k += 3
	}
	return pts, nil
}

// splitClauses splits "+ A ... + B ..." into its clauses.
func splitClauses(tokens []string) [][]string {
	var out [][]string
	var cur []string
	for _, tok := range tokens {
		if tok == "+" {
			if len(cur) > 0 {
				out = append(out, cur)
			}
			cur = nil
			continue
		}
		if tok == ";" {
			continue
		}
		cur = append(cur, tok)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

func endsStatement(fields []string) bool {
	return strings.HasSuffix(fields[len(fields)-1], ";")
}

func indexOf(tokens []string, want string) int {
	for i, tok := range tokens {
		if tok == want {
			return i
		}
	}
	return -1
}
