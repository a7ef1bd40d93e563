package lef

import (
	"fmt"
	"io"
	"strings"

	"github.com/OpenTraceLab/irmap/pkg/layout"
	"github.com/OpenTraceLab/irmap/pkg/parse"
)

type state int

const (
	stateOutside state = iota
	stateMacro
	statePin
	stateObs
)

func (s state) String() string {
	switch s {
	case stateOutside:
		return "outside"
	case stateMacro:
		return "macro"
	case statePin:
		return "pin"
	case stateObs:
		return "obstruction"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// parser is the line-driven state machine behind Parse and ParsePinMap.
type parser struct {
	sc   *parse.Scanner
	unit float64
	lib  *Library

	state state
	macro *Macro
	pin   *Pin
	layer string

	rects []layout.BoundingBox
	polys []layout.BoundingBox

	// poly collects a POLYGON that spans several lines; nil when idle.
	poly []float64
}

// Parse reads a LEF stream. Coordinates are multiplied by unit (DEF database
// units per micron). source names the stream in errors.
func Parse(r io.Reader, source string, unit float64) (*Library, error) {
	lib := NewLibrary(unit)
	if err := lib.read(r, source); err != nil {
		return nil, err
	}
	return lib, nil
}

// ParseFile reads a LEF file, gzip compressed or not.
func ParseFile(path string, unit float64) (*Library, error) {
	f, err := parse.Open(path)
	if err != nil {
		return nil, fmt.Errorf("lef: %w", err)
	}
	defer f.Close()
	return Parse(f, path, unit)
}

// ParsePinMap reads a LEF stream and returns, per macro, the rectangles of
// every pin and of the obstructions grouped by metal layer.
func ParsePinMap(r io.Reader, source string, unit float64) (map[string]*PinMap, error) {
	lib, err := Parse(r, source, unit)
	if err != nil {
		return nil, err
	}
	return lib.PinMaps(), nil
}

func (l *Library) read(r io.Reader, source string) error {
	p := &parser{
		sc:   parse.NewScanner(r, source),
		unit: l.Unit,
		lib:  l,
	}
	for p.sc.Scan() {
		if err := p.line(p.sc.Text()); err != nil {
			return err
		}
	}
	if err := p.sc.Err(); err != nil {
		return fmt.Errorf("lef: read %s: %w", source, err)
	}
	if p.poly != nil {
		return p.sc.Formatf("unterminated POLYGON")
	}
	if p.state != stateOutside {
		return p.sc.Formatf("unexpected end of file in %s of MACRO %s", p.state, p.macro.Name)
	}
	return nil
}

func (p *parser) line(text string) error {
	if i := strings.IndexByte(text, '#'); i >= 0 {
		text = text[:i]
	}
	fields := strings.Fields(text)
	if p.poly != nil {
		return p.polygon(fields)
	}
	if len(fields) == 0 {
		return nil
	}

	switch p.state {
	case stateOutside:
		if fields[0] == "MACRO" {
			if len(fields) < 2 {
				return p.sc.Formatf("MACRO without a name")
			}
			p.macro = newMacro(fields[1])
			p.state = stateMacro
		}
	case stateMacro:
		return p.macroLine(fields)
	case statePin:
		return p.pinLine(fields)
	case stateObs:
		return p.obsLine(fields)
	}
	return nil
}

func (p *parser) macroLine(fields []string) error {
	args := trimSemicolon(fields[1:])
	switch fields[0] {
	case "CLASS":
		p.macro.Class = strings.Join(args, " ")
	case "SIZE":
		if len(args) < 3 || args[1] != "BY" {
			return p.sc.Formatf("malformed SIZE in MACRO %s", p.macro.Name)
		}
		w, err := p.sc.Float(args[0])
		if err != nil {
			return err
		}
		h, err := p.sc.Float(args[2])
		if err != nil {
			return err
		}
		p.macro.Size = layout.Size{Width: w * p.unit, Height: h * p.unit}
	case "FOREIGN":
		return p.foreign(args)
	case "PIN":
		if len(args) < 1 {
			return p.sc.Formatf("PIN without a name in MACRO %s", p.macro.Name)
		}
		p.pin = &Pin{Name: args[0], Layers: make(LayerShapes)}
		p.layer = ""
		p.rects = p.rects[:0]
		p.polys = p.polys[:0]
		p.state = statePin
	case "OBS":
		p.layer = ""
		p.state = stateObs
	case "END":
		if len(args) > 0 && args[0] == p.macro.Name {
			p.lib.Add(p.macro)
			p.macro = nil
			p.state = stateOutside
		}
	}
	return nil
}

func (p *parser) foreign(args []string) error {
	if len(args) == 0 {
		return p.sc.Formatf("FOREIGN without a cell name in MACRO %s", p.macro.Name)
	}
	p.macro.Foreign = args[0]
	if len(args) >= 3 {
		x, err := p.sc.Float(args[1])
		if err != nil {
			return err
		}
		y, err := p.sc.Float(args[2])
		if err != nil {
			return err
		}
		p.macro.ForeignOrigin = &layout.Position{X: x * p.unit, Y: y * p.unit}
	}
	if len(args) >= 4 {
		o, err := layout.ParseOrientation(args[3])
		if err != nil {
			return p.sc.WrapFormat(err)
		}
		p.macro.ForeignOrientation = &o
	}
	return nil
}

func (p *parser) pinLine(fields []string) error {
	args := trimSemicolon(fields[1:])
	switch fields[0] {
	case "DIRECTION":
		p.pin.Direction = strings.Join(args, " ")
	case "USE":
		p.pin.Use = strings.Join(args, " ")
	case "LAYER":
		return p.setLayer(args)
	case "RECT":
		bb, err := p.rect(args)
		if err != nil {
			return err
		}
		p.rects = append(p.rects, bb)
		p.pin.Layers.Add(p.layer, bb)
	case "POLYGON":
		p.poly = []float64{}
		return p.polygon(fields[1:])
	case "END":
		// A bare END closes a PORT.
		if len(args) == 0 {
			return nil
		}
		p.finishPin()
		p.state = stateMacro
	}
	return nil
}

func (p *parser) obsLine(fields []string) error {
	args := trimSemicolon(fields[1:])
	switch fields[0] {
	case "LAYER":
		return p.setLayer(args)
	case "RECT":
		bb, err := p.rect(args)
		if err != nil {
			return err
		}
		p.macro.Obstructions.Add(p.layer, bb)
	case "POLYGON":
		p.poly = []float64{}
		return p.polygon(fields[1:])
	case "END":
		p.state = stateMacro
	}
	return nil
}

func (p *parser) setLayer(args []string) error {
	if len(args) == 0 {
		return p.sc.Formatf("LAYER without a name")
	}
	p.layer = args[0]
	return nil
}

// rect parses "[MASK n] [ITERATE] l b r t".
func (p *parser) rect(args []string) (layout.BoundingBox, error) {
	args = skipModifiers(args)
	if len(args) < 4 {
		return layout.BoundingBox{}, p.sc.Formatf("RECT needs 4 coordinates, got %d", len(args))
	}
	var v [4]float64
	for i := range v {
		f, err := p.sc.Float(args[i])
		if err != nil {
			return layout.BoundingBox{}, err
		}
		v[i] = f * p.unit
	}
	bb := layout.NewBoundingBox()
	bb.Expand(layout.Position{X: v[0], Y: v[1]})
	bb.Expand(layout.Position{X: v[2], Y: v[3]})
	return bb, nil
}

// polygon consumes vertex coordinates until the terminating semicolon.
func (p *parser) polygon(fields []string) error {
	if len(p.poly) == 0 {
		fields = skipModifiers(fields)
	}
	done := false
	for _, tok := range fields {
		if tok == ";" {
			done = true
			break
		}
		if strings.HasSuffix(tok, ";") {
			tok = strings.TrimSuffix(tok, ";")
			done = true
		}
		if tok != "" {
			v, err := p.sc.Float(tok)
			if err != nil {
				return err
			}
			p.poly = append(p.poly, v*p.unit)
		}
		if done {
			break
		}
	}
	if !done {
		return nil
	}

	vertices := p.poly
	p.poly = nil
	if len(vertices) < 2 || len(vertices)%2 != 0 {
		return p.sc.Formatf("POLYGON needs coordinate pairs, got %d values", len(vertices))
	}
	bb := layout.NewBoundingBox()
	for i := 0; i < len(vertices); i += 2 {
		bb.Expand(layout.Position{X: vertices[i], Y: vertices[i+1]})
	}
	if p.state == statePin {
		p.polys = append(p.polys, bb)
		p.pin.Layers.Add(p.layer, bb)
	} else {
		p.macro.Obstructions.Add(p.layer, bb)
	}
	return nil
}

func (p *parser) finishPin() {
	switch {
	case len(p.rects) > 0:
		union := layout.NewBoundingBox()
		for _, r := range p.rects {
			union.ExpandBox(r)
		}
		p.pin.Shapes = []layout.BoundingBox{union}
	case len(p.polys) > 0:
		p.pin.Shapes = append([]layout.BoundingBox(nil), p.polys...)
	}
	p.macro.Pins[p.pin.Name] = p.pin
	p.pin = nil
}

func trimSemicolon(args []string) []string {
	if n := len(args); n > 0 {
		if args[n-1] == ";" {
			return args[:n-1]
		}
		if last := strings.TrimSuffix(args[n-1], ";"); last != args[n-1] {
			out := append([]string(nil), args...)
			out[n-1] = last
			return out
		}
	}
	return args
}

func skipModifiers(args []string) []string {
	for len(args) > 0 {
		switch args[0] {
		case "MASK":
			if len(args) < 2 {
				return args[1:]
			}
			args = args[2:]
		case "ITERATE":
			args = args[1:]
		default:
			return args
		}
	}
	return args
}
