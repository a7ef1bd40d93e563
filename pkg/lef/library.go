package lef

import (
	"fmt"
	"sort"
)

// Library is a set of macros keyed by name. It is filled once and then
// shared read-only.
type Library struct {
	Unit   float64
	Macros map[string]*Macro
}

// NewLibrary creates an empty library using the given unit scale.
func NewLibrary(unit float64) *Library {
	return &Library{Unit: unit, Macros: make(map[string]*Macro)}
}

// Add stores m, replacing any macro with the same name.
func (l *Library) Add(m *Macro) {
	l.Macros[m.Name] = m
}

// Lookup returns the macro with the given name.
func (l *Library) Lookup(name string) (*Macro, bool) {
	m, ok := l.Macros[name]
	return m, ok
}

// IsStdCell reports whether name is a standard cell of the library.
func (l *Library) IsStdCell(name string) bool {
	m, ok := l.Macros[name]
	return ok && m.IsStdCell()
}

// Names returns the macro names in sorted order.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.Macros))
	for name := range l.Macros {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of macros.
func (l *Library) Len() int { return len(l.Macros) }

// LoadFiles parses each path in order and merges its macros into the
// library. Later files override earlier definitions.
func (l *Library) LoadFiles(paths ...string) error {
	for _, path := range paths {
		lib, err := ParseFile(path, l.Unit)
		if err != nil {
			return fmt.Errorf("lef: load %s: %w", path, err)
		}
		for _, m := range lib.Macros {
			l.Add(m)
		}
	}
	return nil
}

// PinMaps returns the per-layer view of every macro.
func (l *Library) PinMaps() map[string]*PinMap {
	out := make(map[string]*PinMap, len(l.Macros))
	for name, m := range l.Macros {
		pm := &PinMap{Macro: name, Size: m.Size, Pins: make(map[string]LayerShapes, len(m.Pins)+1)}
		for pinName, pin := range m.Pins {
			pm.Pins[pinName] = pin.Layers
		}
		if len(m.Obstructions) > 0 {
			pm.Pins[ObstructionKey] = m.Obstructions
		}
		out[name] = pm
	}
	return out
}
