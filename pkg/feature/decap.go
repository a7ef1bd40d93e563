package feature

// DecapTable maps a decoupling capacitor cell to its capacitance.
type DecapTable map[string]float64

// DefaultDecapTable returns the capacitances of the DECAP2..DECAP10 cells of
// the reference 45nm library.
func DefaultDecapTable() DecapTable {
	return DecapTable{
		"DECAP2":  1.2,
		"DECAP3":  2.4,
		"DECAP4":  2.5,
		"DECAP5":  1.2,
		"DECAP6":  1.1,
		"DECAP7":  1.0,
		"DECAP8":  0.5,
		"DECAP9":  0.5,
		"DECAP10": 1.0,
	}
}
