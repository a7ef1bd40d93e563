package feature

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// Dimension names of the netCDF layout.
const (
	dimT = "t"
	dimX = "x"
	dimY = "y"
)

// WriteNetCDF writes every channel plus the grid boundaries as variables of a
// classic netCDF file.
func WriteNetCDF(w *os.File, m *Maps) error {
	nt := m.PowerT.Shape[0]
	nx, ny := m.Grid.NX(), m.Grid.NY()

	h := cdf.NewHeader([]string{dimT, dimX, dimY}, []int{nt, nx, ny})
	h.AddAttribute("", "design", m.Name)
	h.AddAttribute("", "nx", []int32{int32(nx)})
	h.AddAttribute("", "ny", []int32{int32(ny)})
	h.AddAttribute("", "time_windows", []int32{int32(nt)})
	h.AddAttribute("", "die_edge", []float64{m.Grid.DieEdge})

	chans := m.Channels()
	for _, ch := range chans {
		dims := []string{dimX, dimY}
		if len(ch.Data.Shape) == 3 {
			dims = []string{dimT, dimX, dimY}
		}
		h.AddVariable(ch.Name, dims, []float32{0})
		h.AddAttribute(ch.Name, "description", ch.Description)
		h.AddAttribute(ch.Name, "units", ch.Units)
	}
	h.AddVariable("x_bounds", []string{dimX}, []float64{0})
	h.AddAttribute("x_bounds", "description", "upper cell boundaries along x")
	h.AddVariable("y_bounds", []string{dimY}, []float64{0})
	h.AddAttribute("y_bounds", "description", "upper cell boundaries along y")
	h.Define()

	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("feature: create netcdf: %w", err)
	}
	for _, ch := range chans {
		if err := writeVar(f, ch.Name, ch.Data); err != nil {
			return fmt.Errorf("feature: write variable %s: %w", ch.Name, err)
		}
	}
	for name, b := range map[string][]float64{"x_bounds": m.Grid.X, "y_bounds": m.Grid.Y} {
		wr := f.Writer(name, []int{0}, []int{len(b)})
		if _, err := wr.Write(b); err != nil {
			return fmt.Errorf("feature: write variable %s: %w", name, err)
		}
	}
	if err := cdf.UpdateNumRecs(w); err != nil {
		return fmt.Errorf("feature: update netcdf records: %w", err)
	}
	return nil
}

func writeVar(f *cdf.File, name string, data *sparse.DenseArray) error {
	n := 1
	for _, v := range data.Shape {
		n *= v
	}
	if len(data.Elements) != n {
		return fmt.Errorf("dims are %d but array length is %d", n, len(data.Elements))
	}
	data32 := make([]float32, len(data.Elements))
	for i, e := range data.Elements {
		data32[i] = float32(e)
	}
	end := f.Header.Lengths(name)
	start := make([]int, len(end))
	if _, err := f.Writer(name, start, end).Write(data32); err != nil {
		return err
	}
	return nil
}

// ReadNetCDF loads every float variable of a file written by WriteNetCDF.
// The grid boundary variables are returned as one-dimensional arrays.
func ReadNetCDF(rw cdf.ReaderWriterAt) (map[string]*sparse.DenseArray, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("feature: open netcdf: %w", err)
	}
	out := make(map[string]*sparse.DenseArray)
	for _, v := range f.Header.Variables() {
		data := sparse.ZerosDense(f.Header.Lengths(v)...)
		r := f.Reader(v, nil, nil)
		switch v {
		case "x_bounds", "y_bounds":
			if _, err := r.Read(data.Elements); err != nil {
				return nil, fmt.Errorf("feature: read variable %s: %w", v, err)
			}
		default:
			tmp := make([]float32, len(data.Elements))
			if _, err := r.Read(tmp); err != nil {
				return nil, fmt.Errorf("feature: read variable %s: %w", v, err)
			}
			for i, e := range tmp {
				data.Elements[i] = float64(e)
			}
		}
		out[v] = data
	}
	return out, nil
}
