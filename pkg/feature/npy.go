package feature

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ctessum/sparse"
	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

var npyMagic = []byte("\x93NUMPY")

// WriteNPY writes a as a .npy array of little-endian float64 in C order.
// Two-dimensional maps go through npyio as a matrix; the (T, nx, ny) stack
// has no matrix form and gets a version 1.0 header of its own.
func WriteNPY(w io.Writer, a *sparse.DenseArray) error {
	if len(a.Shape) == 2 {
		m := mat.NewDense(a.Shape[0], a.Shape[1], a.Elements)
		if err := npyio.Write(w, m); err != nil {
			return fmt.Errorf("feature: write npy: %w", err)
		}
		return nil
	}
	return writeNPYStack(w, a)
}

func writeNPYStack(w io.Writer, a *sparse.DenseArray) error {
	dims := make([]string, len(a.Shape))
	for i, d := range a.Shape {
		dims[i] = strconv.Itoa(d)
	}
	shape := strings.Join(dims, ", ")
	if len(dims) == 1 {
		shape += ","
	}
	header := fmt.Sprintf("{'descr': '<f8', 'fortran_order': False, 'shape': (%s), }", shape)

	// magic(6) + version(2) + length(2) + header + '\n' is padded to 64.
	pre := len(npyMagic) + 4
	pad := 64 - (pre+len(header)+1)%64
	if pad == 64 {
		pad = 0
	}
	header += strings.Repeat(" ", pad) + "\n"

	var buf bytes.Buffer
	buf.Write(npyMagic)
	buf.Write([]byte{1, 0})
	if err := binary.Write(&buf, binary.LittleEndian, uint16(len(header))); err != nil {
		return err
	}
	buf.WriteString(header)
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("feature: write npy header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, a.Elements); err != nil {
		return fmt.Errorf("feature: write npy data: %w", err)
	}
	return nil
}
