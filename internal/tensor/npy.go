package tensor

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/sbinet/npyio"
)

// ReadNPY deserializes a NumPy .npy array into a Tensor. Only C-ordered
// numeric arrays are accepted; npyio converts the element type to float64.
func ReadNPY(r io.Reader) (*Tensor, error) {
	nr, err := npyio.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("read npy header: %w", err)
	}
	if nr.Header.Descr.Fortran {
		return nil, fmt.Errorf("read npy: fortran-ordered arrays are not supported")
	}

	shape := nr.Header.Descr.Shape
	n := 1
	for _, s := range shape {
		n *= s
	}
	data := make([]float64, n)
	if err := nr.Read(&data); err != nil {
		return nil, fmt.Errorf("read npy data: %w", err)
	}
	return FromData(shape, data)
}

// WriteNPY serializes a Tensor as a NumPy v1.0 .npy file with <f8 elements.
// npyio's writer only handles flat slices and 2-D matrices, so the n-d header
// is emitted here; the format is the fixed layout read back by ReadNPY.
func WriteNPY(w io.Writer, t *Tensor) error {
	dims := make([]string, t.Rank())
	for i, s := range t.Shape() {
		dims[i] = fmt.Sprintf("%d", s)
	}
	shape := strings.Join(dims, ", ")
	if t.Rank() == 1 {
		shape += ","
	}
	header := fmt.Sprintf("{'descr': '<f8', 'fortran_order': False, 'shape': (%s), }", shape)

	// Pad so that magic+version+len+header is a multiple of 64 bytes,
	// terminated by a newline, per the npy v1.0 format.
	base := 6 + 2 + 2 + len(header) + 1
	pad := (64 - base%64) % 64
	header += strings.Repeat(" ", pad) + "\n"

	if _, err := w.Write([]byte("\x93NUMPY\x01\x00")); err != nil {
		return fmt.Errorf("write npy magic: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(header))); err != nil {
		return fmt.Errorf("write npy header length: %w", err)
	}
	if _, err := io.WriteString(w, header); err != nil {
		return fmt.Errorf("write npy header: %w", err)
	}

	buf := make([]byte, 8*len(t.Data()))
	for i, v := range t.Data() {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write npy data: %w", err)
	}
	return nil
}
