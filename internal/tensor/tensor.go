// Package tensor provides the dense n-dimensional float64 arrays the loader
// and reducer operate on, plus .npy serialization.
package tensor

import (
	"fmt"
	"slices"
)

// Tensor is a dense row-major (C order) n-dimensional array.
type Tensor struct {
	shape   []int
	strides []int
	data    []float64
}

// New allocates a zero-filled tensor with the given shape.
func New(shape ...int) *Tensor {
	n := 1
	for _, s := range shape {
		if s <= 0 {
			panic(fmt.Sprintf("tensor: non-positive axis size %d", s))
		}
		n *= s
	}
	return &Tensor{
		shape:   slices.Clone(shape),
		strides: rowMajorStrides(shape),
		data:    make([]float64, n),
	}
}

// FromData wraps an existing flat row-major slice. The slice is not copied.
func FromData(shape []int, data []float64) (*Tensor, error) {
	n := 1
	for _, s := range shape {
		if s <= 0 {
			return nil, fmt.Errorf("tensor: non-positive axis size %d in shape %v", s, shape)
		}
		n *= s
	}
	if len(data) != n {
		return nil, fmt.Errorf("tensor: shape %v needs %d elements, have %d", shape, n, len(data))
	}
	return &Tensor{
		shape:   slices.Clone(shape),
		strides: rowMajorStrides(shape),
		data:    data,
	}, nil
}

func rowMajorStrides(shape []int) []int {
	strides := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}
	return strides
}

// Rank returns the number of axes.
func (t *Tensor) Rank() int { return len(t.shape) }

// Shape returns the axis sizes. The caller must not modify the result.
func (t *Tensor) Shape() []int { return t.shape }

// Size returns the axis size at the given position.
func (t *Tensor) Size(axis int) int { return t.shape[axis] }

// Len returns the total element count.
func (t *Tensor) Len() int { return len(t.data) }

// Data returns the flat row-major backing slice.
func (t *Tensor) Data() []float64 { return t.data }

// At returns the element at the given index, one position per axis.
func (t *Tensor) At(idx ...int) float64 {
	return t.data[t.offset(idx)]
}

// Set assigns the element at the given index.
func (t *Tensor) Set(v float64, idx ...int) {
	t.data[t.offset(idx)] = v
}

func (t *Tensor) offset(idx []int) int {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("tensor: %d indices for rank-%d tensor", len(idx), len(t.shape)))
	}
	off := 0
	for i, ix := range idx {
		if ix < 0 || ix >= t.shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of range [0,%d) on axis %d", ix, t.shape[i], i))
		}
		off += ix * t.strides[i]
	}
	return off
}

// Squeeze removes the given axis, which must have size 1. The result shares
// the backing data.
func (t *Tensor) Squeeze(axis int) (*Tensor, error) {
	if axis < 0 || axis >= len(t.shape) {
		return nil, fmt.Errorf("tensor: squeeze axis %d out of range for rank %d", axis, len(t.shape))
	}
	if t.shape[axis] != 1 {
		return nil, fmt.Errorf("tensor: squeeze axis %d has size %d, want 1", axis, t.shape[axis])
	}
	shape := append(append(make([]int, 0, len(t.shape)-1), t.shape[:axis]...), t.shape[axis+1:]...)
	out, err := FromData(shape, t.data)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PrependAxis returns a view with a new leading axis of size 1, sharing the
// backing data.
func (t *Tensor) PrependAxis() *Tensor {
	shape := append([]int{1}, t.shape...)
	out, _ := FromData(shape, t.data)
	return out
}
