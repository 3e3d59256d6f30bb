package graph

import (
	"fmt"
	"strings"
)

// Tensor is a dense multi-dimensional float32 array with row-major layout.
type Tensor struct {
	Shape []int
	Data  []float32
}

// NewTensor allocates a zero-filled tensor with the given shape.
func NewTensor(shape ...int) (*Tensor, error) {
	if !isValidShape(shape) {
		return nil, fmt.Errorf("invalid tensor shape %v", shape)
	}
	return &Tensor{
		Shape: append([]int(nil), shape...),
		Data:  make([]float32, Numel(shape)),
	}, nil
}

// Numel returns the number of elements for a shape.
func Numel(shape []int) int {
	n := 1
	for _, dim := range shape {
		n *= dim
	}
	return n
}

func isValidShape(shape []int) bool {
	if len(shape) == 0 {
		return false
	}
	for _, dim := range shape {
		if dim <= 0 {
			return false
		}
	}
	return true
}

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int {
	if t == nil {
		return 0
	}
	return len(t.Shape)
}

// At returns the element at the given indices.
func (t *Tensor) At(indices ...int) (float32, error) {
	offset, err := t.offset(indices)
	if err != nil {
		return 0, err
	}
	return t.Data[offset], nil
}

// Set writes the element at the given indices.
func (t *Tensor) Set(value float32, indices ...int) error {
	offset, err := t.offset(indices)
	if err != nil {
		return err
	}
	t.Data[offset] = value
	return nil
}

// Row returns a shared view of the last-axis vector selected by the leading
// indices. For a [batch, seq, dim] tensor, Row(b, s) is the dim-vector at
// position (b, s).
func (t *Tensor) Row(indices ...int) ([]float32, error) {
	if t == nil {
		return nil, fmt.Errorf("tensor is nil")
	}
	if len(indices) != len(t.Shape)-1 {
		return nil, fmt.Errorf("row selector has %d indices, tensor rank is %d", len(indices), len(t.Shape))
	}
	offset := 0
	for axis, index := range indices {
		if index < 0 || index >= t.Shape[axis] {
			return nil, fmt.Errorf("index %d out of range for axis %d (size %d)", index, axis, t.Shape[axis])
		}
		offset = offset*t.Shape[axis] + index
	}
	width := t.Shape[len(t.Shape)-1]
	offset *= width
	return t.Data[offset : offset+width], nil
}

func (t *Tensor) offset(indices []int) (int, error) {
	if t == nil {
		return 0, fmt.Errorf("tensor is nil")
	}
	if len(indices) != len(t.Shape) {
		return 0, fmt.Errorf("got %d indices for rank-%d tensor", len(indices), len(t.Shape))
	}
	offset := 0
	for axis, index := range indices {
		if index < 0 || index >= t.Shape[axis] {
			return 0, fmt.Errorf("index %d out of range for axis %d (size %d)", index, axis, t.Shape[axis])
		}
		offset = offset*t.Shape[axis] + index
	}
	return offset, nil
}

func (t *Tensor) String() string {
	if t == nil {
		return "Tensor(nil)"
	}
	dims := make([]string, len(t.Shape))
	for i, dim := range t.Shape {
		dims[i] = fmt.Sprintf("%d", dim)
	}
	return fmt.Sprintf("Tensor(%s)", strings.Join(dims, "x"))
}
