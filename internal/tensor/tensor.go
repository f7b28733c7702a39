// Package tensor provides fixed-rank dense float32 containers.
//
// A Tensor is at most rank 3 and is backed by a single contiguous
// buffer in row-major order (x fastest, then y, then z). Every derived
// tensor owns its buffer outright: nothing in this package or its
// consumers aliases two tensors to the same storage.
package tensor

import "fmt"

// Tensor is a rank 1/2/3 dense float32 container.
type Tensor struct {
	dims Dims
	data []float32
}

// New creates a zero-filled tensor with the given dims.
func New(dims Dims) *Tensor {
	if err := dims.Validate(); err != nil {
		panic(fmt.Sprintf("tensor: %v", err))
	}
	return &Tensor{
		dims: dims,
		data: make([]float32, dims.Volume()),
	}
}

// FromSlice creates a tensor that copies data into its own buffer.
func FromSlice(data []float32, dims Dims) (*Tensor, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	if len(data) != dims.Volume() {
		return nil, fmt.Errorf("dims %v require %d elements, got %d", dims, dims.Volume(), len(data))
	}
	t := New(dims)
	copy(t.data, data)
	return t, nil
}

// Dims returns the tensor's dimensions.
func (t *Tensor) Dims() Dims { return t.dims }

// Width returns the extent along x.
func (t *Tensor) Width() int { return t.dims.Width }

// Height returns the extent along y.
func (t *Tensor) Height() int { return t.dims.Height }

// Depth returns the extent along z.
func (t *Tensor) Depth() int { return t.dims.Depth }

// Volume returns the total number of elements.
func (t *Tensor) Volume() int { return t.dims.Volume() }

// Data returns the backing buffer. The slice accesses the tensor's own
// memory; writes through it mutate the tensor.
func (t *Tensor) Data() []float32 { return t.data }

func (t *Tensor) index(x, y, z int) int {
	return (z*t.dims.Height+y)*t.dims.Width + x
}

func (t *Tensor) inBounds(x, y, z int) bool {
	return x >= 0 && x < t.dims.Width &&
		y >= 0 && y < t.dims.Height &&
		z >= 0 && z < t.dims.Depth
}

// At returns the element at (x, y, z). Panics when out of bounds.
func (t *Tensor) At(x, y, z int) float32 {
	if !t.inBounds(x, y, z) {
		panic(fmt.Sprintf("tensor: index (%d,%d,%d) out of bounds for %v", x, y, z, t.dims))
	}
	return t.data[t.index(x, y, z)]
}

// Set stores v at (x, y, z). Panics when out of bounds.
func (t *Tensor) Set(v float32, x, y, z int) {
	if !t.inBounds(x, y, z) {
		panic(fmt.Sprintf("tensor: index (%d,%d,%d) out of bounds for %v", x, y, z, t.dims))
	}
	t.data[t.index(x, y, z)] = v
}

// AtPadded returns the element at (x, y, z), or zero when the index
// falls outside the tensor. Convolution relies on this to realize
// implicit zero padding at the boundary.
func (t *Tensor) AtPadded(x, y, z int) float32 {
	if !t.inBounds(x, y, z) {
		return 0
	}
	return t.data[t.index(x, y, z)]
}

// Clone returns a deep copy with its own buffer.
func (t *Tensor) Clone() *Tensor {
	c := New(t.dims)
	copy(c.data, t.data)
	return c
}

// Reversed returns a new tensor whose flattened buffer holds the
// elements in reverse order. This is a reflection about the center of
// the flat buffer, not a per-axis spatial flip; convolution backward
// depends on exactly this ordering to turn a correlation kernel into a
// convolution kernel.
func (t *Tensor) Reversed() *Tensor {
	r := New(t.dims)
	n := len(t.data)
	for i, v := range t.data {
		r.data[n-1-i] = v
	}
	return r
}

// Reshaped returns a copy reinterpreted with new dims. The volumes
// must match; a mismatch is a programmer error and panics.
func (t *Tensor) Reshaped(dims Dims) *Tensor {
	if dims.Volume() != t.dims.Volume() {
		panic(fmt.Sprintf("tensor: cannot reshape %v (volume %d) to %v (volume %d)",
			t.dims, t.dims.Volume(), dims, dims.Volume()))
	}
	r := New(dims)
	copy(r.data, t.data)
	return r
}

func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor%v", t.dims)
}
