// Copyright 2026 Sprout ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/sprout-ml/sprout/internal/tensor"
)

// Dims describes a tensor's extents: width, height, depth.
type Dims = tensor.Dims

// Tensor is a dense float32 container of rank 1 to 3.
type Tensor = tensor.Tensor

// D1 builds the Dims of a vector.
func D1(w int) Dims { return tensor.D1(w) }

// D2 builds the Dims of a matrix.
func D2(w, h int) Dims { return tensor.D2(w, h) }

// D3 builds the Dims of a cube.
func D3(w, h, d int) Dims { return tensor.D3(w, h, d) }

// New creates a zero-valued tensor. It panics on invalid dims.
func New(dims Dims) *Tensor {
	return tensor.New(dims)
}

// FromSlice copies data into a new tensor's own buffer; the caller
// keeps the slice. Returns an error if the slice length does not match
// the volume.
func FromSlice(data []float32, dims Dims) (*Tensor, error) {
	return tensor.FromSlice(data, dims)
}

// Zeros creates a tensor filled with zeros.
func Zeros(dims Dims) *Tensor {
	return tensor.Zeros(dims)
}

// Ones creates a tensor filled with ones.
func Ones(dims Dims) *Tensor {
	return tensor.Ones(dims)
}

// Full creates a tensor filled with value.
func Full(dims Dims, value float32) *Tensor {
	return tensor.Full(dims, value)
}

// Eye creates an n x n identity matrix.
func Eye(n int) *Tensor {
	return tensor.Eye(n)
}

// Randn creates a tensor filled with standard normal samples.
func Randn(dims Dims) *Tensor {
	return tensor.Randn(dims)
}
