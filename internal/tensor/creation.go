package tensor

import "math/rand"

// Zeros creates a zero-filled tensor.
func Zeros(dims Dims) *Tensor {
	return New(dims)
}

// Full creates a tensor filled with value.
func Full(dims Dims, value float32) *Tensor {
	t := New(dims)
	for i := range t.data {
		t.data[i] = value
	}
	return t
}

// Ones creates a tensor filled with ones.
func Ones(dims Dims) *Tensor {
	return Full(dims, 1)
}

// Eye creates an n×n identity matrix.
func Eye(n int) *Tensor {
	t := New(D2(n, n))
	for i := 0; i < n; i++ {
		t.data[i*n+i] = 1
	}
	return t
}

// Randn creates a tensor with values drawn from N(0, 1).
func Randn(dims Dims) *Tensor {
	t := New(dims)
	for i := range t.data {
		//nolint:gosec // math/rand is fine for weight initialization
		t.data[i] = float32(rand.NormFloat64())
	}
	return t
}
