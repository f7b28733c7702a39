// Copyright 2026 Sprout ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu exposes Sprout's host tensor operations: matrix
// multiplication, correlation, pooling, activations, and reductions.
// These are the same routines the nn layers run on, so results match
// the training path exactly.
//
// Shape mismatches and unsupported configurations are programmer
// errors and panic.
package cpu

import (
	"github.com/sprout-ml/sprout/internal/backend/cpu"
	"github.com/sprout-ml/sprout/tensor"
)

// MatMul multiplies a and b with optional transposes, scaling every
// element of the result:
//
//	C = scale * op(A) @ op(B)
//
// Both inputs must be rank-2.
func MatMul(a, b *tensor.Tensor, transposeA, transposeB bool, scale float32) *tensor.Tensor {
	return cpu.MatMul(a, b, transposeA, transposeB, scale)
}

// Transpose returns the transpose of a rank-2 tensor.
func Transpose(t *tensor.Tensor) *tensor.Tensor {
	return cpu.Transpose(t)
}

// Add returns a + scale*b for equal-shaped tensors.
func Add(a, b *tensor.Tensor, scale float32) *tensor.Tensor {
	return cpu.AddTensors(a, b, scale)
}

// CorrelateOutputDim computes the output extent of a correlation:
// in/stride - k + 1 - 2*inset.
func CorrelateOutputDim(in, k, stride, inset int) int {
	return cpu.CorrelateOutputDim(in, k, stride, inset)
}

// Correlate cross-correlates a kernel spanning the source depth
// against the source, producing a single plane. Reads outside the
// source are zero, so a negative inset pads the output.
func Correlate(src, kernel *tensor.Tensor, stride, inset int) *tensor.Tensor {
	return cpu.Correlate(src, kernel, stride, inset)
}

// CorrelateAll correlates a bank of kernels, stacking one biased plane
// per kernel.
func CorrelateAll(src *tensor.Tensor, kernels []*tensor.Tensor, biases []float32, stride, inset int) *tensor.Tensor {
	return cpu.CorrelateAll(src, kernels, biases, stride, inset)
}

// MaxPool shrinks each plane by taking window maxima, returning the
// pooled tensor and the flat source index that won each window.
func MaxPool(src *tensor.Tensor, outDims tensor.Dims) (*tensor.Tensor, []int) {
	return cpu.MaxPool(src, outDims)
}

// Sigmoid applies the logistic function element-wise in place.
func Sigmoid(t *tensor.Tensor) { cpu.Sigmoid(t.Data(), t.Data()) }

// Tanh applies the hyperbolic tangent element-wise in place.
func Tanh(t *tensor.Tensor) { cpu.TanhOf(t.Data(), t.Data()) }

// ReLU applies max(x, 0) element-wise in place.
func ReLU(t *tensor.Tensor) { cpu.Relu(t.Data(), t.Data()) }

// Softmax normalizes the tensor into a distribution in place, with max
// subtraction for numerical stability.
func Softmax(t *tensor.Tensor) { cpu.Softmax(t.Data(), t.Data()) }

// Sum returns the sum of all elements.
func Sum(t *tensor.Tensor) float32 { return cpu.Sum(t.Data()) }

// Max returns the largest element.
func Max(t *tensor.Tensor) float32 { return cpu.Max(t.Data()) }

// Argmax returns the flat index of the largest element, -1 if empty.
func Argmax(t *tensor.Tensor) int { return cpu.Argmax(t.Data()) }
