// Copyright 2026 Sprout ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/sprout-ml/sprout/internal/nn"
	"github.com/sprout-ml/sprout/internal/tensor"
)

// Layer is a single stage of a feed-forward network.
type Layer = nn.Layer

// Hyper bundles the per-step training hyper-parameters.
type Hyper = nn.Hyper

// Activation identifies an element-wise nonlinearity.
type Activation = nn.Activation

// Activation kinds.
const (
	Linear  Activation = nn.Linear
	ReLU    Activation = nn.ReLU
	Sigmoid Activation = nn.Sigmoid
	Tanh    Activation = nn.Tanh
	Softmax Activation = nn.Softmax
)

// Network chains layers and terminates them with an output policy.
type Network = nn.Network

// Output is a network's terminal policy: output activation, loss, and
// the delta seeding the backward pass.
type Output = nn.Output

// Layer types.
type (
	// Dense is a fully connected layer with a trained bias row.
	Dense = nn.Dense
	// Conv cross-correlates a bank of kernels against its input.
	Conv = nn.Conv
	// MaxPool downsamples by taking window maxima.
	MaxPool = nn.MaxPool
	// Reshape reinterprets its input under new dimensions.
	Reshape = nn.Reshape
	// Nonlinearity applies an activation element-wise.
	Nonlinearity = nn.Nonlinearity
)

// New builds a network, validating that adjacent layer shapes line up.
func New(output *Output, layers ...Layer) (*Network, error) {
	return nn.New(output, layers...)
}

// NewOutput builds an output policy for the given activation and
// dimensions. Softmax pairs with cross-entropy loss; everything else
// pairs with half squared error.
func NewOutput(act Activation, dims tensor.Dims) *Output {
	return nn.NewOutput(act, dims)
}

// NewDense builds a fully connected layer mapping in to out.
func NewDense(in, out tensor.Dims) *Dense {
	return nn.NewDense(in, out)
}

// NewConv builds a correlation layer with count kernels of
// kernelW x kernelH spanning the input depth. A negative inset grows
// the output by reading implicit zeros outside the input.
func NewConv(in tensor.Dims, kernelW, kernelH, count, stride, inset int) *Conv {
	return nn.NewConv(in, kernelW, kernelH, count, stride, inset)
}

// NewMaxPool builds a pooling layer shrinking in to out; the window is
// implied by the ratio, which must divide evenly.
func NewMaxPool(in, out tensor.Dims) *MaxPool {
	return nn.NewMaxPool(in, out)
}

// NewReshape builds a volume-preserving shape adapter.
func NewReshape(in, out tensor.Dims) *Reshape {
	return nn.NewReshape(in, out)
}

// NewNonlinearity builds a shape-preserving activation layer.
func NewNonlinearity(act Activation, dims tensor.Dims) *Nonlinearity {
	return nn.NewNonlinearity(act, dims)
}
