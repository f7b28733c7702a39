// Copyright 2026 Sprout ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprout-ml/sprout/nn"
	"github.com/sprout-ml/sprout/tensor"
)

func TestBuildAndTrainThroughPublicAPI(t *testing.T) {
	net, err := nn.New(nn.NewOutput(nn.Softmax, tensor.D1(10)),
		nn.NewConv(tensor.D2(28, 28), 5, 5, 8, 1, 0),
		nn.NewNonlinearity(nn.ReLU, tensor.D3(24, 24, 8)),
		nn.NewMaxPool(tensor.D3(24, 24, 8), tensor.D3(12, 12, 8)),
		nn.NewReshape(tensor.D3(12, 12, 8), tensor.D1(1152)),
		nn.NewDense(tensor.D1(1152), tensor.D1(10)),
	)
	require.NoError(t, err)

	in := tensor.Randn(tensor.D2(28, 28))
	out := net.FeedForward(in)
	require.Equal(t, tensor.D1(10), out.Dims())

	var total float32
	for _, v := range out.Data() {
		total += v
	}
	assert.InDelta(t, 1.0, total, 1e-4)

	want, err := tensor.FromSlice([]float32{0, 0, 0, 1, 0, 0, 0, 0, 0, 0}, tensor.D1(10))
	require.NoError(t, err)
	loss := net.Train(in, want, nn.Hyper{LearningRate: 0.01})
	assert.Greater(t, loss, float32(0))
}

func TestMismatchedStackErrors(t *testing.T) {
	_, err := nn.New(nn.NewOutput(nn.Softmax, tensor.D1(10)),
		nn.NewDense(tensor.D1(784), tensor.D1(128)),
		nn.NewDense(tensor.D1(64), tensor.D1(10)),
	)
	assert.Error(t, err)
}
